package loom

import (
	"sort"

	"github.com/TheBitDrifter/mask"
)

// MaxComponentTypes bounds how many distinct component types a single
// Registry can back with a fast bitmask comparison (mask.Mask256 is a
// fixed 256-bit set, mirroring the teacher's archetype mask and the
// 256-type ceiling used by the in-pack reference ECS).
const MaxComponentTypes = 256

// Spec is a sorted, duplicate-free sequence of TypeIDs naming an
// archetype, per spec.md §3. Equality is element-wise; a cached
// mask.Mask256 makes subset/superset/intersection tests O(1) instead of
// O(n) for specs whose members all fall below MaxComponentTypes.
type Spec struct {
	ids  []TypeID
	bits mask.Mask256
}

// NewSpec builds a canonical Spec from an arbitrary, possibly unsorted,
// possibly duplicated list of TypeIDs.
func NewSpec(ids ...TypeID) Spec {
	cp := append([]TypeID(nil), ids...)
	sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })
	out := cp[:0]
	var bits mask.Mask256
	for i, id := range cp {
		if i > 0 && id == cp[i-1] {
			continue
		}
		out = append(out, id)
		if id < MaxComponentTypes {
			bits.Mark(uint32(id))
		}
	}
	return Spec{ids: out, bits: bits}
}

// Len returns the number of distinct type ids in the spec.
func (s Spec) Len() int { return len(s.ids) }

// IDs returns the canonical, sorted, duplicate-free id list. Callers
// must not mutate the returned slice.
func (s Spec) IDs() []TypeID { return s.ids }

// Contains reports whether id is a member of the spec.
func (s Spec) Contains(id TypeID) bool {
	i := sort.Search(len(s.ids), func(i int) bool { return s.ids[i] >= id })
	return i < len(s.ids) && s.ids[i] == id
}

// With returns a new Spec equal to s plus id (a no-op if already present).
func (s Spec) With(id TypeID) Spec {
	if s.Contains(id) {
		return s
	}
	return NewSpec(append(append([]TypeID(nil), s.ids...), id)...)
}

// Without returns a new Spec equal to s minus id (a no-op if absent).
func (s Spec) Without(id TypeID) Spec {
	if !s.Contains(id) {
		return s
	}
	out := make([]TypeID, 0, len(s.ids)-1)
	for _, existing := range s.ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return NewSpec(out...)
}

// Equal reports element-wise equality with other.
func (s Spec) Equal(other Spec) bool {
	if len(s.ids) != len(other.ids) {
		return false
	}
	for i, id := range s.ids {
		if other.ids[i] != id {
			return false
		}
	}
	return true
}

// IsSubsetOf reports whether every id in s is also in other.
func (s Spec) IsSubsetOf(other Spec) bool {
	return other.bits.ContainsAll(s.bits) && s.isSubsetOfSlow(other)
}

// isSubsetOfSlow covers ids at or beyond MaxComponentTypes, which the
// cached bitmask cannot represent.
func (s Spec) isSubsetOfSlow(other Spec) bool {
	for _, id := range s.ids {
		if id < MaxComponentTypes {
			continue
		}
		if !other.Contains(id) {
			return false
		}
	}
	return true
}

// Intersection returns the ids present in both s and other.
func (s Spec) Intersection(other Spec) Spec {
	var out []TypeID
	i, j := 0, 0
	for i < len(s.ids) && j < len(other.ids) {
		switch {
		case s.ids[i] == other.ids[j]:
			out = append(out, s.ids[i])
			i++
			j++
		case s.ids[i] < other.ids[j]:
			i++
		default:
			j++
		}
	}
	return NewSpec(out...)
}

// Difference returns the ids present in s but absent from other.
func (s Spec) Difference(other Spec) Spec {
	var out []TypeID
	for _, id := range s.ids {
		if !other.Contains(id) {
			out = append(out, id)
		}
	}
	return NewSpec(out...)
}

// Mask exposes the cached bitmask for callers (e.g. the query planner)
// that want to fold a Spec comparison into the same mask arithmetic the
// teacher uses for archetype/query evaluation.
func (s Spec) Mask() mask.Mask256 { return s.bits }
