package loom

// QueryPlan is compiled once per View and reused across every Each call
// (spec.md §4.5, "a query plan is compiled once"): it records the
// required and excluded specs, and re-derives the matching table list
// from Storage.Tables() on demand rather than caching table pointers,
// since new archetypes can appear between calls. Grounded on the
// teacher's query.go evaluator, simplified from an arbitrary And/Or/Not
// tree (which this runtime's compile-time typed Views make unnecessary)
// down to the required-and-excluded-mask shape a View actually needs.
type QueryPlan struct {
	required Spec
	excluded Spec
}

func newQueryPlan(required, excluded Spec) *QueryPlan {
	return &QueryPlan{required: required, excluded: excluded}
}

// Matches reports whether a table's archetype satisfies the plan: every
// required type present, none of the excluded types present. Uses the
// cached mask.Mask256 on both specs so the common case is two O(1)
// bitmask comparisons rather than a pair of sorted-slice walks.
func (p *QueryPlan) Matches(t *Table) bool {
	ts := t.Spec()
	if !p.required.IsSubsetOf(ts) {
		return false
	}
	if p.excluded.Len() == 0 {
		return true
	}
	return ts.Mask().ContainsNone(p.excluded.Mask()) && p.excludedSlow(ts)
}

// excludedSlow covers excluded ids at or beyond MaxComponentTypes.
func (p *QueryPlan) excludedSlow(ts Spec) bool {
	for _, id := range p.excluded.IDs() {
		if id < MaxComponentTypes {
			continue
		}
		if ts.Contains(id) {
			return false
		}
	}
	return true
}

// MatchingTables returns every table in s currently satisfying the plan.
func (p *QueryPlan) MatchingTables(s *Storage) []*Table {
	all := s.Tables()
	out := make([]*Table, 0, len(all))
	for _, t := range all {
		if p.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// lockBitQuery marks the world as locked for read/write iteration by a
// View's Each call, per spec.md's "structural mutations during
// iteration are forbidden" — here realized as "diverted to the command
// queue" rather than a hard error, matching the Commands design.
const lockBitQuery uint32 = 1

// lockBitSchedule is a lock bit reserved for a scheduler that owns a
// parallel group of shards. Nothing in this module sets it; the schedule
// subpackage runs groups without locking the world.
const lockBitSchedule uint32 = 2
