package loom

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// AccessMode distinguishes a shared (read) query/resource parameter
// from an exclusive (write) one, per spec.md §4.6 ("shared query,
// exclusive query... shared resource, exclusive resource"). Go has no
// const-reference type, so both modes hand back a *T; AccessMode exists
// purely to drive the scheduler's conflict detection, not to restrict
// the Go type system's aliasing.
type AccessMode int

const (
	// AccessRead grants read access: it never conflicts with another
	// AccessRead on the same key, only with an AccessWrite.
	AccessRead AccessMode = iota
	// AccessWrite grants exclusive access: it conflicts with any other
	// access (read or write) on the same key.
	AccessWrite
)

// AccessKey identifies one thing a system's parameter can touch: either
// a component type within the world's component space, or a resource's
// type. The scheduler (the schedule subpackage) merges an AccessRequest
// per system and colors systems with disjoint AccessRequests into the
// same parallel group.
type AccessKey struct {
	component  TypeID
	resource   ResourceKey
	isResource bool
	event      reflect.Type
	eventRole  eventRole
}

// eventRole distinguishes a Producer's key from a Consumer's key for
// the same event type E, so the two never collide in Conflicts even
// though they name the same underlying buffer (spec.md §6: "Producer
// and Consumer are distinct resources for scheduling purposes and never
// conflict with each other").
type eventRole int

const (
	eventRoleNone eventRole = iota
	eventRoleProducer
	eventRoleConsumer
)

// ComponentKey builds an AccessKey naming a component type.
func ComponentKey(id TypeID) AccessKey { return AccessKey{component: id} }

// ResourceAccessKey builds an AccessKey naming a resource type.
func ResourceAccessKey(key ResourceKey) AccessKey {
	return AccessKey{resource: key, isResource: true}
}

func producerKey[E any]() AccessKey {
	return AccessKey{event: eventRType[E](), eventRole: eventRoleProducer}
}

func consumerKey[E any]() AccessKey {
	return AccessKey{event: eventRType[E](), eventRole: eventRoleConsumer}
}

func eventRType[E any]() reflect.Type {
	var zero E
	rt := reflect.TypeOf(zero)
	if rt == nil {
		rt = reflect.TypeOf((*E)(nil)).Elem()
	}
	return rt
}

// AccessEntry pairs a key with the mode a system requests on it.
type AccessEntry struct {
	Key  AccessKey
	Mode AccessMode
}

// AccessRequest is the merged set of everything one system touches,
// per spec.md §4.6 ("A system's AccessRequest is the merge of its
// parameters'. Merging is commutative"). The exclusive-world marker
// (spec.md's "a shared world reference (exclusive-world marker)") is
// represented separately via World() below, since it conflicts with
// every other system rather than with a specific key.
type AccessRequest struct {
	entries        []AccessEntry
	exclusiveWorld bool
}

// NewAccessRequest builds an AccessRequest from a list of entries.
func NewAccessRequest(entries ...AccessEntry) AccessRequest {
	return AccessRequest{entries: entries}
}

// World marks the request as needing the whole world exclusively (a
// system with a §4.6 "shared world reference" parameter): it conflicts
// with every other system, forcing it into its own sequential phase.
func (r AccessRequest) World() AccessRequest {
	r.exclusiveWorld = true
	return r
}

// IsExclusiveWorld reports whether this request demands whole-world
// exclusivity.
func (r AccessRequest) IsExclusiveWorld() bool { return r.exclusiveWorld }

// Merge combines r with other, concatenating entries (duplicates are
// harmless: Conflicts only cares about the strongest mode present per
// key, and the scheduler re-derives that when it builds shards).
func (r AccessRequest) Merge(other AccessRequest) AccessRequest {
	return AccessRequest{
		entries:        append(append([]AccessEntry(nil), r.entries...), other.entries...),
		exclusiveWorld: r.exclusiveWorld || other.exclusiveWorld,
	}
}

// Entries returns the request's access entries.
func (r AccessRequest) Entries() []AccessEntry { return r.entries }

// CanonicalKey returns a deterministic string identifying r's exact set
// of (key, mode) pairs, independent of entry order or duplicates — used
// by the scheduler to bundle systems whose access sets are identical
// (spec.md §4.7, "Bundles remaining systems whose access sets are
// identical into a single execution unit").
func (r AccessRequest) CanonicalKey() string {
	seen := make(map[string]AccessMode, len(r.entries))
	for _, e := range r.entries {
		k := e.Key.String()
		if prev, ok := seen[k]; !ok || e.Mode > prev {
			seen[k] = e.Mode
		}
	}
	parts := make([]string, 0, len(seen))
	for k, mode := range seen {
		parts = append(parts, fmt.Sprintf("%s:%d", k, mode))
	}
	sort.Strings(parts)
	prefix := "w0"
	if r.exclusiveWorld {
		prefix = "w1"
	}
	return prefix + "|" + strings.Join(parts, ",")
}

// String renders an AccessKey for diagnostics and CanonicalKey.
func (k AccessKey) String() string {
	switch {
	case k.isResource:
		return "resource:" + k.resource.String()
	case k.event != nil:
		return fmt.Sprintf("event:%s:%d", k.event, k.eventRole)
	default:
		return fmt.Sprintf("component:%d", k.component)
	}
}

// Conflicts reports whether r and other cannot run concurrently: either
// one demands whole-world exclusivity, or they share a key where at
// least one side wants AccessWrite (write-vs-write or write-vs-read),
// per spec.md §4.6.
func (r AccessRequest) Conflicts(other AccessRequest) bool {
	if r.exclusiveWorld || other.exclusiveWorld {
		return true
	}
	for _, a := range r.entries {
		for _, b := range other.entries {
			if a.Key != b.Key {
				continue
			}
			if a.Mode == AccessWrite || b.Mode == AccessWrite {
				return true
			}
		}
	}
	return false
}
