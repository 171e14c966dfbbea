package loom

import (
	"reflect"
	"sync"

	"github.com/TheBitDrifter/bark"
	"github.com/pkg/errors"
)

// ErrResourceNotFound is returned when a resource is requested that was
// never registered.
var ErrResourceNotFound = errors.New("loom: resource not registered")

// resources is the world's singleton store, keyed by reflect.Type —
// adapted from the teacher's Registry (registry-style map, here
// specialized to one value per type rather than per-entity rows), since
// spec.md §5's resources are process-wide singletons rather than
// per-archetype columns.
type resources struct {
	mu    sync.RWMutex
	byKey map[reflect.Type]any
}

func newResources() *resources {
	return &resources{byKey: make(map[reflect.Type]any)}
}

// ResourceKey identifies a registered resource type for access-conflict
// bookkeeping in the scheduler (AccessRequest), independent of
// a component TypeID space.
type ResourceKey struct {
	rtype reflect.Type
}

func (k ResourceKey) String() string { return k.rtype.String() }

// Resource is the handle returned by RegisterResource[T], used by both
// direct World access and the System Parameter Protocol's resource
// params (spec.md §6).
type Resource[T any] struct {
	key ResourceKey
}

// Key returns the resource's ResourceKey.
func (r Resource[T]) Key() ResourceKey { return r.key }

// RegisterResource installs value as T's singleton in w, per spec.md §6
// ("world.register_resource::<T>(value)"). Re-registering the same T
// replaces the previous value — unlike component registration, a
// resource's identity is its type, not an append-only id space.
func RegisterResource[T any](w *World, value T) Resource[T] {
	rt := reflect.TypeOf(value)
	w.resources.mu.Lock()
	w.resources.byKey[rt] = &value
	w.resources.mu.Unlock()
	return Resource[T]{key: ResourceKey{rtype: rt}}
}

// Get returns a pointer to T's current value. Panics (contract
// violation) if T was never registered — a system asking for a resource
// it was not granted access to is a wiring bug, not a recoverable
// condition, matching spec.md §7 item 1's treatment of reflection misuse.
func (r Resource[T]) Get(w *World) *T {
	w.resources.mu.RLock()
	v, ok := w.resources.byKey[r.key.rtype]
	w.resources.mu.RUnlock()
	if !ok {
		panic(bark.AddTrace(errors.Wrapf(ErrResourceNotFound, "%s", r.key.rtype)))
	}
	return v.(*T)
}

// TryGet is Get's non-panicking counterpart, used when a resource's
// presence is itself meaningful application state rather than a wiring
// invariant.
func (r Resource[T]) TryGet(w *World) (*T, bool) {
	w.resources.mu.RLock()
	defer w.resources.mu.RUnlock()
	v, ok := w.resources.byKey[r.key.rtype]
	if !ok {
		return nil, false
	}
	return v.(*T), true
}
