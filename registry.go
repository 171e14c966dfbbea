package loom

import (
	"reflect"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/TheBitDrifter/bark"
	"github.com/pkg/errors"
)

// TypeID is a process-stable, monotonically assigned identifier for a
// component type. Zero is never a valid id; it marks "unregistered".
type TypeID uint64

// Info is the immutable descriptor registered for a component type.
type Info struct {
	TypeID TypeID
	Size   uintptr
	Align  uintptr
	Drop   func(unsafe.Pointer)
	Name   string
	rtype  reflect.Type
}

// ErrUnknownType is returned by Registry.Info for an id nothing registered.
var ErrUnknownType = errors.New("loom: unknown type id")

// Registry is a process- (or world-) scoped map from reflect.Type to a
// stable TypeID plus descriptive Info. The registration path is guarded
// by a mutex; lookups after registration read an already-published slice
// without locking, matching spec.md §4.1 ("internal lock guards only
// registration, not lookup after the fact").
type Registry struct {
	mu     sync.Mutex
	byType map[reflect.Type]TypeID
	infos  atomic.Pointer[[]Info]
	nextID TypeID
}

// NewRegistry constructs an empty type registry.
func NewRegistry() *Registry {
	r := &Registry{byType: make(map[reflect.Type]TypeID)}
	empty := make([]Info, 1) // index 0 unused; ids are 1-based
	r.infos.Store(&empty)
	return r
}

// Register returns T's stable TypeID, assigning one on first use.
// Idempotent per T within the registry's lifetime.
func Register[T any](r *Registry) TypeID {
	var zero T
	rt := reflect.TypeOf(zero)
	if rt == nil {
		// T is an interface type instantiated with a nil value; fall back
		// to the static type via reflect on a pointer, which always works.
		rt = reflect.TypeOf((*T)(nil)).Elem()
	}
	return registerByRType(r, rt)
}

// registerByRType is Register's non-generic core, reused by World.Transfer
// to re-register a type (known only as a reflect.Type carried in another
// world's Info) against a different registry.
func registerByRType(r *Registry, rt reflect.Type) TypeID {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byType[rt]; ok {
		return id
	}

	r.nextID++
	id := r.nextID

	info := Info{
		TypeID: id,
		Size:   rt.Size(),
		Align:  uintptr(rt.Align()),
		Name:   rt.String(),
		rtype:  rt,
	}
	if needsDrop(rt) {
		info.Drop = dropFuncFor(rt)
	}

	old := *r.infos.Load()
	next := make([]Info, len(old), max(len(old)+1, int(id)+1))
	copy(next, old)
	for len(next) <= int(id) {
		next = append(next, Info{})
	}
	next[id] = info
	r.infos.Store(&next)
	r.byType[rt] = id

	return id
}

// Info returns the descriptor for id, or ErrUnknownType if nothing with
// that id has been registered in r.
func (r *Registry) Info(id TypeID) (Info, error) {
	infos := *r.infos.Load()
	if int(id) >= len(infos) || id == 0 || infos[id].TypeID == 0 {
		return Info{}, errors.Wrapf(ErrUnknownType, "type id %d", id)
	}
	return infos[id], nil
}

// mustInfo panics (contract violation) rather than returning an error;
// used internally where the caller has already proven id is registered.
func (r *Registry) mustInfo(id TypeID) Info {
	info, err := r.Info(id)
	if err != nil {
		panic(bark.AddTrace(err))
	}
	return info
}

// needsDrop reports whether values of rt require explicit cleanup beyond
// a byte-copy (i.e. they, or something they contain, hold a pointer the
// garbage collector must be told to forget).
func needsDrop(rt reflect.Type) bool {
	switch rt.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func,
		reflect.Interface, reflect.Slice, reflect.String:
		return true
	case reflect.Struct:
		for i := 0; i < rt.NumField(); i++ {
			if needsDrop(rt.Field(i).Type) {
				return true
			}
		}
		return false
	case reflect.Array:
		return rt.Len() > 0 && needsDrop(rt.Elem())
	default:
		return false
	}
}

// dropFuncFor returns a function that zeroes a value of type rt in
// place, releasing any references it holds so the GC can collect them.
// It is the Go stand-in for the source language's Info.drop(ptr).
func dropFuncFor(rt reflect.Type) func(unsafe.Pointer) {
	size := rt.Size()
	return func(p unsafe.Pointer) {
		zero := reflect.New(rt).Elem()
		dst := reflect.NewAt(rt, p).Elem()
		dst.Set(zero)
		_ = size
	}
}
