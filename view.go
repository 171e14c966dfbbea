package loom

import (
	"fmt"

	"github.com/TheBitDrifter/bark"
)

// checkNoMutableAliasing panics (contract violation, spec.md §5's
// "Aliasing-safety rule": "Violations are programmer errors and must
// panic at system registration or iterator construction, never
// silently") if the same component id appears more than once among ids
// with at least one of its occurrences requesting AccessWrite — e.g. a
// view shaped like (&mut Pos, &mut Pos) would hand out two live mutable
// pointers into the same column slot for the same row.
func checkNoMutableAliasing(ids []TypeID, modes []AccessMode) {
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if ids[i] != ids[j] {
				continue
			}
			if modes[i] == AccessWrite || modes[j] == AccessWrite {
				panic(bark.AddTrace(fmt.Errorf(
					"loom: view aliasing violation: component id %d requested more than once with a mutable slot", ids[i])))
			}
		}
	}
}

// View is the common surface the System Parameter Protocol (param.go)
// and the scheduler need from any typed query: its declared access and
// a way to iterate the matching tables. Concrete arities (View1..View4)
// implement it; spec.md §4.6 allows arbitrary tuple arity, but Go has no
// variadic generics, so the core ships a realistic, hand-written ceiling
// the way param.go's SystemN family does — wider tuples compose from
// narrower ones at the call site instead.
type View interface {
	requiredSpec() Spec
	excludedSpec() Spec
	access() AccessRequest
}

// Without returns the TypeIDs of components a View's archetype must NOT
// carry, built from already-registered component handles.
func Without(ids ...TypeID) Spec { return NewSpec(ids...) }

// View1 iterates every entity carrying component A.
type View1[A any] struct {
	mode AccessMode
	a    ComponentType[A]
	excl Spec
	plan *QueryPlan
}

// NewView1 builds a View1 over w, requesting a with the given mode and
// excluding any archetype carrying a type in excl.
func NewView1[A any](w *World, mode AccessMode, excl Spec) View1[A] {
	a := RegisterComponent[A](w)
	req := NewSpec(a.ID())
	return View1[A]{mode: mode, a: a, excl: excl, plan: newQueryPlan(req, excl)}
}

func (v View1[A]) requiredSpec() Spec { return NewSpec(v.a.ID()) }
func (v View1[A]) excludedSpec() Spec { return v.excl }
func (v View1[A]) access() AccessRequest {
	return NewAccessRequest(AccessEntry{Key: ComponentKey(v.a.ID()), Mode: v.mode})
}

// Each visits every matching entity, holding the query lock for the
// duration (spec.md: "structural mutations during iteration are
// forbidden" — here, diverted to the command queue rather than erroring).
func (v View1[A]) Each(w *World, fn func(Entity, *A)) {
	w.AddLock(lockBitQuery)
	defer w.RemoveLock(lockBitQuery)
	for _, t := range v.plan.MatchingTables(w.storage) {
		col := t.column(v.a.ID())
		for row := 0; row < t.Len(); row++ {
			fn(t.EntityAt(row), getTyped[A](col, row))
		}
	}
}

// View2 iterates every entity carrying both A and B.
type View2[A, B any] struct {
	modeA AccessMode
	modeB AccessMode
	a     ComponentType[A]
	b     ComponentType[B]
	excl  Spec
	plan  *QueryPlan
}

// NewView2 builds a View2 over w.
func NewView2[A, B any](w *World, modeA, modeB AccessMode, excl Spec) View2[A, B] {
	a := RegisterComponent[A](w)
	b := RegisterComponent[B](w)
	checkNoMutableAliasing([]TypeID{a.ID(), b.ID()}, []AccessMode{modeA, modeB})
	req := NewSpec(a.ID(), b.ID())
	return View2[A, B]{modeA: modeA, modeB: modeB, a: a, b: b, excl: excl, plan: newQueryPlan(req, excl)}
}

func (v View2[A, B]) requiredSpec() Spec { return NewSpec(v.a.ID(), v.b.ID()) }
func (v View2[A, B]) excludedSpec() Spec { return v.excl }
func (v View2[A, B]) access() AccessRequest {
	return NewAccessRequest(
		AccessEntry{Key: ComponentKey(v.a.ID()), Mode: v.modeA},
		AccessEntry{Key: ComponentKey(v.b.ID()), Mode: v.modeB},
	)
}

// Each visits every matching entity.
func (v View2[A, B]) Each(w *World, fn func(Entity, *A, *B)) {
	w.AddLock(lockBitQuery)
	defer w.RemoveLock(lockBitQuery)
	for _, t := range v.plan.MatchingTables(w.storage) {
		colA := t.column(v.a.ID())
		colB := t.column(v.b.ID())
		for row := 0; row < t.Len(); row++ {
			fn(t.EntityAt(row), getTyped[A](colA, row), getTyped[B](colB, row))
		}
	}
}

// View2Opt1 iterates every entity carrying A, with B resolved per-table
// as Option<&B>/Option<&mut B> — present when the matched table happens
// to carry a B column, absent otherwise (spec.md §4.6's Option view
// kind). Only B is optional; A remains required, which covers the
// common "required anchor component plus an optional tag/extra" shape
// (spec.md §8 scenario 3: "query (Pos, Tag)... query (Pos) must still
// yield E") without combinatorially generating every required/optional
// split of every arity.
type View2Opt1[A, B any] struct {
	modeA AccessMode
	modeB AccessMode
	a     ComponentType[A]
	b     ComponentType[B]
	excl  Spec
	plan  *QueryPlan
}

// NewView2Opt1 builds a View2Opt1 over w: A required, B optional.
func NewView2Opt1[A, B any](w *World, modeA, modeB AccessMode, excl Spec) View2Opt1[A, B] {
	a := RegisterComponent[A](w)
	b := RegisterComponent[B](w)
	checkNoMutableAliasing([]TypeID{a.ID(), b.ID()}, []AccessMode{modeA, modeB})
	req := NewSpec(a.ID())
	return View2Opt1[A, B]{modeA: modeA, modeB: modeB, a: a, b: b, excl: excl, plan: newQueryPlan(req, excl)}
}

func (v View2Opt1[A, B]) requiredSpec() Spec { return NewSpec(v.a.ID()) }
func (v View2Opt1[A, B]) excludedSpec() Spec { return v.excl }
func (v View2Opt1[A, B]) access() AccessRequest {
	return NewAccessRequest(
		AccessEntry{Key: ComponentKey(v.a.ID()), Mode: v.modeA},
		AccessEntry{Key: ComponentKey(v.b.ID()), Mode: v.modeB},
	)
}

// Each visits every matching entity; bPtr is nil with bOK=false when the
// entity's table has no B column.
func (v View2Opt1[A, B]) Each(w *World, fn func(e Entity, a *A, b *B, bOK bool)) {
	w.AddLock(lockBitQuery)
	defer w.RemoveLock(lockBitQuery)
	for _, t := range v.plan.MatchingTables(w.storage) {
		colA := t.column(v.a.ID())
		colB := t.column(v.b.ID()) // nil when table has no B column
		hasB := colB != nil
		for row := 0; row < t.Len(); row++ {
			if hasB {
				fn(t.EntityAt(row), getTyped[A](colA, row), getTyped[B](colB, row), true)
			} else {
				fn(t.EntityAt(row), getTyped[A](colA, row), nil, false)
			}
		}
	}
}

// View3 iterates every entity carrying A, B and C.
type View3[A, B, C any] struct {
	modeA, modeB, modeC AccessMode
	a                   ComponentType[A]
	b                   ComponentType[B]
	c                   ComponentType[C]
	excl                Spec
	plan                *QueryPlan
}

// NewView3 builds a View3 over w.
func NewView3[A, B, C any](w *World, modeA, modeB, modeC AccessMode, excl Spec) View3[A, B, C] {
	a := RegisterComponent[A](w)
	b := RegisterComponent[B](w)
	c := RegisterComponent[C](w)
	checkNoMutableAliasing([]TypeID{a.ID(), b.ID(), c.ID()}, []AccessMode{modeA, modeB, modeC})
	req := NewSpec(a.ID(), b.ID(), c.ID())
	return View3[A, B, C]{modeA: modeA, modeB: modeB, modeC: modeC, a: a, b: b, c: c, excl: excl, plan: newQueryPlan(req, excl)}
}

func (v View3[A, B, C]) requiredSpec() Spec { return NewSpec(v.a.ID(), v.b.ID(), v.c.ID()) }
func (v View3[A, B, C]) excludedSpec() Spec { return v.excl }
func (v View3[A, B, C]) access() AccessRequest {
	return NewAccessRequest(
		AccessEntry{Key: ComponentKey(v.a.ID()), Mode: v.modeA},
		AccessEntry{Key: ComponentKey(v.b.ID()), Mode: v.modeB},
		AccessEntry{Key: ComponentKey(v.c.ID()), Mode: v.modeC},
	)
}

// Each visits every matching entity.
func (v View3[A, B, C]) Each(w *World, fn func(Entity, *A, *B, *C)) {
	w.AddLock(lockBitQuery)
	defer w.RemoveLock(lockBitQuery)
	for _, t := range v.plan.MatchingTables(w.storage) {
		colA, colB, colC := t.column(v.a.ID()), t.column(v.b.ID()), t.column(v.c.ID())
		for row := 0; row < t.Len(); row++ {
			fn(t.EntityAt(row), getTyped[A](colA, row), getTyped[B](colB, row), getTyped[C](colC, row))
		}
	}
}

// View4 iterates every entity carrying A, B, C and D.
type View4[A, B, C, D any] struct {
	modeA, modeB, modeC, modeD AccessMode
	a                          ComponentType[A]
	b                          ComponentType[B]
	c                          ComponentType[C]
	d                          ComponentType[D]
	excl                       Spec
	plan                       *QueryPlan
}

// NewView4 builds a View4 over w.
func NewView4[A, B, C, D any](w *World, modeA, modeB, modeC, modeD AccessMode, excl Spec) View4[A, B, C, D] {
	a := RegisterComponent[A](w)
	b := RegisterComponent[B](w)
	c := RegisterComponent[C](w)
	d := RegisterComponent[D](w)
	checkNoMutableAliasing([]TypeID{a.ID(), b.ID(), c.ID(), d.ID()}, []AccessMode{modeA, modeB, modeC, modeD})
	req := NewSpec(a.ID(), b.ID(), c.ID(), d.ID())
	return View4[A, B, C, D]{modeA: modeA, modeB: modeB, modeC: modeC, modeD: modeD, a: a, b: b, c: c, d: d, excl: excl, plan: newQueryPlan(req, excl)}
}

func (v View4[A, B, C, D]) requiredSpec() Spec {
	return NewSpec(v.a.ID(), v.b.ID(), v.c.ID(), v.d.ID())
}
func (v View4[A, B, C, D]) excludedSpec() Spec { return v.excl }
func (v View4[A, B, C, D]) access() AccessRequest {
	return NewAccessRequest(
		AccessEntry{Key: ComponentKey(v.a.ID()), Mode: v.modeA},
		AccessEntry{Key: ComponentKey(v.b.ID()), Mode: v.modeB},
		AccessEntry{Key: ComponentKey(v.c.ID()), Mode: v.modeC},
		AccessEntry{Key: ComponentKey(v.d.ID()), Mode: v.modeD},
	)
}

// Each visits every matching entity.
func (v View4[A, B, C, D]) Each(w *World, fn func(Entity, *A, *B, *C, *D)) {
	w.AddLock(lockBitQuery)
	defer w.RemoveLock(lockBitQuery)
	for _, t := range v.plan.MatchingTables(w.storage) {
		colA, colB := t.column(v.a.ID()), t.column(v.b.ID())
		colC, colD := t.column(v.c.ID()), t.column(v.d.ID())
		for row := 0; row < t.Len(); row++ {
			fn(t.EntityAt(row),
				getTyped[A](colA, row), getTyped[B](colB, row),
				getTyped[C](colC, row), getTyped[D](colD, row))
		}
	}
}

// EntityView iterates every live entity in an archetype subset without
// fetching any component, used for the id-only view kind spec.md §4.6
// lists alongside component tuples.
type EntityView struct {
	excl Spec
	plan *QueryPlan
}

// NewEntityView builds an EntityView requiring req and excluding excl.
func NewEntityView(req, excl Spec) EntityView {
	return EntityView{excl: excl, plan: newQueryPlan(req, excl)}
}

func (v EntityView) requiredSpec() Spec    { return v.plan.required }
func (v EntityView) excludedSpec() Spec    { return v.excl }
func (v EntityView) access() AccessRequest { return AccessRequest{} }

// Each visits every matching entity's identifier.
func (v EntityView) Each(w *World, fn func(Entity)) {
	w.AddLock(lockBitQuery)
	defer w.RemoveLock(lockBitQuery)
	for _, t := range v.plan.MatchingTables(w.storage) {
		for row := 0; row < t.Len(); row++ {
			fn(t.EntityAt(row))
		}
	}
}
