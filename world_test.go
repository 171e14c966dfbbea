package loom

import "testing"

type wPos struct{ X, Y float64 }
type wVel struct{ X, Y float64 }
type wTag struct{}

func TestWorldSpawnAndComponentAccess(t *testing.T) {
	w := NewWorld(DefaultConfig())
	pos := RegisterComponent[wPos](w)

	e := w.Spawn(Value(pos, wPos{X: 1, Y: 2}))
	got, err := pos.GetEntity(w, e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.X != 1 || got.Y != 2 {
		t.Fatalf("unexpected component value: %+v", got)
	}
}

func TestWorldDespawnThenStaleReference(t *testing.T) {
	w := NewWorld(DefaultConfig())
	pos := RegisterComponent[wPos](w)
	e := w.Spawn(Value(pos, wPos{}))

	if err := w.Despawn(e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := pos.GetEntity(w, e); err == nil {
		t.Fatal("expected stale/unknown entity error after despawn")
	}
}

func TestWorldAddComponentsMigratesArchetype(t *testing.T) {
	w := NewWorld(DefaultConfig())
	pos := RegisterComponent[wPos](w)
	vel := RegisterComponent[wVel](w)

	e := w.Spawn(Value(pos, wPos{X: 1}))
	if err := w.AddComponents(e, Value(vel, wVel{X: 5})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	gotPos, err := pos.GetEntity(w, e)
	if err != nil || gotPos.X != 1 {
		t.Fatalf("expected Pos preserved across migration, got %+v err=%v", gotPos, err)
	}
	gotVel, err := vel.GetEntity(w, e)
	if err != nil || gotVel.X != 5 {
		t.Fatalf("expected Vel added, got %+v err=%v", gotVel, err)
	}
}

func TestWorldAddComponentsOverwritesExistingValueInPlace(t *testing.T) {
	w := NewWorld(DefaultConfig())
	pos := RegisterComponent[wPos](w)
	e := w.Spawn(Value(pos, wPos{X: 1}))

	if err := w.AddComponents(e, Value(pos, wPos{X: 99})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := pos.GetEntity(w, e)
	if err != nil || got.X != 99 {
		t.Fatalf("expected overwritten value 99, got %+v err=%v", got, err)
	}
}

func TestWorldRemoveComponentsReturnsToOriginalSpec(t *testing.T) {
	w := NewWorld(DefaultConfig())
	pos := RegisterComponent[wPos](w)
	tag := RegisterComponent[wTag](w)

	e := w.Spawn(Value(pos, wPos{X: 1}))
	origSpec, _ := w.ComponentsOf(e)

	if err := w.AddComponents(e, Value(tag, wTag{})); err != nil {
		t.Fatalf("add_components: %v", err)
	}
	if err := w.RemoveComponents(e, NewSpec(tag.ID())); err != nil {
		t.Fatalf("remove_components: %v", err)
	}
	finalSpec, _ := w.ComponentsOf(e)
	if !finalSpec.Equal(origSpec) {
		t.Fatalf("expected spec to return to original, got %v want %v", finalSpec.IDs(), origSpec.IDs())
	}
}

func TestWorldRemoveComponentsAbsentIsNoOp(t *testing.T) {
	w := NewWorld(DefaultConfig())
	pos := RegisterComponent[wPos](w)
	tag := RegisterComponent[wTag](w)
	e := w.Spawn(Value(pos, wPos{X: 1}))

	if err := w.RemoveComponents(e, NewSpec(tag.ID())); err != nil {
		t.Fatalf("expected no-op, got error: %v", err)
	}
	got, err := pos.GetEntity(w, e)
	if err != nil || got.X != 1 {
		t.Fatalf("expected entity untouched, got %+v err=%v", got, err)
	}
}

func TestWorldStructuralMutationDeferredWhileLocked(t *testing.T) {
	w := NewWorld(DefaultConfig())
	pos := RegisterComponent[wPos](w)
	e := w.Spawn(Value(pos, wPos{X: 1}))

	w.AddLock(lockBitQuery)
	if err := w.Despawn(e); err != nil {
		t.Fatalf("unexpected error while enqueueing: %v", err)
	}
	// Still live: the despawn was queued, not applied, while locked.
	if !w.allocator.IsLive(e) {
		t.Fatal("expected entity to remain live while world is locked")
	}
	w.RemoveLock(lockBitQuery)
	if w.allocator.IsLive(e) {
		t.Fatal("expected despawn to apply once the lock is released")
	}
}

func TestWorldOnDestroyCallback(t *testing.T) {
	w := NewWorld(DefaultConfig())
	pos := RegisterComponent[wPos](w)
	e := w.Spawn(Value(pos, wPos{}))

	fired := false
	w.OnDestroy(e, func(Entity) { fired = true })
	if err := w.Despawn(e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fired {
		t.Fatal("expected destroy callback to fire")
	}
}

func TestWorldSetParent(t *testing.T) {
	w := NewWorld(DefaultConfig())
	pos := RegisterComponent[wPos](w)
	parent := w.Spawn(Value(pos, wPos{}))
	child := w.Spawn(Value(pos, wPos{}))

	if err := w.SetParent(child, parent); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := w.Parent(child)
	if !ok || got != parent {
		t.Fatalf("expected parent %v, got %v ok=%v", parent, got, ok)
	}
	if err := w.SetParent(child, parent); err == nil {
		t.Fatal("expected error when setting a parent twice")
	}
}
