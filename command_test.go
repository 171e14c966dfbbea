package loom

import "testing"

type cmdPos struct{ X, Y float64 }
type cmdVel struct{ X, Y float64 }

func TestCommandsSpawnReturnsUsableIDBeforeFlush(t *testing.T) {
	w := NewWorld(DefaultConfig())
	pos := RegisterComponent[cmdPos](w)
	vel := RegisterComponent[cmdVel](w)

	cmds := w.Commands()
	x := cmds.Spawn(Value(pos, cmdPos{X: 9, Y: 9}))
	// Cross-reference the not-yet-materialized id within the same system.
	cmds.AddComponents(x, Value(vel, cmdVel{X: 0, Y: 0}))

	if _, err := pos.GetEntity(w, x); err == nil {
		t.Fatal("expected spawn to not be visible before flush")
	}

	if err := w.FlushCommands(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	gotPos, err := pos.GetEntity(w, x)
	if err != nil || gotPos.X != 9 {
		t.Fatalf("expected Pos{9,9} after flush, got %+v err=%v", gotPos, err)
	}
	gotVel, err := vel.GetEntity(w, x)
	if err != nil || gotVel.X != 0 {
		t.Fatalf("expected Vel{0,0} after flush, got %+v err=%v", gotVel, err)
	}
}

func TestCommandsDespawnAppliesOnFlush(t *testing.T) {
	w := NewWorld(DefaultConfig())
	pos := RegisterComponent[cmdPos](w)
	e := w.Spawn(Value(pos, cmdPos{X: 1}))

	cmds := w.Commands()
	cmds.Despawn(e)
	if !w.allocator.IsLive(e) {
		t.Fatal("expected entity to remain live before flush")
	}
	if err := w.FlushCommands(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.allocator.IsLive(e) {
		t.Fatal("expected entity to be despawned after flush")
	}
}

func TestFlushSkipsDespawnedEntityRatherThanAborting(t *testing.T) {
	w := NewWorld(DefaultConfig())
	pos := RegisterComponent[cmdPos](w)
	e := w.Spawn(Value(pos, cmdPos{}))

	cmds := w.Commands()
	cmds.AddComponents(e, Value(pos, cmdPos{X: 5}))

	// Despawn the entity directly (synchronously, world unlocked) before
	// the queued AddComponents gets a chance to flush.
	if err := w.Despawn(e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := w.FlushCommands(); err != nil {
		t.Fatalf("expected the stale add_components to be logged and skipped, not returned: %v", err)
	}
}
