package loom

import "testing"

// This file realizes the end-to-end scenarios, one test per scenario.
// Scenarios 2, 4 and 6 are already covered exactly by
// TestQueryScenarioAddThenRemoveTag (view_test.go),
// TestCommandsSpawnReturnsUsableIDBeforeFlush (command_test.go) and
// TestEventRoundTrip (event_test.go) respectively; they are not
// duplicated here. Scenario 3 (parallel disjoint bundles) lives in
// schedule/scheduler_test.go since it exercises the scheduler package.

type scenarioPosition struct{ X, Y float64 }
type scenarioVelocity struct{ DX, DY float64 }

// Scenario 1: register Position/Velocity, spawn A=(Pos{0,0},Vel{1,0}),
// B=(Pos{5,5},Vel{0,-1}), run a (Pos_mut, Vel_ref) system that writes
// pos.x += vel.dx; pos.y += vel.dy. A ends at (1,0), B ends at (5,4).
func TestScenarioIntegrateVelocityIntoPosition(t *testing.T) {
	w := NewWorld(DefaultConfig())
	pos := RegisterComponent[scenarioPosition](w)
	vel := RegisterComponent[scenarioVelocity](w)

	a := w.Spawn(Value(pos, scenarioPosition{X: 0, Y: 0}), Value(vel, scenarioVelocity{DX: 1, DY: 0}))
	b := w.Spawn(Value(pos, scenarioPosition{X: 5, Y: 5}), Value(vel, scenarioVelocity{DX: 0, DY: -1}))

	integrate := NewView2[scenarioPosition, scenarioVelocity](w, AccessWrite, AccessRead, Spec{})
	integrate.Each(w, func(e Entity, p *scenarioPosition, v *scenarioVelocity) {
		p.X += v.DX
		p.Y += v.DY
	})

	gotA, err := pos.GetEntity(w, a)
	if err != nil || gotA.X != 1 || gotA.Y != 0 {
		t.Fatalf("expected A at (1,0), got %+v err=%v", gotA, err)
	}
	gotB, err := pos.GetEntity(w, b)
	if err != nil || gotB.X != 5 || gotB.Y != 4 {
		t.Fatalf("expected B at (5,4), got %+v err=%v", gotB, err)
	}
}

// Scenario 5: constructing a mutable iterator over view (&mut Pos, &mut
// Pos) must panic before any element is yielded.
func TestScenarioAliasedMutableViewPanicsBeforeIteration(t *testing.T) {
	w := NewWorld(DefaultConfig())
	pos := RegisterComponent[scenarioPosition](w)
	w.Spawn(Value(pos, scenarioPosition{X: 1, Y: 1}))

	defer func() {
		if recover() == nil {
			t.Fatal("expected NewView2[scenarioPosition, scenarioPosition] with both slots mutable to panic")
		}
	}()
	visited := false
	aliased := NewView2[scenarioPosition, scenarioPosition](w, AccessWrite, AccessWrite, Spec{})
	aliased.Each(w, func(Entity, *scenarioPosition, *scenarioPosition) { visited = true })
	if visited {
		t.Fatal("expected panic before any element was yielded")
	}
}
