/*
Package loom provides an archetype-based Entity-Component-System (ECS)
runtime: type registry, columnar storage, entity allocation, typed
queries, and a parallel system scheduler.

Loom groups entities by their exact component-type set ("archetype")
into columnar Tables, so a query over a common combination of component
types walks contiguous memory instead of chasing pointers per entity.

Core Concepts:

  - Entity: a (id, generation) pair identifying a game or simulation object.
  - Component: a Go type registered with a World via RegisterComponent.
  - Spec: the sorted set of component type ids naming one archetype.
  - View: a typed query over every entity matching a Spec.
  - System: a unit of work declaring the access it needs, scheduled by
    the schedule subpackage into conflict-free parallel groups.

Basic Usage:

	w := loom.NewWorld(loom.DefaultConfig())
	position := loom.RegisterComponent[Position](w)
	velocity := loom.RegisterComponent[Velocity](w)

	w.Spawn(loom.Value(position, Position{}), loom.Value(velocity, Velocity{X: 1}))

	view := loom.NewView2[Position, Velocity](w, loom.AccessWrite, loom.AccessRead, loom.Spec{})
	view.Each(w, func(e loom.Entity, pos *Position, vel *Velocity) {
		pos.X += vel.X
		pos.Y += vel.Y
	})

A Scheduler runs registered systems in conflict-free parallel groups,
bounding concurrency from the same World's Config:

	sched := schedule.New(w.Config().WorkerCount())
	sched.AddSystem(schedule.Update, mySystem)
	err := sched.Run(ctx, schedule.Update, w)

Loom is the storage and scheduling core beneath a game's frame loop,
CLI shell, and rendering layer — none of which this package is
responsible for.
*/
package loom
