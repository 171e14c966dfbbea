package loom

// Command is a deferred structural mutation, queued by a Commands handle
// and applied during a flush. Adapted from the teacher's EntityOperation
// (operation_queue.go), generalized from Storage to World and from
// typed payloads to spec.md §4.7's four Change variants.
type Command interface {
	apply(w *World) error
}

// Commands is a single producer's deferred-operation queue: a plain
// slice, since each Commands handle is owned by exactly one goroutine
// for its entire lifetime (one system invocation) — the scheduler's
// group barrier is the happens-before edge that makes reading it safe
// from the flushing goroutine afterwards, so no lock is needed on the
// push path at all (spec.md §5: "the command-buffer push path
// (lock-free, wait-free for producers)").
type Commands struct {
	world *World
	ops   []Command
}

// newCommands binds a fresh, empty Commands queue to world and registers
// it for the world's next FlushCommands call.
func newCommands(world *World) *Commands {
	c := &Commands{world: world}
	world.trackCommands(c)
	return c
}

// Spawn allocates an entity identifier immediately (spec.md §4.7:
// "Spawn returns an entity identifier immediately... making the
// identifier usable within the same system for cross-references") and
// queues its materialization for the next flush.
func (c *Commands) Spawn(values ...ComponentValue) Entity {
	e := c.world.allocator.Alloc()
	c.ops = append(c.ops, spawnCommand{entity: e, values: values})
	return e
}

// Despawn queues entity for removal at the next flush.
func (c *Commands) Despawn(entity Entity) {
	c.ops = append(c.ops, despawnCommand{entity: entity})
}

// AddComponents queues component additions for entity.
func (c *Commands) AddComponents(entity Entity, values ...ComponentValue) {
	c.ops = append(c.ops, addComponentsCommand{entity: entity, values: values})
}

// RemoveComponents queues removal of the components named by spec from entity.
func (c *Commands) RemoveComponents(entity Entity, spec Spec) {
	c.ops = append(c.ops, removeComponentsCommand{entity: entity, spec: spec})
}

// ComponentValue is a type-erased (ComponentType, value) pair used to
// build up a deferred Spawn/AddComponents payload without the caller
// having to name a concrete tuple type. Construct one with Value[T].
type ComponentValue struct {
	id     TypeID
	append func(rowApplier) rowApplier
}

// Value packages comp and value into a ComponentValue usable in
// Commands.Spawn / Commands.AddComponents.
func Value[T any](comp ComponentType[T], value T) ComponentValue {
	return ComponentValue{
		id: comp.id,
		append: func(prev rowApplier) rowApplier {
			va := valueApplier[T]{comp: comp, value: value}
			if prev == nil {
				return va
			}
			return multiApplier{prev, va}
		},
	}
}

func buildApplier(values []ComponentValue) rowApplier {
	var applier rowApplier
	for _, v := range values {
		applier = v.append(applier)
	}
	return applier
}

func specOf(values []ComponentValue) Spec {
	ids := make([]TypeID, len(values))
	for i, v := range values {
		ids[i] = v.id
	}
	return NewSpec(ids...)
}

type spawnCommand struct {
	entity Entity
	values []ComponentValue
}

func (cmd spawnCommand) apply(w *World) error {
	if !w.allocator.IsLive(cmd.entity) {
		return ErrStaleEntity // despawned before flush: the flush logs it and skips
	}
	return w.materialize(cmd.entity, specOf(cmd.values), buildApplier(cmd.values))
}

type despawnCommand struct{ entity Entity }

func (cmd despawnCommand) apply(w *World) error {
	return w.despawnNow(cmd.entity)
}

type addComponentsCommand struct {
	entity Entity
	values []ComponentValue
}

func (cmd addComponentsCommand) apply(w *World) error {
	return w.addComponentsNow(cmd.entity, specOf(cmd.values), buildApplier(cmd.values))
}

type removeComponentsCommand struct {
	entity Entity
	spec   Spec
}

func (cmd removeComponentsCommand) apply(w *World) error {
	return w.removeComponentsNow(cmd.entity, cmd.spec)
}

// Flush applies every queued command in order, then clears the queue.
// Every command that fails (e.g. a lookup miss, spec.md §7 item 3) is
// logged as a warning and skipped; the flush never aborts and always
// returns nil.
func (c *Commands) flush() error {
	for _, op := range c.ops {
		if err := op.apply(c.world); err != nil {
			c.world.logSkippedCommand(op, err)
		}
	}
	c.ops = c.ops[:0]
	return nil
}
