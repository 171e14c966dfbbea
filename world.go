package loom

import (
	"sync"

	"github.com/TheBitDrifter/mask"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// EntityDestroyCallback is invoked when a despawned entity had one
// registered via World.OnDestroy, adapted from the teacher's
// EntityDestroyCallback (entity.go).
type EntityDestroyCallback func(Entity)

// World is the host-thread-only API surface named in spec.md §6. It
// owns the type registry, the archetype storage, the entity allocator
// and location registry, registered resources, registered events, and
// the lock bitmask that diverts direct structural mutations into the
// command queue while any lock bit is held (a View's Each holds one while
// it iterates; the schedule subpackage sets none) — directly adapted
// from the teacher's storage.go
// locking scheme (AddLock/RemoveLock/Locked), generalized from Storage
// to World.
type World struct {
	mu sync.RWMutex

	registry  *Registry
	storage   *Storage
	allocator *Allocator
	locations *LocationRegistry

	locks mask.Mask256
	queue []Command // operations deferred while locked

	resources *resources
	events    *eventRegistry

	relationships map[Entity]relationship
	log           *logrus.Logger

	config Config

	cmdMu   sync.Mutex
	pending []*Commands // every Commands handed out since the last FlushCommands
}

type relationship struct {
	parent     Entity
	hasParent  bool
	onDestroy  []EntityDestroyCallback
}

// NewWorld constructs an empty World using cfg (DefaultConfig() if the
// zero value is passed where EventCapacity is zero).
func NewWorld(cfg Config) *World {
	if cfg.EventCapacity == 0 {
		cfg.EventCapacity = DefaultEventCapacity
	}
	registry := NewRegistry()
	w := &World{
		registry:      registry,
		storage:       NewStorage(registry, cfg.GrowthFactor()),
		allocator:     NewAllocator(),
		locations:     NewLocationRegistry(),
		resources:     newResources(),
		events:        newEventRegistry(cfg.EventCapacity),
		relationships: make(map[Entity]relationship),
		log:           logrus.StandardLogger(),
		config:        cfg,
	}
	return w
}

// SetLogger overrides the logger used for deferred-flush warnings.
func (w *World) SetLogger(log *logrus.Logger) { w.log = log }

// Config returns the world's configuration.
func (w *World) Config() Config { return w.config }

// Registry exposes the world's type registry (used by scheduling and
// query construction, which live outside this package).
func (w *World) Registry() *Registry { return w.registry }

// Storage exposes the world's archetype storage (used by query
// construction and the scheduler's access-grant machinery).
func (w *World) Storage() *Storage { return w.storage }

// Locations exposes the entity location registry.
func (w *World) Locations() *LocationRegistry { return w.locations }

// locate resolves entity to its current Location, or an error if it is
// unknown or stale (spec.md §7 items 3/4).
func (w *World) locate(entity Entity) (Location, error) {
	if !w.allocator.IsLive(entity) {
		return Location{}, errors.Wrapf(ErrStaleEntity, "%v", entity)
	}
	loc, ok := w.locations.Get(entity)
	if !ok {
		return Location{}, errors.Wrapf(ErrUnknownEntity, "%v", entity)
	}
	return loc, nil
}

// ---- locking -------------------------------------------------------

// Locked reports whether any lock bit is currently held, diverting
// direct structural mutations into the deferred queue.
func (w *World) Locked() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return !w.locks.IsEmpty()
}

// AddLock marks bit as held (e.g. "a query is iterating", "the
// scheduler owns a parallel group"). Multiple independent holders are
// supported via distinct bits, exactly as in the teacher's storage.go.
func (w *World) AddLock(bit uint32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.locks.Mark(bit)
}

// RemoveLock releases bit; once every lock is released, any commands
// queued while locked are flushed.
func (w *World) RemoveLock(bit uint32) {
	w.mu.Lock()
	w.locks.Unmark(bit)
	empty := w.locks.IsEmpty()
	var pending []Command
	if empty && len(w.queue) > 0 {
		pending = w.queue
		w.queue = nil
	}
	w.mu.Unlock()

	for _, op := range pending {
		if err := op.apply(w); err != nil {
			w.logSkippedCommand(op, err)
		}
	}
}

func (w *World) enqueueOrRun(op Command) error {
	w.mu.Lock()
	if !w.locks.IsEmpty() {
		w.queue = append(w.queue, op)
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()
	return op.apply(w)
}

// trackCommands registers c so a later FlushCommands picks it up. Every
// Commands a World hands out (via CommandsParam, or World.Commands)
// is tracked this way, since the system that owns it never hands it
// back explicitly — the scheduler's group barrier is what makes it
// safe to flush from a different goroutine afterwards.
func (w *World) trackCommands(c *Commands) {
	w.cmdMu.Lock()
	w.pending = append(w.pending, c)
	w.cmdMu.Unlock()
}

// Commands hands out a fresh deferred-command buffer bound to w, for
// ad hoc use outside the System Parameter Protocol (see CommandsParam
// for the scheduled-system path).
func (w *World) Commands() *Commands {
	return newCommands(w)
}

// FlushCommands applies every command queued on every Commands handle
// issued since the last flush, in issuance order, then clears the
// tracking list. The scheduler calls this once per group, between
// groups and at phase boundaries (spec.md §4.7 step 4).
func (w *World) FlushCommands() error {
	w.cmdMu.Lock()
	pending := w.pending
	w.pending = nil
	w.cmdMu.Unlock()

	for _, c := range pending {
		if err := c.flush(); err != nil {
			return err
		}
	}
	return nil
}

func (w *World) logSkippedCommand(op Command, err error) {
	w.log.WithFields(logrus.Fields{
		"command": commandName(op),
		"error":   err,
	}).Warn("loom: skipped deferred command")
}

func commandName(op Command) string {
	switch op.(type) {
	case spawnCommand:
		return "spawn"
	case despawnCommand:
		return "despawn"
	case addComponentsCommand:
		return "add_components"
	case removeComponentsCommand:
		return "remove_components"
	default:
		return "unknown"
	}
}

// ---- structural mutation core ---------------------------------------

func (w *World) materialize(entity Entity, spec Spec, applier rowApplier) error {
	target := w.storage.EnsureTable(spec)
	row := w.storage.Table(target).addRow(entity, applier)
	w.locations.Set(entity, Location{TableID: target, Row: row})
	return nil
}

func (w *World) despawnNow(entity Entity) error {
	loc, err := w.locate(entity)
	if err != nil {
		return err
	}
	relocated, ok := w.storage.Despawn(loc.TableID, loc.Row)
	w.locations.Clear(entity)
	if ok {
		w.locations.Set(relocated, Location{TableID: loc.TableID, Row: loc.Row})
	}
	w.allocator.Free(entity)
	w.fireDestroy(entity)
	return nil
}

func (w *World) addComponentsNow(entity Entity, add Spec, applier rowApplier) error {
	loc, err := w.locate(entity)
	if err != nil {
		return err
	}
	srcTable := w.storage.Table(loc.TableID)
	newSpec := srcTable.Spec()
	for _, id := range add.IDs() {
		newSpec = newSpec.With(id)
	}

	var apply func(*Table)
	if applier != nil {
		apply = applier.apply
	}

	if newSpec.Equal(srcTable.Spec()) {
		// No new columns: every added type was already present. Overwrite
		// the existing row's values in place rather than migrating tables.
		if apply != nil {
			apply(srcTable)
			// apply appended fresh values onto the tail of each touched
			// column; splice them back into row and drop the stray tail.
			spliceRowOverwrite(srcTable, add, loc.Row)
		}
		return nil
	}

	target := w.storage.EnsureTable(newSpec)
	newRow, relocated, relocatedOK := w.storage.Migrate(entity, loc.TableID, loc.Row, target, add, apply)
	w.locations.Set(entity, Location{TableID: target, Row: newRow})
	if relocatedOK {
		w.locations.Set(relocated, loc)
	}
	return nil
}

// spliceRowOverwrite moves the freshly-appended tail value for each
// column named in touched into row, then truncates the stray tail entry
// — used when AddComponents supplies new values for components an
// entity already carries, so no table migration occurs but the new
// values must still land at the entity's existing row.
func spliceRowOverwrite(t *Table, touched Spec, row int) {
	for _, id := range touched.IDs() {
		col := t.column(id)
		if col == nil {
			continue
		}
		tail := col.Len() - 1
		if tail == row {
			continue
		}
		copy(col.readBytes(row), col.readBytes(tail))
		col.swapRemoveNoDrop(tail) // tail == col.Len()-1, so this is a pure truncate
	}
}

func (w *World) removeComponentsNow(entity Entity, remove Spec) error {
	loc, err := w.locate(entity)
	if err != nil {
		return err
	}
	srcTable := w.storage.Table(loc.TableID)
	newSpec := srcTable.Spec()
	for _, id := range remove.IDs() {
		newSpec = newSpec.Without(id)
	}
	if newSpec.Equal(srcTable.Spec()) {
		return nil // none of the removed components were present: no-op
	}
	target := w.storage.EnsureTable(newSpec)
	newRow, relocated, relocatedOK := w.storage.Migrate(entity, loc.TableID, loc.Row, target, Spec{}, nil)
	w.locations.Set(entity, Location{TableID: target, Row: newRow})
	if relocatedOK {
		w.locations.Set(relocated, loc)
	}
	return nil
}

// ---- public World API (spec.md §6) -----------------------------------

// Spawn creates one entity with the given component values, returning
// its identifier immediately. If the world is locked (e.g. a query is
// iterating), the spawn is queued instead and the returned Entity is
// valid for use once the last lock is released and the queue applied.
func (w *World) Spawn(values ...ComponentValue) Entity {
	e := w.allocator.Alloc()
	op := spawnCommand{entity: e, values: values}
	if err := w.enqueueOrRun(op); err != nil {
		w.logSkippedCommand(op, err)
	}
	return e
}

// Despawn removes entity, returning ErrUnknownEntity / ErrStaleEntity if
// it does not identify a live entity (spec.md §7 item 3).
func (w *World) Despawn(entity Entity) error {
	return w.enqueueOrRun(despawnCommand{entity: entity})
}

// AddComponents migrates entity to include the given components.
func (w *World) AddComponents(entity Entity, values ...ComponentValue) error {
	return w.enqueueOrRun(addComponentsCommand{entity: entity, values: values})
}

// RemoveComponents migrates entity to drop the components named by spec.
// Removing a component the entity does not have is a no-op (spec.md §11).
func (w *World) RemoveComponents(entity Entity, spec Spec) error {
	return w.enqueueOrRun(removeComponentsCommand{entity: entity, spec: spec})
}

// SetParent establishes a parent/child relationship, adapted from the
// teacher's Entity.SetParent/SetDestroyCallback (entity.go), generalized
// from a pointer-identity Entity to loom's (id, generation) value.
func (w *World) SetParent(child, parent Entity) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	rel := w.relationships[child]
	if rel.hasParent {
		return errors.Errorf("loom: entity %v already has a parent", child)
	}
	rel.parent = parent
	rel.hasParent = true
	w.relationships[child] = rel
	return nil
}

// Parent returns child's parent, if any.
func (w *World) Parent(child Entity) (Entity, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	rel := w.relationships[child]
	return rel.parent, rel.hasParent
}

// OnDestroy registers a callback fired when entity is despawned.
func (w *World) OnDestroy(entity Entity, cb EntityDestroyCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	rel := w.relationships[entity]
	rel.onDestroy = append(rel.onDestroy, cb)
	w.relationships[entity] = rel
}

func (w *World) fireDestroy(entity Entity) {
	w.mu.Lock()
	rel, ok := w.relationships[entity]
	delete(w.relationships, entity)
	w.mu.Unlock()
	if !ok {
		return
	}
	for _, cb := range rel.onDestroy {
		cb(entity)
	}
}

// ComponentsOf returns the spec of entity's current archetype.
func (w *World) ComponentsOf(entity Entity) (Spec, error) {
	loc, err := w.locate(entity)
	if err != nil {
		return Spec{}, err
	}
	return w.storage.Table(loc.TableID).Spec(), nil
}

// Transfer moves entities from w into target, preserving their component
// values, adapted from the teacher's Storage.TransferEntities
// (storage.go), generalized from storage-to-storage to world-to-world.
func (w *World) Transfer(target *World, entities ...Entity) error {
	for _, e := range entities {
		spec, err := w.ComponentsOf(e)
		if err != nil {
			return err
		}
		loc, err := w.locate(e)
		if err != nil {
			return err
		}
		srcTable := w.storage.Table(loc.TableID)

		// Since TypeIDs are only stable within one world (spec.md §9: "the
		// only requirement is that ids are stable within one world"), a
		// cross-world transfer must translate each id through the shared
		// reflect.Type identity rather than assuming positional
		// correspondence between the two (independently sorted) Specs.
		remap := make(map[TypeID]TypeID, spec.Len())
		for _, id := range spec.IDs() {
			info := w.registry.mustInfo(id)
			remap[id] = registerByRType(target.registry, info.rtype)
		}
		targetSpec := NewSpec(mapValues(remap)...)
		targetTableID := target.storage.EnsureTable(targetSpec)
		targetTable := target.storage.Table(targetTableID)

		newRow := targetTable.appendEntityOnly(e)
		for _, id := range spec.IDs() {
			bytes := srcTable.column(id).readBytes(loc.Row)
			targetTable.column(remap[id]).pushBytes(bytes)
		}
		targetTable.checkRowBalanced()
		target.locations.Set(e, Location{TableID: targetTableID, Row: newRow})

		relocated, ok := srcTable.migrateOut(loc.Row)
		w.locations.Clear(e)
		if ok {
			w.locations.Set(relocated, loc)
		}
	}
	return nil
}

func mapValues(m map[TypeID]TypeID) []TypeID {
	out := make([]TypeID, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}
