package loom

import (
	"strconv"
	"strings"
	"sync"
)

// TableID identifies a Table within a Storage. Zero is never valid.
type TableID uint32

// Storage holds an append-only vector of Tables plus an archetype index
// mapping a Spec to a TableID, per spec.md §3. Invariants: (S1) no two
// tables share a spec; (S2) once assigned, a table index is stable.
type Storage struct {
	mu       sync.RWMutex
	registry *Registry
	tables   []*Table // index 0 unused; TableID is 1-based, mirroring the teacher's archetypeID
	byKey    map[string]TableID
	growth   int
}

// NewStorage constructs an empty Storage backed by registry for Info
// lookups, growing each table's columns by growth-fold on overflow
// (Config.GrowthFactor(); growth <= 1 falls back to
// DefaultTableGrowthFactor).
func NewStorage(registry *Registry, growth int) *Storage {
	if growth <= 1 {
		growth = DefaultTableGrowthFactor
	}
	return &Storage{
		registry: registry,
		tables:   make([]*Table, 1),
		byKey:    make(map[string]TableID),
		growth:   growth,
	}
}

func specKey(spec Spec) string {
	var b strings.Builder
	for i, id := range spec.IDs() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatUint(uint64(id), 10))
	}
	return b.String()
}

// EnsureTable looks up or creates the table for spec. Table creation
// allocates one empty column per type in the spec (spec.md §4.4).
func (s *Storage) EnsureTable(spec Spec) TableID {
	key := specKey(spec)

	s.mu.RLock()
	if id, ok := s.byKey[key]; ok {
		s.mu.RUnlock()
		return id
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byKey[key]; ok {
		return id
	}

	infos := make([]Info, spec.Len())
	for i, tid := range spec.IDs() {
		infos[i] = s.registry.mustInfo(tid)
	}
	tbl := newTable(spec, infos, s.growth)
	id := TableID(len(s.tables))
	s.tables = append(s.tables, tbl)
	s.byKey[key] = id
	return id
}

// Table returns the table for id. Callers must hold a lock appropriate
// to their access (the scheduler's AccessGrant machinery, or the host
// thread outside of scheduling).
func (s *Storage) Table(id TableID) *Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tables[id]
}

// Tables returns every table currently registered, in creation order.
// Index 0 of the returned slice is TableID 1.
func (s *Storage) Tables() []*Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Table, len(s.tables)-1)
	copy(out, s.tables[1:])
	return out
}

// TableCount returns how many tables exist.
func (s *Storage) TableCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables) - 1
}

// funcApplier adapts a plain func(*Table) into a rowApplier.
type funcApplier func(*Table)

func (f funcApplier) apply(t *Table) { f(t) }

// Spawn appends entity into the table identified by target, using apply
// to push one component into each of its columns, per spec.md §4.4.
func (s *Storage) Spawn(entity Entity, target TableID, apply func(*Table)) int {
	return s.Table(target).addRow(entity, funcApplier(apply))
}

// Despawn removes entity's row from src, returning any entity relocated
// into the vacated slot.
func (s *Storage) Despawn(src TableID, row int) (Entity, bool) {
	return s.Table(src).swapRemove(row)
}

// Migrate moves an entity from (source, row) to the target table. For
// every type id in the intersection of the two specs (excluding those
// named in override, whose new values apply will supply instead), the
// existing value is byte-copied across; apply (if non-nil) then pushes
// the remaining target-only and overridden components; the source row
// is swap-removed without dropping the moved bytes, per spec.md §4.4.
func (s *Storage) Migrate(entity Entity, source TableID, row int, target TableID, override Spec, apply func(*Table)) (newRow int, relocated Entity, relocatedOK bool) {
	srcTable := s.Table(source)
	dstTable := s.Table(target)

	shared := srcTable.Spec().Intersection(dstTable.Spec()).Difference(override)

	newRow = dstTable.appendEntityOnly(entity)
	for _, id := range shared.IDs() {
		srcCol := srcTable.column(id)
		dstCol := dstTable.column(id)
		bytes := srcCol.readBytes(row)
		dstCol.pushBytes(bytes)
	}
	if apply != nil {
		apply(dstTable)
	}
	dstTable.checkRowBalanced()

	relocated, relocatedOK = srcTable.migrateOut(row)
	return newRow, relocated, relocatedOK
}
