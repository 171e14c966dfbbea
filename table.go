package loom

import (
	"fmt"

	"github.com/TheBitDrifter/bark"
)

// Table is an ordered collection of Columns, one per component type in
// its Spec, plus a parallel vector of entity identifiers indexed by row.
// Invariants (spec.md §3): (I1) all columns share the same length;
// (I2) entities[row] uniquely identifies the occupant; (I3) columns are
// ordered identically to the spec.
type Table struct {
	spec     Spec
	columns  []*Column
	colByID  map[TypeID]*Column
	entities []Entity
}

// newTable constructs an empty Table for the given spec. infos must be
// in spec order (callers build it from the Spec's sorted id list).
// growth is forwarded to each column (Config.TableGrowthFactor).
func newTable(spec Spec, infos []Info, growth int) *Table {
	t := &Table{
		spec:    spec,
		columns: make([]*Column, len(infos)),
		colByID: make(map[TypeID]*Column, len(infos)),
	}
	for i, info := range infos {
		col := newColumn(info, growth)
		t.columns[i] = col
		t.colByID[info.TypeID] = col
	}
	return t
}

// Spec returns the table's archetype spec.
func (t *Table) Spec() Spec { return t.spec }

// Len returns the row count (== len(entities) == every column's length).
func (t *Table) Len() int { return len(t.entities) }

// Contains reports whether the table has a column for id.
func (t *Table) Contains(id TypeID) bool {
	_, ok := t.colByID[id]
	return ok
}

// EntityAt returns the entity occupying row.
func (t *Table) EntityAt(row int) Entity { return t.entities[row] }

// column returns the column backing id, or nil.
func (t *Table) column(id TypeID) *Column { return t.colByID[id] }

// rowApplier pushes one component value into each of a target table's
// columns, in whatever order it chooses; used to fulfill addRow's
// contract (spec.md §4.3). Implementations must push to the columns
// they own and leave the rest untouched.
type rowApplier interface {
	apply(t *Table)
}

// addRow appends entity then invokes apply to push one component into
// each column; it panics (contract violation) if apply does not bring
// every column to equal length, matching spec.md §4.3.
func (t *Table) addRow(entity Entity, apply rowApplier) int {
	row := len(t.entities)
	t.entities = append(t.entities, entity)
	if apply != nil {
		apply.apply(t)
	}
	want := len(t.entities)
	for _, col := range t.columns {
		if col.Len() != want {
			panic(bark.AddTrace(fmt.Errorf(
				"loom: add_row contract violated: column %s has length %d, want %d",
				col.info.Name, col.Len(), want)))
		}
	}
	return row
}

// swapRemove removes row, dropping all component values, and returns the
// entity that was moved into the vacated slot (or ok=false if row was
// the tail row).
func (t *Table) swapRemove(row int) (moved Entity, ok bool) {
	last := len(t.entities) - 1
	for _, col := range t.columns {
		col.swapRemoveDrop(row)
	}
	if row != last {
		t.entities[row] = t.entities[last]
		moved, ok = t.entities[row], true
	}
	t.entities = t.entities[:last]
	return moved, ok
}

// migrateOut removes row from t without dropping component values
// (they have already been moved elsewhere by byte copy), and returns
// the entity that was moved into the vacated slot, if any.
func (t *Table) migrateOut(row int) (moved Entity, ok bool) {
	last := len(t.entities) - 1
	for _, col := range t.columns {
		col.swapRemoveNoDrop(row)
	}
	if row != last {
		t.entities[row] = t.entities[last]
		moved, ok = t.entities[row], true
	}
	t.entities = t.entities[:last]
	return moved, ok
}

// appendEntityOnly appends entity to the entity vector without touching
// any column; used mid-migration, immediately followed by pushes into
// every target column via byte copy / applier.
func (t *Table) appendEntityOnly(entity Entity) int {
	row := len(t.entities)
	t.entities = append(t.entities, entity)
	return row
}

// checkRowBalanced panics (contract violation) unless every column's
// length matches the entity vector's, i.e. (I1) holds.
func (t *Table) checkRowBalanced() {
	want := len(t.entities)
	for _, col := range t.columns {
		if col.Len() != want {
			panic(bark.AddTrace(fmt.Errorf(
				"loom: migration left column %s unbalanced: length %d, want %d",
				col.info.Name, col.Len(), want)))
		}
	}
}
