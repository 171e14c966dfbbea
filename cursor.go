package loom

// Cursor is a low-level row iterator over a single Table, stepping
// entity-by-entity without any type-erasure cost beyond the one-time
// column lookups at construction. Views do not use Cursor (their Each
// methods step rows directly); it is exported because some systems want
// row-batch access (e.g. a
// physics system iterating positions and velocities together without
// per-row callback overhead) rather than the per-entity closure style
// Each provides. Adapted from the teacher's cursor.go iteration pattern,
// generalized from the teacher's dynamic component lookup to the
// type-checked ColumnIter this runtime's columns expose.
type Cursor struct {
	table *Table
	row   int
}

// NewCursor starts a cursor just before table's first row; the first
// call to Next moves it to row 0.
func NewCursor(table *Table) *Cursor {
	return &Cursor{table: table, row: -1}
}

// Next advances the cursor, returning false once every row has been
// visited.
func (c *Cursor) Next() bool {
	c.row++
	return c.row < c.table.Len()
}

// Row returns the cursor's current row index.
func (c *Cursor) Row() int { return c.row }

// Entity returns the entity occupying the cursor's current row.
func (c *Cursor) Entity() Entity { return c.table.EntityAt(c.row) }

// Len reports the exact remaining row count, used as a query's size hint
// (spec.md §4.5, "exact size hints").
func (c *Cursor) Len() int { return c.table.Len() - c.row - 1 }

// Component fetches a pointer to T's value at the cursor's current row.
// Panics (contract violation) if the table carries no column for T.
func Component[T any](c *Cursor, comp ComponentType[T]) *T {
	return comp.Get(c.table, c.row)
}

// OptionalComponent is Component's non-panicking counterpart, the
// cursor-level analogue of a View's Option<&C>/Option<&mut C> slot
// (View2Opt1 resolves its own optional column): ok is false
// when the table has no column for T, in which case the pointer is nil.
func OptionalComponent[T any](c *Cursor, comp ComponentType[T]) (*T, bool) {
	if !comp.Check(c.table) {
		return nil, false
	}
	return comp.Get(c.table, c.row), true
}
