package loom

import "testing"

type tblTestPos struct{ X, Y float64 }
type tblTestVel struct{ X, Y float64 }

func newTestTable(t *testing.T, r *Registry, types ...any) (*Table, Spec) {
	t.Helper()
	var ids []TypeID
	for _, ty := range types {
		switch ty.(type) {
		case tblTestPos:
			ids = append(ids, Register[tblTestPos](r))
		case tblTestVel:
			ids = append(ids, Register[tblTestVel](r))
		}
	}
	spec := NewSpec(ids...)
	infos := make([]Info, spec.Len())
	for i, id := range spec.IDs() {
		infos[i] = r.mustInfo(id)
	}
	return newTable(spec, infos, DefaultTableGrowthFactor), spec
}

func TestTableAddRowBalanced(t *testing.T) {
	r := NewRegistry()
	tbl, spec := newTestTable(t, r, tblTestPos{}, tblTestVel{})
	posID := spec.IDs()[0]
	velID := spec.IDs()[1]

	e := Entity{ID: 1, Generation: 1}
	row := tbl.addRow(e, multiApplier{
		funcApplier(func(tt *Table) { pushTyped(tt.column(posID), tblTestPos{X: 1}) }),
		funcApplier(func(tt *Table) { pushTyped(tt.column(velID), tblTestVel{X: 2}) }),
	})
	if row != 0 {
		t.Fatalf("expected row 0, got %d", row)
	}
	if tbl.Len() != 1 {
		t.Fatalf("expected length 1, got %d", tbl.Len())
	}
	if tbl.EntityAt(0) != e {
		t.Fatalf("expected entity %v, got %v", e, tbl.EntityAt(0))
	}
}

func TestTableAddRowPanicsOnImbalance(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on unbalanced add_row")
		}
	}()
	r := NewRegistry()
	tbl, spec := newTestTable(t, r, tblTestPos{}, tblTestVel{})
	posID := spec.IDs()[0]

	e := Entity{ID: 1, Generation: 1}
	tbl.addRow(e, funcApplier(func(tt *Table) { pushTyped(tt.column(posID), tblTestPos{}) }))
}

func TestTableSwapRemove(t *testing.T) {
	r := NewRegistry()
	tbl, spec := newTestTable(t, r, tblTestPos{})
	posID := spec.IDs()[0]

	e1 := Entity{ID: 1, Generation: 1}
	e2 := Entity{ID: 2, Generation: 1}
	tbl.addRow(e1, funcApplier(func(tt *Table) { pushTyped(tt.column(posID), tblTestPos{X: 1}) }))
	tbl.addRow(e2, funcApplier(func(tt *Table) { pushTyped(tt.column(posID), tblTestPos{X: 2}) }))

	moved, ok := tbl.swapRemove(0)
	if !ok || moved != e2 {
		t.Fatalf("expected e2 to be relocated, got %v ok=%v", moved, ok)
	}
	if tbl.Len() != 1 {
		t.Fatalf("expected length 1, got %d", tbl.Len())
	}
	if tbl.EntityAt(0) != e2 {
		t.Fatalf("expected e2 at row 0, got %v", tbl.EntityAt(0))
	}
}
