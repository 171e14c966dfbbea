package loom

import "testing"

func TestAllocatorAllocUnique(t *testing.T) {
	a := NewAllocator()
	e1 := a.Alloc()
	e2 := a.Alloc()
	if e1 == e2 {
		t.Fatalf("expected distinct entities, got %v twice", e1)
	}
}

func TestAllocatorFreeAndRecycleBumpsGeneration(t *testing.T) {
	a := NewAllocator()
	e1 := a.Alloc()
	if !a.Free(e1) {
		t.Fatal("expected Free to succeed")
	}
	if a.IsLive(e1) {
		t.Fatal("expected e1 to be stale after Free")
	}

	e2 := a.Alloc()
	if e2.ID != e1.ID {
		t.Fatalf("expected id reuse, got %d vs %d", e2.ID, e1.ID)
	}
	if e2.Generation <= e1.Generation {
		t.Fatalf("expected generation bump, got %d <= %d", e2.Generation, e1.Generation)
	}
	if a.IsLive(e1) {
		t.Fatal("stale reference e1 must not read as live after recycling")
	}
	if !a.IsLive(e2) {
		t.Fatal("expected e2 to be live")
	}
}

func TestAllocatorFreeIsDoubleFreeSafe(t *testing.T) {
	a := NewAllocator()
	e := a.Alloc()
	if !a.Free(e) {
		t.Fatal("first Free should succeed")
	}
	if a.Free(e) {
		t.Fatal("second Free of the same stale entity should be a no-op")
	}
}

func TestLocationRegistrySetGetClear(t *testing.T) {
	l := NewLocationRegistry()
	e := Entity{ID: 3, Generation: 1}

	if _, ok := l.Get(e); ok {
		t.Fatal("expected no location before Set")
	}
	l.Set(e, Location{TableID: 2, Row: 5})
	loc, ok := l.Get(e)
	if !ok || loc.TableID != 2 || loc.Row != 5 {
		t.Fatalf("unexpected location: %+v ok=%v", loc, ok)
	}
	l.Clear(e)
	if _, ok := l.Get(e); ok {
		t.Fatal("expected no location after Clear")
	}
}
