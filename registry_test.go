package loom

import "testing"

type regTestPos struct{ X, Y float64 }
type regTestTag struct{}

func TestRegisterIdempotent(t *testing.T) {
	r := NewRegistry()
	id1 := Register[regTestPos](r)
	id2 := Register[regTestPos](r)
	if id1 != id2 {
		t.Fatalf("Register not idempotent: got %d then %d", id1, id2)
	}
}

func TestRegisterDistinctTypes(t *testing.T) {
	r := NewRegistry()
	posID := Register[regTestPos](r)
	tagID := Register[regTestTag](r)
	if posID == tagID {
		t.Fatalf("distinct types got the same id: %d", posID)
	}
}

func TestInfoUnknownID(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Info(999); err == nil {
		t.Fatal("expected error for unregistered id")
	}
}

func TestInfoZeroSizeType(t *testing.T) {
	r := NewRegistry()
	id := Register[regTestTag](r)
	info, err := r.Info(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Size != 0 {
		t.Fatalf("expected zero-size type, got size %d", info.Size)
	}
}

func TestNeedsDropDetection(t *testing.T) {
	type withPointer struct{ P *int }
	type withoutPointer struct{ A, B int }

	r := NewRegistry()
	ptrID := Register[withPointer](r)
	valID := Register[withoutPointer](r)

	ptrInfo, _ := r.Info(ptrID)
	valInfo, _ := r.Info(valID)

	if ptrInfo.Drop == nil {
		t.Error("expected Drop func for type containing a pointer")
	}
	if valInfo.Drop != nil {
		t.Error("expected no Drop func for a plain value type")
	}
}
