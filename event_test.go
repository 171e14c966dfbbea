package loom

import "testing"

type Damage struct {
	Target Entity
	Amount int
}

func TestEventRoundTrip(t *testing.T) {
	// spec scenario: producer sends before a swap; the consumer sees
	// zero events that frame, then exactly one after swap_event_buffers.
	w := NewWorld(DefaultConfig())
	RegisterEvent[Damage](w)

	producer := NewProducer[Damage](w)
	consumer := NewConsumer[Damage](w)

	target := Entity{ID: 1, Generation: 1}
	producer.Send(w, Damage{Target: target, Amount: 10})

	if got := consumer.Read(w); len(got) != 0 {
		t.Fatalf("expected zero events before swap, got %v", got)
	}

	w.SwapEventBuffers()

	got := consumer.Read(w)
	if len(got) != 1 || got[0].Amount != 10 || got[0].Target != target {
		t.Fatalf("expected exactly one Damage{%v,10}, got %v", target, got)
	}
}

func TestEventBufferOverflowPanics(t *testing.T) {
	w := NewWorld(Config{EventCapacity: 2})
	RegisterEvent[Damage](w)
	producer := NewProducer[Damage](w)

	producer.Send(w, Damage{Amount: 1})
	producer.Send(w, Damage{Amount: 2})

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on exceeding event capacity")
		}
	}()
	producer.Send(w, Damage{Amount: 3})
}

func TestRegisterEventTwiceOnSameTypePanics(t *testing.T) {
	w := NewWorld(DefaultConfig())
	RegisterEvent[Damage](w)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate event registration")
		}
	}()
	RegisterEvent[Damage](w)
}

func TestSwapClearsNewActiveBuffer(t *testing.T) {
	w := NewWorld(DefaultConfig())
	RegisterEvent[Damage](w)
	producer := NewProducer[Damage](w)
	consumer := NewConsumer[Damage](w)

	producer.Send(w, Damage{Amount: 1})
	w.SwapEventBuffers() // stable now holds {1}; active is the old stable, now cleared

	if got := consumer.Read(w); len(got) != 1 {
		t.Fatalf("expected 1 event after first swap, got %v", got)
	}

	w.SwapEventBuffers() // nothing was sent into the new active buffer
	if got := consumer.Read(w); len(got) != 0 {
		t.Fatalf("expected stable buffer cleared after second swap, got %v", got)
	}
}
