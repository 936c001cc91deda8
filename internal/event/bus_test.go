package event

import (
	"sync"
	"testing"
)

func TestBus_Subscribe(t *testing.T) {
	bus := NewBus()

	called := false
	id := bus.Subscribe(TypeTrialSelected, func(e Event) {
		called = true
	})

	if id == "" {
		t.Error("Subscribe should return a non-empty ID")
	}
	if bus.SubscriptionCount() != 1 {
		t.Errorf("Expected 1 subscription, got %d", bus.SubscriptionCount())
	}
	if called {
		t.Error("Handler should not be called until an event is published")
	}
}

func TestBus_Publish(t *testing.T) {
	bus := NewBus()

	var received Event
	bus.Subscribe(TypeTrialSelected, func(e Event) {
		received = e
	})

	bus.Publish(NewTrialSelectedEvent("stairs", 3, "A", 0, 1.25))

	if received == nil {
		t.Fatal("Handler should have received the event")
	}
	sel, ok := received.(TrialSelectedEvent)
	if !ok {
		t.Fatalf("received %T, want TrialSelectedEvent", received)
	}
	if sel.Trial != 3 || sel.Label != "A" || sel.Value != 1.25 {
		t.Errorf("received %+v", sel)
	}
	if sel.Timestamp().IsZero() {
		t.Error("Timestamp() is zero")
	}
}

func TestBus_OrderAndWildcard(t *testing.T) {
	bus := NewBus()

	var order []string
	bus.SubscribeAll(func(e Event) { order = append(order, "all:"+e.EventType()) })
	bus.Subscribe(TypeCoordinatorDone, func(e Event) { order = append(order, "first") })
	bus.Subscribe(TypeCoordinatorDone, func(e Event) { order = append(order, "second") })

	bus.Publish(NewCoordinatorFinishedEvent("stairs", 8, -1))

	want := []string{"first", "second", "all:" + TypeCoordinatorDone}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestBus_OtherTypesNotDelivered(t *testing.T) {
	bus := NewBus()
	called := false
	bus.Subscribe(TypeProcedureFinished, func(e Event) { called = true })

	bus.Publish(NewResponseRecordedEvent("stairs", []int{1}))

	if called {
		t.Error("handler called for a different event type")
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	calls := 0
	id := bus.Subscribe(TypeTrialSelected, func(e Event) { calls++ })
	keep := bus.Subscribe(TypeTrialSelected, func(e Event) { calls += 10 })

	if !bus.Unsubscribe(id) {
		t.Fatal("Unsubscribe returned false for a known ID")
	}
	if bus.Unsubscribe(id) {
		t.Error("Unsubscribe returned true for a removed ID")
	}

	bus.Publish(NewTrialSelectedEvent("stairs", 0, "A", 0, 0))
	if calls != 10 {
		t.Errorf("calls = %d, want 10", calls)
	}
	if keep == id {
		t.Error("subscription IDs are not unique")
	}
}

func TestBus_PanicRecovery(t *testing.T) {
	bus := NewBus()
	after := false
	bus.Subscribe(TypeProcedureFinished, func(e Event) { panic("boom") })
	bus.Subscribe(TypeProcedureFinished, func(e Event) { after = true })

	bus.Publish(NewProcedureFinishedEvent("stairs", "A", 1))

	if !after {
		t.Error("handler after a panicking handler was not called")
	}
}

func TestBus_Clear(t *testing.T) {
	bus := NewBus()
	bus.Subscribe(TypeTrialSelected, func(e Event) {})
	bus.SubscribeAll(func(e Event) {})
	bus.Clear()
	if bus.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d after Clear", bus.SubscriptionCount())
	}
}

func TestBus_ConcurrentPublish(t *testing.T) {
	bus := NewBus()
	var mu sync.Mutex
	count := 0
	bus.SubscribeAll(func(e Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			bus.Publish(NewTrialSelectedEvent("stairs", i, "A", 0, 0))
		}(i)
	}
	wg.Wait()

	if count != 20 {
		t.Errorf("count = %d, want 20", count)
	}
}
