package events

import (
	"testing"

	"github.com/yourorg/jobtracker/internal/domain"
)

func TestPublishReachesOwnSubscriberOnly(t *testing.T) {
	hub := NewHub(nil)

	chA, cancelA := hub.Subscribe(1)
	defer cancelA()
	chB, cancelB := hub.Subscribe(2)
	defer cancelB()

	hub.Publish(1, Event{Action: ActionCreated, Application: &domain.Application{ID: 10, UserID: 1}})

	select {
	case ev := <-chA:
		if ev.Action != ActionCreated || ev.Application.ID != 10 {
			t.Fatalf("unexpected event: %+v", ev)
		}
	default:
		t.Fatal("expected owner's subscriber to receive the event")
	}

	select {
	case ev := <-chB:
		t.Fatalf("user 2 must not see user 1's events, got %+v", ev)
	default:
	}
}

func TestPublishDropsWhenSubscriberFull(t *testing.T) {
	hub := NewHub(nil)

	ch, cancel := hub.Subscribe(1)
	defer cancel()

	// Overfill the buffer; Publish must not block.
	for i := 0; i < subscriberBuffer+5; i++ {
		hub.Publish(1, Event{Action: ActionUpdated, Application: &domain.Application{ID: int64(i), UserID: 1}})
	}

	if got := len(ch); got != subscriberBuffer {
		t.Fatalf("expected %d buffered events, got %d", subscriberBuffer, got)
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	hub := NewHub(nil)

	ch, cancel := hub.Subscribe(1)
	cancel()

	hub.Publish(1, Event{Action: ActionDeleted, Application: &domain.Application{ID: 1, UserID: 1}})

	if got := len(ch); got != 0 {
		t.Fatalf("expected no events after cancel, got %d", got)
	}
}
