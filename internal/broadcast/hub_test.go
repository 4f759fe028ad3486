package broadcast

import (
	"testing"

	"github.com/granrifa/rifa-go/internal/domain"
)

func TestHubDeliversInPublishOrder(t *testing.T) {
	hub := NewHub(nil)
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	hub.Publish(TicketUpdated{Number: 7, Status: domain.TicketSold})
	hub.Publish(SettingsUpdated{Changed: map[string]string{domain.SettingPrice: "75"}})
	hub.Publish(RaffleReset{})

	want := []string{"ticket_updated", "settings_updated", "raffle_reset"}
	for i, name := range want {
		evt := <-sub.Events()
		if evt.Name() != name {
			t.Fatalf("event %d: got %q, want %q", i, evt.Name(), name)
		}
	}
}

func TestHubSubscriberSeesOnlyFutureEvents(t *testing.T) {
	hub := NewHub(nil)

	hub.Publish(TicketUpdated{Number: 1, Status: domain.TicketSold})

	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	hub.Publish(TicketUpdated{Number: 2, Status: domain.TicketSold})

	evt := <-sub.Events()
	tu, ok := evt.(TicketUpdated)
	if !ok {
		t.Fatalf("got %T, want TicketUpdated", evt)
	}
	if tu.Number != 2 {
		t.Fatalf("got ticket %d, want 2 (no replay of earlier events)", tu.Number)
	}

	select {
	case extra := <-sub.Events():
		t.Fatalf("unexpected extra event %v", extra)
	default:
	}
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	hub := NewHub(nil)
	slow := hub.Subscribe()
	fast := hub.Subscribe()

	// Overflow the slow subscriber's buffer without draining it.
	for i := 0; i < subscriberBuffer+1; i++ {
		hub.Publish(TicketUpdated{Number: i + 1, Status: domain.TicketSold})
		// Keep the fast subscriber drained so only the slow one overflows.
		<-fast.Events()
	}

	if got := hub.Len(); got != 1 {
		t.Fatalf("got %d subscribers, want 1 after drop", got)
	}

	// The dropped subscriber's channel must be closed after the buffered
	// events are drained.
	drained := 0
	for range slow.Events() {
		drained++
	}
	if drained != subscriberBuffer {
		t.Fatalf("drained %d buffered events, want %d", drained, subscriberBuffer)
	}

	// Publishing after the drop must not panic or block.
	hub.Publish(RaffleReset{})
	if evt := <-fast.Events(); evt.Name() != "raffle_reset" {
		t.Fatalf("surviving subscriber got %q, want raffle_reset", evt.Name())
	}
}

func TestHubUnsubscribeTwice(t *testing.T) {
	hub := NewHub(nil)
	sub := hub.Subscribe()

	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub) // must not panic on double close

	if got := hub.Len(); got != 0 {
		t.Fatalf("got %d subscribers, want 0", got)
	}
}
