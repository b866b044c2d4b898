package live

import (
	"testing"

	"github.com/negotium-labs/negotium/internal/domain"
)

func TestPublishReachesSessionSubscribers(t *testing.T) {
	hub := NewHub()

	chA := hub.Subscribe("sess_a")
	chB := hub.Subscribe("sess_b")

	ev := TurnEvent{
		SessionID:  "sess_a",
		TurnNumber: 1,
		Mood:       domain.MoodCurious,
		Patience:   83,
		Leverage:   50,
		Stage:      domain.StageMiddle,
	}
	hub.Publish(ev)

	select {
	case got := <-chA:
		if got != ev {
			t.Errorf("Expected %+v, got %+v", ev, got)
		}
	default:
		t.Fatal("Expected event on session A subscriber")
	}

	select {
	case got := <-chB:
		t.Errorf("Session B should not receive A's events, got %+v", got)
	default:
	}
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe("sess_a")

	// Overfill the buffer; Publish must never block.
	for i := 0; i < subscriberBuffer+5; i++ {
		hub.Publish(TurnEvent{SessionID: "sess_a", TurnNumber: i + 1})
	}

	if len(ch) != subscriberBuffer {
		t.Errorf("Expected buffer to hold %d events, got %d", subscriberBuffer, len(ch))
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe("sess_a")

	hub.Unsubscribe("sess_a", ch)

	if _, ok := <-ch; ok {
		t.Error("Expected channel to be closed after unsubscribe")
	}

	// Publishing to a session with no subscribers is a no-op.
	hub.Publish(TurnEvent{SessionID: "sess_a", TurnNumber: 1})
}

func TestCloseSessionClosesAllSubscribers(t *testing.T) {
	hub := NewHub()
	ch1 := hub.Subscribe("sess_a")
	ch2 := hub.Subscribe("sess_a")

	hub.CloseSession("sess_a")

	if _, ok := <-ch1; ok {
		t.Error("Expected first subscriber channel to be closed")
	}
	if _, ok := <-ch2; ok {
		t.Error("Expected second subscriber channel to be closed")
	}

	// Closing twice is safe.
	hub.CloseSession("sess_a")
}
