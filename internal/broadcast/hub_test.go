package broadcast

import (
	"testing"
)

func TestBroadcastDeliversToSSEClients(t *testing.T) {
	hub := NewHub()
	ch := make(chan []byte, 1)
	hub.RegisterSSE("match-1", ch)

	hub.Broadcast("match-1", []byte(`{"seq":1}`))

	select {
	case payload := <-ch:
		if string(payload) != `{"seq":1}` {
			t.Fatalf("unexpected payload %s", payload)
		}
	default:
		t.Fatal("expected payload on channel")
	}
}

func TestBroadcastSkipsSlowSSEClients(t *testing.T) {
	hub := NewHub()
	ch := make(chan []byte) // unbuffered, no reader
	hub.RegisterSSE("match-1", ch)

	// Must not block.
	hub.Broadcast("match-1", []byte(`{"seq":1}`))
}

func TestBroadcastIsolatesMatches(t *testing.T) {
	hub := NewHub()
	ch := make(chan []byte, 1)
	hub.RegisterSSE("match-1", ch)

	hub.Broadcast("match-2", []byte(`{"seq":1}`))

	select {
	case payload := <-ch:
		t.Fatalf("unexpected payload %s for other match", payload)
	default:
	}
}

func TestUnregisterSSEClosesChannel(t *testing.T) {
	hub := NewHub()
	ch := make(chan []byte, 1)
	hub.RegisterSSE("match-1", ch)
	hub.UnregisterSSE("match-1", ch)

	if _, open := <-ch; open {
		t.Fatal("expected channel to be closed")
	}

	hub.Broadcast("match-1", []byte(`{"seq":1}`))
}
