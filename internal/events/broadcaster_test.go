package events

import (
	"testing"
	"time"
)

func TestBroadcasterSubscribeUnsubscribe(t *testing.T) {
	b := NewBroadcaster()

	ch1 := b.Subscribe()
	ch2 := b.Subscribe()

	if b.Count() != 2 {
		t.Fatalf("expected 2 subscribers, got %d", b.Count())
	}

	b.Unsubscribe(ch1)
	if b.Count() != 1 {
		t.Fatalf("expected 1 subscriber after unsubscribe, got %d", b.Count())
	}

	b.Unsubscribe(ch2)
	if b.Count() != 0 {
		t.Fatalf("expected 0 subscribers, got %d", b.Count())
	}
}

func TestBroadcasterPublish(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{
		Type:  EventMutation,
		Store: "file-manager",
		Op:    "set_current_path",
	})

	select {
	case received := <-ch:
		if received.Type != EventMutation {
			t.Errorf("expected type %s, got %s", EventMutation, received.Type)
		}
		if received.Store != "file-manager" {
			t.Errorf("expected store file-manager, got %s", received.Store)
		}
		if received.Op != "set_current_path" {
			t.Errorf("expected op set_current_path, got %s", received.Op)
		}
		if received.Timestamp == 0 {
			t.Error("expected non-zero timestamp")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBroadcasterMultipleSubscribers(t *testing.T) {
	b := NewBroadcaster()
	ch1 := b.Subscribe()
	ch2 := b.Subscribe()
	defer b.Unsubscribe(ch1)
	defer b.Unsubscribe(ch2)

	b.Publish(Event{Type: EventReset, Store: "settings"})

	for i, ch := range []chan Event{ch1, ch2} {
		select {
		case received := <-ch:
			if received.Store != "settings" {
				t.Errorf("subscriber %d: expected store settings, got %s", i, received.Store)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d: timed out", i)
		}
	}
}

func TestBroadcasterDropsForSlowConsumer(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill the channel buffer (64)
	for i := 0; i < 100; i++ {
		b.Publish(Event{Type: EventMutation, Store: "file-manager", Op: "set_files"})
	}

	// Should not block or panic
	count := 0
	for {
		select {
		case <-ch:
			count++
		default:
			goto done
		}
	}
done:
	if count != 64 {
		t.Errorf("expected 64 buffered events, got %d", count)
	}
}

func TestSubject(t *testing.T) {
	tests := []struct {
		prefix string
		store  string
		want   string
	}{
		{"breadbox.events", "file-manager", "breadbox.events.file-manager"},
		{"breadbox.events", "settings", "breadbox.events.settings"},
		{"breadbox.events", "", "breadbox.events"},
	}
	for _, tt := range tests {
		if got := subject(tt.prefix, tt.store); got != tt.want {
			t.Errorf("subject(%q, %q) = %q, want %q", tt.prefix, tt.store, got, tt.want)
		}
	}
}
