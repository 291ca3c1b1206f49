package core

import (
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("expected event kind %v not received", kind)
			return nil
		}
	}
}

// drainHasKind empties everything currently queued for the client and
// reports whether any of it was of the given kind.
func drainHasKind(ch <-chan *Event, kind EventKind) bool {
	found := false
	for {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				found = true
			}
		default:
			return found
		}
	}
}
