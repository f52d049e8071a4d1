package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Broadcast must never block request handlers even when nothing is
// draining the hub.
func TestBroadcastDropsWhenSaturated(t *testing.T) {
	hub := NewHub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Broadcast(Event{Type: EventTypeWithdrawalCreated})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked with a saturated hub")
	}

	assert.Len(t, hub.broadcast, cap(hub.broadcast))
}
