package arena

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func turnEvent(matchID string, turn int) Event {
	return Event{Type: EventTurn, MatchID: matchID, Turn: turn, Timestamp: time.Now()}
}

func TestHubDeliversInPublishOrder(t *testing.T) {
	h := NewHub("m1", 16, 0)
	defer h.Close()

	sub, err := h.Attach()
	require.NoError(t, err)

	for i := 1; i <= 10; i++ {
		h.Publish(turnEvent("m1", i))
	}

	for i := 1; i <= 10; i++ {
		select {
		case ev := <-sub.Events():
			assert.Equal(t, i, ev.Turn)
		case <-time.After(time.Second):
			t.Fatalf("event %d never arrived", i)
		}
	}
}

func TestHubPublishNeverBlocksOnFullObserver(t *testing.T) {
	h := NewHub("m1", 2, 0)
	defer h.Close()

	sub, err := h.Attach()
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 1; i <= 10; i++ {
			h.Publish(turnEvent("m1", i))
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on an observer that never reads")
	}

	// The overflowing observer was dropped: its channel drains the
	// buffered prefix and then closes.
	deadline := time.After(time.Second)
	for {
		select {
		case _, open := <-sub.Events():
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("dropped observer's channel never closed")
		}
	}
}

func TestHubIndependentObservers(t *testing.T) {
	h := NewHub("m1", 2, 0)
	defer h.Close()

	stuck, err := h.Attach()
	require.NoError(t, err)
	_ = stuck // never reads

	healthy, err := h.Attach()
	require.NoError(t, err)

	go func() {
		for i := 1; i <= 10; i++ {
			h.Publish(turnEvent("m1", i))
			time.Sleep(5 * time.Millisecond)
		}
	}()

	// The healthy observer keeps its stream even though its sibling
	// overflows and is dropped.
	received := 0
	deadline := time.After(2 * time.Second)
	for received < 10 {
		select {
		case ev, open := <-healthy.Events():
			require.True(t, open, "healthy observer must not be dropped")
			received++
			assert.Equal(t, received, ev.Turn)
		case <-deadline:
			t.Fatalf("healthy observer stalled after %d events", received)
		}
	}
}

func TestHubInjectsHeartbeats(t *testing.T) {
	h := NewHub("m1", 16, 10*time.Millisecond)
	defer h.Close()

	sub, err := h.Attach()
	require.NoError(t, err)

	select {
	case ev := <-sub.Events():
		assert.Equal(t, EventHeartbeat, ev.Type)
		assert.Equal(t, "m1", ev.MatchID)
	case <-time.After(time.Second):
		t.Fatal("no heartbeat on an idle hub")
	}
}

func TestHubCloseReleasesAndRejectsAttach(t *testing.T) {
	h := NewHub("m1", 16, 0)
	sub, err := h.Attach()
	require.NoError(t, err)

	h.Close()
	h.Close() // idempotent

	_, open := <-sub.Events()
	assert.False(t, open, "close must release attached observers")

	_, err = h.Attach()
	assert.ErrorIs(t, err, ErrMatchFinished)
}

func TestSubscriptionCloseDetaches(t *testing.T) {
	h := NewHub("m1", 16, 0)
	defer h.Close()

	sub, err := h.Attach()
	require.NoError(t, err)
	sub.Close()
	sub.Close() // double-detach is safe

	// Publishing after detach must not panic or deliver.
	h.Publish(turnEvent("m1", 1))
	_, open := <-sub.Events()
	assert.False(t, open)
}
