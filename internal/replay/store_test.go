package replay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swex-camp2024-copilot/spellcaster-arena/internal/arena"
)

func sampleLog(matchID string, turns int) []arena.Event {
	events := make([]arena.Event, 0, turns+1)
	for i := 1; i <= turns; i++ {
		events = append(events, arena.Event{Type: arena.EventTurn, MatchID: matchID, Turn: i, Timestamp: time.Now()})
	}
	events = append(events, arena.Event{
		Type: arena.EventCompleted, MatchID: matchID, Turn: turns,
		Result: &arena.Result{Type: arena.ResultDraw}, Timestamp: time.Now(),
	})
	return events
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "m1", sampleLog("m1", 3)))
	events, err := s.Get(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, events, 4)
	assert.Equal(t, 1, events[0].Turn)
	assert.Equal(t, arena.EventCompleted, events[3].Type)
}

func TestMemoryStoreUnknownMatch(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, arena.ErrMatchNotFound)
}

func TestMemoryStoreRetentionWindow(t *testing.T) {
	s := NewMemoryStore(20 * time.Millisecond)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "m1", sampleLog("m1", 1)))

	_, err := s.Get(ctx, "m1")
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)
	_, err = s.Get(ctx, "m1")
	assert.ErrorIs(t, err, arena.ErrMatchNotFound, "an expired replay is gone")
}

func TestMemoryStorePurgeExpired(t *testing.T) {
	s := NewMemoryStore(10 * time.Millisecond)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "m1", sampleLog("m1", 1)))
	require.NoError(t, s.Save(ctx, "m2", sampleLog("m2", 1)))

	time.Sleep(30 * time.Millisecond)
	s.PurgeExpired()

	s.mu.RLock()
	defer s.mu.RUnlock()
	assert.Empty(t, s.replays)
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "m1", sampleLog("m1", 2)))

	events, err := s.Get(ctx, "m1")
	require.NoError(t, err)
	events[0].Turn = 99

	again, err := s.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 1, again[0].Turn, "callers must not be able to mutate the stored log")
}
