// Package replay retains finished matches' event logs for a bounded
// retention window and serves them back with no pacing delay.
package replay

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/swex-camp2024-copilot/spellcaster-arena/internal/arena"
)

// MemoryStore keeps replays in process memory. Expired entries answer
// ErrMatchNotFound immediately; PurgeExpired reclaims them and is run
// on a schedule by the server.
type MemoryStore struct {
	retention time.Duration

	mu      sync.RWMutex
	replays map[string]memoryEntry
}

type memoryEntry struct {
	events    []arena.Event
	expiresAt time.Time
}

func NewMemoryStore(retention time.Duration) *MemoryStore {
	return &MemoryStore{
		retention: retention,
		replays:   make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) Save(_ context.Context, matchID string, events []arena.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replays[matchID] = memoryEntry{
		events:    events,
		expiresAt: time.Now().Add(s.retention),
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, matchID string) ([]arena.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.replays[matchID]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, arena.ErrMatchNotFound
	}
	out := make([]arena.Event, len(e.events))
	copy(out, e.events)
	return out, nil
}

// PurgeExpired drops entries past their retention window.
func (s *MemoryStore) PurgeExpired() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for id, e := range s.replays {
		if now.After(e.expiresAt) {
			delete(s.replays, id)
			purged++
		}
	}
	if purged > 0 {
		slog.Info("purged expired replays", "count", purged)
	}
}
