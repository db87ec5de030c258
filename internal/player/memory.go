package player

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// memoryRepository is the default registry when no database is
// configured; also used by tests.
type memoryRepository struct {
	mu      sync.RWMutex
	players map[string]*Player
	byName  map[string]string
}

func NewMemoryRepository() Repository {
	return &memoryRepository{
		players: make(map[string]*Player),
		byName:  make(map[string]string),
	}
}

func (r *memoryRepository) Create(_ context.Context, name string) (*Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byName[name]; dup {
		return nil, ErrNameExists
	}
	p := &Player{ID: uuid.NewString(), Name: name}
	r.players[p.ID] = p
	r.byName[name] = p.ID
	out := *p
	return &out, nil
}

func (r *memoryRepository) Get(_ context.Context, playerID string) (*Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[playerID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *p
	return &out, nil
}

func (r *memoryRepository) Exists(_ context.Context, playerID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.players[playerID]
	return ok, nil
}

func (r *memoryRepository) RecordResult(_ context.Context, winnerID, loserID string, draw bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, wok := r.players[winnerID]
	l, lok := r.players[loserID]
	if !wok || !lok {
		return ErrNotFound
	}
	if draw {
		w.Draws++
		l.Draws++
		return nil
	}
	w.Wins++
	l.Losses++
	return nil
}
