package arena

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MatchFactory creates and starts a match for a freshly paired couple,
// returning the new match identity.
type MatchFactory func(a, b ParticipantConfig) (string, error)

// Queue is the matchmaking waiting list. Enqueue, match attempt and
// dequeue all happen under one lock, and pairing is strictly
// first-in-first-out: the two oldest waiters are always matched first.
type Queue struct {
	create      MatchFactory
	joinTimeout time.Duration

	mu      sync.Mutex
	waiting []*QueueEntry
	byID    map[string]*QueueEntry
}

func NewQueue(create MatchFactory, joinTimeout time.Duration) *Queue {
	return &Queue{
		create:      create,
		joinTimeout: joinTimeout,
		byID:        make(map[string]*QueueEntry),
	}
}

// Len reports the number of players currently waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiting)
}

// Join blocks until the caller is paired, the matchmaking window
// elapses (ErrMatchmakingTimeout), the caller withdraws
// (context.Canceled), or ctx is cancelled. A player already waiting
// cannot join twice.
func (q *Queue) Join(ctx context.Context, cfg ParticipantConfig) (Pairing, error) {
	q.mu.Lock()
	if _, dup := q.byID[cfg.PlayerID]; dup {
		q.mu.Unlock()
		return Pairing{}, ErrAlreadyQueued
	}
	e := &QueueEntry{
		PlayerID: cfg.PlayerID,
		Config:   cfg,
		queuedAt: time.Now(),
		ready:    make(chan Pairing, 1),
	}
	q.waiting = append(q.waiting, e)
	q.byID[e.PlayerID] = e
	slog.Info("player joined matchmaking queue", "playerID", e.PlayerID, "waiting", len(q.waiting))
	q.matchLocked()
	q.mu.Unlock()

	timer := time.NewTimer(q.joinTimeout)
	defer timer.Stop()

	select {
	case p := <-e.ready:
		if p.Cancelled {
			return Pairing{}, context.Canceled
		}
		return p, nil
	case <-timer.C:
		return q.settleLate(e, ErrMatchmakingTimeout)
	case <-ctx.Done():
		return q.settleLate(e, ctx.Err())
	}
}

// Withdraw removes a waiting player and fires their wake signal with a
// cancellation result. Withdrawing a player who was already matched (or
// was never queued) is a no-op.
func (q *Queue) Withdraw(playerID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.byID[playerID]
	if !ok {
		return
	}
	q.removeLocked(e)
	e.ready <- Pairing{Cancelled: true}
	slog.Info("player withdrew from matchmaking queue", "playerID", playerID, "waiting", len(q.waiting))
}

// matchLocked pairs the two oldest waiters for as long as at least two
// are present. Caller holds q.mu; the wake signals are written inside
// the critical section so the single-fire guarantee holds.
func (q *Queue) matchLocked() {
	for len(q.waiting) >= 2 {
		a := q.waiting[0]
		b := q.waiting[1]
		q.waiting = q.waiting[2:]
		delete(q.byID, a.PlayerID)
		delete(q.byID, b.PlayerID)

		matchID, err := q.create(a.Config, b.Config)
		if err != nil {
			slog.Error("failed to create match for paired players",
				"playerA", a.PlayerID, "playerB", b.PlayerID, "error", err)
			a.ready <- Pairing{Cancelled: true}
			b.ready <- Pairing{Cancelled: true}
			continue
		}
		a.ready <- Pairing{MatchID: matchID, OpponentID: b.PlayerID}
		b.ready <- Pairing{MatchID: matchID, OpponentID: a.PlayerID}
		slog.Info("players paired", "matchID", matchID, "playerA", a.PlayerID, "playerB", b.PlayerID)
	}
}

// settleLate removes the entry after a timeout or caller cancellation,
// handling the race where a pairing fired just before removal: the
// pairing wins, because the opposing player was already woken with it.
func (q *Queue) settleLate(e *QueueEntry, cause error) (Pairing, error) {
	q.mu.Lock()
	if _, stillWaiting := q.byID[e.PlayerID]; stillWaiting {
		q.removeLocked(e)
		q.mu.Unlock()
		return Pairing{}, cause
	}
	q.mu.Unlock()
	p := <-e.ready
	if p.Cancelled {
		return Pairing{}, cause
	}
	return p, nil
}

func (q *Queue) removeLocked(e *QueueEntry) {
	delete(q.byID, e.PlayerID)
	for i, w := range q.waiting {
		if w == e {
			q.waiting = append(q.waiting[:i], q.waiting[i+1:]...)
			return
		}
	}
}
