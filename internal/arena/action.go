package arena

import (
	"sync"

	"github.com/swex-camp2024-copilot/spellcaster-arena/internal/game"
)

// ActionSlot holds the most recently submitted action for one remote
// participant. It is touched by exactly two parties: the submission
// path (Set) and the collector (Consume).
//
// Set stores the action and signals the waiter inside a single critical
// section, so from the collector's perspective "the action exists" and
// "the action is discoverable" are one atomic step. Storing first and
// signalling later, outside the lock, would open a window where a
// submission is accepted by the API but never reaches the rule engine
// for its turn.
type ActionSlot struct {
	mu      sync.Mutex
	pending *game.Action
	ready   chan struct{}
}

func NewActionSlot() *ActionSlot {
	return &ActionSlot{ready: make(chan struct{}, 1)}
}

// Set stores the action, overwriting any pending one, and wakes a
// blocked Consume waiter.
func (s *ActionSlot) Set(a game.Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = &a
	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// Consume atomically returns-and-clears the pending action. The second
// value is false when the slot was empty, in which case the defined
// no-op action is returned. Once a real action has been consumed it is
// never observed again.
func (s *ActionSlot) Consume() (game.Action, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return game.NoopAction(), false
	}
	a := *s.pending
	s.pending = nil
	// Drain a stale wakeup so the next wait does not fire spuriously.
	select {
	case <-s.ready:
	default:
	}
	return a, true
}

// Ready exposes the wakeup channel the collector selects on. Receiving
// from it means a Set happened since the last Consume; the receiver
// must still call Consume to take the action.
func (s *ActionSlot) Ready() <-chan struct{} {
	return s.ready
}
