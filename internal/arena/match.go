package arena

import (
	"sync"
	"time"

	"github.com/swex-camp2024-copilot/spellcaster-arena/internal/bot"
	"github.com/swex-camp2024-copilot/spellcaster-arena/internal/game"
)

// MatchStatus is the lifecycle state of a match. Completed and Aborted
// are terminal and irreversible.
type MatchStatus string

const (
	MatchStatusActive    MatchStatus = "active"
	MatchStatusCompleted MatchStatus = "completed"
	MatchStatusAborted   MatchStatus = "aborted"
)

// ActionSource distinguishes how one side's actions are produced.
type ActionSource string

const (
	SourceAutonomous ActionSource = "autonomous"
	SourceRemote     ActionSource = "remote"
)

// ParticipantConfig is the caller-supplied description of one side.
// Exactly one of Decider (autonomous) or a nil Decider (remote) applies.
type ParticipantConfig struct {
	PlayerID string
	Decider  bot.Decider
}

// Source derives the action source from the config.
func (c ParticipantConfig) Source() ActionSource {
	if c.Decider != nil {
		return SourceAutonomous
	}
	return SourceRemote
}

// ParticipantSlot binds one side of a match to its action source. A
// remote slot owns an ActionSlot mutated only by the submission path;
// an autonomous slot has no submission path and is queried each turn.
type ParticipantSlot struct {
	PlayerID string
	Source   ActionSource
	Decider  bot.Decider
	Slot     *ActionSlot
}

func newParticipantSlot(cfg ParticipantConfig) *ParticipantSlot {
	p := &ParticipantSlot{
		PlayerID: cfg.PlayerID,
		Source:   cfg.Source(),
		Decider:  cfg.Decider,
	}
	if p.Source == SourceRemote {
		p.Slot = NewActionSlot()
	}
	return p
}

// Match is the mutable record of one duel. It is owned exclusively by
// its orchestrator for the active lifetime; other goroutines read it
// only through the accessors below.
type Match struct {
	ID string

	A *ParticipantSlot
	B *ParticipantSlot

	// submitMu serializes action submission against turn sealing; see
	// Orchestrator.Submit and Orchestrator.sealTurn.
	submitMu sync.Mutex

	mu        sync.RWMutex
	status    MatchStatus
	turnIndex int // completed turns; the turn being collected is turnIndex+1
	state     game.State
	log       []Event
	result    *Result
	createdAt time.Time
	endedAt   time.Time
}

func newMatch(id string, a, b ParticipantConfig, initial game.State) *Match {
	return &Match{
		ID:        id,
		A:         newParticipantSlot(a),
		B:         newParticipantSlot(b),
		status:    MatchStatusActive,
		state:     initial,
		createdAt: time.Now(),
	}
}

// TurnIndex returns the number of completed turns.
func (m *Match) TurnIndex() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.turnIndex
}

// Status returns the current lifecycle state.
func (m *Match) Status() MatchStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// State returns a snapshot of the duel state.
func (m *Match) State() game.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// CreatedAt returns the match creation time.
func (m *Match) CreatedAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.createdAt
}

// EndedAt returns when the match reached a terminal state; zero while
// it is still active.
func (m *Match) EndedAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.endedAt
}

// Result returns the final result, or nil while the match is active.
func (m *Match) Result() *Result {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.result
}

// Log returns a copy of the accumulated event log in turn order.
func (m *Match) Log() []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Event, len(m.log))
	copy(out, m.log)
	return out
}

// participant resolves a player identity to their slot.
func (m *Match) participant(playerID string) (*ParticipantSlot, game.Side) {
	switch playerID {
	case m.A.PlayerID:
		return m.A, game.SideA
	case m.B.PlayerID:
		return m.B, game.SideB
	default:
		return nil, game.SideNone
	}
}

// recordTurn stores the turn's event, advances the turn index and the
// duel state. Called only by the orchestrator goroutine.
func (m *Match) recordTurn(ev Event, state game.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = append(m.log, ev)
	m.state = state
	m.turnIndex = ev.Turn
}

// finish transitions to a terminal status exactly once and appends the
// final event. Returns false if the match was already terminal.
func (m *Match) finish(status MatchStatus, ev Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != MatchStatusActive {
		return false
	}
	m.status = status
	m.result = ev.Result
	m.endedAt = time.Now()
	m.log = append(m.log, ev)
	return true
}

// QueueEntry is one waiter in the matchmaking queue. The ready channel
// is its single-fire wake signal: written exactly once, under the
// queue's lock, with either a pairing or a cancellation.
type QueueEntry struct {
	PlayerID string
	Config   ParticipantConfig
	queuedAt time.Time
	ready    chan Pairing
}

// Pairing is delivered through a QueueEntry's wake signal.
type Pairing struct {
	MatchID    string
	OpponentID string
	Cancelled  bool
}
