package arena

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/swex-camp2024-copilot/spellcaster-arena/internal/game"
)

// PlayerDirectory answers whether a participant identity is known.
// Backed by the player repository; nil disables the check.
type PlayerDirectory interface {
	Exists(ctx context.Context, playerID string) (bool, error)
}

// StatsRecorder finalizes both participants' win/loss/draw tallies once
// a match completes.
type StatsRecorder interface {
	RecordResult(ctx context.Context, winnerID, loserID string, draw bool) error
}

// ReplayStore retains finished matches' event logs for the configured
// retention window.
type ReplayStore interface {
	Save(ctx context.Context, matchID string, events []Event) error
	Get(ctx context.Context, matchID string) ([]Event, error)
}

// Tap is attached to every new match's hub; it is how side channels
// (kafka bridge, renderers) observe matches without touching the loop.
type Tap func(matchID string, hub *Hub)

// Archiver receives the full log of a completed match, e.g. for object
// storage upload. Failures are logged, never propagated.
type Archiver interface {
	Archive(ctx context.Context, matchID string, events []Event) error
}

// Deps are the manager's optional collaborators. Any of them may be nil.
type Deps struct {
	Players   PlayerDirectory
	Stats     StatsRecorder
	Replays   ReplayStore
	Archivers []Archiver
	Taps      []Tap
}

// ManagerConfig tunes the manager and every match it creates.
type ManagerConfig struct {
	Orchestrator OrchestratorConfig
	JoinTimeout  time.Duration // matchmaking wait bound
}

// Manager is the entry point the transport layer talks to: it creates
// matches, routes submissions, attaches observers, serves replays and
// runs the matchmaking queue.
type Manager struct {
	cfg     ManagerConfig
	engine  game.Engine
	deps    Deps
	queue   *Queue
	rootCtx context.Context

	mu   sync.RWMutex
	live map[string]*Orchestrator
}

func NewManager(rootCtx context.Context, cfg ManagerConfig, engine game.Engine, deps Deps) *Manager {
	m := &Manager{
		cfg:     cfg,
		engine:  engine,
		deps:    deps,
		rootCtx: rootCtx,
		live:    make(map[string]*Orchestrator),
	}
	m.queue = NewQueue(m.createMatch, cfg.JoinTimeout)
	return m
}

// CreateMatch validates both participants, starts a new orchestrator in
// the background and returns the match identity immediately.
func (m *Manager) CreateMatch(ctx context.Context, a, b ParticipantConfig) (string, error) {
	for _, cfg := range []ParticipantConfig{a, b} {
		if err := m.checkPlayer(ctx, cfg.PlayerID); err != nil {
			return "", err
		}
	}
	return m.createMatch(a, b)
}

func (m *Manager) createMatch(a, b ParticipantConfig) (string, error) {
	matchID := uuid.NewString()
	o := NewOrchestrator(matchID, a, b, m.engine, m.cfg.Orchestrator, m.onFinish)

	m.mu.Lock()
	m.live[matchID] = o
	m.mu.Unlock()

	for _, tap := range m.deps.Taps {
		tap(matchID, o.Hub())
	}
	o.Start(m.rootCtx)
	return matchID, nil
}

// JoinQueue blocks until the player is paired or the matchmaking window
// elapses.
func (m *Manager) JoinQueue(ctx context.Context, cfg ParticipantConfig) (Pairing, error) {
	if err := m.checkPlayer(ctx, cfg.PlayerID); err != nil {
		return Pairing{}, err
	}
	return m.queue.Join(ctx, cfg)
}

// WithdrawQueue removes a waiting player; a no-op once matched.
func (m *Manager) WithdrawQueue(playerID string) {
	m.queue.Withdraw(playerID)
}

// QueueLen reports the number of players currently waiting.
func (m *Manager) QueueLen() int {
	return m.queue.Len()
}

// Submit routes an action to the match's orchestrator.
func (m *Manager) Submit(matchID, playerID string, turn int, action game.Action) error {
	o, err := m.liveMatch(matchID)
	if err != nil {
		return err
	}
	return o.Submit(playerID, turn, action)
}

// Abort transitions the match to Aborted. Aborting an already finished
// but still retained match is a safe no-op.
func (m *Manager) Abort(matchID string) error {
	o, err := m.liveMatch(matchID)
	if err != nil {
		if _, replayErr := m.Replay(context.Background(), matchID); replayErr == nil {
			return nil
		}
		return err
	}
	o.Abort()
	return nil
}

// Attach registers an observer on a live match's event stream.
func (m *Manager) Attach(matchID string) (*Subscription, error) {
	o, err := m.liveMatch(matchID)
	if err != nil {
		return nil, err
	}
	return o.Hub().Attach()
}

// Match returns the live match record.
func (m *Manager) Match(matchID string) (*Match, error) {
	o, err := m.liveMatch(matchID)
	if err != nil {
		return nil, err
	}
	return o.Match(), nil
}

// Replay returns the full ordered event log with no pacing delay, from
// the live match or from the retention store once it has finished.
func (m *Manager) Replay(ctx context.Context, matchID string) ([]Event, error) {
	m.mu.RLock()
	o, ok := m.live[matchID]
	m.mu.RUnlock()
	if ok {
		return o.Match().Log(), nil
	}
	if m.deps.Replays == nil {
		return nil, ErrMatchNotFound
	}
	return m.deps.Replays.Get(ctx, matchID)
}

func (m *Manager) liveMatch(matchID string) (*Orchestrator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.live[matchID]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return o, nil
}

func (m *Manager) checkPlayer(ctx context.Context, playerID string) error {
	if playerID == "" {
		return ErrParticipantNotFound
	}
	if m.deps.Players == nil {
		return nil
	}
	known, err := m.deps.Players.Exists(ctx, playerID)
	if err != nil {
		return err
	}
	if !known {
		return ErrParticipantNotFound
	}
	return nil
}

// onFinish runs once per match, after the final event is published:
// persist the replay, finalize statistics, hand the log to archivers,
// then drop the orchestrator from the live registry.
func (m *Manager) onFinish(match *Match) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	events := match.Log()
	if m.deps.Replays != nil {
		if err := m.deps.Replays.Save(ctx, match.ID, events); err != nil {
			slog.Error("failed to persist replay", "matchID", match.ID, "error", err)
		}
	}
	if m.deps.Stats != nil && match.Status() == MatchStatusCompleted {
		m.recordStats(ctx, match)
	}
	for _, a := range m.deps.Archivers {
		if err := a.Archive(ctx, match.ID, events); err != nil {
			slog.Error("replay archive failed", "matchID", match.ID, "error", err)
		}
	}

	m.mu.Lock()
	delete(m.live, match.ID)
	m.mu.Unlock()
}

func (m *Manager) recordStats(ctx context.Context, match *Match) {
	res := match.Result()
	if res == nil {
		return
	}
	winner, loser := match.A.PlayerID, match.B.PlayerID
	draw := res.Type == ResultDraw
	if !draw && res.WinnerID == match.B.PlayerID {
		winner, loser = match.B.PlayerID, match.A.PlayerID
	}
	if err := m.deps.Stats.RecordResult(ctx, winner, loser, draw); err != nil {
		slog.Error("failed to finalize player statistics", "matchID", match.ID, "error", err)
	}
}
