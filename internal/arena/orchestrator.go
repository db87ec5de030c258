package arena

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/swex-camp2024-copilot/spellcaster-arena/internal/game"
)

// OrchestratorConfig carries the per-match tuning knobs.
type OrchestratorConfig struct {
	MaxTurns       int           // turn ceiling; reaching it is always a draw
	SubmitTimeout  time.Duration // shared per-turn deadline for remote actions
	DecisionBudget time.Duration // wall-clock budget for autonomous decisions
	Pacing         time.Duration // sleep between turns
	Heartbeat      time.Duration // observer heartbeat interval
	ObserverBuffer int           // per-observer event buffer
}

// Orchestrator owns one match's state machine and drives its turn loop
// in a dedicated goroutine: collect, apply rules, broadcast, advance.
// Turn progression is strictly sequential; the next turn's collection
// never begins before the current turn's broadcast is queued.
type Orchestrator struct {
	match     *Match
	hub       *Hub
	engine    game.Engine
	collector *Collector
	cfg       OrchestratorConfig

	cancel   context.CancelFunc
	done     chan struct{}
	onFinish func(*Match)
}

func NewOrchestrator(matchID string, a, b ParticipantConfig, engine game.Engine, cfg OrchestratorConfig, onFinish func(*Match)) *Orchestrator {
	return &Orchestrator{
		match:     newMatch(matchID, a, b, engine.Initial()),
		hub:       NewHub(matchID, cfg.ObserverBuffer, cfg.Heartbeat),
		engine:    engine,
		collector: &Collector{SubmitTimeout: cfg.SubmitTimeout, DecisionBudget: cfg.DecisionBudget},
		cfg:       cfg,
		done:      make(chan struct{}),
		onFinish:  onFinish,
	}
}

// Match exposes the match record for read access.
func (o *Orchestrator) Match() *Match { return o.match }

// Hub exposes the match's broadcast hub.
func (o *Orchestrator) Hub() *Hub { return o.hub }

// Done is closed once the match has reached a terminal state and all
// resources are released.
func (o *Orchestrator) Done() <-chan struct{} { return o.done }

// Start launches the turn loop. Call at most once.
func (o *Orchestrator) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	go o.run(runCtx)
}

// Abort triggers the external cancellation transition. It is safe to
// call at any time and any number of times; once the match is terminal
// further calls are no-ops.
func (o *Orchestrator) Abort() {
	if o.cancel != nil {
		o.cancel()
	}
}

// Submit validates and stores a remote participant's action for the
// turn in progress. The turn check and the slot write happen under the
// same lock the turn loop takes to seal a turn, so an accepted action
// is guaranteed to be consumed by exactly that turn.
func (o *Orchestrator) Submit(playerID string, turn int, action game.Action) error {
	m := o.match
	m.submitMu.Lock()
	defer m.submitMu.Unlock()

	if m.Status() != MatchStatusActive {
		return ErrMatchFinished
	}
	p, _ := m.participant(playerID)
	if p == nil {
		return ErrUnknownParticipant
	}
	if p.Source != SourceRemote {
		return ErrUnknownParticipant
	}
	if turn != m.TurnIndex()+1 {
		return ErrStaleTurn
	}
	p.Slot.Set(action)
	return nil
}

func (o *Orchestrator) run(ctx context.Context) {
	defer close(o.done)
	m := o.match
	slog.Info("match started",
		"matchID", m.ID,
		"playerA", m.A.PlayerID, "sourceA", m.A.Source,
		"playerB", m.B.PlayerID, "sourceB", m.B.Source)

	for {
		if ctx.Err() != nil {
			o.finishAborted()
			return
		}
		turn := m.TurnIndex() + 1

		ra, rb := o.collector.Collect(ctx, m)
		if ctx.Err() != nil {
			o.finishAborted()
			return
		}

		ev, out := o.sealTurn(turn, ra, rb)
		o.hub.Publish(ev)
		slog.Info("turn resolved", "matchID", m.ID, "turn", turn,
			"statusA", ev.ActionA.Status, "statusB", ev.ActionB.Status)

		if out.Terminal || turn >= o.cfg.MaxTurns {
			o.finishCompleted(turn, out)
			return
		}

		select {
		case <-time.After(o.cfg.Pacing):
		case <-ctx.Done():
			o.finishAborted()
			return
		}
	}
}

// sealTurn closes the submission window for the turn, applies the rule
// engine and records the TurnEvent. Holding submitMu across the final
// slot drain and the turn-index advance is what makes an accepted
// submission impossible to lose: a Submit either lands before the drain
// and is consumed now, or observes the advanced index and gets
// StaleTurn.
func (o *Orchestrator) sealTurn(turn int, ra, rb ResolvedAction) (Event, game.Outcome) {
	m := o.match
	m.submitMu.Lock()
	defer m.submitMu.Unlock()

	ra = lateConsume(m.A, ra)
	rb = lateConsume(m.B, rb)

	out := o.engine.Resolve(m.State(), ra.Action, rb.Action)

	narrative := make([]string, 0, len(out.Events)+2)
	narrative = append(narrative, resolutionNote(ra)...)
	narrative = append(narrative, resolutionNote(rb)...)
	narrative = append(narrative, out.Events...)

	ev := Event{
		Type:      EventTurn,
		MatchID:   m.ID,
		Turn:      turn,
		State:     &out.State,
		ActionA:   &ra,
		ActionB:   &rb,
		Narrative: narrative,
		Timestamp: time.Now(),
	}
	m.recordTurn(ev, out.State)
	return ev, out
}

// lateConsume upgrades a timed-out side whose submission won the
// validation race but landed after the collector's deadline drain.
func lateConsume(p *ParticipantSlot, r ResolvedAction) ResolvedAction {
	if r.Status != ResolutionTimeout || p.Slot == nil {
		return r
	}
	if action, ok := p.Slot.Consume(); ok {
		return ResolvedAction{PlayerID: r.PlayerID, Action: action, Status: ResolutionOK}
	}
	return r
}

func resolutionNote(r ResolvedAction) []string {
	switch r.Status {
	case ResolutionTimeout:
		return []string{fmt.Sprintf("%s did not act in time; a pass is recorded", r.PlayerID)}
	case ResolutionFault:
		return []string{fmt.Sprintf("%s's decision faulted; a pass is recorded", r.PlayerID)}
	default:
		return nil
	}
}

func (o *Orchestrator) finishCompleted(turn int, out game.Outcome) {
	m := o.match
	result := &Result{Type: ResultDraw}
	if out.Terminal && out.Winner != game.SideNone {
		result.Type = ResultWin
		if out.Winner == game.SideA {
			result.WinnerID = m.A.PlayerID
		} else {
			result.WinnerID = m.B.PlayerID
		}
	}
	final := Event{
		Type:      EventCompleted,
		MatchID:   m.ID,
		Turn:      turn,
		Result:    result,
		Timestamp: time.Now(),
	}
	if !m.finish(MatchStatusCompleted, final) {
		return
	}
	o.hub.Publish(final)
	o.hub.Close()
	slog.Info("match completed", "matchID", m.ID, "turns", turn, "result", result.Type, "winnerID", result.WinnerID)
	if o.onFinish != nil {
		o.onFinish(m)
	}
}

func (o *Orchestrator) finishAborted() {
	m := o.match
	final := Event{
		Type:      EventAborted,
		MatchID:   m.ID,
		Turn:      m.TurnIndex(),
		Timestamp: time.Now(),
	}
	if !m.finish(MatchStatusAborted, final) {
		return
	}
	o.hub.Publish(final)
	o.hub.Close()
	slog.Info("match aborted", "matchID", m.ID, "turns", m.TurnIndex())
	if o.onFinish != nil {
		o.onFinish(m)
	}
}
