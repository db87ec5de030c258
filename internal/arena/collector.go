package arena

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/swex-camp2024-copilot/spellcaster-arena/internal/game"
)

// Collector resolves both sides' actions for one turn. The two sides
// are awaited concurrently under a shared deadline, so neither side's
// wait time is additive. A side that cannot produce an action in time
// is substituted with the no-op and tagged; the turn itself never
// fails because one side misbehaves.
type Collector struct {
	// SubmitTimeout is the shared per-turn deadline for remote slots.
	SubmitTimeout time.Duration
	// DecisionBudget is the wall-clock budget for an autonomous decision.
	DecisionBudget time.Duration
}

// Collect returns the resolved action pair for the turn currently in
// progress. It returns early if both sides already hold actions.
func (c *Collector) Collect(ctx context.Context, m *Match) (ResolvedAction, ResolvedAction) {
	waitCtx, cancel := context.WithTimeout(ctx, c.SubmitTimeout)
	defer cancel()

	var a, b ResolvedAction
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		a = c.resolve(waitCtx, m, m.A, game.SideA)
	}()
	go func() {
		defer wg.Done()
		b = c.resolve(waitCtx, m, m.B, game.SideB)
	}()
	wg.Wait()
	return a, b
}

func (c *Collector) resolve(ctx context.Context, m *Match, p *ParticipantSlot, side game.Side) ResolvedAction {
	if p.Source == SourceAutonomous {
		return c.decide(ctx, m, p, side)
	}
	return c.await(ctx, m, p)
}

// await waits for a remote participant's slot under the shared deadline.
func (c *Collector) await(ctx context.Context, m *Match, p *ParticipantSlot) ResolvedAction {
	if action, ok := p.Slot.Consume(); ok {
		return ResolvedAction{PlayerID: p.PlayerID, Action: action, Status: ResolutionOK}
	}
	select {
	case <-p.Slot.Ready():
		if action, ok := p.Slot.Consume(); ok {
			return ResolvedAction{PlayerID: p.PlayerID, Action: action, Status: ResolutionOK}
		}
	case <-ctx.Done():
	}
	// Deadline path: consume once more. A submission that was accepted
	// by the API before the timer fired must never be dropped just
	// because its wakeup lost the race.
	if action, ok := p.Slot.Consume(); ok {
		return ResolvedAction{PlayerID: p.PlayerID, Action: action, Status: ResolutionOK}
	}
	return ResolvedAction{PlayerID: p.PlayerID, Action: game.NoopAction(), Status: ResolutionTimeout}
}

// decide invokes an autonomous decider under its own budget, recovering
// panics and overruns into a no-op.
func (c *Collector) decide(ctx context.Context, m *Match, p *ParticipantSlot, side game.Side) ResolvedAction {
	budgetCtx, cancel := context.WithTimeout(ctx, c.DecisionBudget)
	defer cancel()

	type decision struct {
		action game.Action
		err    error
	}
	ch := make(chan decision, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("autonomous decider panicked", "matchID", m.ID, "playerID", p.PlayerID, "panic", r)
				ch <- decision{err: context.Canceled}
			}
		}()
		action, err := p.Decider.Decide(budgetCtx, m.State(), side)
		ch <- decision{action: action, err: err}
	}()

	select {
	case d := <-ch:
		if d.err != nil || !d.action.Valid() {
			slog.Warn("autonomous decision faulted", "matchID", m.ID, "playerID", p.PlayerID, "error", d.err)
			return ResolvedAction{PlayerID: p.PlayerID, Action: game.NoopAction(), Status: ResolutionFault}
		}
		return ResolvedAction{PlayerID: p.PlayerID, Action: d.action, Status: ResolutionOK}
	case <-budgetCtx.Done():
		slog.Warn("autonomous decision exceeded budget", "matchID", m.ID, "playerID", p.PlayerID)
		return ResolvedAction{PlayerID: p.PlayerID, Action: game.NoopAction(), Status: ResolutionFault}
	}
}
