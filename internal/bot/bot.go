// Package bot holds the autonomous deciders that can drive one side of
// a duel without a remote player.
package bot

import (
	"context"

	"github.com/swex-camp2024-copilot/spellcaster-arena/internal/game"
)

// Decider picks an action for one side given the current duel state.
// Implementations must honour ctx: the collector enforces a short
// wall-clock budget and will substitute a no-op on overrun.
type Decider interface {
	Name() string
	Decide(ctx context.Context, state game.State, side game.Side) (game.Action, error)
}

// Baseline is a deterministic decider: mend when badly hurt, bolt when
// affordable, otherwise strike.
type Baseline struct{}

func NewBaseline() *Baseline {
	return &Baseline{}
}

func (b *Baseline) Name() string { return "baseline" }

func (b *Baseline) Decide(_ context.Context, state game.State, side game.Side) (game.Action, error) {
	self := state.A
	if side == game.SideB {
		self = state.B
	}
	switch {
	case self.Health <= 30 && self.Mana >= 10:
		return game.Action{Spell: game.SpellMend}, nil
	case self.Mana >= 10:
		return game.Action{Spell: game.SpellBolt}, nil
	default:
		return game.Action{Spell: game.SpellStrike}, nil
	}
}

// Func adapts a plain function into a Decider. Used by tests and by
// callers wiring scripted opponents.
type Func struct {
	ID string
	Fn func(ctx context.Context, state game.State, side game.Side) (game.Action, error)
}

func (f Func) Name() string { return f.ID }

func (f Func) Decide(ctx context.Context, state game.State, side game.Side) (game.Action, error) {
	return f.Fn(ctx, state, side)
}
