package arena

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swex-camp2024-copilot/spellcaster-arena/internal/game"
)

// fixedDamageEngine deals a flat amount to both sides every turn,
// regardless of the submitted actions.
type fixedDamageEngine struct {
	health int
	damage int
}

func (e *fixedDamageEngine) Initial() game.State {
	return game.State{
		A: game.CasterState{Health: e.health},
		B: game.CasterState{Health: e.health},
	}
}

func (e *fixedDamageEngine) Resolve(state game.State, _, _ game.Action) game.Outcome {
	out := game.Outcome{State: state}
	out.State.A.Health -= e.damage
	out.State.B.Health -= e.damage
	downA := out.State.A.Health <= 0
	downB := out.State.B.Health <= 0
	if downA || downB {
		out.Terminal = true
		switch {
		case downA && downB:
			out.Winner = game.SideNone
		case downA:
			out.Winner = game.SideB
		default:
			out.Winner = game.SideA
		}
	}
	return out
}

// idleEngine never terminates; matches end at the turn ceiling.
type idleEngine struct{}

func (idleEngine) Initial() game.State {
	return game.State{
		A: game.CasterState{Health: game.MaxHealth},
		B: game.CasterState{Health: game.MaxHealth},
	}
}

func (idleEngine) Resolve(state game.State, _, _ game.Action) game.Outcome {
	return game.Outcome{State: state}
}

func passBot(id string) ParticipantConfig {
	return botCfg(id, func(_ context.Context, _ game.State, _ game.Side) (game.Action, error) {
		return game.Action{Spell: game.SpellPass}, nil
	})
}

func fastConfig(maxTurns int, submitTimeout time.Duration) OrchestratorConfig {
	return OrchestratorConfig{
		MaxTurns:       maxTurns,
		SubmitTimeout:  submitTimeout,
		DecisionBudget: time.Second,
		Pacing:         time.Millisecond,
		ObserverBuffer: 16,
	}
}

func waitDone(t *testing.T, o *Orchestrator) {
	t.Helper()
	select {
	case <-o.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("match did not finish in time")
	}
}

func TestBotDuelEndsInDrawAtTurnFive(t *testing.T) {
	engine := &fixedDamageEngine{health: 100, damage: 20}
	o := NewOrchestrator("m1", passBot("bot-a"), passBot("bot-b"), engine, fastConfig(50, time.Second), nil)
	o.Start(context.Background())
	waitDone(t, o)

	m := o.Match()
	assert.Equal(t, MatchStatusCompleted, m.Status())
	require.NotNil(t, m.Result())
	assert.Equal(t, ResultDraw, m.Result().Type)

	log := m.Log()
	require.Len(t, log, 6, "five turn events plus one completion event")
	for i := 0; i < 5; i++ {
		assert.Equal(t, EventTurn, log[i].Type)
		assert.Equal(t, i+1, log[i].Turn, "turn index must increase by exactly 1")
	}
	assert.Equal(t, EventCompleted, log[5].Type)
	assert.Equal(t, 5, log[5].Turn)
	final := log[4].State
	require.NotNil(t, final)
	assert.Equal(t, 0, final.A.Health)
	assert.Equal(t, 0, final.B.Health)
}

func TestAsymmetricDamageProducesWinner(t *testing.T) {
	engine := &fixedDamageEngine{health: 40, damage: 20}
	// Give side A a head start by draining B harder via a custom engine.
	custom := botCfg("bot-a", func(_ context.Context, _ game.State, _ game.Side) (game.Action, error) {
		return game.Action{Spell: game.SpellPass}, nil
	})
	o := NewOrchestrator("m2", custom, passBot("bot-b"), &skewedEngine{engine}, fastConfig(50, time.Second), nil)
	o.Start(context.Background())
	waitDone(t, o)

	m := o.Match()
	require.NotNil(t, m.Result())
	assert.Equal(t, ResultWin, m.Result().Type)
	assert.Equal(t, "bot-a", m.Result().WinnerID)
}

// skewedEngine spares side A the damage its inner engine would deal.
type skewedEngine struct {
	inner *fixedDamageEngine
}

func (e *skewedEngine) Initial() game.State { return e.inner.Initial() }

func (e *skewedEngine) Resolve(state game.State, a, b game.Action) game.Outcome {
	healthA := state.A.Health
	out := e.inner.Resolve(state, a, b)
	out.State.A.Health = healthA
	if out.Terminal && out.State.A.Health > 0 {
		out.Winner = game.SideA
	}
	return out
}

func TestSilentRemoteSideStillAdvancesToCeiling(t *testing.T) {
	o := NewOrchestrator("m3", remoteCfg("chatty"), remoteCfg("silent"), idleEngine{}, fastConfig(5, 30*time.Millisecond), nil)
	o.Start(context.Background())

	// Drive side A from a separate goroutine, one submission per turn.
	go func() {
		for {
			select {
			case <-o.Done():
				return
			default:
			}
			turn := o.Match().TurnIndex() + 1
			o.Submit("chatty", turn, game.Action{Spell: game.SpellStrike})
			time.Sleep(2 * time.Millisecond)
		}
	}()

	waitDone(t, o)
	m := o.Match()
	assert.Equal(t, MatchStatusCompleted, m.Status())
	require.NotNil(t, m.Result())
	assert.Equal(t, ResultDraw, m.Result().Type, "hitting the ceiling is always a draw")

	log := m.Log()
	require.Len(t, log, 6)
	sawReal := false
	for _, ev := range log[:5] {
		require.Equal(t, EventTurn, ev.Type)
		assert.Equal(t, ResolutionTimeout, ev.ActionB.Status, "the silent side times out every turn")
		if ev.ActionA.Status == ResolutionOK {
			sawReal = true
		}
	}
	assert.True(t, sawReal, "the submitting side should land at least one real action")
}

func TestSubmitRejectsStaleTurn(t *testing.T) {
	o := NewOrchestrator("m4", remoteCfg("alice"), remoteCfg("bob"), idleEngine{}, fastConfig(50, time.Minute), nil)
	o.Start(context.Background())
	defer o.Abort()

	require.ErrorIs(t, o.Submit("alice", 3, game.Action{Spell: game.SpellBolt}), ErrStaleTurn)
	require.ErrorIs(t, o.Submit("alice", 0, game.Action{Spell: game.SpellBolt}), ErrStaleTurn)
	assert.NoError(t, o.Submit("alice", 1, game.Action{Spell: game.SpellBolt}))
}

func TestSubmitRejectsUnknownParticipant(t *testing.T) {
	o := NewOrchestrator("m5", remoteCfg("alice"), remoteCfg("bob"), idleEngine{}, fastConfig(50, time.Minute), nil)
	o.Start(context.Background())
	defer o.Abort()

	assert.ErrorIs(t, o.Submit("mallory", 1, game.Action{Spell: game.SpellBolt}), ErrUnknownParticipant)
}

func TestSubmittedActionIsNeverReplayed(t *testing.T) {
	o := NewOrchestrator("m6", remoteCfg("alice"), remoteCfg("bob"), idleEngine{}, fastConfig(3, 30*time.Millisecond), nil)
	o.Start(context.Background())

	require.NoError(t, o.Submit("alice", 1, game.Action{Spell: game.SpellBolt}))
	waitDone(t, o)

	log := o.Match().Log()
	require.Len(t, log, 4)
	assert.Equal(t, ResolutionOK, log[0].ActionA.Status)
	assert.Equal(t, game.SpellBolt, log[0].ActionA.Action.Spell)
	for _, ev := range log[1:3] {
		assert.Equal(t, ResolutionTimeout, ev.ActionA.Status,
			"a single submission must not leak into later turns")
		assert.Equal(t, game.NoopAction(), ev.ActionA.Action)
	}
}

// A submission accepted by Submit must be consumed by exactly that
// turn, even when it races the collector's deadline from another
// goroutine. Historically this class of bug (visibility and storage as
// two separately-ordered writes) caused silently lost actions.
func TestSubmitVisibleToConcurrentCollector(t *testing.T) {
	for i := 0; i < 25; i++ {
		o := NewOrchestrator("race", remoteCfg("alice"), remoteCfg("bob"), idleEngine{}, fastConfig(1, 20*time.Millisecond), nil)
		o.Start(context.Background())

		errCh := make(chan error, 1)
		go func() {
			errCh <- o.Submit("alice", 1, game.Action{Spell: game.SpellBolt})
		}()

		waitDone(t, o)
		err := <-errCh

		log := o.Match().Log()
		require.NotEmpty(t, log)
		if err == nil {
			assert.Equal(t, ResolutionOK, log[0].ActionA.Status,
				"an accepted submission must reach the rule engine for its turn")
			assert.Equal(t, game.SpellBolt, log[0].ActionA.Action.Spell)
		} else {
			assert.True(t, errors.Is(err, ErrStaleTurn) || errors.Is(err, ErrMatchFinished),
				"a rejected submission must carry a typed failure, got %v", err)
		}
	}
}

func TestAbortIsIdempotentAndReleasesMatch(t *testing.T) {
	o := NewOrchestrator("m7", remoteCfg("alice"), remoteCfg("bob"), idleEngine{}, fastConfig(100, time.Minute), nil)
	o.Start(context.Background())

	sub, err := o.Hub().Attach()
	require.NoError(t, err)

	o.Abort()
	o.Abort() // aborting twice is safe
	waitDone(t, o)

	m := o.Match()
	assert.Equal(t, MatchStatusAborted, m.Status())
	log := m.Log()
	require.NotEmpty(t, log)
	assert.Equal(t, EventAborted, log[len(log)-1].Type)

	// The observer is released with the final event, then the channel
	// closes.
	var last Event
	for ev := range sub.Events() {
		last = ev
	}
	assert.Equal(t, EventAborted, last.Type)

	assert.ErrorIs(t, o.Submit("alice", 1, game.Action{Spell: game.SpellBolt}), ErrMatchFinished)
}

func TestObserverReceivesEventsInTurnOrder(t *testing.T) {
	o := NewOrchestrator("m8", passBot("bot-a"), passBot("bot-b"), &fixedDamageEngine{health: 100, damage: 20}, fastConfig(50, time.Second), nil)
	sub, err := o.Hub().Attach()
	require.NoError(t, err)

	o.Start(context.Background())
	waitDone(t, o)

	turns := []int{}
	var last Event
	for ev := range sub.Events() {
		if ev.Type == EventTurn {
			turns = append(turns, ev.Turn)
		}
		last = ev
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, turns)
	assert.Equal(t, EventCompleted, last.Type)
}

func TestUnreadObserverDoesNotDelayMatch(t *testing.T) {
	cfg := fastConfig(50, time.Second)
	cfg.ObserverBuffer = 2
	o := NewOrchestrator("m9", passBot("bot-a"), passBot("bot-b"), &fixedDamageEngine{health: 100, damage: 20}, cfg, nil)

	// Attach an observer that never reads its stream.
	_, err := o.Hub().Attach()
	require.NoError(t, err)

	start := time.Now()
	o.Start(context.Background())
	waitDone(t, o)

	assert.Less(t, time.Since(start), 5*time.Second, "a stuck observer must not stall turn progression")
	assert.Equal(t, MatchStatusCompleted, o.Match().Status())
}
