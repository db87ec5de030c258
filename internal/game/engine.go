package game

// Side identifies one of the two casters in a duel.
type Side int

const (
	SideNone Side = iota
	SideA
	SideB
)

func (s Side) String() string {
	switch s {
	case SideA:
		return "A"
	case SideB:
		return "B"
	default:
		return "none"
	}
}

// Opponent returns the other side, or SideNone for SideNone.
func (s Side) Opponent() Side {
	switch s {
	case SideA:
		return SideB
	case SideB:
		return SideA
	default:
		return SideNone
	}
}

// Spell is the identifier of a caster's chosen move for one turn.
type Spell string

const (
	SpellBolt   Spell = "bolt"   // 20 damage, costs 10 mana
	SpellWard   Spell = "ward"   // absorbs this turn's incoming damage
	SpellMend   Spell = "mend"   // +15 health capped at MaxHealth, costs 10 mana
	SpellStrike Spell = "strike" // 8 damage, free
	SpellPass   Spell = "pass"   // the defined no-op
)

// Action is one caster's move for one turn.
type Action struct {
	Spell Spell `json:"spell"`
}

// NoopAction is substituted whenever a caster's action is missing or faulty.
func NoopAction() Action {
	return Action{Spell: SpellPass}
}

// Valid reports whether the spell is one the engine understands.
func (a Action) Valid() bool {
	switch a.Spell {
	case SpellBolt, SpellWard, SpellMend, SpellStrike, SpellPass:
		return true
	}
	return false
}

// CasterState is the visible state of one caster.
type CasterState struct {
	Health int `json:"health"`
	Mana   int `json:"mana"`
}

// State is the full duel state handed to and returned by the engine.
// The orchestration core treats it as opaque beyond the terminal check.
type State struct {
	A CasterState `json:"a"`
	B CasterState `json:"b"`
}

// Outcome is the result of resolving one turn.
type Outcome struct {
	State    State
	Events   []string
	Terminal bool
	// Winner is meaningful only when Terminal; SideNone means a draw.
	Winner Side
}

// Engine computes one turn of the duel. Implementations must be pure:
// the same state and actions always produce the same outcome.
type Engine interface {
	Initial() State
	Resolve(state State, actionA, actionB Action) Outcome
}
