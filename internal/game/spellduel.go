package game

import "fmt"

const (
	MaxHealth = 100
	StartMana = 50
	MaxMana   = 100

	manaRegen  = 5
	boltCost   = 10
	boltDamage = 20
	mendCost   = 10
	mendHeal   = 15
	strikeDmg  = 8
)

// SpellDuel is the default rule engine: two casters trade spells
// simultaneously until one (or both) runs out of health.
type SpellDuel struct{}

func NewSpellDuel() *SpellDuel {
	return &SpellDuel{}
}

func (e *SpellDuel) Initial() State {
	return State{
		A: CasterState{Health: MaxHealth, Mana: StartMana},
		B: CasterState{Health: MaxHealth, Mana: StartMana},
	}
}

// Resolve applies both actions simultaneously. A spell whose mana cost
// cannot be paid fizzles into a pass. Wards absorb all damage dealt in
// the same turn, including the turn both casters ward.
func (e *SpellDuel) Resolve(state State, actionA, actionB Action) Outcome {
	out := Outcome{State: state}

	castA := e.pay(&out.State.A, actionA, SideA, &out)
	castB := e.pay(&out.State.B, actionB, SideB, &out)

	wardA := castA == SpellWard
	wardB := castB == SpellWard

	e.applyCast(&out, castA, SideA, &out.State.A, &out.State.B, wardB)
	e.applyCast(&out, castB, SideB, &out.State.B, &out.State.A, wardA)

	out.State.A.Mana = min(out.State.A.Mana+manaRegen, MaxMana)
	out.State.B.Mana = min(out.State.B.Mana+manaRegen, MaxMana)

	downA := out.State.A.Health <= 0
	downB := out.State.B.Health <= 0
	if downA || downB {
		out.Terminal = true
		switch {
		case downA && downB:
			out.Winner = SideNone
			out.Events = append(out.Events, "both casters fall; the duel is a draw")
		case downA:
			out.Winner = SideB
			out.Events = append(out.Events, "caster A falls; caster B wins")
		default:
			out.Winner = SideA
			out.Events = append(out.Events, "caster B falls; caster A wins")
		}
	}
	return out
}

// pay deducts mana for the chosen spell, downgrading to a pass when the
// caster cannot afford it or the action is malformed.
func (e *SpellDuel) pay(c *CasterState, a Action, side Side, out *Outcome) Spell {
	if !a.Valid() {
		out.Events = append(out.Events, fmt.Sprintf("caster %s attempts an unknown spell and passes", side))
		return SpellPass
	}
	cost := 0
	switch a.Spell {
	case SpellBolt:
		cost = boltCost
	case SpellMend:
		cost = mendCost
	}
	if cost > c.Mana {
		out.Events = append(out.Events, fmt.Sprintf("caster %s lacks mana for %s and passes", side, a.Spell))
		return SpellPass
	}
	c.Mana -= cost
	return a.Spell
}

func (e *SpellDuel) applyCast(out *Outcome, spell Spell, side Side, self, foe *CasterState, foeWarded bool) {
	switch spell {
	case SpellBolt:
		if foeWarded {
			out.Events = append(out.Events, fmt.Sprintf("caster %s's bolt shatters on caster %s's ward", side, side.Opponent()))
			return
		}
		foe.Health -= boltDamage
		out.Events = append(out.Events, fmt.Sprintf("caster %s's bolt sears caster %s for %d", side, side.Opponent(), boltDamage))
	case SpellStrike:
		if foeWarded {
			out.Events = append(out.Events, fmt.Sprintf("caster %s's strike glances off caster %s's ward", side, side.Opponent()))
			return
		}
		foe.Health -= strikeDmg
		out.Events = append(out.Events, fmt.Sprintf("caster %s strikes caster %s for %d", side, side.Opponent(), strikeDmg))
	case SpellMend:
		self.Health = min(self.Health+mendHeal, MaxHealth)
		out.Events = append(out.Events, fmt.Sprintf("caster %s mends to %d health", side, self.Health))
	case SpellWard:
		out.Events = append(out.Events, fmt.Sprintf("caster %s raises a ward", side))
	case SpellPass:
		out.Events = append(out.Events, fmt.Sprintf("caster %s bides their time", side))
	}
}
