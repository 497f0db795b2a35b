package poker

import "pokerbeat/internal/cards"

// VariantRules covers hand evaluation and bet sizing limits.
type VariantRules interface {
	Name() Variant
	HoleCards() int
	Evaluate(hole, board []cards.Card) (cards.HandStrength, error)
	MaxBetTo(a *Accessor, p *Player) int64
	IsBountyHand(hole []cards.Card) bool
}

func VariantFor(v Variant) VariantRules {
	switch v {
	case VariantOmaha:
		return omahaRules{}
	case VariantBounty:
		return bountyRules{}
	default:
		return holdemRules{}
	}
}

type holdemRules struct{}

func (holdemRules) Name() Variant { return VariantHoldem }

func (holdemRules) HoleCards() int { return 2 }

func (holdemRules) Evaluate(hole, board []cards.Card) (cards.HandStrength, error) {
	return cards.EvaluateHoldem(hole, board)
}

// MaxBetTo is no-limit: everything behind.
func (holdemRules) MaxBetTo(_ *Accessor, p *Player) int64 {
	return p.UncollectedBets + p.Stack
}

func (holdemRules) IsBountyHand([]cards.Card) bool { return false }

type omahaRules struct{}

func (omahaRules) Name() Variant { return VariantOmaha }

func (omahaRules) HoleCards() int { return 4 }

func (omahaRules) Evaluate(hole, board []cards.Card) (cards.HandStrength, error) {
	return cards.EvaluateOmaha(hole, board)
}

// MaxBetTo is pot-limit: call, then raise by the pot after the call.
func (omahaRules) MaxBetTo(a *Accessor, p *Player) int64 {
	maxU := a.maxUncollected()
	callDiff := maxU - p.UncollectedBets
	if callDiff < 0 {
		callDiff = 0
	}
	limit := maxU + a.PotTotal() + callDiff
	if limit < a.Table.BB {
		limit = a.Table.BB
	}
	if all := p.UncollectedBets + p.Stack; all < limit {
		return all
	}
	return limit
}

func (omahaRules) IsBountyHand([]cards.Card) bool { return false }

// bountyRules is hold'em where winning uncontested with seven-deuce forces
// the rest of the table to flip for it.
type bountyRules struct{ holdemRules }

func (bountyRules) Name() Variant { return VariantBounty }

func (bountyRules) IsBountyHand(hole []cards.Card) bool {
	if len(hole) != 2 {
		return false
	}
	a, b := hole[0].Rank, hole[1].Rank
	return (a == cards.Seven && b == cards.Two) || (a == cards.Two && b == cards.Seven)
}
