// Package bot decides moves for robot players. Decisions are deliberately
// simple; the heartbeat only needs something legal, timely and repeatable.
package bot

import (
	"hash/fnv"
	"math"
	"time"

	"pokerbeat/internal/cards"
	"pokerbeat/internal/poker"
)

// Decider picks a move for p. ok=false means "not ready yet, requeue".
type Decider interface {
	Decide(acc *poker.Accessor, p *poker.Player, available []poker.ActionName, now time.Time) (a poker.Action, ok bool)
}

type Policy struct {
	// MinThink is how long a bot waits after the table's last action.
	MinThink time.Duration
	MaxThink time.Duration
	// Stupid makes every bot check or fold, for load tests and tutorials.
	Stupid bool
}

func DefaultPolicy() Policy {
	return Policy{MinThink: 800 * time.Millisecond, MaxThink: 3 * time.Second}
}

// boredomCycle spreads bored hands over a 40-hand cycle.
const boredomCycle = 40

// Bored reports whether a bot lost interest in this hand. Each username
// maps to one hand in every boredomCycle.
func Bored(username string, handNumber int64) bool {
	h := fnv.New32a()
	_, _ = h.Write([]byte(username))
	return int64(h.Sum32()%boredomCycle) == handNumber%boredomCycle
}

// ThinkDelay is a stable per-player, per-hand delay inside the policy window.
func (p Policy) ThinkDelay(username string, handNumber int64) time.Duration {
	span := p.MaxThink - p.MinThink
	if span <= 0 {
		return p.MinThink
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(username))
	_, _ = h.Write([]byte{byte(handNumber), byte(handNumber >> 8), byte(handNumber >> 16)})
	return p.MinThink + time.Duration(h.Sum64()%uint64(span))
}

// Simple plays by made-hand strength once the flop is out and by a coarse
// hole-card score before it.
type Simple struct {
	Policy Policy
}

func NewSimple(p Policy) *Simple { return &Simple{Policy: p} }

func (s *Simple) Decide(acc *poker.Accessor, p *poker.Player, available []poker.ActionName, now time.Time) (poker.Action, bool) {
	t := acc.Table
	if !acc.IsTurn(p) {
		return poker.Action{}, false
	}
	if now.Sub(t.LastActionTimestamp) < s.Policy.MinThink {
		return poker.Action{}, false
	}
	has := func(n poker.ActionName) bool {
		for _, a := range available {
			if a == n {
				return true
			}
		}
		return false
	}
	hand, street := t.HandNumber, acc.Street()
	act := func(n poker.ActionName, amount int64) poker.Action {
		return poker.Action{Type: n, PlayerID: p.ID, Amount: amount, HandNumber: &hand, Street: street}
	}
	passive := func() poker.Action {
		if has(poker.ActionCheck) {
			return act(poker.ActionCheck, 0)
		}
		return act(poker.ActionFold, 0)
	}

	if s.Policy.Stupid || Bored(p.Username, hand) {
		return passive(), true
	}

	strength := s.strength(acc, p)
	toCall := acc.CallAmount(p, true)
	switch {
	case strength >= 0.8 && (has(poker.ActionRaiseTo) || has(poker.ActionBet)):
		if has(poker.ActionBet) {
			return act(poker.ActionBet, clamp(acc.PotTotal()/2, acc.MinBetAmount(), acc.MaxBetTo(p))), true
		}
		return act(poker.ActionRaiseTo, clamp(acc.MinRaiseTo()+acc.PotTotal()/2, acc.MinRaiseTo(), acc.MaxBetTo(p))), true
	case has(poker.ActionCheck):
		return act(poker.ActionCheck, 0), true
	case has(poker.ActionCall) && (strength >= 0.5 || toCall <= t.BB):
		return act(poker.ActionCall, 0), true
	}
	return passive(), true
}

// strength is a 0..1 estimate. Before the flop it scores the hole cards;
// afterwards it ranks the made hand with the evaluator.
func (s *Simple) strength(acc *poker.Accessor, p *poker.Player) float64 {
	board := acc.Table.Board
	if len(p.Cards) < 2 {
		return 0
	}
	if len(board) < 3 {
		return preflopScore(p.Cards)
	}
	var (
		hs  cards.HandStrength
		err error
	)
	if acc.Table.Variant == poker.VariantOmaha {
		hs, err = cards.EvaluateOmaha(p.Cards, board)
	} else {
		hs, err = cards.EvaluateHoldem(p.Cards, board)
	}
	if err != nil {
		return 0
	}
	return math.Min(float64(hs.Score)/scoreCeiling, 1)
}

// scoreCeiling is the evaluator's score for a royal flush.
const scoreCeiling = 7462

func preflopScore(hole []cards.Card) float64 {
	a, b := hole[0].Rank, hole[1].Rank
	if a < b {
		a, b = b, a
	}
	score := float64(a+b) / float64(2*cards.Ace)
	if a == b {
		score += 0.35
	}
	if hole[0].Suit == hole[1].Suit {
		score += 0.05
	}
	if score > 1 {
		score = 1
	}
	return score
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		v = lo
	}
	if hi > 0 && v > hi {
		v = hi
	}
	return v
}
