package cards

import (
	"errors"

	poker "github.com/paulhankin/poker"
)

var ErrNotEnoughCards = errors.New("not_enough_cards")

// HandStrength is a total-order key for a made hand: higher Score wins,
// equal Score splits.
type HandStrength struct {
	Score int16  `json:"score"`
	Name  string `json:"name"`
	Best  []Card `json:"best"`
}

func (h HandStrength) Beats(o HandStrength) bool { return h.Score > o.Score }

func (h HandStrength) Ties(o HandStrength) bool { return h.Score == o.Score }

func toLib(c Card) poker.Card {
	var s poker.Suit
	switch c.Suit {
	case Clubs:
		s = poker.Club
	case Diamonds:
		s = poker.Diamond
	case Hearts:
		s = poker.Heart
	default:
		s = poker.Spade
	}
	// library ranks run 1..13 with the ace low
	r := poker.Rank(c.Rank)
	if c.Rank == Ace {
		r = poker.Rank(1)
	}
	card, _ := poker.MakeCard(s, r)
	return card
}

func eval5(five [5]Card) int16 {
	var a [5]poker.Card
	for i, c := range five {
		a[i] = toLib(c)
	}
	return poker.Eval5(&a)
}

// EvaluateHoldem ranks the best five of hole+board (5 to 7 cards in total).
func EvaluateHoldem(hole, board []Card) (HandStrength, error) {
	all := make([]Card, 0, len(hole)+len(board))
	all = append(all, hole...)
	all = append(all, board...)
	if len(all) < 5 {
		return HandStrength{}, ErrNotEnoughCards
	}
	if len(all) == 7 {
		var a [7]poker.Card
		for i, c := range all {
			a[i] = toLib(c)
		}
		score := poker.Eval7(&a)
		best, _ := bestFive(all, nil, 0)
		return HandStrength{Score: score, Name: describe(best[:]), Best: best[:]}, nil
	}
	best, score := bestFive(all, nil, 0)
	return HandStrength{Score: score, Name: describe(best[:]), Best: best[:]}, nil
}

// EvaluateOmaha uses exactly two of the four hole cards and three board cards.
func EvaluateOmaha(hole, board []Card) (HandStrength, error) {
	if len(hole) < 2 || len(board) < 3 {
		return HandStrength{}, ErrNotEnoughCards
	}
	var (
		best  [5]Card
		score int16 = -1
	)
	for a := 0; a < len(hole); a++ {
		for b := a + 1; b < len(hole); b++ {
			for x := 0; x < len(board); x++ {
				for y := x + 1; y < len(board); y++ {
					for z := y + 1; z < len(board); z++ {
						five := [5]Card{hole[a], hole[b], board[x], board[y], board[z]}
						if s := eval5(five); s > score {
							score = s
							best = five
						}
					}
				}
			}
		}
	}
	return HandStrength{Score: score, Name: describe(best[:]), Best: best[:]}, nil
}

// bestFive enumerates every 5-card subset of cs.
func bestFive(cs []Card, chosen []Card, start int) ([5]Card, int16) {
	if len(chosen) == 5 {
		var five [5]Card
		copy(five[:], chosen)
		return five, eval5(five)
	}
	var (
		best  [5]Card
		score int16 = -1
	)
	for i := start; i <= len(cs)-(5-len(chosen)); i++ {
		five, s := bestFive(cs, append(chosen, cs[i]), i+1)
		if s > score {
			best, score = five, s
		}
	}
	return best, score
}

func describe(cs []Card) string {
	lib := make([]poker.Card, len(cs))
	for i, c := range cs {
		lib[i] = toLib(c)
	}
	d, err := poker.Describe(lib)
	if err != nil {
		return ""
	}
	return d
}
