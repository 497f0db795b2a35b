package cards

import (
	crand "crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"math/rand/v2"
)

var ErrEmptyDeck = errors.New("empty_deck")

// Deck deals from the front of cards.
type Deck struct {
	cards []Card
}

func NewDeck() *Deck {
	cards := make([]Card, 0, 52)
	for s := Spades; s <= Clubs; s++ {
		for r := Two; r <= Ace; r++ {
			cards = append(cards, Card{Rank: r, Suit: s})
		}
	}
	return &Deck{cards: cards}
}

// Shuffle resets the deck to 52 cards and permutes it. A non-empty seed
// yields the same order every time and is only meant for mock, replay and
// test tables.
func (d *Deck) Shuffle(seed string) {
	fresh := NewDeck()
	d.cards = fresh.cards
	rnd := rand.New(rand.NewChaCha8(seedBytes(seed)))
	rnd.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

func seedBytes(seed string) [32]byte {
	if seed != "" {
		return sha256.Sum256([]byte(seed))
	}
	var b [32]byte
	if _, err := crand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("cards: crypto rand unavailable: %v", err))
	}
	return b
}

func (d *Deck) Deal() (Card, error) {
	if len(d.cards) == 0 {
		return Card{}, ErrEmptyDeck
	}
	c := d.cards[0]
	d.cards = d.cards[1:]
	return c, nil
}

func (d *Deck) DealN(n int) ([]Card, error) {
	out := make([]Card, 0, n)
	for i := 0; i < n; i++ {
		c, err := d.Deal()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Stack puts cards on top of the deck in the given order. Used to replay a
// recorded hand and to arrange fixtures.
func (d *Deck) Stack(top []Card) {
	rest := make([]Card, 0, len(d.cards))
	for _, c := range d.cards {
		if !containsCard(top, c) {
			rest = append(rest, c)
		}
	}
	d.cards = append(append([]Card{}, top...), rest...)
}

func (d *Deck) Len() int {
	if d == nil {
		return 0
	}
	return len(d.cards)
}

// String is the persisted form: remaining cards, top first.
func (d *Deck) String() string {
	if d == nil {
		return ""
	}
	return Join(d.cards)
}

func ParseDeck(s string) (*Deck, error) {
	cs, err := ParseList(s)
	if err != nil {
		return nil, err
	}
	seen := make(map[Card]struct{}, len(cs))
	for _, c := range cs {
		if _, dup := seen[c]; dup {
			return nil, fmt.Errorf("%w: duplicate %s", ErrInvalidCard, c)
		}
		seen[c] = struct{}{}
	}
	return &Deck{cards: cs}, nil
}

func containsCard(cs []Card, c Card) bool {
	for _, x := range cs {
		if x == c {
			return true
		}
	}
	return false
}
