package cards

import (
	"errors"
	"fmt"
	"strings"
)

type Suit int

type Rank int

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

const (
	Two   Rank = 2
	Three Rank = 3
	Four  Rank = 4
	Five  Rank = 5
	Six   Rank = 6
	Seven Rank = 7
	Eight Rank = 8
	Nine  Rank = 9
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
	Ace   Rank = 14
)

const (
	rankChars = "23456789TJQKA"
	suitChars = "shdc"
)

var ErrInvalidCard = errors.New("invalid_card")

// Card is an immutable rank/suit pair. Cards have no intrinsic order;
// strength only exists for a complete hand (see Evaluate*).
type Card struct {
	Rank Rank
	Suit Suit
}

func (c Card) Valid() bool {
	return c.Rank >= Two && c.Rank <= Ace && c.Suit >= Spades && c.Suit <= Clubs
}

func (c Card) String() string {
	if !c.Valid() {
		return "??"
	}
	return string(rankChars[c.Rank-Two]) + string(suitChars[c.Suit])
}

func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if len(s) != 2 {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidCard, s)
	}
	r := strings.IndexByte(rankChars, strings.ToUpper(s[:1])[0])
	su := strings.IndexByte(suitChars, strings.ToLower(s[1:])[0])
	if r < 0 || su < 0 {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidCard, s)
	}
	return Card{Rank: Two + Rank(r), Suit: Suit(su)}, nil
}

// MustParse is for tests and fixtures: "As Kd 7c".
func MustParse(s string) []Card {
	out, err := ParseList(s)
	if err != nil {
		panic(err)
	}
	return out
}

// ParseList accepts space separated or concatenated cards ("AsKd" or "As Kd").
func ParseList(s string) ([]Card, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	s = strings.ReplaceAll(s, ",", "")
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCard, s)
	}
	out := make([]Card, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		c, err := ParseCard(s[i : i+2])
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Join renders cards as a compact string with no separators.
func Join(cs []Card) string {
	var b strings.Builder
	b.Grow(len(cs) * 2)
	for _, c := range cs {
		b.WriteString(c.String())
	}
	return b.String()
}

func (c Card) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, ErrInvalidCard
	}
	return []byte(c.String()), nil
}

func (c *Card) UnmarshalText(b []byte) error {
	parsed, err := ParseCard(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
