package subscribers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"pokerbeat/internal/cards"
	"pokerbeat/internal/poker"
)

// ChatLog renders the hand log as dealer chat lines. It runs first so later
// stages can reference lines produced for the same event.
type ChatLog struct {
	newID func() string
	now   func() time.Time

	pending []poker.ChatLine
	sent    []poker.ChatLine
}

func NewChatLog(newID func() string, now func() time.Time) *ChatLog {
	return &ChatLog{newID: newID, now: now}
}

func (c *ChatLog) Name() string { return "chat" }

func (c *ChatLog) Stage() poker.Stage { return poker.StageLog }

// Last returns the most recent line of the current cycle.
func (c *ChatLog) Last() *poker.ChatLine {
	if len(c.pending) == 0 {
		return nil
	}
	return &c.pending[len(c.pending)-1]
}

func (c *ChatLog) Dispatch(acc *poker.Accessor, ev poker.AppliedEvent) {
	msg := describe(acc, ev)
	if msg == "" {
		return
	}
	c.pending = append(c.pending, poker.ChatLine{
		ID:         c.newID(),
		TableID:    acc.Table.ID,
		HandNumber: ev.HandNumber,
		Speaker:    "Dealer",
		Message:    msg,
		At:         c.now(),
	})
}

func (c *ChatLog) Commit(b *poker.Batch) {
	b.ChatLines = append(b.ChatLines, c.pending...)
	c.sent = append(c.sent, c.pending...)
	c.pending = nil
}

func (c *ChatLog) UpdatesForBroadcast(string) any {
	if len(c.sent) == 0 {
		return nil
	}
	return c.sent
}

func (c *ChatLog) Reset() {
	c.pending = nil
	c.sent = nil
}

func describe(acc *poker.Accessor, ev poker.AppliedEvent) string {
	a := ev.Args
	prec := acc.Table.Precision
	name := ""
	if ev.Subject.Kind == poker.SubjectPlayer {
		if p := acc.Player(ev.Subject.ID); p != nil {
			name = p.Username
		}
	}
	switch ev.Kind {
	case poker.EvNewHand:
		return fmt.Sprintf("Hand #%d started", a.HandNumber+1)
	case poker.EvDealBoard:
		return fmt.Sprintf("%s: %s", streetLabel(a.Street, len(a.Cards)), cardList(acc.Table.Board))
	case poker.EvPostBlind:
		return fmt.Sprintf("%s posts %s %s", name, blindName(a.Blind), FormatChips(a.Amount, prec))
	case poker.EvPostDead:
		return fmt.Sprintf("%s posts dead %s", name, FormatChips(a.Amount, prec))
	case poker.EvAnte:
		return fmt.Sprintf("%s antes %s", name, FormatChips(a.Amount, prec))
	case poker.EvBet:
		return fmt.Sprintf("%s bets %s", name, FormatChips(a.Amount, prec))
	case poker.EvRaiseTo:
		return fmt.Sprintf("%s raises to %s", name, FormatChips(a.Amount, prec))
	case poker.EvCall:
		return fmt.Sprintf("%s calls %s", name, FormatChips(a.Amount, prec))
	case poker.EvCheck:
		return name + " checks"
	case poker.EvFold:
		return name + " folds"
	case poker.EvReturnChips:
		return fmt.Sprintf("Uncalled %s returned to %s", FormatChips(a.Amount, prec), name)
	case poker.EvReveal:
		if a.HandName != "" {
			return fmt.Sprintf("%s shows %s (%s)", name, cardList(a.Cards), a.HandName)
		}
		return fmt.Sprintf("%s shows %s", name, cardList(a.Cards))
	case poker.EvWin:
		pot := "the pot"
		if a.Pot > 0 {
			pot = fmt.Sprintf("side pot #%d", a.Pot)
		}
		if a.HandName != "" {
			return fmt.Sprintf("%s wins %s from %s with %s", name, FormatChips(a.Amount, prec), pot, a.HandName)
		}
		return fmt.Sprintf("%s wins %s from %s", name, FormatChips(a.Amount, prec), pot)
	case poker.EvBountyFlip:
		return "Seven-deuce wins uncontested. Everyone flips for the bounty!"
	case poker.EvTakeSeat:
		return fmt.Sprintf("%s sits down at seat %d", name, seatNumber(a.Position))
	case poker.EvLeaveSeat:
		return name + " leaves the table"
	case poker.EvEliminate:
		return fmt.Sprintf("%s finishes in %s place", name, ordinal(a.Placement))
	case poker.EvTournamentFinish:
		if p := acc.PlayerByUser(a.UserID); p != nil {
			return fmt.Sprintf("%s wins the tournament and %s", p.Username, FormatChips(a.Amount, prec))
		}
		return "Tournament finished"
	case poker.EvSetBlinds:
		if a.Blinds != nil {
			return fmt.Sprintf("Blinds are now %s/%s", FormatChips(a.Blinds.SB, prec), FormatChips(a.Blinds.BB, prec))
		}
	case poker.EvSetStatus:
		if poker.TableStatus(a.Status) == poker.TableClosed {
			return "Table closed"
		}
	}
	return ""
}

func streetLabel(s poker.Street, dealt int) string {
	if dealt == 5 {
		return "Board"
	}
	switch s {
	case poker.StreetFlop:
		return "Flop"
	case poker.StreetTurn:
		return "Turn"
	case poker.StreetRiver:
		return "River"
	}
	return string(s)
}

func blindName(b string) string {
	switch b {
	case "sb":
		return "small blind"
	case "bb":
		return "big blind"
	case "owed_bb":
		return "owed big blind"
	}
	return b
}

func seatNumber(p *int) int {
	if p == nil {
		return 0
	}
	return *p + 1
}

func cardList(cs []cards.Card) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

func ordinal(n int) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return strconv.Itoa(n) + suffix
}

// FormatChips renders an amount in the table's smallest denomination with
// precision decimal places.
func FormatChips(amount int64, precision int) string {
	if precision <= 0 {
		return strconv.FormatInt(amount, 10)
	}
	neg := amount < 0
	if neg {
		amount = -amount
	}
	s := strconv.FormatInt(amount, 10)
	if len(s) <= precision {
		s = strings.Repeat("0", precision-len(s)+1) + s
	}
	out := s[:len(s)-precision] + "." + s[len(s)-precision:]
	if neg {
		out = "-" + out
	}
	return out
}
