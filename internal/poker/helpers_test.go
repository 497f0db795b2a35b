package poker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"pokerbeat/internal/cards"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }

func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTable(numSeats int, sb, bb int64) *Table {
	return &Table{
		ID:                        "t1",
		Name:                      "test",
		NumSeats:                  numSeats,
		Variant:                   VariantHoldem,
		Format:                    FormatCash,
		Status:                    TableOpen,
		SB:                        sb,
		BB:                        bb,
		MinBuyin:                  bb * 10,
		MaxBuyin:                  bb * 500,
		SecondsPerActionBase:      20,
		SecondsPerActionIncrement: 5,
		MaxTimebank:               30 * time.Second,
	}
}

// seatPlayers puts one sitting-in player per stack at seats 0..n-1.
func seatPlayers(stacks ...int64) []*Player {
	out := make([]*Player, 0, len(stacks))
	for i, s := range stacks {
		out = append(out, &Player{
			ID:           fmt.Sprintf("p%d", i),
			TableID:      "t1",
			UserID:       fmt.Sprintf("u%d", i),
			Username:     fmt.Sprintf("user%d", i),
			Stack:        s,
			Seated:       true,
			Position:     intPtr(i),
			PlayingState: statePtr(SittingIn),
		})
	}
	return out
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.HandStartDelay = 0
	cfg.DeckSeed = "test-seed"
	return cfg
}

func newTestController(t *testing.T, snap Snapshot, cfg Config, clock *fakeClock) *Controller {
	t.Helper()
	if clock == nil {
		clock = &fakeClock{t: testNow}
	}
	return NewController(snap, cfg, Deps{Now: clock.Now})
}

func mustDispatch(t *testing.T, c *Controller, a Action) {
	t.Helper()
	if err := c.Dispatch(context.Background(), a); err != nil {
		t.Fatalf("dispatch %s: %v", a, err)
	}
}

func chipsInPlay(ps []*Player) int64 {
	var total int64
	for _, p := range ps {
		total += p.Stack + p.Wagers + p.UncollectedBets + p.DeadMoney + p.PendingRebuy
	}
	return total
}

func stacks(ps []*Player) []int64 {
	out := make([]int64, len(ps))
	for i, p := range ps {
		out[i] = p.Stack
	}
	return out
}

func hand(s string) []cards.Card { return cards.MustParse(s) }

func eqInts(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
