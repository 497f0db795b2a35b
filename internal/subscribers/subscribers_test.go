package subscribers

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"pokerbeat/internal/ledger"
	"pokerbeat/internal/poker"
)

type captureStore struct{ batches []*poker.Batch }

func (c *captureStore) CommitSnapshot(_ context.Context, b *poker.Batch) error {
	c.batches = append(c.batches, b)
	return nil
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return "id" + strconv.Itoa(n)
	}
}

func headsUpTable() poker.Snapshot {
	pos := 0
	state := poker.SittingIn
	return poker.Snapshot{
		Table: &poker.Table{
			ID: "t1", Name: "subs", NumSeats: 2, Variant: poker.VariantHoldem, Format: poker.FormatCash,
			Status: poker.TableOpen, SB: 1, BB: 2, MinBuyin: 20, MaxBuyin: 1000,
			SecondsPerActionBase: 20,
		},
		Players: []*poker.Player{
			{ID: "p0", TableID: "t1", UserID: "u0", Username: "ann", Stack: 100, Seated: true, Position: &pos, PlayingState: &state},
			{ID: "p1", TableID: "t1", UserID: "u1", Username: "bob"},
		},
	}
}

func TestSubscribersProduceBatch(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	snap := headsUpTable()
	acc := poker.NewAccessor(snap)
	subs := Default(acc, Options{NewID: seqIDs(), Now: clock, BigPotBB: 10})

	cfg := poker.DefaultConfig()
	cfg.HandStartDelay = 0
	cfg.DeckSeed = "subscribers"
	ctrl := poker.NewController(snap, cfg, poker.Deps{Now: clock, Subscribers: subs})
	ctx := context.Background()

	if err := ctrl.Dispatch(ctx, poker.Action{Type: poker.ActionTakeSeat, PlayerID: "p1", Amount: 100}); err != nil {
		t.Fatalf("take seat: %v", err)
	}
	first := ctrl.Accessor().NextToAct()
	if first == nil {
		t.Fatal("hand did not start")
	}
	if err := ctrl.Dispatch(ctx, poker.Action{Type: poker.ActionRaiseTo, PlayerID: first.ID, Amount: 100}); err != nil {
		t.Fatalf("raise: %v", err)
	}
	second := ctrl.Accessor().NextToAct()
	if err := ctrl.Dispatch(ctx, poker.Action{Type: poker.ActionCall, PlayerID: second.ID}); err != nil {
		t.Fatalf("call: %v", err)
	}

	store := &captureStore{}
	b, err := ctrl.Commit(ctx, store, "entry-1")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	var buyin bool
	for _, tr := range b.Transfers {
		if tr.Src == ledger.UserAccount("u1") && tr.Dst == ledger.TableAccount("t1") && tr.Amount == 100 {
			buyin = true
		}
	}
	if !buyin {
		t.Fatalf("transfers = %+v, want a buyin from u1", b.Transfers)
	}

	if b.Stats == nil || b.Stats.HandsPlayed != 1 || b.Stats.BiggestPot != 200 {
		t.Fatalf("stats = %+v", b.Stats)
	}

	lines := map[string]string{}
	var raised bool
	for _, l := range b.ChatLines {
		lines[l.ID] = l.Message
		if strings.Contains(l.Message, "raises to 100") {
			raised = true
		}
	}
	if !raised {
		t.Fatalf("chat lines missing the raise: %+v", b.ChatLines)
	}
	var bigPot bool
	for _, n := range b.Notifications {
		if n.Kind != NoticeBigPot {
			continue
		}
		bigPot = true
		if !strings.Contains(lines[n.ChatLineID], "wins") {
			t.Fatalf("big pot notice references %q", lines[n.ChatLineID])
		}
	}
	if !bigPot {
		t.Fatalf("notifications = %+v, want a big pot", b.Notifications)
	}

	up, ok := ctrl.Updates("p0")["animations"].(AnimationUpdate)
	if !ok || up.Before == nil || up.After == nil || len(up.Frames) == 0 {
		t.Fatalf("animation update = %+v", up)
	}
	for _, f := range up.Frames {
		if f.Kind == poker.EvDealHole && f.Subject.ID == "p1" && len(f.Args.Cards) > 0 {
			t.Fatal("p1 hole cards visible to p0")
		}
	}

	ctrl.ResetSubscribers()
	if u := ctrl.Updates("p0"); len(u) != 0 {
		t.Fatalf("updates after reset = %v", u)
	}
}

func TestStageOrder(t *testing.T) {
	subs := Default(poker.NewAccessor(headsUpTable()), Options{NewID: seqIDs()})
	for i := 1; i < len(subs); i++ {
		if subs[i].Stage() < subs[i-1].Stage() {
			t.Fatalf("%s runs before %s", subs[i-1].Name(), subs[i].Name())
		}
	}
	if subs[0].Name() != "chat" {
		t.Fatalf("first subscriber = %s, want chat", subs[0].Name())
	}
}

func TestFormatChips(t *testing.T) {
	cases := []struct {
		amount    int64
		precision int
		want      string
	}{
		{1234, 0, "1234"},
		{1234, 2, "12.34"},
		{5, 2, "0.05"},
		{-250, 2, "-2.50"},
	}
	for _, tc := range cases {
		if got := FormatChips(tc.amount, tc.precision); got != tc.want {
			t.Fatalf("FormatChips(%d, %d) = %q, want %q", tc.amount, tc.precision, got, tc.want)
		}
	}
}

func TestOrdinal(t *testing.T) {
	for n, want := range map[int]string{1: "1st", 2: "2nd", 3: "3rd", 4: "4th", 11: "11th", 12: "12th", 22: "22nd"} {
		if got := ordinal(n); got != want {
			t.Fatalf("ordinal(%d) = %s", n, got)
		}
	}
}
