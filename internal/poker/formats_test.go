package poker

import (
	"context"
	"testing"
	"time"
)

func TestBountyFlipAfterSevenDeuceWins(t *testing.T) {
	tbl := newTable(3, 1, 2)
	tbl.Variant = VariantBounty
	tbl.HandNumber = 1
	tbl.BtnIdx, tbl.SBIdx, tbl.BBIdx = intPtr(2), intPtr(0), intPtr(1)
	ps := seatPlayers(100, 100, 100)
	cfg := testConfig()
	cfg.HandStartDelay = time.Minute
	c := newTestController(t, Snapshot{Table: tbl, Players: ps}, cfg, nil)
	// p1, p2, p0 hole cards, then the flip: p1, p2 and the board.
	c.stackDeck = hand("3c 4c 5h 6h 7s 2d As Ad Ks Kd 2c 8d 9h Jc Qs")

	mustDispatch(t, c, Action{Type: ActionNoop})
	if *c.table().BtnIdx != 0 {
		t.Fatalf("button on %d, want 0", *c.table().BtnIdx)
	}
	mustDispatch(t, c, Action{Type: ActionRaiseTo, PlayerID: "p0", Amount: 10})
	mustDispatch(t, c, Action{Type: ActionFold, PlayerID: "p1"})
	mustDispatch(t, c, Action{Type: ActionFold, PlayerID: "p2"})

	var flips, calls int
	for _, ev := range c.Cycle() {
		switch ev.Kind {
		case EvBountyFlip:
			flips++
		case EvBountyCall:
			calls++
		}
	}
	if flips != 1 || calls != 3 {
		t.Fatalf("bounty flips %d calls %d, want 1 and 3", flips, calls)
	}
	if got := stacks(ps); !eqInts(got, []int64{4, 296, 0}) {
		t.Fatalf("stacks = %v, want [4 296 0]", got)
	}
	if chipsInPlay(ps) != 300 {
		t.Fatalf("chips in play = %d", chipsInPlay(ps))
	}
}

func TestNoBountyWithoutSevenDeuce(t *testing.T) {
	tbl := newTable(2, 1, 2)
	tbl.Variant = VariantBounty
	cfg := testConfig()
	cfg.HandStartDelay = time.Minute
	c := newTestController(t, Snapshot{Table: tbl, Players: seatPlayers(100, 100)}, cfg, nil)
	c.stackDeck = hand("As Ad Ks Kd")
	mustDispatch(t, c, Action{Type: ActionNoop})
	mustDispatch(t, c, Action{Type: ActionFold, PlayerID: c.Accessor().NextToAct().ID})
	for _, ev := range c.Cycle() {
		if ev.Kind == EvBountyFlip {
			t.Fatal("flip without a bounty hand")
		}
	}
}

func freezeoutSnapshot() Snapshot {
	tbl := newTable(2, 1, 2)
	tbl.Format = FormatFreezeout
	tbl.TournamentID = "tr1"
	return Snapshot{
		Table: tbl,
		Tournament: &Tournament{
			ID:            "tr1",
			TableID:       "t1",
			Buyin:         100,
			StartingStack: 1000,
			Status:        TournamentPending,
			HandsPerLevel: 10,
			BlindSchedule: []BlindLevel{{SB: 5, BB: 10}, {SB: 10, BB: 20}},
		},
	}
}

func TestFreezeoutRunsToAWinner(t *testing.T) {
	c := newTestController(t, freezeoutSnapshot(), testConfig(), nil)
	// The player left of the button is dealt first and gets aces.
	c.stackDeck = hand("As Ah 7c 2d Kd Qc 9s 5h 3c")

	for _, id := range []string{"0", "1"} {
		mustDispatch(t, c, Action{Type: ActionJoinTable, PlayerID: "p" + id, UserID: "u" + id, Username: "user" + id})
	}
	mustDispatch(t, c, Action{Type: ActionTakeSeat, PlayerID: "p0"})
	if !c.Accessor().IsPredeal() {
		t.Fatal("hand started before the table filled")
	}
	mustDispatch(t, c, Action{Type: ActionTakeSeat, PlayerID: "p1"})

	tr := c.Snapshot().Tournament
	tbl := c.table()
	if tr.Status != TournamentStarted || len(tr.Entrants) != 2 {
		t.Fatalf("tournament = %+v", tr)
	}
	if tbl.SB != 5 || tbl.BB != 10 {
		t.Fatalf("blinds %d/%d, want 5/10 from the schedule", tbl.SB, tbl.BB)
	}
	if c.Accessor().HasAction(c.Accessor().Player("p0"), ActionLeaveSeat) {
		t.Fatal("leaving allowed after the tournament started")
	}

	btn := c.Accessor().PlayerAt(*tbl.BtnIdx)
	var other *Player
	for _, p := range c.Accessor().Seated() {
		if p.ID != btn.ID {
			other = p
		}
	}
	mustDispatch(t, c, Action{Type: ActionRaiseTo, PlayerID: btn.ID, Amount: 1000})
	mustDispatch(t, c, Action{Type: ActionCall, PlayerID: other.ID})

	if tr.Status != TournamentFinished {
		t.Fatalf("tournament status = %s", tr.Status)
	}
	if tr.Placements[other.UserID] != 1 || tr.Placements[btn.UserID] != 2 {
		t.Fatalf("placements = %v", tr.Placements)
	}
	if tbl.Status != TableClosed {
		t.Fatalf("table status = %s", tbl.Status)
	}
	if btn.Seated || other.Seated {
		t.Fatal("players still seated after the tournament finished")
	}
	var prize int64
	for _, ev := range c.Cycle() {
		if ev.Kind == EvTournamentFinish {
			prize = ev.Args.Amount
		}
	}
	if prize != 200 {
		t.Fatalf("prize = %d, want 200", prize)
	}
}

func TestFreezeoutLeaveBeforeStartRefunds(t *testing.T) {
	snap := freezeoutSnapshot()
	snap.Table.NumSeats = 3
	c := newTestController(t, snap, testConfig(), nil)
	ctx := context.Background()
	mustDispatch(t, c, Action{Type: ActionJoinTable, PlayerID: "p0", UserID: "u0"})
	mustDispatch(t, c, Action{Type: ActionTakeSeat, PlayerID: "p0"})
	if got := c.Accessor().Player("p0").Stack; got != 1000 {
		t.Fatalf("starting stack = %d", got)
	}
	if err := c.Dispatch(ctx, Action{Type: ActionLeaveSeat, PlayerID: "p0"}); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if n := len(c.Snapshot().Tournament.Entrants); n != 0 {
		t.Fatalf("entrants after leaving = %d", n)
	}
	var refunded bool
	for _, ev := range c.Cycle() {
		if ev.Kind == EvTournamentLeave && ev.Args.Amount == 100 {
			refunded = true
		}
	}
	if !refunded {
		t.Fatal("leaving a pending tournament did not refund the buyin")
	}
}

func TestTournamentSitOutActsAutomatically(t *testing.T) {
	snap := freezeoutSnapshot()
	snap.Tournament.Status = TournamentStarted
	snap.Tournament.Entrants = []string{"u0", "u1"}
	ps := seatPlayers(1000, 1000)
	ps[1].PlayingState = statePtr(TourneySittingOut)
	snap.Players = ps
	cfg := testConfig()
	cfg.HandStartDelay = time.Minute
	c := newTestController(t, snap, cfg, nil)

	mustDispatch(t, c, Action{Type: ActionNoop})
	// p1 folds on its own, so either the hand is over or p0 is to act.
	if c.table().HandNumber == 0 {
		if next := c.Accessor().NextToAct(); next == nil || next.ID != "p0" {
			t.Fatalf("next to act = %v, want p0", next)
		}
	}
	if !ps[1].Seated {
		t.Fatal("tournament player was removed for sitting out")
	}
}
