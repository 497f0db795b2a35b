package poker

import (
	"testing"
	"time"
)

func inHand(ps ...*Player) {
	for _, p := range ps {
		p.Cards = hand("2c 3d")
	}
}

func TestMinRaiseFollowsLastIncrement(t *testing.T) {
	tbl := newTable(4, 1, 2)
	tbl.Board = hand("Ah Kh Qh")
	tbl.BtnIdx = intPtr(3)
	ps := seatPlayers(1000, 1000, 1000, 1000)
	inHand(ps...)
	ps[0].UncollectedBets = 10
	ps[1].UncollectedBets = 20
	ps[2].UncollectedBets = 35
	acc := NewAccessor(Snapshot{Table: tbl, Players: ps})

	if got := acc.MinRaiseTo(); got != 50 {
		t.Fatalf("min raise to = %d, want 50", got)
	}
	if got := acc.CallAmount(ps[0], true); got != 25 {
		t.Fatalf("call diff = %d, want 25", got)
	}
}

func TestMinRaiseNeverBelowBigBlind(t *testing.T) {
	tbl := newTable(3, 5, 10)
	ps := seatPlayers(1000, 1000, 1000)
	inHand(ps...)
	ps[0].UncollectedBets = 10
	ps[1].UncollectedBets = 13
	acc := NewAccessor(Snapshot{Table: tbl, Players: ps})

	if got := acc.MinRaiseTo(); got != 23 {
		t.Fatalf("min raise to = %d, want 23", got)
	}
}

func TestSidepotSummaryTiers(t *testing.T) {
	tbl := newTable(4, 1, 2)
	tbl.Board = hand("Ah Kh Qh Jh")
	ps := seatPlayers(0, 200, 200, 0)
	inHand(ps...)
	for i, w := range []int64{100, 300, 300, 500} {
		ps[i].Wagers = w
	}
	acc := NewAccessor(Snapshot{Table: tbl, Players: ps})

	pots := acc.SidepotSummary(false)
	if len(pots) != 3 {
		t.Fatalf("pots = %+v, want 3 tiers", pots)
	}
	want := []struct {
		amount   int64
		eligible int
	}{{400, 4}, {600, 3}, {200, 1}}
	for i, w := range want {
		if pots[i].Amount != w.amount || len(pots[i].Eligible) != w.eligible {
			t.Fatalf("pot %d = %+v, want amount %d with %d eligible", i, pots[i], w.amount, w.eligible)
		}
	}
	if pots[2].Eligible[0] != "p3" {
		t.Fatalf("top tier eligible = %v, want p3", pots[2].Eligible)
	}
}

func TestSidepotSummaryFoldedAndDeadMoney(t *testing.T) {
	tbl := newTable(3, 1, 2)
	tbl.Board = hand("Ah Kh Qh")
	ps := seatPlayers(500, 500, 500)
	inHand(ps[1], ps[2])
	ps[0].Wagers = 40 // folded
	ps[0].DeadMoney = 1
	ps[1].Wagers = 60
	ps[2].Wagers = 60
	acc := NewAccessor(Snapshot{Table: tbl, Players: ps})

	pots := acc.SidepotSummary(false)
	if len(pots) != 1 || pots[0].Amount != 161 || len(pots[0].Eligible) != 2 {
		t.Fatalf("pots = %+v, want one pot of 161 for 2 players", pots)
	}
	if acc.PotTotal() != 161 {
		t.Fatalf("pot total = %d, want 161", acc.PotTotal())
	}
}

func TestSplitPotOddChipsGoLeftOfButton(t *testing.T) {
	ps := seatPlayers(0, 0, 0, 0)
	shares := splitPot(5, []*Player{ps[1], ps[3]}, intPtr(2), 4)
	if shares["p3"] != 3 || shares["p1"] != 2 {
		t.Fatalf("shares = %v, want p3:3 p1:2", shares)
	}
	shares = splitPot(7, []*Player{ps[0], ps[1], ps[2]}, intPtr(0), 4)
	if shares["p1"] != 3 || shares["p2"] != 2 || shares["p0"] != 2 {
		t.Fatalf("shares = %v, want p1:3 p2:2 p0:2", shares)
	}
}

func TestNextToActRotation(t *testing.T) {
	tbl := newTable(4, 1, 2)
	tbl.BtnIdx, tbl.SBIdx, tbl.BBIdx = intPtr(0), intPtr(1), intPtr(2)
	ps := seatPlayers(100, 100, 100, 100)
	inHand(ps...)
	ps[1].UncollectedBets = 1
	ps[2].UncollectedBets = 2
	acc := NewAccessor(Snapshot{Table: tbl, Players: ps})

	if p := acc.NextToAct(); p == nil || p.ID != "p3" {
		t.Fatalf("preflop first to act = %v, want p3", p)
	}

	// Everyone limped and the big blind checked: round closed.
	for _, p := range ps {
		p.UncollectedBets = 2
		p.LastAction = ActionCall
	}
	ps[2].LastAction = ActionCheck
	tbl.LastActorPos = intPtr(2)
	if p := acc.NextToAct(); p != nil {
		t.Fatalf("closed round returned %s", p.ID)
	}

	// Flop: first active seat left of the button.
	tbl.Board = hand("Ah Kd 7c")
	tbl.LastActorPos = nil
	for _, p := range ps {
		p.Wagers, p.UncollectedBets, p.LastAction = 2, 0, ""
	}
	if p := acc.NextToAct(); p == nil || p.ID != "p1" {
		t.Fatalf("flop first to act = %v, want p1", p)
	}
}

func TestNextToActSkipsAllInAndLoneActor(t *testing.T) {
	tbl := newTable(3, 1, 2)
	tbl.Board = hand("Ah Kd 7c")
	tbl.BtnIdx = intPtr(0)
	ps := seatPlayers(0, 50, 0)
	inHand(ps...)
	ps[0].UncollectedBets = 100
	ps[0].LastAction = ActionBet
	ps[2].UncollectedBets = 80
	ps[2].LastAction = ActionCall
	ps[1].UncollectedBets = 0
	acc := NewAccessor(Snapshot{Table: tbl, Players: ps})

	if p := acc.NextToAct(); p == nil || p.ID != "p1" {
		t.Fatalf("next = %v, want p1 facing the bet", p)
	}
	ps[1].UncollectedBets = 100
	ps[1].LastAction = ActionCall
	if p := acc.NextToAct(); p != nil {
		t.Fatalf("lone actor already matched, got %s", p.ID)
	}
}

func TestAvailableActions(t *testing.T) {
	tbl := newTable(4, 1, 2)
	ps := seatPlayers(200, 200)
	watcher := &Player{ID: "w", TableID: "t1", UserID: "uw"}
	ps = append(ps, watcher)
	acc := NewAccessor(Snapshot{Table: tbl, Players: ps})

	got := acc.AvailableActions(watcher)
	want := []ActionName{ActionCreateSidebet, ActionTakeSeat}
	if !eqActions(got, want) {
		t.Fatalf("watcher actions = %v, want %v", got, want)
	}

	got = acc.AvailableActions(ps[0])
	want = []ActionName{ActionBuy, ActionCreateSidebet, ActionLeaveSeat, ActionSetAutoRebuy, ActionSitOut, ActionSitOutAtBlinds}
	if !eqActions(got, want) {
		t.Fatalf("predeal actions = %v, want %v", got, want)
	}

	tbl.BtnIdx, tbl.SBIdx, tbl.BBIdx = intPtr(0), intPtr(0), intPtr(1)
	inHand(ps[0], ps[1])
	ps[0].Stack, ps[0].UncollectedBets = 199, 1
	ps[1].Stack, ps[1].UncollectedBets = 198, 2
	if !acc.HasAction(ps[0], ActionRaiseTo) || !acc.HasAction(ps[0], ActionCall) || acc.HasAction(ps[0], ActionCheck) {
		t.Fatalf("small blind actions = %v", acc.AvailableActions(ps[0]))
	}
	if acc.HasAction(ps[1], ActionFold) || !acc.HasAction(ps[1], ActionSetPresetCheck) {
		t.Fatalf("waiting big blind actions = %v", acc.AvailableActions(ps[1]))
	}
}

func eqActions(a, b []ActionName) bool {
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

func TestOmahaPotLimit(t *testing.T) {
	tbl := newTable(3, 1, 2)
	tbl.Variant = VariantOmaha
	tbl.BtnIdx, tbl.SBIdx, tbl.BBIdx = intPtr(0), intPtr(1), intPtr(2)
	ps := seatPlayers(100, 99, 98)
	for _, p := range ps {
		p.Cards = hand("2c 3d 4h 5s")
	}
	ps[1].UncollectedBets = 1
	ps[2].UncollectedBets = 2
	acc := NewAccessor(Snapshot{Table: tbl, Players: ps})

	if got := acc.MaxBetTo(ps[0]); got != 7 {
		t.Fatalf("pot limit raise to = %d, want 7", got)
	}
	ps[0].Stack = 5
	if got := acc.MaxBetTo(ps[0]); got != 5 {
		t.Fatalf("short stack limit = %d, want 5", got)
	}
}

func TestOutOfTime(t *testing.T) {
	tbl := newTable(2, 1, 2)
	tbl.BtnIdx, tbl.SBIdx, tbl.BBIdx = intPtr(0), intPtr(0), intPtr(1)
	tbl.LastActionTimestamp = testNow
	ps := seatPlayers(99, 98)
	inHand(ps...)
	ps[0].UncollectedBets = 1
	ps[1].UncollectedBets = 2
	ps[0].TimebankRemaining = 10 * time.Second
	ps[0].HandsPlayed = 20000
	acc := NewAccessor(Snapshot{Table: tbl, Players: ps})

	clock := acc.SecondsToAct(ps[0])
	if clock != 20*time.Second {
		t.Fatalf("seconds to act = %s, want 20s", clock)
	}
	if acc.IsOutOfTime(ps[0], testNow.Add(29*time.Second)) {
		t.Fatal("out of time while timebank remains")
	}
	if !acc.IsOutOfTime(ps[0], testNow.Add(31*time.Second)) {
		t.Fatal("not out of time after clock and timebank")
	}
	if acc.IsOutOfTime(ps[1], testNow.Add(time.Hour)) {
		t.Fatal("player whose turn it is not reported out of time")
	}
}

func TestSecondsToActGrowsWithPotAndNewbies(t *testing.T) {
	tbl := newTable(2, 1, 2)
	ps := seatPlayers(1000, 1000)
	inHand(ps...)
	ps[0].Wagers, ps[1].Wagers = 40, 40
	acc := NewAccessor(Snapshot{Table: tbl, Players: ps})

	// pot 80 = 40bb crosses three thresholds; a fresh player gets +15s
	if got := acc.SecondsToAct(ps[0]); got != (20+3*5+15)*time.Second {
		t.Fatalf("seconds to act = %s", got)
	}
}
