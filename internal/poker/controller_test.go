package poker

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"
)

// e2eController seats four players whose previous hand had the button on
// seat 0, so the next hand puts the button on seat 1 and p0 first to act.
func e2eController(t *testing.T) *Controller {
	t.Helper()
	tbl := newTable(4, 1, 2)
	tbl.HandNumber = 1
	tbl.BtnIdx, tbl.SBIdx, tbl.BBIdx = intPtr(0), intPtr(1), intPtr(2)
	snap := Snapshot{Table: tbl, Players: seatPlayers(400, 300, 200, 100)}
	cfg := testConfig()
	cfg.HandStartDelay = time.Minute
	c := newTestController(t, snap, cfg, nil)
	// Dealt from the left of the button: p2, p3, p0, p1, then the board.
	c.stackDeck = hand("Ks Kd As Ad Qs Qd Js Jd 2c 7c 9h 3s 4h")
	return c
}

func TestHandEndToEnd(t *testing.T) {
	c := e2eController(t)
	acc := c.Accessor()
	ps := acc.Players
	total := chipsInPlay(ps)

	mustDispatch(t, c, Action{Type: ActionNoop})
	if *c.table().BtnIdx != 1 || *c.table().SBIdx != 2 || *c.table().BBIdx != 3 {
		t.Fatalf("blinds = btn %d sb %d bb %d", *c.table().BtnIdx, *c.table().SBIdx, *c.table().BBIdx)
	}
	if p := acc.NextToAct(); p == nil || p.ID != "p0" {
		t.Fatalf("first to act = %v, want p0", p)
	}

	mustDispatch(t, c, Action{Type: ActionRaiseTo, PlayerID: "p0", Amount: 400})
	for _, id := range []string{"p1", "p2", "p3"} {
		if err := c.dispatchAction(context.Background(), Action{Type: ActionCall, PlayerID: id}); err != nil {
			t.Fatalf("call %s: %v", id, err)
		}
	}
	if got := stacks(ps); !eqInts(got, []int64{0, 0, 0, 0}) {
		t.Fatalf("stacks after calls = %v", got)
	}
	if acc.PotTotal() != 1000 {
		t.Fatalf("pot = %d, want 1000", acc.PotTotal())
	}
	if acc.NextToAct() != nil {
		t.Fatal("nobody can act with everyone all in")
	}

	if err := c.step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if got := stacks(ps); !eqInts(got, []int64{300, 0, 300, 400}) {
		t.Fatalf("final stacks = %v, want [300 0 300 400]", got)
	}
	if chipsInPlay(ps) != total {
		t.Fatalf("chips in play %d, want %d", chipsInPlay(ps), total)
	}
	if c.table().HandNumber != 2 || !acc.IsPredeal() {
		t.Fatalf("hand number %d predeal %v", c.table().HandNumber, acc.IsPredeal())
	}

	var returned, wins int
	for _, ev := range c.Cycle() {
		switch ev.Kind {
		case EvReturnChips:
			if ev.Subject.ID != "p0" || ev.Args.Amount != 100 {
				t.Fatalf("return chips = %+v", ev)
			}
			returned++
		case EvWin:
			wins++
		}
	}
	if returned != 1 || wins != 3 {
		t.Fatalf("returned %d wins %d, want 1 and 3", returned, wins)
	}
}

func TestDuplicateActionIsRejectedWithoutChange(t *testing.T) {
	c := e2eController(t)
	mustDispatch(t, c, Action{Type: ActionNoop})
	raise := Action{Type: ActionRaiseTo, PlayerID: "p0", Amount: 400}
	mustDispatch(t, c, raise)

	before := stacks(c.Accessor().Players)
	n := len(c.Cycle())
	err := c.Dispatch(context.Background(), raise)
	if !errors.Is(err, ErrRejectedAction) || !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("replayed raise err = %v, want rejected", err)
	}
	if len(c.Cycle()) != n || !eqInts(stacks(c.Accessor().Players), before) {
		t.Fatal("rejected action changed state")
	}

	mustDispatch(t, c, Action{Type: ActionFold, PlayerID: "p1"})
	err = c.Dispatch(context.Background(), Action{Type: ActionFold, PlayerID: "p1"})
	if !errors.Is(err, ErrRejectedAction) {
		t.Fatalf("second fold err = %v, want rejected", err)
	}

	stale := int64(0)
	err = c.Dispatch(context.Background(), Action{Type: ActionCall, PlayerID: "p2", HandNumber: &stale})
	if !errors.Is(err, ErrRejectedAction) {
		t.Fatalf("action pinned to old hand err = %v, want rejected", err)
	}
}

func TestActionPinnedToAnotherStreetIsRejected(t *testing.T) {
	c := e2eController(t)
	mustDispatch(t, c, Action{Type: ActionNoop})
	hand := c.table().HandNumber
	late := Action{Type: ActionCall, PlayerID: "p0", HandNumber: &hand, Street: StreetFlop}
	if err := c.Dispatch(context.Background(), late); !errors.Is(err, ErrRejectedAction) {
		t.Fatalf("dispatch = %v, want rejected", err)
	}
	if p0 := c.Accessor().Player("p0"); p0.UncollectedBets != 0 {
		t.Fatalf("rejected call moved %d chips", p0.UncollectedBets)
	}
	mustDispatch(t, c, Action{Type: ActionCall, PlayerID: "p0", HandNumber: &hand, Street: StreetPreflop})
}

func TestInvalidAmounts(t *testing.T) {
	c := e2eController(t)
	mustDispatch(t, c, Action{Type: ActionNoop})

	cases := []Action{
		{Type: ActionRaiseTo, PlayerID: "p0", Amount: 3},
		{Type: ActionRaiseTo, PlayerID: "p0", Amount: 401},
		{Type: ActionRaiseTo, PlayerID: "p0", Amount: 2},
		{Type: ActionBet, PlayerID: "p0", Amount: 0},
		{Type: "SHOVE", PlayerID: "p0"},
		{Type: ActionCall, PlayerID: "nobody"},
	}
	for _, a := range cases {
		err := c.Dispatch(context.Background(), a)
		if !errors.Is(err, ErrInvalidAction) {
			t.Fatalf("%s: err = %v, want invalid", a, err)
		}
		if errors.Is(err, ErrRejectedAction) && a.Type != ActionBet {
			t.Fatalf("%s: got rejected, want plain invalid", a)
		}
	}
}

func TestHeadsUpButtonPostsSmallBlind(t *testing.T) {
	tbl := newTable(6, 1, 2)
	ps := seatPlayers(500, 500, 500)
	ps[1].PlayingState = statePtr(SittingOut)
	c := newTestController(t, Snapshot{Table: tbl, Players: ps}, testConfig(), nil)

	mustDispatch(t, c, Action{Type: ActionNoop})
	var lastBtn = -1
	for i := 0; i < 4; i++ {
		tb := c.table()
		if tb.BtnIdx == nil || tb.SBIdx == nil || tb.BBIdx == nil {
			t.Fatalf("hand %d has no blinds", i)
		}
		if *tb.BtnIdx != *tb.SBIdx || *tb.BBIdx == *tb.BtnIdx {
			t.Fatalf("hand %d: btn %d sb %d bb %d", i, *tb.BtnIdx, *tb.SBIdx, *tb.BBIdx)
		}
		if *tb.BtnIdx == lastBtn {
			t.Fatalf("hand %d: button did not move", i)
		}
		if *tb.BtnIdx == 1 || *tb.BBIdx == 1 {
			t.Fatalf("hand %d: sitting out player got a blind", i)
		}
		lastBtn = *tb.BtnIdx
		next := c.Accessor().NextToAct()
		if next == nil || next.Seat() != *tb.BtnIdx {
			t.Fatalf("hand %d: button does not act first preflop", i)
		}
		mustDispatch(t, c, Action{Type: ActionFold, PlayerID: next.ID})
	}
	if chipsInPlay(c.Accessor().Players) != 1500 {
		t.Fatalf("chips in play = %d", chipsInPlay(c.Accessor().Players))
	}
}

// playScript plays hands with a fixed policy and records who acted.
func playScript(t *testing.T, hands int) ([]string, []int64) {
	t.Helper()
	tbl := newTable(4, 5, 10)
	c := newTestController(t, Snapshot{Table: tbl, Players: seatPlayers(1000, 1000, 1000, 1000)}, testConfig(), nil)
	mustDispatch(t, c, Action{Type: ActionNoop})
	var order []string
	for c.table().HandNumber < int64(hands) {
		acc := c.Accessor()
		p := acc.NextToAct()
		if p == nil {
			t.Fatalf("hand %d stalled", c.table().HandNumber)
		}
		order = append(order, p.ID)
		a := Action{Type: ActionCall, PlayerID: p.ID}
		switch {
		case acc.HasAction(p, ActionCheck):
			a.Type = ActionCheck
		case p.Seat()%2 == 1:
			a.Type = ActionFold
		}
		mustDispatch(t, c, a)
	}
	return order, stacks(c.Accessor().Players)
}

func TestTurnOrderDeterministicWithSeed(t *testing.T) {
	order1, stacks1 := playScript(t, 5)
	order2, stacks2 := playScript(t, 5)
	if len(order1) != len(order2) {
		t.Fatalf("runs differ in length: %d vs %d", len(order1), len(order2))
	}
	for i := range order1 {
		if order1[i] != order2[i] {
			t.Fatalf("action %d: %s vs %s", i, order1[i], order2[i])
		}
	}
	if !eqInts(stacks1, stacks2) {
		t.Fatalf("stacks differ: %v vs %v", stacks1, stacks2)
	}
}

func TestChipConservationRandomPlay(t *testing.T) {
	tbl := newTable(5, 5, 10)
	ps := seatPlayers(300, 800, 1000, 450, 2000)
	c := newTestController(t, Snapshot{Table: tbl, Players: ps}, testConfig(), nil)
	total := chipsInPlay(ps)
	rng := rand.New(rand.NewPCG(7, 11))

	mustDispatch(t, c, Action{Type: ActionNoop})
	for i := 0; i < 400; i++ {
		acc := c.Accessor()
		p := acc.NextToAct()
		if p == nil {
			break
		}
		opts := []ActionName{}
		for _, a := range acc.AvailableActions(p) {
			if a.IsBetting() {
				opts = append(opts, a)
			}
		}
		a := Action{Type: opts[rng.IntN(len(opts))], PlayerID: p.ID}
		switch a.Type {
		case ActionBet:
			a.Amount = minChips(acc.MinBetAmount()*int64(1+rng.IntN(4)), p.Stack)
		case ActionRaiseTo:
			a.Amount = minChips(acc.MinRaiseTo()+int64(rng.IntN(3))*tbl.BB, p.Stack+p.UncollectedBets)
		}
		mustDispatch(t, c, a)
		if got := chipsInPlay(acc.Players); got != total {
			t.Fatalf("after %s chips in play %d, want %d", a, got, total)
		}
		for _, pl := range acc.Players {
			if pl.Stack < 0 {
				t.Fatalf("%s has negative stack %d", pl.ID, pl.Stack)
			}
		}
	}
	if c.table().HandNumber == 0 {
		t.Fatal("no hand finished")
	}
}

func TestOwedBlindsAndIdleBoot(t *testing.T) {
	setup := func(orbits int) *Controller {
		tbl := newTable(4, 1, 2)
		tbl.HandNumber = 5
		tbl.BtnIdx, tbl.SBIdx, tbl.BBIdx = intPtr(0), intPtr(1), intPtr(2)
		ps := seatPlayers(100, 100, 100, 100)
		ps[3].PlayingState = statePtr(SittingOut)
		ps[3].OrbitsSittingOut = orbits
		return newTestController(t, Snapshot{Table: tbl, Players: ps}, testConfig(), nil)
	}

	c := setup(0)
	mustDispatch(t, c, Action{Type: ActionNoop})
	p3 := c.Accessor().Player("p3")
	if *c.table().BBIdx != 0 {
		t.Fatalf("big blind on seat %d, want 0", *c.table().BBIdx)
	}
	if !p3.OwesBB || p3.OwesSB || p3.OrbitsSittingOut != 1 || p3.InHand() {
		t.Fatalf("skipped player = %+v", p3)
	}

	c = setup(3)
	mustDispatch(t, c, Action{Type: ActionNoop})
	p3 = c.Accessor().Player("p3")
	if p3.Seated || p3.Stack != 0 {
		t.Fatalf("idle player still seated: %+v", p3)
	}
	var cashedOut bool
	for _, ev := range c.Cycle() {
		if ev.Kind == EvCashout && ev.Subject.ID == "p3" && ev.Args.Amount == 100 {
			cashedOut = true
		}
	}
	if !cashedOut {
		t.Fatal("idle player was not cashed out")
	}
}

func TestSittingInClearsIdleOrbits(t *testing.T) {
	tbl := newTable(4, 1, 2)
	tbl.HandNumber = 5
	tbl.BtnIdx, tbl.SBIdx, tbl.BBIdx = intPtr(0), intPtr(1), intPtr(2)
	ps := seatPlayers(100, 100, 100, 100)
	ps[3].PlayingState = statePtr(SittingOut)
	ps[3].OrbitsSittingOut = 3
	c := newTestController(t, Snapshot{Table: tbl, Players: ps}, testConfig(), nil)
	acc := c.Accessor()
	p3 := acc.Player("p3")

	mustDispatch(t, c, Action{Type: ActionSitIn, PlayerID: "p3"})
	if p3.OrbitsSittingOut != 0 {
		t.Fatalf("orbits after sitting in = %d, want 0", p3.OrbitsSittingOut)
	}

	// sit out again and let the table move on
	mustDispatch(t, c, Action{Type: ActionSitOut, PlayerID: "p3"})
	for i := 0; i < 10 && c.table().HandNumber == 5; i++ {
		p := acc.NextToAct()
		if p == nil {
			t.Fatal("hand stalled")
		}
		mustDispatch(t, c, Action{Type: ActionFold, PlayerID: p.ID})
	}
	if c.table().HandNumber != 6 {
		t.Fatalf("hand number = %d, want 6", c.table().HandNumber)
	}
	if !p3.Seated || p3.OrbitsSittingOut > 1 {
		t.Fatalf("p3 seated=%v orbits=%d, want a fresh count", p3.Seated, p3.OrbitsSittingOut)
	}
}

func TestDealtInClearsIdleOrbits(t *testing.T) {
	tbl := newTable(4, 1, 2)
	tbl.HandNumber = 5
	tbl.BtnIdx, tbl.SBIdx, tbl.BBIdx = intPtr(0), intPtr(1), intPtr(2)
	ps := seatPlayers(100, 100, 100, 100)
	ps[3].OrbitsSittingOut = 2
	c := newTestController(t, Snapshot{Table: tbl, Players: ps}, testConfig(), nil)
	mustDispatch(t, c, Action{Type: ActionNoop})
	p3 := c.Accessor().Player("p3")
	if !p3.InHand() || p3.OrbitsSittingOut != 0 {
		t.Fatalf("p3 in hand=%v orbits=%d", p3.InHand(), p3.OrbitsSittingOut)
	}
}

func TestSmallBlindKeepsOwedBigBlind(t *testing.T) {
	tbl := newTable(4, 1, 2)
	tbl.HandNumber = 5
	tbl.BtnIdx, tbl.SBIdx, tbl.BBIdx = intPtr(0), intPtr(1), intPtr(2)
	ps := seatPlayers(100, 100, 100, 100)
	ps[2].OwesSB, ps[2].OwesBB = true, true
	c := newTestController(t, Snapshot{Table: tbl, Players: ps}, testConfig(), nil)
	mustDispatch(t, c, Action{Type: ActionNoop})

	p2 := c.Accessor().Player("p2")
	if *c.table().SBIdx != 2 {
		t.Fatalf("small blind on seat %d, want 2", *c.table().SBIdx)
	}
	if p2.UncollectedBets != 1 || p2.DeadMoney != 0 {
		t.Fatalf("p2 posted %d live, %d dead; want only the small blind", p2.UncollectedBets, p2.DeadMoney)
	}
	if p2.OwesSB || !p2.OwesBB {
		t.Fatalf("owes sb=%v bb=%v, want the big blind still owed", p2.OwesSB, p2.OwesBB)
	}
}

func TestSitStateTransitions(t *testing.T) {
	tbl := newTable(4, 1, 2)
	c := newTestController(t, Snapshot{Table: tbl, Players: seatPlayers(100, 100, 100)}, testConfig(), nil)
	mustDispatch(t, c, Action{Type: ActionNoop})
	acc := c.Accessor()

	var waiting *Player
	for _, p := range acc.Players {
		if !acc.IsTurn(p) {
			waiting = p
			break
		}
	}
	mustDispatch(t, c, Action{Type: ActionSitOut, PlayerID: waiting.ID})
	if waiting.State() != SitOutPending {
		t.Fatalf("sit out mid hand = %s", waiting.State())
	}
	mustDispatch(t, c, Action{Type: ActionSitIn, PlayerID: waiting.ID})
	if waiting.State() != SittingIn {
		t.Fatalf("sit in cancel = %s", waiting.State())
	}
	mustDispatch(t, c, Action{Type: ActionLeaveSeat, PlayerID: waiting.ID})
	if waiting.State() != LeaveSeatPending || !waiting.Seated {
		t.Fatalf("leave mid hand = %s seated %v", waiting.State(), waiting.Seated)
	}
	mustDispatch(t, c, Action{Type: ActionSitOutAtBlinds, PlayerID: waiting.ID})
	if waiting.State() != SittingIn || !waiting.SitOutAtBlinds {
		t.Fatalf("sit out at blinds = %s flag %v", waiting.State(), waiting.SitOutAtBlinds)
	}
}

func TestLeaveSeatPredealCashesOut(t *testing.T) {
	tbl := newTable(4, 1, 2)
	cfg := testConfig()
	c := newTestController(t, Snapshot{Table: tbl, Players: seatPlayers(100, 100)}, cfg, nil)
	p := c.Accessor().Player("p0")
	if err := c.dispatchAction(context.Background(), Action{Type: ActionLeaveSeat, PlayerID: "p0"}); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if p.Seated || p.Position != nil || p.Stack != 0 {
		t.Fatalf("player after leave = %+v", p)
	}
}

func TestJoinAndTakeSeat(t *testing.T) {
	tbl := newTable(2, 1, 2)
	c := newTestController(t, Snapshot{Table: tbl, Players: seatPlayers(100)}, testConfig(), nil)
	ctx := context.Background()

	if err := c.dispatchAction(ctx, Action{Type: ActionJoinTable, UserID: "u9", Username: "nine", PlayerID: "p9"}); err != nil {
		t.Fatalf("join: %v", err)
	}
	err := c.dispatchAction(ctx, Action{Type: ActionJoinTable, UserID: "u9"})
	if !errors.Is(err, ErrRejectedAction) {
		t.Fatalf("duplicate join err = %v", err)
	}
	err = c.dispatchAction(ctx, Action{Type: ActionTakeSeat, PlayerID: "p9", Position: intPtr(0), Amount: 100})
	if !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("taken seat err = %v", err)
	}
	err = c.dispatchAction(ctx, Action{Type: ActionTakeSeat, PlayerID: "p9", Amount: 5})
	if !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("buyin below minimum err = %v", err)
	}
	if err := c.dispatchAction(ctx, Action{Type: ActionTakeSeat, PlayerID: "p9", Amount: 100}); err != nil {
		t.Fatalf("take seat: %v", err)
	}
	p9 := c.Accessor().Player("p9")
	if p9.Seat() != 1 || p9.Stack != 100 || p9.State() != SittingIn {
		t.Fatalf("seated player = %+v", p9)
	}

	if err := c.dispatchAction(ctx, Action{Type: ActionJoinTable, UserID: "u10", PlayerID: "p10"}); err != nil {
		t.Fatalf("join: %v", err)
	}
	err = c.dispatchAction(ctx, Action{Type: ActionTakeSeat, PlayerID: "p10", Amount: 100})
	if !errors.Is(err, ErrInvalidAction) || errors.Is(err, ErrRejectedAction) {
		t.Fatalf("full table err = %v, want invalid", err)
	}
}

type staticBalances map[string]int64

func (b staticBalances) Balance(_ context.Context, userID string) (int64, error) {
	return b[userID], nil
}

func TestBuyChecksBalance(t *testing.T) {
	tbl := newTable(2, 1, 2)
	snap := Snapshot{Table: tbl, Players: seatPlayers(20)}
	c := NewController(snap, testConfig(), Deps{Now: (&fakeClock{t: testNow}).Now, Balances: staticBalances{"u0": 50}})
	err := c.Dispatch(context.Background(), Action{Type: ActionBuy, PlayerID: "p0", Amount: 60})
	if !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("buy over balance err = %v", err)
	}
	mustDispatch(t, c, Action{Type: ActionBuy, PlayerID: "p0", Amount: 50})
	if p := c.Accessor().Player("p0"); p.Stack != 70 {
		t.Fatalf("stack = %d, want 70", p.Stack)
	}
}

func TestCommitBatch(t *testing.T) {
	c := e2eController(t)
	store := &recordingStore{}
	b, err := c.Commit(context.Background(), store, "entry-0")
	if err != nil || b != nil {
		t.Fatalf("empty commit = %v, %v", b, err)
	}

	mustDispatch(t, c, Action{Type: ActionNoop})
	b, err = c.Commit(context.Background(), store, "entry-1")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if b.EntryID != "entry-1" || len(b.Events) == 0 || len(store.batches) != 1 {
		t.Fatalf("batch = %+v", b)
	}
	if !b.Snapshot.Table.ModifiedAt.After(b.ExpectedModifiedAt) {
		t.Fatal("modified_at did not advance")
	}
	for i := 1; i < len(b.Events); i++ {
		if b.Events[i].Seq <= b.Events[i-1].Seq {
			t.Fatalf("event seq not increasing at %d", i)
		}
	}
	if len(c.Cycle()) != 0 {
		t.Fatal("cycle not cleared after commit")
	}
}

type recordingStore struct {
	batches []*Batch
	err     error
}

func (s *recordingStore) CommitSnapshot(_ context.Context, b *Batch) error {
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, b)
	return nil
}

func TestInvariantViolationIsSticky(t *testing.T) {
	c := e2eController(t)
	mustDispatch(t, c, Action{Type: ActionNoop})
	c.table().Deck = nil
	c.deal(2)
	err := c.Dispatch(context.Background(), Action{Type: ActionFold, PlayerID: "p0"})
	if !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("err = %v, want invariant violation", err)
	}
	if _, err := c.Commit(context.Background(), &recordingStore{}, "x"); !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("commit err = %v", err)
	}
}

func TestPresetsActOnlyWhileTheyStillMatch(t *testing.T) {
	c := e2eController(t)
	acc := c.Accessor()
	mustDispatch(t, c, Action{Type: ActionNoop})
	mustDispatch(t, c, Action{Type: ActionSetPresetCall, PlayerID: "p1", Amount: 2})
	mustDispatch(t, c, Action{Type: ActionSetPresetCheck, PlayerID: "p2"})

	mustDispatch(t, c, Action{Type: ActionCall, PlayerID: "p0"})
	if p1 := acc.Player("p1"); p1.UncollectedBets != 2 {
		t.Fatalf("p1 uncollected = %d, preset call did not fire", p1.UncollectedBets)
	}
	p2 := acc.Player("p2")
	if next := acc.NextToAct(); next == nil || next.ID != "p2" {
		t.Fatalf("next to act = %v, want p2 to act manually", next)
	}
	if p2.PresetCheck || p2.UncollectedBets != 1 {
		t.Fatalf("p2 preset check = %v, uncollected = %d", p2.PresetCheck, p2.UncollectedBets)
	}
}
