package poker

import (
	"pokerbeat/internal/cards"
)

// step advances the hand until a player has to act or nothing can happen.
func (c *Controller) step() error {
	for i := 0; i < c.stepLimit; i++ {
		if c.err != nil {
			return c.err
		}
		advanced := c.stepOnce()
		if c.err != nil {
			return c.err
		}
		if !advanced {
			return nil
		}
	}
	return c.invariant("hand did not settle after %d steps", c.stepLimit)
}

func (c *Controller) stepOnce() bool {
	acc := c.acc
	if acc.IsPredeal() {
		if !c.canStartHand() {
			return false
		}
		return c.startHand()
	}
	if len(acc.Active()) <= 1 {
		c.endHand()
		return true
	}
	if p := acc.NextToAct(); p != nil {
		return c.applyPreset(p)
	}
	if acc.Street() == StreetRiver {
		c.endHand()
		return true
	}
	c.advanceStreet()
	return true
}

func (c *Controller) endHand() {
	acc := c.acc
	c.returnUncalled()

	startStacks := make(map[string]int64, len(acc.Players))
	for _, p := range acc.Players {
		startStacks[p.ID] = p.Stack + p.Wagers + p.UncollectedBets + p.DeadMoney
	}

	c.awardPots()
	if active := acc.Active(); len(active) == 1 && acc.Variant.IsBountyHand(active[0].Cards) {
		if c.bountyFlip(active[0]) {
			c.awardPots()
		}
	}
	c.finishHand(startStacks)
}

// awardPots pays every tier of the sidepot summary and zeroes contributions.
// Paid chips must equal the pot exactly.
func (c *Controller) awardPots() {
	acc := c.acc
	t := c.table()
	total := acc.PotTotal()
	pots := acc.SidepotSummary(false)
	if total == 0 {
		return
	}
	if len(pots) == 0 {
		c.invariant("pot of %d has no tiers", total)
		return
	}

	active := acc.Active()
	strengths := map[string]cards.HandStrength{}
	if len(active) > 1 {
		c.dealerEv(EvShowdown, Args{Cards: t.Board})
		for _, p := range orderFromButton(active, t.BtnIdx, t.NumSeats) {
			hs, err := acc.Variant.Evaluate(p.Cards, t.Board)
			if err != nil {
				c.fail(&InvariantViolation{TableID: t.ID, Reason: "evaluate " + p.ID, Err: err})
				return
			}
			strengths[p.ID] = hs
			c.playerEv(p, EvReveal, Args{Cards: p.Cards, HandName: hs.Name})
		}
	}

	var paid int64
	for i, pot := range pots {
		var contenders []*Player
		for _, id := range pot.Eligible {
			if p := acc.Player(id); p != nil {
				contenders = append(contenders, p)
			}
		}
		if len(contenders) == 0 {
			c.invariant("pot %d of %d has no eligible player", i, pot.Amount)
			return
		}
		winners := bestHands(contenders, strengths)
		shares := splitPot(pot.Amount, winners, t.BtnIdx, t.NumSeats)
		for _, w := range orderFromButton(winners, t.BtnIdx, t.NumSeats) {
			amt := shares[w.ID]
			paid += amt
			if amt == 0 {
				continue
			}
			c.playerEv(w, EvWin, Args{Amount: amt, Pot: i, HandName: strengths[w.ID].Name})
		}
	}
	if paid != total {
		c.invariant("awarded %d from a pot of %d", paid, total)
		return
	}
	for _, p := range acc.Players {
		if p.Wagers+p.UncollectedBets+p.DeadMoney > 0 {
			c.playerEv(p, EvSettle, Args{})
		}
	}
}

func bestHands(ps []*Player, strengths map[string]cards.HandStrength) []*Player {
	if len(ps) == 1 {
		return ps
	}
	var (
		best []*Player
		top  cards.HandStrength
	)
	for _, p := range ps {
		hs := strengths[p.ID]
		switch {
		case len(best) == 0 || hs.Beats(top):
			best, top = []*Player{p}, hs
		case hs.Ties(top):
			best = append(best, p)
		}
	}
	return best
}

func (c *Controller) finishHand(startStacks map[string]int64) {
	acc := c.acc
	for _, p := range acc.Seated() {
		if p.InHand() || p.LastAction != "" || startStacks[p.ID] != p.Stack {
			c.playerEv(p, EvPlayerEndHand, Args{Amount: 1})
		}
	}
	c.tableEv(EvEndHand, Args{At: c.now()})
	acc.Format.afterHand(c, startStacks)

	// With fewer than two players left the button unlocks and the next
	// hand picks it at random.
	if len(acc.blindsCandidates()) < 2 && c.table().BtnIdx != nil {
		c.tableEv(EvSetBlindPos, Args{})
	}
}

// bountyFlip deals every other seated player back in and forces them
// all-in against the bounty winner. It reports whether anyone was dealt.
func (c *Controller) bountyFlip(winner *Player) bool {
	acc := c.acc
	t := c.table()
	var others []*Player
	for _, p := range acc.Seated() {
		if p.ID != winner.ID && p.Stack > 0 && p.State() != LeaveSeatPending {
			others = append(others, p)
		}
	}
	if len(others) == 0 || winner.Stack == 0 {
		return false
	}
	limit := acc.Format.BountyCap(acc, c.cfg)

	c.dealerEv(EvBountyFlip, Args{Cards: winner.Cards, UserID: winner.UserID})
	c.tableEv(EvResetBoard, Args{})
	var most int64
	for _, p := range orderFromButton(others, t.BtnIdx, t.NumSeats) {
		amt := minChips(p.Stack, winner.Stack)
		if limit > 0 {
			amt = minChips(amt, limit)
		}
		c.playerEv(p, EvDealHole, Args{Cards: c.deal(acc.Variant.HoleCards())})
		c.playerEv(p, EvBountyCall, Args{Amount: amt})
		if amt > most {
			most = amt
		}
	}
	c.playerEv(winner, EvBountyCall, Args{Amount: minChips(most, winner.Stack)})
	c.tableEv(EvDealBoard, Args{Cards: c.deal(5), Street: StreetRiver})
	c.returnUncalled()
	return c.err == nil
}
