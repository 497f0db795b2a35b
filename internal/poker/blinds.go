package poker

import "time"

func (c *Controller) canStartHand() bool {
	acc := c.acc
	if c.table().Status != TableOpen {
		return false
	}
	if !acc.Format.CanStartHand(acc) {
		return false
	}
	if len(acc.EligibleForHand()) < 1 || len(acc.blindsCandidates()) < 2 {
		return false
	}
	return !acc.inFuture(c.now(), c.cfg.HandStartDelay)
}

// resolvePending applies every state change that waits for a hand boundary.
func (c *Controller) resolvePending() {
	acc := c.acc
	out := acc.Format.SitOutState()
	for _, p := range acc.Seated() {
		switch p.State() {
		case SitInPending:
			c.playerEv(p, EvSetPlayingState, Args{State: SittingIn})
		case SitOutPending:
			c.playerEv(p, EvSetPlayingState, Args{State: out})
		case LeaveSeatPending:
			c.unseat(p, "")
			continue
		}
		if p.PendingRebuy > 0 {
			c.playerEv(p, EvRebuy, Args{})
		}
		c.autoRebuy(p)
		if acc.Format.AllowsRebuy() && p.Stack == 0 && p.State() == SittingIn {
			c.playerEv(p, EvSetPlayingState, Args{State: SittingOut, Reason: "no_chips"})
		}
	}
}

func (c *Controller) autoRebuy(p *Player) {
	if !c.acc.Format.AllowsRebuy() || p.AutoRebuy <= 0 || p.Stack >= p.AutoRebuy {
		return
	}
	if p.State() != SittingIn && p.State() != SittingOut {
		return
	}
	amt := p.AutoRebuy - p.Stack
	if err := c.validateBuy(p, amt); err != nil {
		return
	}
	c.playerEv(p, EvBuy, Args{Amount: amt, UserID: p.UserID, Reason: "auto_rebuy"})
}

// nextAfter finds the first player in ps seated after seat, wrapping.
func nextAfter(seat, numSeats int, ps []*Player, skip ...*Player) *Player {
	for i := 1; i <= numSeats; i++ {
		s := (seat + i) % numSeats
		for _, p := range ps {
			if p.Seat() != s {
				continue
			}
			skipped := false
			for _, x := range skip {
				if x != nil && x.ID == p.ID {
					skipped = true
				}
			}
			if !skipped {
				return p
			}
		}
	}
	return nil
}

// seatBetween reports whether s lies in the circular interval (from, to].
func seatBetween(from, to, s, n int) bool {
	if n <= 0 {
		return false
	}
	d := ((s-from)%n + n) % n
	span := ((to-from)%n + n) % n
	if span == 0 {
		span = n
	}
	return d > 0 && d <= span
}

type blindSeats struct {
	btn, sb, bb *Player
	dealt       []*Player
}

func (c *Controller) pickButton(eligible []*Player) *Player {
	t := c.table()
	if t.BtnIdx == nil {
		return eligible[c.randIntn(len(eligible))]
	}
	return nextAfter(*t.BtnIdx, t.NumSeats, eligible)
}

// computeBlinds places the button, small and big blind. With two players
// dealt in, the button posts the small blind.
func (c *Controller) computeBlinds() (blindSeats, bool) {
	acc := c.acc
	n := c.table().NumSeats
	eligible := acc.EligibleForHand()
	candidates := acc.blindsCandidates()
	if len(eligible) < 1 || len(candidates) < 2 {
		return blindSeats{}, false
	}
	btn := c.pickButton(eligible)
	var sb, bb *Player
	if len(eligible) >= 2 {
		sb = nextAfter(btn.Seat(), n, eligible, btn)
		bb = nextAfter(sb.Seat(), n, candidates, sb)
		if len(eligible) == 2 && bb.ID == btn.ID {
			sb = btn
			bb = nextAfter(btn.Seat(), n, eligible, btn)
		}
	} else {
		sb = btn
		bb = nextAfter(btn.Seat(), n, candidates, btn)
	}
	if bb == nil {
		return blindSeats{}, false
	}
	dealt := append([]*Player(nil), eligible...)
	if bb.State() == SitInAtBlindsPending {
		dealt = append(dealt, bb)
	}
	return blindSeats{btn: btn, sb: sb, bb: bb, dealt: dealt}, true
}

func (c *Controller) startHand() bool {
	c.resolvePending()
	if c.err != nil || !c.canStartHand() {
		return false
	}

	var seats blindSeats
	for attempt := 0; ; attempt++ {
		var ok bool
		seats, ok = c.computeBlinds()
		if !ok || attempt > len(c.acc.Seated()) {
			return false
		}
		if !seats.bb.SitOutAtBlinds {
			break
		}
		c.playerEv(seats.bb, EvSetSitOutBlinds, Args{Enabled: false})
		c.playerEv(seats.bb, EvSetPlayingState, Args{State: c.acc.Format.SitOutState(), Reason: "sit_out_at_blinds"})
	}

	t := c.table()
	prevSB, prevBB := copyInt(t.SBIdx), copyInt(t.BBIdx)

	c.acc.Format.beforeHand(c)
	c.tableEv(EvNewHand, Args{HandNumber: t.HandNumber, At: c.now()})
	c.tableEv(EvSetBlindPos, Args{Btn: copyInt(seats.btn.Position), SB: copyInt(seats.sb.Position), BB: copyInt(seats.bb.Position)})
	if seats.bb.State() == SitInAtBlindsPending {
		c.playerEv(seats.bb, EvSetPlayingState, Args{State: SittingIn})
	}
	c.chargeSkipped(seats, prevSB, prevBB)

	for _, p := range c.acc.Seated() {
		c.playerEv(p, EvPlayerNewHand, Args{Duration: c.refilledTimebank(p)})
	}
	c.dealerEv(EvShuffle, Args{Seed: c.handSeed(), Cards: c.stackDeck, HandNumber: t.HandNumber})
	c.stackDeck = nil

	c.postBlinds(seats)
	holes := c.acc.Variant.HoleCards()
	for _, p := range orderFromButton(seats.dealt, t.BtnIdx, t.NumSeats) {
		c.playerEv(p, EvDealHole, Args{Cards: c.deal(holes)})
	}
	return c.err == nil
}

func (c *Controller) refilledTimebank(p *Player) time.Duration {
	t := c.table()
	tb := p.TimebankRemaining + c.cfg.TimebankRefill
	if t.MaxTimebank > 0 && tb > t.MaxTimebank {
		tb = t.MaxTimebank
	}
	if tb < t.MinTimebank {
		tb = t.MinTimebank
	}
	return tb
}

// chargeSkipped marks seated players the big blind passed over. Cash games
// charge owed blinds and boot players idle for too many orbits.
func (c *Controller) chargeSkipped(seats blindSeats, prevSB, prevBB *int) {
	if prevBB == nil {
		return
	}
	acc := c.acc
	n := c.table().NumSeats
	dealt := map[string]bool{}
	for _, p := range seats.dealt {
		dealt[p.ID] = true
	}
	for _, p := range acc.Seated() {
		if dealt[p.ID] || !seatBetween(*prevBB, seats.bb.Seat(), p.Seat(), n) {
			continue
		}
		c.playerEv(p, EvSkipOrbit, Args{})
		if acc.Format.ChargesOwedBlinds() {
			blind := "bb"
			if p.OwesSB || (prevSB != nil && seatBetween(*prevSB, seats.sb.Seat(), p.Seat(), n)) {
				blind = "both"
			}
			c.playerEv(p, EvOweBlinds, Args{Blind: blind})
		}
		if acc.Format.BootsIdlePlayers() && c.cfg.MaxOrbitsSittingOut > 0 && p.OrbitsSittingOut > c.cfg.MaxOrbitsSittingOut {
			c.unseat(p, "idle")
		}
	}
}

func minChips(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func (c *Controller) postBlinds(seats blindSeats) {
	t := c.table()
	if t.Ante > 0 {
		for _, p := range seats.dealt {
			if amt := minChips(t.Ante, p.Stack); amt > 0 {
				c.playerEv(p, EvAnte, Args{Amount: amt})
			}
		}
	}
	if amt := minChips(t.SB, seats.sb.Stack); amt > 0 {
		c.playerEv(seats.sb, EvPostBlind, Args{Amount: amt, Blind: "sb"})
	}
	if amt := minChips(t.BB, seats.bb.Stack); amt > 0 {
		c.playerEv(seats.bb, EvPostBlind, Args{Amount: amt, Blind: "bb"})
	}
	for _, p := range seats.dealt {
		if !p.OwesSB && !p.OwesBB {
			continue
		}
		switch p.ID {
		case seats.bb.ID:
			if p.OwesSB {
				if amt := minChips(t.SB, p.Stack); amt > 0 {
					c.playerEv(p, EvPostDead, Args{Amount: amt})
				}
			}
		case seats.sb.ID:
			// the live small blind settles the owed one; the big blind stays
			// owed until it is posted
			if p.OwesBB {
				c.playerEv(p, EvOweBlinds, Args{Blind: "bb"})
				continue
			}
		default:
			if p.OwesBB {
				if amt := minChips(t.BB, p.Stack); amt > 0 {
					c.playerEv(p, EvPostBlind, Args{Amount: amt, Blind: "owed_bb"})
				}
			}
			if p.OwesSB {
				if amt := minChips(t.SB, p.Stack); amt > 0 {
					c.playerEv(p, EvPostDead, Args{Amount: amt})
				}
			}
		}
		c.playerEv(p, EvOweBlinds, Args{})
	}
}
