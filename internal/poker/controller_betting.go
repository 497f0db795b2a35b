package poker

func (c *Controller) spendTimebank(p *Player) {
	if used := c.acc.timebankUsed(p, c.now()); used > 0 {
		c.playerEv(p, EvUseTimebank, Args{Duration: used})
	}
}

func (c *Controller) bet(p *Player, amt int64) error {
	acc := c.acc
	if amt > p.Stack {
		return invalid(ActionBet, "bet %d exceeds stack %d", amt, p.Stack)
	}
	if amt < acc.MinBetAmount() && amt != p.Stack {
		return invalid(ActionBet, "bet %d below big blind %d", amt, acc.MinBetAmount())
	}
	if p.UncollectedBets+amt > acc.MaxBetTo(p) {
		return invalid(ActionBet, "bet %d above limit %d", amt, acc.MaxBetTo(p)-p.UncollectedBets)
	}
	c.spendTimebank(p)
	c.playerEv(p, EvBet, Args{Amount: amt})
	c.recordAction(p)
	return nil
}

// raiseTo takes the new uncollected total, not the increment.
func (c *Controller) raiseTo(p *Player, amt int64) error {
	acc := c.acc
	allIn := p.UncollectedBets + p.Stack
	maxU := acc.maxUncollected()
	if amt > allIn {
		return invalid(ActionRaiseTo, "raise to %d exceeds stack", amt)
	}
	if amt <= maxU {
		return invalid(ActionRaiseTo, "raise to %d does not exceed %d", amt, maxU)
	}
	if amt < acc.MinRaiseTo() && amt != allIn {
		return invalid(ActionRaiseTo, "raise to %d below minimum %d", amt, acc.MinRaiseTo())
	}
	if amt > acc.MaxBetTo(p) {
		return invalid(ActionRaiseTo, "raise to %d above limit %d", amt, acc.MaxBetTo(p))
	}
	c.spendTimebank(p)
	c.playerEv(p, EvRaiseTo, Args{Amount: amt})
	c.recordAction(p)
	return nil
}

func (c *Controller) call(p *Player, voluntary bool) error {
	amt := c.acc.CallAmount(p, true)
	if amt <= 0 {
		return rejected(ActionCall, "nothing to call")
	}
	if voluntary {
		c.spendTimebank(p)
	}
	c.playerEv(p, EvCall, Args{Amount: amt})
	c.recordAction(p)
	return nil
}

func (c *Controller) check(p *Player, voluntary bool) error {
	if c.acc.CallAmount(p, true) > 0 {
		return rejected(ActionCheck, "facing a bet")
	}
	if voluntary {
		c.spendTimebank(p)
	}
	c.playerEv(p, EvCheck, Args{})
	c.recordAction(p)
	return nil
}

func (c *Controller) fold(p *Player, show, sitOut, voluntary bool) error {
	if !p.InHand() {
		return rejected(ActionFold, "not in hand")
	}
	if voluntary {
		c.spendTimebank(p)
	}
	if show {
		c.playerEv(p, EvReveal, Args{Cards: p.Cards})
	}
	c.playerEv(p, EvFold, Args{ShowCards: show, SitOut: sitOut})
	c.recordAction(p)
	if sitOut {
		c.sitOut(p)
	}
	return nil
}

// defaultAction checks when free, otherwise folds.
func (c *Controller) defaultAction(p *Player, sitOut bool) error {
	if c.acc.CallAmount(p, true) == 0 {
		return c.check(p, false)
	}
	return c.fold(p, false, sitOut, false)
}

func (c *Controller) forceAction() error {
	p := c.acc.NextToAct()
	if p == nil {
		return rejected(ActionForceAction, "nobody to act")
	}
	return c.defaultAction(p, false)
}

// applyPreset acts for p from a preset or a tournament sit-out. It returns
// false when p must act manually.
func (c *Controller) applyPreset(p *Player) bool {
	callDiff := c.acc.CallAmount(p, true)
	switch {
	case p.State() == TourneySittingOut:
		return c.defaultAction(p, false) == nil
	case p.PresetCheckfold:
		return c.defaultAction(p, false) == nil
	case p.PresetCheck:
		if callDiff == 0 {
			return c.check(p, false) == nil
		}
		c.playerEv(p, EvClearPresets, Args{})
		return false
	case p.PresetCall > 0:
		if p.PresetCall == callDiff {
			return c.call(p, false) == nil
		}
		c.playerEv(p, EvClearPresets, Args{})
		return false
	}
	return false
}

// returnUncalled gives back the part of the largest street wager nobody
// matched.
func (c *Controller) returnUncalled() {
	var top, second int64
	var leader *Player
	tie := false
	for _, p := range c.acc.Players {
		u := p.UncollectedBets
		switch {
		case u > top:
			second = top
			top, leader, tie = u, p, false
		case u == top && u > 0:
			tie = true
		case u > second:
			second = u
		}
	}
	if leader == nil || tie || top == second {
		return
	}
	c.playerEv(leader, EvReturnChips, Args{Amount: top - second})
}

func (c *Controller) advanceStreet() {
	c.returnUncalled()
	for _, p := range c.acc.Players {
		if p.UncollectedBets > 0 || p.InHand() {
			c.playerEv(p, EvSweep, Args{})
		}
	}
	var next Street
	n := 1
	switch c.acc.Street() {
	case StreetPreflop:
		next, n = StreetFlop, 3
	case StreetFlop:
		next = StreetTurn
	case StreetTurn:
		next = StreetRiver
	default:
		c.invariant("advance from %s", c.acc.Street())
		return
	}
	c.tableEv(EvNewStreet, Args{Street: next, At: c.now()})
	c.tableEv(EvDealBoard, Args{Cards: c.deal(n), Street: next})
}
