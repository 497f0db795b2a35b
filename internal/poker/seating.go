package poker

func (c *Controller) joinTable(a Action) error {
	if c.acc.PlayerByUser(a.UserID) != nil {
		return rejected(ActionJoinTable, "user %s already at table", a.UserID)
	}
	if c.table().Status != TableOpen {
		return rejected(ActionJoinTable, "table is %s", c.table().Status)
	}
	id := a.PlayerID
	if id == "" {
		id = c.newID()
	}
	p := &Player{ID: id, TableID: c.table().ID}
	c.snap.Players = append(c.snap.Players, p)
	c.acc.Players = c.snap.Players
	c.playerEv(p, EvJoinTable, Args{UserID: a.UserID, Username: a.Username, IsRobot: a.IsRobot})
	return nil
}

func (c *Controller) takeSeat(p *Player, a Action) error {
	t := c.table()
	free := c.acc.FreeSeats()
	if len(free) == 0 {
		return invalid(ActionTakeSeat, "table full")
	}
	pos := free[0]
	if a.Position != nil {
		pos = *a.Position
		if pos < 0 || pos >= t.NumSeats {
			return invalid(ActionTakeSeat, "illegal seat %d", pos)
		}
		if c.acc.PlayerAt(pos) != nil {
			return invalid(ActionTakeSeat, "seat %d taken", pos)
		}
	}

	if t.Format == FormatFreezeout {
		tr := c.snap.Tournament
		if tr == nil {
			return c.invariant("freezeout table %s has no tournament", t.ID)
		}
		if err := c.checkBalance(ActionTakeSeat, p.UserID, tr.Buyin); err != nil {
			return err
		}
		c.playerEv(p, EvTakeSeat, Args{Position: intPtr(pos), State: SittingIn, Amount: tr.StartingStack})
		c.tournamentEv(EvTournamentJoin, Args{UserID: p.UserID, Amount: tr.Buyin})
		return nil
	}

	if a.Amount > 0 {
		if err := c.validateBuy(p, a.Amount); err != nil {
			return err
		}
	}
	blind := ""
	if t.HandNumber > 0 {
		blind = "bb"
	}
	state := SittingOut
	if a.Amount > 0 {
		state = SittingIn
	}
	c.playerEv(p, EvTakeSeat, Args{Position: intPtr(pos), State: state, Blind: blind})
	if a.Amount > 0 {
		c.playerEv(p, EvBuy, Args{Amount: a.Amount, UserID: p.UserID})
	}
	return nil
}

func (c *Controller) checkBalance(a ActionName, userID string, amt int64) error {
	if c.balances == nil || amt <= 0 {
		return nil
	}
	bal, err := c.balances.Balance(c.ctx, userID)
	if err != nil {
		return invalid(a, "balance unavailable: %v", err)
	}
	if bal < amt {
		return invalid(a, "insufficient balance %d for %d", bal, amt)
	}
	return nil
}

func (c *Controller) validateBuy(p *Player, amt int64) error {
	t := c.table()
	total := p.Stack + p.PendingRebuy + amt
	if t.MaxBuyin > 0 && total > t.MaxBuyin {
		return invalid(ActionBuy, "stack would be %d, above max buyin %d", total, t.MaxBuyin)
	}
	if total < t.MinBuyin {
		return invalid(ActionBuy, "stack would be %d, below min buyin %d", total, t.MinBuyin)
	}
	return c.checkBalance(ActionBuy, p.UserID, amt)
}

func (c *Controller) buy(p *Player, amt int64) error {
	if err := c.validateBuy(p, amt); err != nil {
		return err
	}
	wasEmpty := p.Stack == 0
	pending := p.InHand()
	c.playerEv(p, EvBuy, Args{Amount: amt, Pending: pending, UserID: p.UserID})
	if !pending && wasEmpty && p.State() == SittingOut {
		c.sitIn(p)
	}
	return nil
}

func (c *Controller) setAutoRebuy(p *Player, amt int64) error {
	t := c.table()
	if amt != 0 && (amt < t.MinBuyin || (t.MaxBuyin > 0 && amt > t.MaxBuyin)) {
		return invalid(ActionSetAutoRebuy, "auto rebuy %d outside buyin range", amt)
	}
	c.playerEv(p, EvSetAutoRebuy, Args{Amount: amt})
	return nil
}

func (c *Controller) leaveSeat(p *Player) error {
	if p.InHand() {
		c.playerEv(p, EvSetPlayingState, Args{State: LeaveSeatPending})
		return nil
	}
	c.unseat(p, "")
	return nil
}

// unseat settles sidebets on p, returns chips and frees the seat.
func (c *Controller) unseat(p *Player, reason string) {
	for _, sb := range c.acc.OpenSidebets(p.ID) {
		c.tableEv(EvCloseSidebet, Args{SidebetID: sb.ID, UserID: sb.UserID, Amount: sidebetPayout(sb, p.Stack)})
	}
	if c.table().Format == FormatFreezeout {
		if tr := c.snap.Tournament; tr != nil && tr.Status == TournamentPending {
			c.tournamentEv(EvTournamentLeave, Args{UserID: p.UserID, Amount: tr.Buyin})
		}
	}
	if p.Stack > 0 {
		c.playerEv(p, EvCashout, Args{Amount: p.Stack, UserID: p.UserID})
	}
	if p.PendingRebuy > 0 {
		c.playerEv(p, EvRebuy, Args{})
		c.playerEv(p, EvCashout, Args{Amount: p.Stack, UserID: p.UserID})
	}
	c.playerEv(p, EvLeaveSeat, Args{Reason: reason})
}

func (c *Controller) sitIn(p *Player) {
	switch p.State() {
	case SittingOut, SitInAtBlindsPending:
		if c.acc.IsPredeal() {
			c.playerEv(p, EvSetPlayingState, Args{State: SittingIn})
		} else {
			c.playerEv(p, EvSetPlayingState, Args{State: SitInPending})
		}
	case TourneySittingOut, SitOutPending, LeaveSeatPending:
		c.playerEv(p, EvSetPlayingState, Args{State: SittingIn})
	}
}

func (c *Controller) sitOut(p *Player) {
	out := c.acc.Format.SitOutState()
	switch p.State() {
	case SittingIn:
		if p.InHand() && out != TourneySittingOut {
			c.playerEv(p, EvSetPlayingState, Args{State: SitOutPending})
		} else {
			c.playerEv(p, EvSetPlayingState, Args{State: out})
		}
	case SitInPending, SitInAtBlindsPending:
		c.playerEv(p, EvSetPlayingState, Args{State: out})
	}
}

func (c *Controller) sitInAtBlinds(p *Player) {
	if p.State() == SittingOut {
		c.playerEv(p, EvSetPlayingState, Args{State: SitInAtBlindsPending})
	}
}

func (c *Controller) sitOutAtBlinds(p *Player, enabled bool) {
	if p.State() == LeaveSeatPending {
		c.playerEv(p, EvSetPlayingState, Args{State: SittingIn})
	}
	c.playerEv(p, EvSetSitOutBlinds, Args{Enabled: enabled})
}

func sidebetPayout(sb Sidebet, stackNow int64) int64 {
	if sb.StartingStack <= 0 {
		return 0
	}
	return sb.Amount * stackNow / sb.StartingStack
}

func (c *Controller) createSidebet(p *Player, a Action) error {
	target := c.acc.Player(a.TargetID)
	if target == nil || !target.Seated || target.Stack <= 0 {
		return invalid(ActionCreateSidebet, "target %s is not a seated player with chips", a.TargetID)
	}
	if target.ID == p.ID {
		return invalid(ActionCreateSidebet, "cannot sidebet on yourself")
	}
	if target.InHand() {
		return rejected(ActionCreateSidebet, "target is in a hand")
	}
	if err := c.checkBalance(ActionCreateSidebet, p.UserID, a.Amount); err != nil {
		return err
	}
	sb := &Sidebet{
		ID:            c.newID(),
		UserID:        p.UserID,
		PlayerID:      target.ID,
		Amount:        a.Amount,
		StartingStack: target.Stack,
		Status:        SidebetOpen,
	}
	c.tableEv(EvCreateSidebet, Args{Sidebet: sb, UserID: p.UserID, Amount: a.Amount})
	return nil
}

func (c *Controller) closeSidebet(p *Player, id string) error {
	var sb *Sidebet
	for _, s := range c.acc.sidebetsOwnedBy(p.UserID) {
		if s.ID == id {
			s := s
			sb = &s
		}
	}
	if sb == nil {
		return invalid(ActionCloseSidebet, "no open sidebet %s", id)
	}
	var stack int64
	if target := c.acc.Player(sb.PlayerID); target != nil {
		if target.InHand() {
			return rejected(ActionCloseSidebet, "target is in a hand")
		}
		if target.Seated {
			stack = target.Stack
		}
	}
	c.tableEv(EvCloseSidebet, Args{SidebetID: sb.ID, UserID: sb.UserID, Amount: sidebetPayout(*sb, stack)})
	return nil
}

func (c *Controller) closeTable() error {
	if !c.acc.IsPredeal() {
		return rejected(ActionPlayerCloseTable, "hand in progress")
	}
	for _, p := range c.acc.Seated() {
		c.unseat(p, "table_closed")
	}
	c.tableEv(EvSetStatus, Args{Status: string(TableClosed)})
	return c.err
}
