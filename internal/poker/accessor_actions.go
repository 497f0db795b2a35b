package poker

import "sort"

// AvailableActions lists what p may dispatch right now, sorted by name so
// callers and tests see a stable order.
func (a *Accessor) AvailableActions(p *Player) []ActionName {
	if p == nil {
		return nil
	}
	set := map[ActionName]bool{}
	open := a.Table.Status == TableOpen

	set[ActionCreateSidebet] = open
	set[ActionCloseSidebet] = len(a.sidebetsOwnedBy(p.UserID)) > 0

	if !p.Seated {
		set[ActionTakeSeat] = open && a.Format.CanTakeSeat(a)
		return keys(set)
	}

	set[ActionLeaveSeat] = p.State() != LeaveSeatPending && a.Format.CanLeaveSeat(a)
	if a.Format.AllowsRebuy() {
		set[ActionBuy] = open
		set[ActionSetAutoRebuy] = true
	}

	hasChips := p.Stack+p.PendingRebuy > 0 || !a.Format.AllowsRebuy()
	switch p.State() {
	case SittingIn:
		set[ActionSitOut] = true
		set[ActionSitOutAtBlinds] = !p.SitOutAtBlinds
	case SittingOut:
		set[ActionSitIn] = hasChips
		set[ActionSitInAtBlinds] = hasChips && a.Format.ChargesOwedBlinds()
	case TourneySittingOut:
		set[ActionSitIn] = true
	case SitInPending:
		set[ActionSitOut] = true
	case SitOutPending:
		set[ActionSitIn] = true
	case SitInAtBlindsPending:
		set[ActionSitIn] = true
		set[ActionSitOut] = true
	case LeaveSeatPending:
		set[ActionSitIn] = true
		set[ActionSitOutAtBlinds] = true
	}

	if p.CanAct() {
		if a.IsTurn(p) {
			for _, act := range a.bettingActions(p) {
				set[act] = true
			}
		} else {
			set[ActionSetPresetCheckfold] = true
			set[ActionSetPresetCheck] = true
			set[ActionSetPresetCall] = true
		}
	}
	return keys(set)
}

func (a *Accessor) bettingActions(p *Player) []ActionName {
	out := []ActionName{ActionFold}
	maxU := a.maxUncollected()
	if p.UncollectedBets >= maxU {
		out = append(out, ActionCheck)
	} else {
		out = append(out, ActionCall)
	}
	if !a.opponentsCanAct(p) {
		return out
	}
	if maxU == 0 {
		out = append(out, ActionBet)
	} else if p.Stack > a.CallAmount(p, true) {
		out = append(out, ActionRaiseTo)
	}
	return out
}

// HasAction reports whether name is currently legal for p.
func (a *Accessor) HasAction(p *Player, name ActionName) bool {
	for _, act := range a.AvailableActions(p) {
		if act == name {
			return true
		}
	}
	return false
}

func (a *Accessor) sidebetsOwnedBy(userID string) []Sidebet {
	var out []Sidebet
	for _, sb := range a.Table.Sidebets {
		if sb.Status == SidebetOpen && sb.UserID == userID {
			out = append(out, sb)
		}
	}
	return out
}

func keys(set map[ActionName]bool) []ActionName {
	out := make([]ActionName, 0, len(set))
	for k, ok := range set {
		if ok {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
