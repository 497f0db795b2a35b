package poker

import (
	"fmt"

	"pokerbeat/internal/cards"
)

type changeSet []Change

func (c *changeSet) add(field string, old, new any) {
	*c = append(*c, Change{Field: field, Old: old, New: new})
}

func (c *changeSet) int64(field string, dst *int64, v int64) {
	if *dst == v {
		return
	}
	c.add(field, *dst, v)
	*dst = v
}

func (c *changeSet) bool(field string, dst *bool, v bool) {
	if *dst == v {
		return
	}
	c.add(field, *dst, v)
	*dst = v
}

func (c *changeSet) pos(field string, dst **int, v *int) {
	if seatEq(*dst, v) {
		return
	}
	c.add(field, seatVal(*dst), seatVal(v))
	*dst = copyInt(v)
}

func seatEq(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func seatVal(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func applyTable(t *Table, ev Event) ([]Change, error) {
	var ch changeSet
	a := ev.Args
	switch ev.Kind {
	case EvNewHand:
		ch.add("board", cards.Join(t.Board), "")
		t.Board = nil
		ch.pos("last_actor_pos", &t.LastActorPos, nil)
		t.LastActionTimestamp = a.At
	case EvSetBlindPos:
		ch.pos("btn_idx", &t.BtnIdx, a.Btn)
		ch.pos("sb_idx", &t.SBIdx, a.SB)
		ch.pos("bb_idx", &t.BBIdx, a.BB)
	case EvSetBlinds:
		if a.Blinds == nil {
			return nil, fmt.Errorf("%s without blinds", ev.Kind)
		}
		ch.int64("sb", &t.SB, a.Blinds.SB)
		ch.int64("bb", &t.BB, a.Blinds.BB)
		ch.int64("ante", &t.Ante, a.Blinds.Ante)
	case EvDealBoard:
		if n := len(t.Board) + len(a.Cards); n != 3 && n != 4 && n != 5 {
			return nil, fmt.Errorf("board would hold %d cards", n)
		}
		old := cards.Join(t.Board)
		t.Board = append(t.Board, a.Cards...)
		ch.add("board", old, cards.Join(t.Board))
	case EvResetBoard:
		ch.add("board", cards.Join(t.Board), "")
		t.Board = nil
	case EvNewStreet:
		ch.pos("last_actor_pos", &t.LastActorPos, nil)
		t.LastActionTimestamp = a.At
	case EvRecordAction:
		ch.pos("last_actor_pos", &t.LastActorPos, a.Position)
		ch.add("last_action_timestamp", t.LastActionTimestamp, a.At)
		t.LastActionTimestamp = a.At
	case EvEndHand:
		ch.int64("hand_number", &t.HandNumber, t.HandNumber+1)
		ch.add("board", cards.Join(t.Board), "")
		t.Board = nil
		ch.pos("last_actor_pos", &t.LastActorPos, nil)
		t.LastActionTimestamp = a.At
	case EvSetStatus:
		ch.add("status", t.Status, TableStatus(a.Status))
		t.Status = TableStatus(a.Status)
	case EvCreateSidebet:
		if a.Sidebet == nil {
			return nil, fmt.Errorf("%s without sidebet", ev.Kind)
		}
		t.Sidebets = append(t.Sidebets, *a.Sidebet)
		ch.add("sidebets", len(t.Sidebets)-1, len(t.Sidebets))
	case EvCloseSidebet:
		found := false
		for i := range t.Sidebets {
			if t.Sidebets[i].ID == a.SidebetID {
				t.Sidebets[i].Status = SidebetClosed
				t.Sidebets[i].Payout = a.Amount
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("sidebet %s not found", a.SidebetID)
		}
		ch.add("sidebet."+a.SidebetID, SidebetOpen, SidebetClosed)
	default:
		return nil, fmt.Errorf("unknown table event %s", ev.Kind)
	}
	return ch, nil
}

func applyPlayer(p *Player, ev Event) ([]Change, error) {
	var ch changeSet
	a := ev.Args
	switch ev.Kind {
	case EvJoinTable:
		p.UserID = a.UserID
		p.Username = a.Username
		p.IsRobot = a.IsRobot
		ch.add("joined", false, true)
	case EvTakeSeat:
		ch.bool("seated", &p.Seated, true)
		ch.pos("position", &p.Position, a.Position)
		setState(&ch, p, a.State)
		ch.bool("owes_bb", &p.OwesBB, a.Blind == "bb")
		p.OrbitsSittingOut = 0
		if a.Amount > 0 {
			ch.int64("stack", &p.Stack, a.Amount)
		}
	case EvLeaveSeat, EvEliminate:
		ch.bool("seated", &p.Seated, false)
		ch.pos("position", &p.Position, nil)
		if p.PlayingState != nil {
			ch.add("playing_state", *p.PlayingState, nil)
			p.PlayingState = nil
		}
		p.OwesSB, p.OwesBB, p.SitOutAtBlinds = false, false, false
		p.OrbitsSittingOut = 0
		p.PresetCheckfold, p.PresetCheck, p.PresetCall = false, false, 0
	case EvSetPlayingState:
		setState(&ch, p, a.State)
		if a.State == SittingIn {
			resetOrbits(&ch, p)
		}
	case EvSetSitOutBlinds:
		ch.bool("sit_out_at_blinds", &p.SitOutAtBlinds, a.Enabled)
	case EvBuy:
		if a.Pending {
			ch.int64("pending_rebuy", &p.PendingRebuy, p.PendingRebuy+a.Amount)
		} else {
			ch.int64("stack", &p.Stack, p.Stack+a.Amount)
		}
	case EvRebuy:
		ch.int64("stack", &p.Stack, p.Stack+p.PendingRebuy)
		ch.int64("pending_rebuy", &p.PendingRebuy, 0)
	case EvCashout:
		if a.Amount > p.Stack {
			return nil, fmt.Errorf("cashout %d exceeds stack %d", a.Amount, p.Stack)
		}
		ch.int64("stack", &p.Stack, p.Stack-a.Amount)
	case EvSetAutoRebuy:
		ch.int64("auto_rebuy", &p.AutoRebuy, a.Amount)
	case EvSetPreset:
		checkfold := a.Preset == ActionSetPresetCheckfold && a.Enabled
		check := a.Preset == ActionSetPresetCheck && a.Enabled
		var call int64
		if a.Preset == ActionSetPresetCall {
			call = a.Amount
		}
		ch.bool("preset_checkfold", &p.PresetCheckfold, checkfold)
		ch.bool("preset_check", &p.PresetCheck, check)
		ch.int64("preset_call", &p.PresetCall, call)
	case EvClearPresets:
		ch.bool("preset_checkfold", &p.PresetCheckfold, false)
		ch.bool("preset_check", &p.PresetCheck, false)
		ch.int64("preset_call", &p.PresetCall, 0)
	case EvPlayerNewHand:
		ch.bool("has_shown", &p.HasShown, false)
		if p.LastAction != "" {
			ch.add("last_action", p.LastAction, "")
			p.LastAction = ""
		}
		if a.Duration != p.TimebankRemaining {
			ch.add("timebank_remaining", p.TimebankRemaining, a.Duration)
			p.TimebankRemaining = a.Duration
		}
	case EvAnte:
		if err := takeChips(&ch, p, a.Amount); err != nil {
			return nil, err
		}
		ch.int64("wagers", &p.Wagers, p.Wagers+a.Amount)
	case EvPostBlind, EvBet, EvCall, EvBountyCall:
		if err := takeChips(&ch, p, a.Amount); err != nil {
			return nil, err
		}
		ch.int64("uncollected_bets", &p.UncollectedBets, p.UncollectedBets+a.Amount)
		if ev.Kind == EvBet || ev.Kind == EvCall {
			setLastAction(&ch, p, ActionName(ev.Kind))
		}
	case EvRaiseTo:
		delta := a.Amount - p.UncollectedBets
		if delta <= 0 {
			return nil, fmt.Errorf("raise to %d does not exceed %d", a.Amount, p.UncollectedBets)
		}
		if err := takeChips(&ch, p, delta); err != nil {
			return nil, err
		}
		ch.int64("uncollected_bets", &p.UncollectedBets, a.Amount)
		setLastAction(&ch, p, ActionRaiseTo)
	case EvPostDead:
		if err := takeChips(&ch, p, a.Amount); err != nil {
			return nil, err
		}
		ch.int64("dead_money", &p.DeadMoney, p.DeadMoney+a.Amount)
	case EvOweBlinds:
		ch.bool("owes_sb", &p.OwesSB, a.Blind == "sb" || a.Blind == "both")
		ch.bool("owes_bb", &p.OwesBB, a.Blind == "bb" || a.Blind == "both")
	case EvSkipOrbit:
		p.OrbitsSittingOut++
		ch.add("orbits_sitting_out", p.OrbitsSittingOut-1, p.OrbitsSittingOut)
	case EvDealHole:
		ch.add("cards", len(p.Cards), len(a.Cards))
		p.Cards = append([]cards.Card(nil), a.Cards...)
		resetOrbits(&ch, p)
	case EvCheck:
		setLastAction(&ch, p, ActionCheck)
	case EvFold:
		ch.add("cards", len(p.Cards), 0)
		p.Cards = nil
		setLastAction(&ch, p, ActionFold)
		p.PresetCheckfold, p.PresetCheck, p.PresetCall = false, false, 0
	case EvUseTimebank:
		left := p.TimebankRemaining - a.Duration
		if left < 0 {
			left = 0
		}
		ch.add("timebank_remaining", p.TimebankRemaining, left)
		p.TimebankRemaining = left
	case EvReturnChips:
		if a.Amount > p.UncollectedBets {
			return nil, fmt.Errorf("return %d exceeds uncollected %d", a.Amount, p.UncollectedBets)
		}
		ch.int64("uncollected_bets", &p.UncollectedBets, p.UncollectedBets-a.Amount)
		ch.int64("stack", &p.Stack, p.Stack+a.Amount)
	case EvSweep:
		ch.int64("wagers", &p.Wagers, p.Wagers+p.UncollectedBets)
		ch.int64("uncollected_bets", &p.UncollectedBets, 0)
		if p.LastAction != "" && p.LastAction != ActionFold {
			ch.add("last_action", p.LastAction, "")
			p.LastAction = ""
		}
		p.PresetCheckfold, p.PresetCheck, p.PresetCall = false, false, 0
	case EvReveal:
		ch.bool("has_shown", &p.HasShown, true)
	case EvWin:
		ch.int64("stack", &p.Stack, p.Stack+a.Amount)
	case EvSettle:
		ch.int64("wagers", &p.Wagers, 0)
		ch.int64("uncollected_bets", &p.UncollectedBets, 0)
		ch.int64("dead_money", &p.DeadMoney, 0)
	case EvPlayerEndHand:
		if len(p.Cards) > 0 {
			ch.add("cards", len(p.Cards), 0)
			p.Cards = nil
		}
		if a.Amount > 0 {
			ch.int64("hands_played", &p.HandsPlayed, p.HandsPlayed+a.Amount)
		}
		p.PresetCheckfold, p.PresetCheck, p.PresetCall = false, false, 0
	default:
		return nil, fmt.Errorf("unknown player event %s", ev.Kind)
	}
	return ch, nil
}

func applyTournament(tr *Tournament, ev Event) ([]Change, error) {
	var ch changeSet
	a := ev.Args
	switch ev.Kind {
	case EvTournamentJoin:
		tr.Entrants = append(tr.Entrants, a.UserID)
		ch.add("entrants", len(tr.Entrants)-1, len(tr.Entrants))
	case EvTournamentLeave:
		out := tr.Entrants[:0]
		for _, u := range tr.Entrants {
			if u != a.UserID {
				out = append(out, u)
			}
		}
		ch.add("entrants", len(tr.Entrants), len(out))
		tr.Entrants = out
	case EvTournamentStart:
		ch.add("status", tr.Status, TournamentStarted)
		tr.Status = TournamentStarted
	case EvTournamentPlace:
		if tr.Placements == nil {
			tr.Placements = map[string]int{}
		}
		tr.Placements[a.UserID] = a.Placement
		ch.add("placement."+a.UserID, nil, a.Placement)
	case EvTournamentFinish:
		ch.add("status", tr.Status, TournamentFinished)
		tr.Status = TournamentFinished
	default:
		return nil, fmt.Errorf("unknown tournament event %s", ev.Kind)
	}
	return ch, nil
}

// applyDealer handles deck bookkeeping; the rest are log markers.
func applyDealer(t *Table, ev Event) ([]Change, error) {
	switch ev.Kind {
	case EvShuffle:
		d := cards.NewDeck()
		d.Shuffle(ev.Args.Seed)
		if len(ev.Args.Cards) > 0 {
			d.Stack(ev.Args.Cards)
		}
		t.Deck = d
		return []Change{{Field: "deck", Old: nil, New: d.Len()}}, nil
	case EvBountyFlip, EvShowdown:
		return nil, nil
	}
	return nil, fmt.Errorf("unknown dealer event %s", ev.Kind)
}

func takeChips(ch *changeSet, p *Player, amt int64) error {
	if amt < 0 || amt > p.Stack {
		return fmt.Errorf("player %s cannot put in %d from stack %d", p.ID, amt, p.Stack)
	}
	ch.int64("stack", &p.Stack, p.Stack-amt)
	return nil
}

func setLastAction(ch *changeSet, p *Player, a ActionName) {
	if p.LastAction == a {
		return
	}
	ch.add("last_action", p.LastAction, a)
	p.LastAction = a
}

// resetOrbits clears the idle count; only consecutive skipped orbits count
// towards a boot.
func resetOrbits(ch *changeSet, p *Player) {
	if p.OrbitsSittingOut != 0 {
		ch.add("orbits_sitting_out", p.OrbitsSittingOut, 0)
		p.OrbitsSittingOut = 0
	}
}

func setState(ch *changeSet, p *Player, s PlayingState) {
	old := p.State()
	if old == s {
		return
	}
	ch.add("playing_state", old, s)
	p.PlayingState = statePtr(s)
}
