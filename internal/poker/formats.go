package poker

import "sort"

// FormatRules covers seating, blind schedule and elimination differences
// between cash games and tournaments.
type FormatRules interface {
	Name() Format
	AllowsRebuy() bool
	ChargesOwedBlinds() bool
	BootsIdlePlayers() bool
	CanTakeSeat(a *Accessor) bool
	CanLeaveSeat(a *Accessor) bool
	CanStartHand(a *Accessor) bool
	SitOutState() PlayingState
	BountyCap(a *Accessor, cfg Config) int64

	beforeHand(c *Controller)
	afterHand(c *Controller, startStacks map[string]int64)
}

func FormatFor(f Format) FormatRules {
	if f == FormatFreezeout {
		return freezeoutRules{}
	}
	return cashRules{}
}

type cashRules struct{}

func (cashRules) Name() Format                      { return FormatCash }
func (cashRules) AllowsRebuy() bool                 { return true }
func (cashRules) ChargesOwedBlinds() bool           { return true }
func (cashRules) BootsIdlePlayers() bool            { return true }
func (cashRules) CanTakeSeat(*Accessor) bool        { return true }
func (cashRules) CanLeaveSeat(*Accessor) bool       { return true }
func (cashRules) CanStartHand(*Accessor) bool       { return true }
func (cashRules) SitOutState() PlayingState         { return SittingOut }
func (cashRules) BountyCap(*Accessor, Config) int64 { return 0 }

func (cashRules) beforeHand(*Controller) {}

func (cashRules) afterHand(*Controller, map[string]int64) {}

type freezeoutRules struct{}

func (freezeoutRules) Name() Format            { return FormatFreezeout }
func (freezeoutRules) AllowsRebuy() bool       { return false }
func (freezeoutRules) ChargesOwedBlinds() bool { return false }
func (freezeoutRules) BootsIdlePlayers() bool  { return false }
func (freezeoutRules) SitOutState() PlayingState {
	return TourneySittingOut
}

func (freezeoutRules) CanTakeSeat(a *Accessor) bool {
	return a.Tournament != nil && a.Tournament.Status == TournamentPending
}

func (freezeoutRules) CanLeaveSeat(a *Accessor) bool {
	return a.Tournament != nil && a.Tournament.Status == TournamentPending
}

// CanStartHand waits for a full table before the first hand.
func (freezeoutRules) CanStartHand(a *Accessor) bool {
	tr := a.Tournament
	if tr == nil {
		return false
	}
	switch tr.Status {
	case TournamentStarted:
		return true
	case TournamentPending:
		return len(a.Seated()) == a.Table.NumSeats
	}
	return false
}

func (freezeoutRules) BountyCap(a *Accessor, cfg Config) int64 {
	return cfg.BountyTournamentCap * a.Table.BB
}

func (freezeoutRules) beforeHand(c *Controller) {
	tr := c.snap.Tournament
	if tr == nil {
		return
	}
	if tr.Status == TournamentPending {
		c.tournamentEv(EvTournamentStart, Args{})
	}
	if len(tr.BlindSchedule) == 0 {
		return
	}
	lvl := tr.BlindSchedule[tr.Level(c.table().HandNumber)]
	t := c.table()
	if lvl.SB != t.SB || lvl.BB != t.BB || lvl.Ante != t.Ante {
		c.tableEv(EvSetBlinds, Args{Blinds: &lvl})
	}
}

// afterHand eliminates busted players. Players busted in the same hand are
// placed by the chips they started the hand with.
func (freezeoutRules) afterHand(c *Controller, startStacks map[string]int64) {
	tr := c.snap.Tournament
	if tr == nil || tr.Status != TournamentStarted {
		return
	}
	var busted, alive []*Player
	for _, p := range c.acc.Seated() {
		if p.Stack == 0 {
			busted = append(busted, p)
		} else {
			alive = append(alive, p)
		}
	}
	sort.SliceStable(busted, func(i, j int) bool {
		return startStacks[busted[i].ID] > startStacks[busted[j].ID]
	})
	place := len(alive) + 1
	for _, p := range busted {
		c.tournamentEv(EvTournamentPlace, Args{UserID: p.UserID, Placement: place})
		c.playerEv(p, EvEliminate, Args{Placement: place})
		place++
	}
	if len(alive) != 1 {
		return
	}
	winner := alive[0]
	prize := tr.Buyin * int64(len(tr.Entrants))
	c.tournamentEv(EvTournamentPlace, Args{UserID: winner.UserID, Placement: 1})
	c.tournamentEv(EvTournamentFinish, Args{UserID: winner.UserID, Amount: prize})
	c.playerEv(winner, EvCashout, Args{Amount: winner.Stack, UserID: winner.UserID})
	c.playerEv(winner, EvLeaveSeat, Args{Reason: "tournament_finished"})
	c.tableEv(EvSetStatus, Args{Status: string(TableClosed)})
}
