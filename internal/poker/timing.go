package poker

import "time"

// Pot sizes, in big blinds, at which players get extra thinking time.
var potThresholdsBB = []int64{10, 20, 40, 80, 160, 320}

type newbieStep struct {
	below int64
	bonus int
}

var newbieBonus = []newbieStep{
	{100, 15},
	{250, 12},
	{500, 10},
	{1000, 8},
	{2500, 6},
	{5000, 4},
	{11000, 2},
}

func newbieSeconds(handsPlayed int64) int {
	for _, s := range newbieBonus {
		if handsPlayed < s.below {
			return s.bonus
		}
	}
	return 0
}

// SecondsToAct is the base clock for p, before the timebank.
func (a *Accessor) SecondsToAct(p *Player) time.Duration {
	secs := a.Table.SecondsPerActionBase
	pot := a.PotTotal()
	bb := a.Table.BB
	if bb > 0 {
		for _, t := range potThresholdsBB {
			if pot >= t*bb {
				secs += a.Table.SecondsPerActionIncrement
			}
		}
	}
	if p != nil {
		secs += newbieSeconds(p.HandsPlayed)
	}
	return time.Duration(secs) * time.Second
}

// Deadline is when p runs out of clock and timebank. It depends only on
// persisted timestamps so every worker computes the same answer.
func (a *Accessor) Deadline(p *Player) time.Time {
	return a.Table.LastActionTimestamp.Add(a.SecondsToAct(p) + p.TimebankRemaining)
}

func (a *Accessor) IsOutOfTime(p *Player, now time.Time) bool {
	if p == nil || !a.IsTurn(p) {
		return false
	}
	return now.After(a.Deadline(p))
}

// timebankUsed is how far past the base clock p acted.
func (a *Accessor) timebankUsed(p *Player, now time.Time) time.Duration {
	over := now.Sub(a.Table.LastActionTimestamp) - a.SecondsToAct(p)
	if over < 0 {
		return 0
	}
	return over
}
