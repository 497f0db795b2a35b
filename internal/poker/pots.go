package poker

import "sort"

// Pot is one tier of the sidepot summary. Eligible holds player ids in seat
// order.
type Pot struct {
	Amount   int64    `json:"amount"`
	Eligible []string `json:"eligible"`
}

func (a *Accessor) contribution(p *Player, excludeUncollected bool) int64 {
	if excludeUncollected {
		return p.Wagers
	}
	return p.Wagers + p.UncollectedBets
}

// SidepotSummary partitions the chips in the middle by all-in tiers: main
// pot first, then side pots in ascending contribution order. Dead money
// joins the main pot and chips above the top tier join the last pot.
func (a *Accessor) SidepotSummary(excludeUncollected bool) []Pot {
	active := a.ShowdownEligible()
	var dead, total int64
	for _, p := range a.Players {
		dead += p.DeadMoney
		total += a.contribution(p, excludeUncollected)
	}
	if total+dead == 0 {
		return nil
	}

	seen := map[int64]bool{}
	var levels []int64
	for _, p := range active {
		c := a.contribution(p, excludeUncollected)
		if c > 0 && !seen[c] {
			seen[c] = true
			levels = append(levels, c)
		}
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	if len(levels) == 0 {
		ids := make([]string, 0, len(active))
		for _, p := range active {
			ids = append(ids, p.ID)
		}
		return []Pot{{Amount: total + dead, Eligible: ids}}
	}

	pots := make([]Pot, 0, len(levels))
	var prev, assigned int64
	for _, level := range levels {
		var amount int64
		for _, p := range a.Players {
			amount += clamp(a.contribution(p, excludeUncollected), prev, level) - prev
		}
		var ids []string
		for _, p := range active {
			if a.contribution(p, excludeUncollected) >= level {
				ids = append(ids, p.ID)
			}
		}
		pots = append(pots, Pot{Amount: amount, Eligible: ids})
		assigned += amount
		prev = level
	}
	pots[0].Amount += dead
	pots[len(pots)-1].Amount += total - assigned
	return pots
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// splitPot divides amount between winners. Odd chips go one each to the
// winners closest to the left of the button.
func splitPot(amount int64, winners []*Player, btn *int, numSeats int) map[string]int64 {
	out := make(map[string]int64, len(winners))
	if len(winners) == 0 {
		return out
	}
	share := amount / int64(len(winners))
	rem := amount % int64(len(winners))
	for _, w := range winners {
		out[w.ID] = share
	}
	ordered := orderFromButton(winners, btn, numSeats)
	for i := int64(0); i < rem; i++ {
		out[ordered[i].ID]++
	}
	return out
}

// orderFromButton sorts players by seat starting left of the button.
func orderFromButton(ps []*Player, btn *int, numSeats int) []*Player {
	out := append([]*Player(nil), ps...)
	b := -1
	if btn != nil {
		b = *btn
	}
	if numSeats <= 0 {
		numSeats = 1
	}
	dist := func(p *Player) int {
		return ((p.Seat()-b-1)%numSeats + numSeats) % numSeats
	}
	sort.SliceStable(out, func(i, j int) bool { return dist(out[i]) < dist(out[j]) })
	return out
}
