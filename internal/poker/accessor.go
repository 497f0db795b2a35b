package poker

import (
	"sort"
	"time"
)

// Accessor answers read-only questions about one table snapshot. It never
// mutates state and is safe to call repeatedly between dispatch cycles.
type Accessor struct {
	Table      *Table
	Players    []*Player
	Tournament *Tournament
	Variant    VariantRules
	Format     FormatRules
}

func NewAccessor(s Snapshot) *Accessor {
	return &Accessor{
		Table:      s.Table,
		Players:    s.Players,
		Tournament: s.Tournament,
		Variant:    VariantFor(s.Table.Variant),
		Format:     FormatFor(s.Table.Format),
	}
}

func (a *Accessor) Snapshot() Snapshot {
	return Snapshot{Table: a.Table, Players: a.Players, Tournament: a.Tournament}
}

func (a *Accessor) Player(id string) *Player {
	for _, p := range a.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (a *Accessor) PlayerByUser(userID string) *Player {
	for _, p := range a.Players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

func (a *Accessor) PlayerAt(pos int) *Player {
	for _, p := range a.Players {
		if p.Seated && p.Seat() == pos {
			return p
		}
	}
	return nil
}

// Seated returns seated players ordered by seat.
func (a *Accessor) Seated() []*Player {
	out := make([]*Player, 0, len(a.Players))
	for _, p := range a.Players {
		if p.Seated && p.Position != nil {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seat() < out[j].Seat() })
	return out
}

// Active returns players holding cards, in seat order.
func (a *Accessor) Active() []*Player {
	var out []*Player
	for _, p := range a.Seated() {
		if p.InHand() {
			out = append(out, p)
		}
	}
	return out
}

func (a *Accessor) ShowdownEligible() []*Player { return a.Active() }

func (a *Accessor) canActCount() int {
	n := 0
	for _, p := range a.Active() {
		if p.CanAct() {
			n++
		}
	}
	return n
}

func (a *Accessor) IsPredeal() bool {
	for _, p := range a.Players {
		if p.InHand() {
			return false
		}
	}
	return true
}

func (a *Accessor) Street() Street {
	if a.IsPredeal() {
		return StreetPredeal
	}
	switch len(a.Table.Board) {
	case 0:
		return StreetPreflop
	case 3:
		return StreetFlop
	case 4:
		return StreetTurn
	default:
		return StreetRiver
	}
}

func (a *Accessor) FreeSeats() []int {
	taken := map[int]bool{}
	for _, p := range a.Seated() {
		taken[p.Seat()] = true
	}
	var out []int
	for i := 0; i < a.Table.NumSeats; i++ {
		if !taken[i] {
			out = append(out, i)
		}
	}
	return out
}

// PotTotal counts every chip committed this hand, swept or not.
func (a *Accessor) PotTotal() int64 {
	var total int64
	for _, p := range a.Players {
		total += p.Wagers + p.UncollectedBets + p.DeadMoney
	}
	return total
}

func (a *Accessor) maxUncollected() int64 {
	var m int64
	for _, p := range a.Active() {
		if p.UncollectedBets > m {
			m = p.UncollectedBets
		}
	}
	return m
}

// CallAmount returns the uncollected total needed to be called up. With
// diff set it returns the additional chips p must add, capped by stack.
func (a *Accessor) CallAmount(p *Player, diff bool) int64 {
	target := a.maxUncollected()
	if !diff || p == nil {
		return target
	}
	need := target - p.UncollectedBets
	if need < 0 {
		need = 0
	}
	if need > p.Stack {
		need = p.Stack
	}
	return need
}

func (a *Accessor) MinBetAmount() int64 { return a.Table.BB }

// raiseIncrement is the gap between the two largest distinct street wagers
// among active players, or the only wager when there is just one size.
func (a *Accessor) raiseIncrement() int64 {
	seen := map[int64]bool{}
	var sizes []int64
	for _, p := range a.Active() {
		if p.UncollectedBets > 0 && !seen[p.UncollectedBets] {
			seen[p.UncollectedBets] = true
			sizes = append(sizes, p.UncollectedBets)
		}
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i] > sizes[j] })
	var inc int64
	switch len(sizes) {
	case 0:
		inc = 0
	case 1:
		inc = sizes[0]
	default:
		inc = sizes[0] - sizes[1]
	}
	if inc < a.Table.BB {
		inc = a.Table.BB
	}
	return inc
}

func (a *Accessor) MinRaiseTo() int64 {
	return a.maxUncollected() + a.raiseIncrement()
}

// MaxBetTo is the largest uncollected total p may reach this street.
func (a *Accessor) MaxBetTo(p *Player) int64 {
	return a.Variant.MaxBetTo(a, p)
}

// FirstToActPos is where the rotation starts on a fresh street.
func (a *Accessor) FirstToActPos() *int {
	if a.Street() == StreetPreflop {
		if a.Table.BBIdx != nil {
			return intPtr(*a.Table.BBIdx + 1)
		}
	}
	if a.Table.BtnIdx != nil {
		return intPtr(*a.Table.BtnIdx + 1)
	}
	return intPtr(0)
}

func (a *Accessor) needsToAct(p *Player, maxU int64) bool {
	if !p.CanAct() {
		return false
	}
	return p.LastAction == "" || p.UncollectedBets < maxU
}

// NextToAct returns nil when the betting round is closed or fewer than two
// players can still act against each other.
func (a *Accessor) NextToAct() *Player {
	if a.IsPredeal() {
		return nil
	}
	active := a.Active()
	if len(active) < 2 {
		return nil
	}
	maxU := a.maxUncollected()
	if a.canActCount() == 0 {
		return nil
	}
	if a.canActCount() == 1 {
		for _, p := range active {
			if p.CanAct() && p.UncollectedBets >= maxU {
				return nil
			}
		}
	}
	start := a.FirstToActPos()
	if a.Table.LastActorPos != nil {
		start = intPtr(*a.Table.LastActorPos + 1)
	}
	n := a.Table.NumSeats
	if n <= 0 {
		return nil
	}
	for i := 0; i < n; i++ {
		seat := ((*start+i)%n + n) % n
		p := a.PlayerAt(seat)
		if p != nil && a.needsToAct(p, maxU) {
			return p
		}
	}
	return nil
}

func (a *Accessor) IsTurn(p *Player) bool {
	next := a.NextToAct()
	return next != nil && p != nil && next.ID == p.ID
}

// opponentsCanAct reports whether anyone but p still has chips behind.
func (a *Accessor) opponentsCanAct(p *Player) bool {
	for _, o := range a.Active() {
		if o.ID != p.ID && o.Stack > 0 {
			return true
		}
	}
	return false
}

func (a *Accessor) tournamentStarted() bool {
	return a.Tournament != nil && a.Tournament.Status == TournamentStarted
}

// EligibleForHand lists seated players that will be dealt into the next
// hand if it started now, before blind rotation decides who posts.
func (a *Accessor) EligibleForHand() []*Player {
	var out []*Player
	for _, p := range a.Seated() {
		if p.Stack+p.PendingRebuy <= 0 {
			continue
		}
		switch p.State() {
		case SittingIn, SitInPending, TourneySittingOut:
			out = append(out, p)
		}
	}
	return out
}

// blindsCandidates are players that may be placed in the big blind.
func (a *Accessor) blindsCandidates() []*Player {
	out := a.EligibleForHand()
	for _, p := range a.Seated() {
		if p.State() == SitInAtBlindsPending && p.Stack+p.PendingRebuy > 0 {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seat() < out[j].Seat() })
	return out
}

func (a *Accessor) inFuture(now time.Time, d time.Duration) bool {
	return now.Before(a.Table.LastActionTimestamp.Add(d))
}

// OpenSidebets returns open sidebets on the given target player.
func (a *Accessor) OpenSidebets(targetID string) []Sidebet {
	var out []Sidebet
	for _, sb := range a.Table.Sidebets {
		if sb.Status == SidebetOpen && (targetID == "" || sb.PlayerID == targetID) {
			out = append(out, sb)
		}
	}
	return out
}
