package testutil

import (
	"strconv"
	"sync"
	"time"

	"pokerbeat/internal/poker"
)

// CashTable builds an open hold'em cash table with no players.
func CashTable(id string, numSeats int, sb, bb int64) poker.Snapshot {
	snap, err := poker.NewCashTable(poker.TableParams{ID: id, Name: "table " + id, NumSeats: numSeats, SB: sb, BB: bb})
	if err != nil {
		panic(err)
	}
	return snap
}

// Seat appends a seated, sitting-in player at the next seat.
func Seat(snap *poker.Snapshot, id, userID string, stack int64, robot bool) *poker.Player {
	pos := len(snap.Players)
	state := poker.SittingIn
	p := &poker.Player{
		ID:           id,
		TableID:      snap.Table.ID,
		UserID:       userID,
		Username:     "user-" + userID,
		IsRobot:      robot,
		Stack:        stack,
		Seated:       true,
		Position:     &pos,
		PlayingState: &state,
	}
	snap.Players = append(snap.Players, p)
	return p
}

// Clock is a settable time source safe for use across goroutines.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(t time.Time) *Clock { return &Clock{now: t} }

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// SeqIDs returns a deterministic id generator with the given prefix.
func SeqIDs(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return prefix + strconv.Itoa(n)
	}
}
