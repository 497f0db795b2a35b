package poker

import (
	"sort"
	"time"
)

// Stage fixes the order in which subscribers observe events. Lower stages
// run first; the log must exist before anything that reads it.
type Stage int

const (
	StageLog Stage = iota
	StageState
	StageDerived
)

// Subscriber observes applied events and flushes side effects into the
// commit batch. Subscribers never mutate table or player state.
type Subscriber interface {
	Name() string
	Stage() Stage
	Dispatch(acc *Accessor, ev AppliedEvent)
	Commit(b *Batch)
	UpdatesForBroadcast(playerID string) any
	Reset()
}

func sortSubscribers(subs []Subscriber) []Subscriber {
	out := append([]Subscriber(nil), subs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Stage() < out[j].Stage() })
	return out
}

// Batch is everything one dispatch cycle persists atomically.
type Batch struct {
	TableID string
	// EntryID is the queue entry that produced the batch; the store records
	// it so a redelivered entry is recognised after a crash before ack.
	EntryID            string
	Snapshot           Snapshot
	ExpectedModifiedAt time.Time
	Events             []HistoryEvent
	ChatLines          []ChatLine
	Transfers          []TransferRequest
	Notifications      []Notification
	Stats              *TableStats
}

type ChatLine struct {
	ID         string    `json:"id"`
	TableID    string    `json:"table_id"`
	HandNumber int64     `json:"hand_number"`
	Speaker    string    `json:"speaker"`
	Message    string    `json:"message"`
	At         time.Time `json:"at"`
}

// TransferRequest is executed by the ledger inside the commit transaction.
type TransferRequest struct {
	ID     string    `json:"id"`
	Src    string    `json:"src"`
	Dst    string    `json:"dst"`
	Amount int64     `json:"amount"`
	Notes  string    `json:"notes"`
	At     time.Time `json:"at"`
}

type Notification struct {
	ID         string    `json:"id"`
	TableID    string    `json:"table_id"`
	UserID     string    `json:"user_id,omitempty"`
	Kind       string    `json:"kind"`
	Message    string    `json:"message"`
	ChatLineID string    `json:"chat_line_id,omitempty"`
	At         time.Time `json:"at"`
}

type TableStats struct {
	TableID        string    `json:"table_id"`
	HandsPlayed    int64     `json:"hands_played"`
	AvgPot         int64     `json:"avg_pot"`
	PlayersPerFlop float64   `json:"players_per_flop"`
	BiggestPot     int64     `json:"biggest_pot"`
	UpdatedAt      time.Time `json:"updated_at"`
}
