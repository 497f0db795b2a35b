// Package queue carries player actions to the per-table heartbeat with
// at-least-once delivery. Consumers peek the head, process it and ack; an
// entry that was peeked but never acked is delivered again.
package queue

import (
	"context"
	"errors"
	"time"

	"pokerbeat/internal/poker"
)

var ErrNotFound = errors.New("queue_entry_not_found")

type Entry struct {
	ID         string       `json:"id"`
	TableID    string       `json:"table_id"`
	Action     poker.Action `json:"action"`
	EnqueuedAt time.Time    `json:"enqueued_at"`
	// Attempts counts deliveries; above one means a redelivery.
	Attempts int `json:"attempts"`
}

// Queue is one FIFO per table.
type Queue interface {
	Push(ctx context.Context, tableID string, a poker.Action) (Entry, error)
	// Peek returns the head without removing it, waiting up to wait for one
	// to arrive. A nil entry with a nil error means the wait elapsed.
	Peek(ctx context.Context, tableID string, wait time.Duration) (*Entry, error)
	Ack(ctx context.Context, tableID, entryID string) error
}

// BotEntry schedules one bot decision. ReadyAt is when the bot may act.
type BotEntry struct {
	ID       string    `json:"id"`
	TableID  string    `json:"table_id"`
	PlayerID string    `json:"player_id"`
	ReadyAt  time.Time `json:"ready_at"`
}

// BotQueue is shared by every table.
type BotQueue interface {
	Push(ctx context.Context, e BotEntry) error
	// PeekReady returns the earliest entry whose ReadyAt has passed, or nil.
	PeekReady(ctx context.Context) (*BotEntry, error)
	Requeue(ctx context.Context, id string, readyAt time.Time) error
	Ack(ctx context.Context, id string) error
}
