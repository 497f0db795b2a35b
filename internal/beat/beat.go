// Package beat runs the single-writer heartbeat for each table. A worker
// owns every mutation of its table: it peeks the table's action queue,
// dispatches into a fresh controller, commits, broadcasts and only then
// acks the entry.
package beat

import (
	"context"
	"expvar"
	"time"

	"pokerbeat/internal/bot"
	"pokerbeat/internal/poker"
	"pokerbeat/internal/queue"
)

var (
	metricEntriesProcessed = expvar.NewInt("beat_entries_processed_total")
	metricEntriesRejected  = expvar.NewInt("beat_entries_rejected_total")
	metricEntriesReplayed  = expvar.NewInt("beat_entries_replayed_total")
	metricTimeoutFolds     = expvar.NewInt("beat_timeout_folds_total")
	metricStaleReloads     = expvar.NewInt("beat_stale_reloads_total")
	metricTablesSuspended  = expvar.NewInt("beat_tables_suspended_total")
	metricWorkersActive    = expvar.NewInt("beat_workers_active")
	metricBotMoves         = expvar.NewInt("beat_bot_moves_total")
	metricEntriesDropped   = expvar.NewInt("beat_entries_dropped_total")
)

// Store is the persistence a worker needs.
type Store interface {
	poker.Committer
	LoadSnapshot(ctx context.Context, tableID string) (poker.Snapshot, error)
	IsProcessed(ctx context.Context, tableID, entryID string) (bool, error)
	SuspendTable(ctx context.Context, tableID, reason string) error
	LoadStats(ctx context.Context, tableID string) (*poker.TableStats, error)
	AccountBalance(ctx context.Context, account string) (int64, error)
}

// Broadcaster receives committed state after every cycle. render is only
// valid for the duration of the call.
type Broadcaster interface {
	Broadcast(tableID, event string, render func(playerID string) any)
	Viewers(tableID string) int
}

type Config struct {
	Poker poker.Config
	Bot   bot.Policy

	// PollTimeout bounds how long Peek blocks before the worker sweeps.
	PollTimeout   time.Duration
	SweepInterval time.Duration
	// IdleCooldown is how long a table may go without viewers or seated
	// humans before its worker exits.
	IdleCooldown time.Duration
	// ErrorBackoff is the pause after a storage error before retrying.
	ErrorBackoff time.Duration
	// BotPoll is how often the bot worker checks for ready entries.
	BotPoll time.Duration
	// MaxAttempts caps deliveries of an entry that keeps failing to commit.
	MaxAttempts int
}

func (c Config) maxAttempts() int {
	if c.MaxAttempts <= 0 {
		return 5
	}
	return c.MaxAttempts
}

func DefaultConfig() Config {
	return Config{
		Poker:         poker.DefaultConfig(),
		Bot:           bot.DefaultPolicy(),
		PollTimeout:   time.Second,
		SweepInterval: time.Second,
		IdleCooldown:  5 * time.Minute,
		ErrorBackoff:  500 * time.Millisecond,
		BotPoll:       250 * time.Millisecond,
		MaxAttempts:   5,
	}
}

type Deps struct {
	Store     Store
	Queue     queue.Queue
	Bots      queue.BotQueue
	Broadcast Broadcaster
	Now       func() time.Time
	NewID     func() string
}

func (d Deps) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

// botEntryID keeps one pending decision per bot per table.
func botEntryID(tableID, playerID string) string {
	return tableID + "/" + playerID
}
