// Package subscribers holds the side-effect observers that run alongside the
// poker controller: chat log, animations, ledger transfers, table stats and
// notifications.
package subscribers

import (
	"time"

	"pokerbeat/internal/poker"
)

type Options struct {
	NewID     func() string
	Now       func() time.Time
	PrevStats *poker.TableStats
	BigPotBB  int64
}

// Default builds the standard subscriber set for one table.
func Default(acc *poker.Accessor, opts Options) []poker.Subscriber {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	chat := NewChatLog(opts.NewID, opts.Now)
	return []poker.Subscriber{
		chat,
		NewAnimations(acc),
		NewTransfers(opts.NewID, opts.Now),
		NewTableStats(opts.PrevStats, opts.Now),
		NewNotifications(chat, opts.BigPotBB, opts.NewID, opts.Now),
	}
}
