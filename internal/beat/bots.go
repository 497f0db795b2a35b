package beat

import (
	"context"
	"errors"
	"time"

	"pokerbeat/internal/bot"
	"pokerbeat/internal/poker"

	"github.com/rs/zerolog/log"
)

// BotWorker drains the shared bot queue off the tables' hot path. It only
// reads committed snapshots; decisions reach a table through its queue.
type BotWorker struct {
	cfg     Config
	deps    Deps
	decider bot.Decider
	sup     *Supervisor
}

func NewBotWorker(cfg Config, deps Deps, decider bot.Decider, sup *Supervisor) *BotWorker {
	return &BotWorker{cfg: cfg, deps: deps, decider: decider, sup: sup}
}

func (b *BotWorker) poll() time.Duration {
	if b.cfg.BotPoll <= 0 {
		return 250 * time.Millisecond
	}
	return b.cfg.BotPoll
}

func (b *BotWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.poll())
	defer ticker.Stop()
	for {
		for {
			handled, err := b.Step(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				log.Error().Err(err).Msg("bot step failed")
				break
			}
			if !handled {
				break
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Step handles at most one ready entry and reports whether there was one.
func (b *BotWorker) Step(ctx context.Context) (bool, error) {
	e, err := b.deps.Bots.PeekReady(ctx)
	if err != nil || e == nil {
		return false, err
	}
	snap, err := b.deps.Store.LoadSnapshot(ctx, e.TableID)
	if errors.Is(err, poker.ErrTableNotFound) {
		return true, b.deps.Bots.Ack(ctx, e.ID)
	}
	if err != nil {
		return false, err
	}

	acc := poker.NewAccessor(snap)
	p := acc.Player(e.PlayerID)
	if snap.Table.Status != poker.TableOpen || p == nil || !p.IsRobot || !acc.IsTurn(p) {
		log.Debug().Str("table_id", e.TableID).Str("player_id", e.PlayerID).Msg("bot entry stale, dropping")
		return true, b.deps.Bots.Ack(ctx, e.ID)
	}

	now := b.deps.now()
	a, ok := b.decider.Decide(acc, p, acc.AvailableActions(p), now)
	if !ok {
		return true, b.deps.Bots.Requeue(ctx, e.ID, now.Add(b.poll()))
	}
	if _, err := b.sup.Enqueue(ctx, e.TableID, a); err != nil {
		return false, err
	}
	metricBotMoves.Add(1)
	log.Debug().Str("table_id", e.TableID).Str("player_id", p.ID).Str("action", a.String()).Msg("bot moved")
	return true, b.deps.Bots.Ack(ctx, e.ID)
}
