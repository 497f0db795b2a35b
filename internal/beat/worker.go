package beat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pokerbeat/internal/ledger"
	"pokerbeat/internal/poker"
	"pokerbeat/internal/queue"
	"pokerbeat/internal/subscribers"

	"github.com/rs/zerolog/log"
)

// Update is what viewers receive after each committed cycle.
type Update struct {
	State   poker.GameState `json:"state"`
	Updates map[string]any  `json:"updates,omitempty"`
}

type Worker struct {
	tableID string
	cfg     Config
	deps    Deps
	// retire is asked before an idle exit; false keeps the worker alive.
	retire func() bool
	// woken is set by the supervisor when an action arrives; guarded by
	// the supervisor's mutex.
	woken bool

	snap      poker.Snapshot
	stats     *poker.TableStats
	lastSweep time.Time
	lastBusy  time.Time
}

func NewWorker(tableID string, cfg Config, deps Deps) *Worker {
	return &Worker{tableID: tableID, cfg: cfg, deps: deps}
}

// Snapshot is the last committed state the worker holds.
func (w *Worker) Snapshot() poker.Snapshot { return w.snap }

// Run loops until ctx ends, the table goes idle, or an invariant violation
// suspends the table. Only the last case returns an error.
func (w *Worker) Run(ctx context.Context) error {
	metricWorkersActive.Add(1)
	defer metricWorkersActive.Add(-1)

	if err := w.Load(ctx); err != nil {
		return err
	}
	log.Info().Str("table_id", w.tableID).Int64("hand_number", w.snap.Table.HandNumber).Msg("table worker started")
	w.lastBusy = w.deps.now()
	for {
		if ctx.Err() != nil {
			return nil
		}
		e, err := w.deps.Queue.Peek(ctx, w.tableID, w.cfg.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Error().Err(err).Str("table_id", w.tableID).Msg("queue peek failed")
			w.pause(ctx)
			continue
		}
		if e != nil {
			if err := w.Process(ctx, e); err != nil {
				return err
			}
			w.lastBusy = w.deps.now()
		}
		now := w.deps.now()
		if now.Sub(w.lastSweep) >= w.cfg.SweepInterval {
			if err := w.Sweep(ctx); err != nil {
				return err
			}
		}
		if w.idle(now) && (w.retire == nil || w.retire()) {
			log.Info().Str("table_id", w.tableID).Msg("table worker idle, exiting")
			return nil
		}
	}
}

// Load replaces the in-memory state with the committed snapshot.
func (w *Worker) Load(ctx context.Context) error {
	snap, err := w.deps.Store.LoadSnapshot(ctx, w.tableID)
	if err != nil {
		return fmt.Errorf("load table %s: %w", w.tableID, err)
	}
	stats, err := w.deps.Store.LoadStats(ctx, w.tableID)
	if err != nil {
		return fmt.Errorf("load stats for %s: %w", w.tableID, err)
	}
	w.snap, w.stats = snap, stats
	w.scheduleBots(ctx, poker.NewAccessor(snap))
	return nil
}

// Process handles one queue entry and acks it unless it must be retried.
func (w *Worker) Process(ctx context.Context, e *queue.Entry) error {
	done, err := w.deps.Store.IsProcessed(ctx, w.tableID, e.ID)
	if err != nil {
		log.Error().Err(err).Str("table_id", w.tableID).Str("entry_id", e.ID).Msg("processed check failed")
		w.pause(ctx)
		return nil
	}
	if done {
		metricEntriesReplayed.Add(1)
		log.Info().Str("table_id", w.tableID).Str("entry_id", e.ID).Msg("entry already committed, acking")
		w.ack(ctx, e)
		return nil
	}

	err = w.cycle(ctx, e.ID, e.Action)
	retry, fatal := w.settle(ctx, e.Action, err)
	if fatal != nil {
		return fatal
	}
	if err == nil {
		metricEntriesProcessed.Add(1)
	}
	if retry && e.Attempts >= w.cfg.maxAttempts() {
		metricEntriesDropped.Add(1)
		log.Error().
			Err(err).
			Str("table_id", w.tableID).
			Str("entry_id", e.ID).
			Int("attempts", e.Attempts).
			Str("action", e.Action.String()).
			Msg("entry keeps failing, dropping")
		retry = false
	}
	if !retry {
		w.ack(ctx, e)
	}
	return nil
}

// Sweep folds a player who ran out of time, otherwise sends a NOOP so the
// controller can start the next hand once the start delay has passed.
func (w *Worker) Sweep(ctx context.Context) error {
	now := w.deps.now()
	w.lastSweep = now
	if w.snap.Table == nil || w.snap.Table.Status != poker.TableOpen {
		return nil
	}
	a := SweepAction(poker.NewAccessor(w.snap), now)
	if a.Type == poker.ActionFold {
		metricTimeoutFolds.Add(1)
		log.Info().
			Str("table_id", w.tableID).
			Str("player_id", a.PlayerID).
			Int64("hand_number", w.snap.Table.HandNumber).
			Msg("player out of time, folding")
	}
	_, fatal := w.settle(ctx, a, w.cycle(ctx, "", a))
	return fatal
}

// SweepAction is the action the periodic sweep dispatches at now. The
// result depends only on the table state and now.
func SweepAction(acc *poker.Accessor, now time.Time) poker.Action {
	if p := acc.NextToAct(); p != nil && acc.IsOutOfTime(p, now) {
		hand := acc.Table.HandNumber
		return poker.Action{Type: poker.ActionFold, PlayerID: p.ID, SitOut: true, HandNumber: &hand, Street: acc.Street()}
	}
	return poker.Action{Type: poker.ActionNoop}
}

func (w *Worker) cycle(ctx context.Context, entryID string, a poker.Action) error {
	snap := w.snap.Clone()
	subs := subscribers.Default(poker.NewAccessor(snap), subscribers.Options{
		NewID:     w.deps.NewID,
		Now:       w.deps.Now,
		PrevStats: w.stats,
		BigPotBB:  w.cfg.Poker.BigPotNotificationBB,
	})
	ctrl := poker.NewController(snap, w.cfg.Poker, poker.Deps{
		Now:         w.deps.Now,
		NewID:       w.deps.NewID,
		Balances:    ledger.UserBalances{Reader: w.deps.Store},
		Subscribers: subs,
	})
	if err := ctrl.Dispatch(ctx, a); err != nil {
		return err
	}
	b, err := ctrl.Commit(ctx, w.deps.Store, entryID)
	if err != nil {
		return err
	}
	if b == nil {
		return nil
	}
	w.snap = ctrl.Snapshot()
	if b.Stats != nil {
		w.stats = b.Stats
	}
	w.publish(ctrl)
	w.scheduleBots(ctx, ctrl.Accessor())
	return nil
}

// settle classifies a cycle error. retry means the entry must stay queued;
// fatal stops the worker.
func (w *Worker) settle(ctx context.Context, a poker.Action, err error) (retry bool, fatal error) {
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, poker.ErrRejectedAction):
		metricEntriesRejected.Add(1)
		log.Debug().Err(err).Str("table_id", w.tableID).Str("action", a.String()).Msg("action rejected")
		return false, nil
	case poker.IsValidationError(err):
		metricEntriesRejected.Add(1)
		log.Info().Err(err).Str("table_id", w.tableID).Str("action", a.String()).Msg("invalid action")
		return false, nil
	case errors.Is(err, ledger.ErrInsufficientBalance):
		// the balance moved between validation and the ledger write
		metricEntriesRejected.Add(1)
		log.Info().Err(err).Str("table_id", w.tableID).Str("action", a.String()).Msg("transfer refused by ledger")
		return false, nil
	case errors.Is(err, poker.ErrConcurrentModification):
		metricStaleReloads.Add(1)
		log.Error().Err(err).Str("table_id", w.tableID).Msg("table modified outside its worker, reloading")
		if lerr := w.Load(ctx); lerr != nil {
			return true, lerr
		}
		return true, nil
	case errors.Is(err, poker.ErrInvariantViolation):
		metricTablesSuspended.Add(1)
		log.Error().Err(err).Str("table_id", w.tableID).Str("action", a.String()).Msg("invariant violated, suspending table")
		if serr := w.deps.Store.SuspendTable(ctx, w.tableID, err.Error()); serr != nil {
			log.Error().Err(serr).Str("table_id", w.tableID).Msg("suspend table failed")
		}
		return true, err
	default:
		log.Error().Err(err).Str("table_id", w.tableID).Str("action", a.String()).Msg("dispatch cycle failed")
		w.pause(ctx)
		return true, nil
	}
}

func (w *Worker) ack(ctx context.Context, e *queue.Entry) {
	if err := w.deps.Queue.Ack(ctx, w.tableID, e.ID); err != nil {
		log.Warn().Err(err).Str("table_id", w.tableID).Str("entry_id", e.ID).Msg("ack failed")
	}
}

func (w *Worker) publish(ctrl *poker.Controller) {
	if w.deps.Broadcast == nil {
		return
	}
	acc := ctrl.Accessor()
	w.deps.Broadcast.Broadcast(w.tableID, "gamestate", func(playerID string) any {
		return Update{State: poker.GameStateFor(acc, playerID), Updates: ctrl.Updates(playerID)}
	})
}

func (w *Worker) scheduleBots(ctx context.Context, acc *poker.Accessor) {
	if w.deps.Bots == nil || acc.Table.Status != poker.TableOpen {
		return
	}
	p := acc.NextToAct()
	if p == nil || !p.IsRobot {
		return
	}
	e := queue.BotEntry{
		ID:       botEntryID(w.tableID, p.ID),
		TableID:  w.tableID,
		PlayerID: p.ID,
		ReadyAt:  w.deps.now().Add(w.cfg.Bot.ThinkDelay(p.Username, acc.Table.HandNumber)),
	}
	if err := w.deps.Bots.Push(ctx, e); err != nil {
		log.Error().Err(err).Str("table_id", w.tableID).Str("player_id", p.ID).Msg("schedule bot failed")
	}
}

// idle reports whether the table has had no viewers and no seated humans
// (no viewers at all for tutorials) for the cooldown window.
func (w *Worker) idle(now time.Time) bool {
	t := w.snap.Table
	if t == nil || t.Status != poker.TableOpen {
		return true
	}
	viewers := 0
	if w.deps.Broadcast != nil {
		viewers = w.deps.Broadcast.Viewers(w.tableID)
	}
	humans := 0
	for _, p := range w.snap.Players {
		if p.Seated && !p.IsRobot {
			humans++
		}
	}
	if viewers > 0 || (!t.IsTutorial && humans > 0) {
		w.lastBusy = now
		return false
	}
	return now.Sub(w.lastBusy) >= w.cfg.IdleCooldown
}

func (w *Worker) pause(ctx context.Context) {
	if w.cfg.ErrorBackoff <= 0 {
		return
	}
	t := time.NewTimer(w.cfg.ErrorBackoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
