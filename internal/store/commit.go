package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pokerbeat/internal/ledger"
	"pokerbeat/internal/poker"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// CommitSnapshot writes one dispatch cycle in a single transaction: the
// snapshot, hand-history rows, chat, notifications, stats, ledger transfers
// and the processed marker for the queue entry.
func (s *Store) CommitSnapshot(ctx context.Context, b *poker.Batch) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var current time.Time
	err = tx.QueryRow(ctx, `SELECT modified_at FROM poker_tables WHERE id = $1 FOR UPDATE`, b.TableID).Scan(&current)
	if err != nil {
		if mapNotFound(err) == ErrNotFound {
			return poker.ErrTableNotFound
		}
		return err
	}
	if !current.Equal(b.ExpectedModifiedAt) {
		log.Error().
			Str("table_id", b.TableID).
			Time("expected", b.ExpectedModifiedAt).
			Time("current", current).
			Msg("stale snapshot write")
		return &poker.ConcurrentModificationError{Kind: poker.StaleWrite, TableID: b.TableID}
	}

	if err := writeSnapshot(ctx, tx, b.Snapshot); err != nil {
		return err
	}
	if err := copyEvents(ctx, tx, b.Events); err != nil {
		return fmt.Errorf("append events: %w", err)
	}

	extra := &pgx.Batch{}
	for _, l := range b.ChatLines {
		extra.Queue(`INSERT INTO chat_lines (id, table_id, hand_number, speaker, message, created_at) VALUES ($1,$2,$3,$4,$5,$6)`,
			l.ID, l.TableID, l.HandNumber, l.Speaker, l.Message, l.At)
	}
	for _, n := range b.Notifications {
		extra.Queue(`INSERT INTO notifications (id, table_id, user_id, kind, message, chat_line_id, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			n.ID, n.TableID, n.UserID, n.Kind, n.Message, textParam(n.ChatLineID), n.At)
	}
	if st := b.Stats; st != nil {
		extra.Queue(`
INSERT INTO table_stats (table_id, hands_played, avg_pot, players_per_flop, biggest_pot, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (table_id) DO UPDATE SET
  hands_played = EXCLUDED.hands_played, avg_pot = EXCLUDED.avg_pot,
  players_per_flop = EXCLUDED.players_per_flop, biggest_pot = EXCLUDED.biggest_pot,
  updated_at = EXCLUDED.updated_at`,
			b.TableID, st.HandsPlayed, st.AvgPot, st.PlayersPerFlop, st.BiggestPot, st.UpdatedAt)
	}
	if b.EntryID != "" {
		extra.Queue(`INSERT INTO processed_entries (table_id, entry_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`, b.TableID, b.EntryID)
	}
	if extra.Len() > 0 {
		if err := sendBatch(ctx, tx, extra); err != nil {
			return err
		}
	}

	if len(b.Transfers) > 0 {
		led := ledger.New(NewID, s.now)
		if err := led.Apply(ctx, txBook{tx: tx}, b.Transfers); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func copyEvents(ctx context.Context, tx pgx.Tx, events []poker.HistoryEvent) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(events))
	for _, ev := range events {
		args, err := json.Marshal(ev.Args)
		if err != nil {
			return err
		}
		rows = append(rows, []any{
			ev.TableID, ev.Seq, ev.HandNumber, string(ev.Subject.Kind), ev.Subject.ID, string(ev.Kind), args, ev.At,
		})
	}
	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"events"},
		[]string{"table_id", "seq", "hand_number", "subject_kind", "subject_id", "kind", "args", "created_at"},
		pgx.CopyFromRows(rows),
	)
	return err
}

// IsProcessed reports whether a queue entry already committed. The worker
// checks it before dispatching a redelivered entry.
func (s *Store) IsProcessed(ctx context.Context, tableID, entryID string) (bool, error) {
	var ok bool
	err := s.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM processed_entries WHERE table_id = $1 AND entry_id = $2)`,
		tableID, entryID).Scan(&ok)
	return ok, err
}
