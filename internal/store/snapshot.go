package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pokerbeat/internal/cards"
	"pokerbeat/internal/poker"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// dbtx is satisfied by both the pool and a transaction.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// LoadSnapshot reads a table with its players and tournament. Cards and the
// deck live in their own columns because they never leave the server in JSON.
func (s *Store) LoadSnapshot(ctx context.Context, tableID string) (poker.Snapshot, error) {
	return loadSnapshot(ctx, s.Pool, tableID)
}

func loadSnapshot(ctx context.Context, db dbtx, tableID string) (poker.Snapshot, error) {
	const q = `SELECT state, deck, modified_at FROM poker_tables WHERE id = $1`
	var (
		state    []byte
		deck     string
		modified time.Time
	)
	if err := db.QueryRow(ctx, q, tableID).Scan(&state, &deck, &modified); err != nil {
		if mapNotFound(err) == ErrNotFound {
			return poker.Snapshot{}, poker.ErrTableNotFound
		}
		return poker.Snapshot{}, err
	}
	var t poker.Table
	if err := json.Unmarshal(state, &t); err != nil {
		return poker.Snapshot{}, fmt.Errorf("decode table %s: %w", tableID, err)
	}
	// the column is the concurrency token; the JSON copy may carry more precision
	t.ModifiedAt = modified
	if deck != "" {
		d, err := cards.ParseDeck(deck)
		if err != nil {
			return poker.Snapshot{}, fmt.Errorf("decode deck for %s: %w", tableID, err)
		}
		t.Deck = d
	}
	snap := poker.Snapshot{Table: &t}

	rows, err := db.Query(ctx, `SELECT state, cards FROM players WHERE table_id = $1 ORDER BY id`, tableID)
	if err != nil {
		return poker.Snapshot{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			raw  []byte
			hole string
		)
		if err := rows.Scan(&raw, &hole); err != nil {
			return poker.Snapshot{}, err
		}
		var p poker.Player
		if err := json.Unmarshal(raw, &p); err != nil {
			return poker.Snapshot{}, fmt.Errorf("decode player: %w", err)
		}
		if hole != "" {
			if p.Cards, err = cards.ParseList(hole); err != nil {
				return poker.Snapshot{}, fmt.Errorf("decode cards for %s: %w", p.ID, err)
			}
		}
		snap.Players = append(snap.Players, &p)
	}
	if err := rows.Err(); err != nil {
		return poker.Snapshot{}, err
	}

	if t.TournamentID != "" {
		var raw []byte
		err := db.QueryRow(ctx, `SELECT state FROM tournaments WHERE id = $1`, t.TournamentID).Scan(&raw)
		if err != nil {
			return poker.Snapshot{}, fmt.Errorf("load tournament %s: %w", t.TournamentID, mapNotFound(err))
		}
		var tr poker.Tournament
		if err := json.Unmarshal(raw, &tr); err != nil {
			return poker.Snapshot{}, fmt.Errorf("decode tournament: %w", err)
		}
		snap.Tournament = &tr
	}
	return snap, nil
}

func writeSnapshot(ctx context.Context, db dbtx, snap poker.Snapshot) error {
	t := snap.Table
	state, err := json.Marshal(t)
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, `
INSERT INTO poker_tables (id, name, status, variant, format, hand_number, state, deck, modified_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
  name = EXCLUDED.name, status = EXCLUDED.status, hand_number = EXCLUDED.hand_number,
  state = EXCLUDED.state, deck = EXCLUDED.deck, modified_at = EXCLUDED.modified_at`,
		t.ID, t.Name, string(t.Status), string(t.Variant), string(t.Format), t.HandNumber, state, t.Deck.String(), t.ModifiedAt)
	if err != nil {
		return fmt.Errorf("write table %s: %w", t.ID, err)
	}

	batch := &pgx.Batch{}
	for _, p := range snap.Players {
		raw, err := json.Marshal(p)
		if err != nil {
			return err
		}
		batch.Queue(`
INSERT INTO players (id, table_id, user_id, seated, state, cards) VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET seated = EXCLUDED.seated, state = EXCLUDED.state, cards = EXCLUDED.cards`,
			p.ID, t.ID, p.UserID, p.Seated, raw, cards.Join(p.Cards))
	}
	if tr := snap.Tournament; tr != nil {
		raw, err := json.Marshal(tr)
		if err != nil {
			return err
		}
		batch.Queue(`
INSERT INTO tournaments (id, table_id, status, state) VALUES ($1,$2,$3,$4)
ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, state = EXCLUDED.state`,
			tr.ID, t.ID, string(tr.Status), raw)
	}
	if batch.Len() == 0 {
		return nil
	}
	return sendBatch(ctx, db, batch)
}

func sendBatch(ctx context.Context, db dbtx, b *pgx.Batch) error {
	sender, ok := db.(interface {
		SendBatch(context.Context, *pgx.Batch) pgx.BatchResults
	})
	if !ok {
		return fmt.Errorf("store: %T cannot send batches", db)
	}
	res := sender.SendBatch(ctx, b)
	for i := 0; i < b.Len(); i++ {
		if _, err := res.Exec(); err != nil {
			_ = res.Close()
			return err
		}
	}
	return res.Close()
}

// CreateTable inserts a new table. Used by seeding and admin tooling.
func (s *Store) CreateTable(ctx context.Context, snap poker.Snapshot) error {
	if snap.Table.ModifiedAt.IsZero() {
		snap.Table.ModifiedAt = s.now().UTC().Truncate(time.Microsecond)
	}
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if err := writeSnapshot(ctx, tx, snap); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// SuspendTable parks a table after an invariant violation. The snapshot is
// left as last committed.
func (s *Store) SuspendTable(ctx context.Context, tableID, reason string) error {
	tag, err := s.Pool.Exec(ctx, `
UPDATE poker_tables
SET status = $2,
    state = jsonb_set(state, '{status}', to_jsonb($2::text)),
    suspended_reason = $3,
    modified_at = now()
WHERE id = $1`, tableID, string(poker.TableSuspended), textParam(reason))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return poker.ErrTableNotFound
	}
	return nil
}

func (s *Store) ListTableIDs(ctx context.Context, status poker.TableStatus) ([]string, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id FROM poker_tables WHERE status = $1 ORDER BY id`, string(status))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
