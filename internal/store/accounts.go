package store

import (
	"context"
	"time"

	"pokerbeat/internal/ledger"

	"github.com/jackc/pgx/v5"
)

// txBook runs ledger postings inside the commit transaction.
type txBook struct {
	tx pgx.Tx
}

func (b txBook) LockBalance(ctx context.Context, account string) (int64, error) {
	if _, err := b.tx.Exec(ctx, `INSERT INTO accounts (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, account); err != nil {
		return 0, err
	}
	var bal int64
	err := b.tx.QueryRow(ctx, `SELECT balance FROM accounts WHERE name = $1 FOR UPDATE`, account).Scan(&bal)
	return bal, err
}

func (b txBook) SetBalance(ctx context.Context, account string, balance int64) error {
	_, err := b.tx.Exec(ctx, `UPDATE accounts SET balance = $1, updated_at = now() WHERE name = $2`, balance, account)
	return err
}

func (b txBook) RecordEntry(ctx context.Context, e ledger.Entry) error {
	_, err := b.tx.Exec(ctx, `
INSERT INTO ledger_entries (id, account, amount, balance, transfer_id, notes, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		e.ID, e.Account, e.Amount, e.Balance, e.TransferID, e.Notes, timestamptzParam(e.CreatedAt))
	return err
}

// AccountBalance returns the committed balance; unknown accounts are empty.
func (s *Store) AccountBalance(ctx context.Context, account string) (int64, error) {
	var bal int64
	err := s.Pool.QueryRow(ctx, `SELECT balance FROM accounts WHERE name = $1`, account).Scan(&bal)
	if mapNotFound(err) == ErrNotFound {
		return 0, nil
	}
	return bal, err
}

// Fund credits an account outside any table, e.g. a deposit or a grant.
func (s *Store) Fund(ctx context.Context, account string, amount int64, notes string) (int64, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)
	bal, err := ledger.New(NewID, s.now).Credit(ctx, txBook{tx: tx}, account, amount, NewID(), notes)
	if err != nil {
		return 0, err
	}
	return bal, tx.Commit(ctx)
}

func (s *Store) ListEntries(ctx context.Context, account string, limit int) ([]ledger.Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx, `
SELECT id, account, amount, balance, transfer_id, notes, created_at
FROM ledger_entries WHERE account = $1
ORDER BY created_at DESC, id DESC LIMIT $2`, account, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ledger.Entry{}
	for rows.Next() {
		var (
			e  ledger.Entry
			at time.Time
		)
		if err := rows.Scan(&e.ID, &e.Account, &e.Amount, &e.Balance, &e.TransferID, &e.Notes, &at); err != nil {
			return nil, err
		}
		e.CreatedAt = at
		out = append(out, e)
	}
	return out, rows.Err()
}
