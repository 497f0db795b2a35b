package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"pokerbeat/internal/poker"
	"pokerbeat/internal/queue"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const queueChannel = "action_queue"

// PGQueue is the durable action queue. Push notifies on queueChannel so a
// waiting Peek wakes without polling.
type PGQueue struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewPGQueue(s *Store) *PGQueue {
	return &PGQueue{pool: s.Pool, now: s.now}
}

func (q *PGQueue) Push(ctx context.Context, tableID string, a poker.Action) (queue.Entry, error) {
	raw, err := json.Marshal(a)
	if err != nil {
		return queue.Entry{}, err
	}
	now := q.now().UTC()
	e := queue.Entry{ID: NewIDAt(now), TableID: tableID, Action: a, EnqueuedAt: now}
	tx, err := q.pool.Begin(ctx)
	if err != nil {
		return queue.Entry{}, err
	}
	defer tx.Rollback(ctx)
	if _, err := tx.Exec(ctx, `INSERT INTO action_queue (id, table_id, action, enqueued_at) VALUES ($1,$2,$3,$4)`,
		e.ID, tableID, raw, now); err != nil {
		return queue.Entry{}, err
	}
	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, queueChannel, tableID); err != nil {
		return queue.Entry{}, err
	}
	return e, tx.Commit(ctx)
}

func (q *PGQueue) Peek(ctx context.Context, tableID string, wait time.Duration) (*queue.Entry, error) {
	if e, err := q.head(ctx, tableID); e != nil || err != nil {
		return e, err
	}
	if wait <= 0 {
		return nil, nil
	}

	conn, err := q.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()
	if _, err := conn.Exec(ctx, "LISTEN "+queueChannel); err != nil {
		return nil, err
	}
	defer func() {
		_, _ = conn.Exec(context.Background(), "UNLISTEN "+queueChannel)
	}()

	deadline := time.Now().Add(wait)
	for {
		// re-check after LISTEN so a push between head and LISTEN is not lost
		if e, err := q.head(ctx, tableID); e != nil || err != nil {
			return e, err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, nil
		}
		wctx, cancel := context.WithTimeout(ctx, remaining)
		n, err := conn.Conn().WaitForNotification(wctx)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, nil
			}
			return nil, err
		}
		if n.Payload != tableID {
			continue
		}
	}
}

func (q *PGQueue) head(ctx context.Context, tableID string) (*queue.Entry, error) {
	var (
		e   queue.Entry
		raw []byte
	)
	err := q.pool.QueryRow(ctx, `
UPDATE action_queue SET attempts = attempts + 1
WHERE seq = (SELECT seq FROM action_queue WHERE table_id = $1 ORDER BY seq LIMIT 1)
RETURNING id, table_id, action, enqueued_at, attempts`, tableID).
		Scan(&e.ID, &e.TableID, &raw, &e.EnqueuedAt, &e.Attempts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(raw, &e.Action); err != nil {
		return nil, err
	}
	return &e, nil
}

func (q *PGQueue) Ack(ctx context.Context, tableID, entryID string) error {
	tag, err := q.pool.Exec(ctx, `DELETE FROM action_queue WHERE table_id = $1 AND id = $2`, tableID, entryID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return queue.ErrNotFound
	}
	return nil
}

// PGBotQueue is the shared bot schedule.
type PGBotQueue struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewPGBotQueue(s *Store) *PGBotQueue {
	return &PGBotQueue{pool: s.Pool, now: s.now}
}

func (q *PGBotQueue) Push(ctx context.Context, e queue.BotEntry) error {
	if e.ID == "" {
		e.ID = NewID()
	}
	_, err := q.pool.Exec(ctx, `
INSERT INTO bot_queue (id, table_id, player_id, ready_at) VALUES ($1,$2,$3,$4)
ON CONFLICT (id) DO UPDATE SET ready_at = EXCLUDED.ready_at`,
		e.ID, e.TableID, e.PlayerID, e.ReadyAt)
	return err
}

func (q *PGBotQueue) PeekReady(ctx context.Context) (*queue.BotEntry, error) {
	var e queue.BotEntry
	err := q.pool.QueryRow(ctx, `
SELECT id, table_id, player_id, ready_at FROM bot_queue
WHERE ready_at <= $1 ORDER BY ready_at, id LIMIT 1`, q.now()).
		Scan(&e.ID, &e.TableID, &e.PlayerID, &e.ReadyAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (q *PGBotQueue) Requeue(ctx context.Context, id string, readyAt time.Time) error {
	tag, err := q.pool.Exec(ctx, `UPDATE bot_queue SET ready_at = $2 WHERE id = $1`, id, readyAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return queue.ErrNotFound
	}
	return nil
}

func (q *PGBotQueue) Ack(ctx context.Context, id string) error {
	tag, err := q.pool.Exec(ctx, `DELETE FROM bot_queue WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return queue.ErrNotFound
	}
	return nil
}
