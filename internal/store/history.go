package store

import (
	"context"
	"encoding/json"

	"pokerbeat/internal/poker"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// HandLog returns the ordered events of one hand.
func (s *Store) HandLog(ctx context.Context, tableID string, handNumber int64) ([]poker.HistoryEvent, error) {
	rows, err := s.Pool.Query(ctx, `
SELECT table_id, hand_number, seq, subject_kind, subject_id, kind, args, created_at
FROM events WHERE table_id = $1 AND hand_number = $2 ORDER BY seq`, tableID, handNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []poker.HistoryEvent{}
	for rows.Next() {
		var (
			ev   poker.HistoryEvent
			raw  []byte
			subj string
			kind string
		)
		if err := rows.Scan(&ev.TableID, &ev.HandNumber, &ev.Seq, &subj, &ev.Subject.ID, &kind, &raw, &ev.At); err != nil {
			return nil, err
		}
		ev.Subject.Kind = poker.SubjectKind(subj)
		ev.Kind = poker.EventKind(kind)
		if err := json.Unmarshal(raw, &ev.Args); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// RecentChat returns the newest chat lines, oldest first.
func (s *Store) RecentChat(ctx context.Context, tableID string, limit int) ([]poker.ChatLine, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx, `
SELECT id, table_id, hand_number, speaker, message, created_at FROM (
  SELECT * FROM chat_lines WHERE table_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2
) recent ORDER BY created_at, id`, tableID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (poker.ChatLine, error) {
		var l poker.ChatLine
		err := row.Scan(&l.ID, &l.TableID, &l.HandNumber, &l.Speaker, &l.Message, &l.At)
		return l, err
	})
}

func (s *Store) LoadStats(ctx context.Context, tableID string) (*poker.TableStats, error) {
	var st poker.TableStats
	err := s.Pool.QueryRow(ctx, `
SELECT table_id, hands_played, avg_pot, players_per_flop, biggest_pot, updated_at
FROM table_stats WHERE table_id = $1`, tableID).
		Scan(&st.TableID, &st.HandsPlayed, &st.AvgPot, &st.PlayersPerFlop, &st.BiggestPot, &st.UpdatedAt)
	if err != nil {
		if mapNotFound(err) == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &st, nil
}

func (s *Store) Notifications(ctx context.Context, tableID string, limit int) ([]poker.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx, `
SELECT id, table_id, user_id, kind, message, chat_line_id, created_at
FROM notifications WHERE table_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`, tableID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []poker.Notification{}
	for rows.Next() {
		var n poker.Notification
		var chatLine pgtype.Text
		if err := rows.Scan(&n.ID, &n.TableID, &n.UserID, &n.Kind, &n.Message, &chatLine, &n.At); err != nil {
			return nil, err
		}
		n.ChatLineID = textVal(chatLine)
		out = append(out, n)
	}
	return out, rows.Err()
}
