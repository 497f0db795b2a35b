package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"pokerbeat/internal/ledger"
	"pokerbeat/internal/poker"
)

// Memory mirrors Store in process. Tests and local runs without a database
// use it; CommitSnapshot is all-or-nothing under one mutex.
type Memory struct {
	now func() time.Time

	mu        sync.Mutex
	tables    map[string]poker.Snapshot
	events    map[string][]poker.HistoryEvent
	chat      map[string][]poker.ChatLine
	notices   map[string][]poker.Notification
	stats     map[string]poker.TableStats
	processed map[string]map[string]bool
	balances  map[string]int64
	entries   []ledger.Entry
	commits   int
}

func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{
		now:       now,
		tables:    map[string]poker.Snapshot{},
		events:    map[string][]poker.HistoryEvent{},
		chat:      map[string][]poker.ChatLine{},
		notices:   map[string][]poker.Notification{},
		stats:     map[string]poker.TableStats{},
		processed: map[string]map[string]bool{},
		balances:  map[string]int64{},
	}
}

func (m *Memory) CreateTable(_ context.Context, snap poker.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap = snap.Clone()
	if snap.Table.ModifiedAt.IsZero() {
		snap.Table.ModifiedAt = m.now().UTC().Truncate(time.Microsecond)
	}
	m.tables[snap.Table.ID] = snap
	return nil
}

func (m *Memory) LoadSnapshot(_ context.Context, tableID string) (poker.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.tables[tableID]
	if !ok {
		return poker.Snapshot{}, poker.ErrTableNotFound
	}
	return snap.Clone(), nil
}

func (m *Memory) CommitSnapshot(ctx context.Context, b *poker.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.tables[b.TableID]
	if !ok {
		return poker.ErrTableNotFound
	}
	if !cur.Table.ModifiedAt.Equal(b.ExpectedModifiedAt) {
		return &poker.ConcurrentModificationError{Kind: poker.StaleWrite, TableID: b.TableID}
	}

	book := &memBook{balances: make(map[string]int64, len(m.balances))}
	for k, v := range m.balances {
		book.balances[k] = v
	}
	if err := ledger.New(NewID, m.now).Apply(ctx, book, b.Transfers); err != nil {
		return err
	}

	m.balances = book.balances
	m.entries = append(m.entries, book.entries...)
	m.tables[b.TableID] = b.Snapshot.Clone()
	m.events[b.TableID] = append(m.events[b.TableID], b.Events...)
	m.chat[b.TableID] = append(m.chat[b.TableID], b.ChatLines...)
	m.notices[b.TableID] = append(m.notices[b.TableID], b.Notifications...)
	if b.Stats != nil {
		m.stats[b.TableID] = *b.Stats
	}
	if b.EntryID != "" {
		if m.processed[b.TableID] == nil {
			m.processed[b.TableID] = map[string]bool{}
		}
		m.processed[b.TableID][b.EntryID] = true
	}
	m.commits++
	return nil
}

func (m *Memory) IsProcessed(_ context.Context, tableID, entryID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.processed[tableID][entryID], nil
}

func (m *Memory) SuspendTable(_ context.Context, tableID, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.tables[tableID]
	if !ok {
		return poker.ErrTableNotFound
	}
	snap.Table.Status = poker.TableSuspended
	snap.Table.ModifiedAt = m.now().UTC().Truncate(time.Microsecond)
	return nil
}

func (m *Memory) LoadStats(_ context.Context, tableID string) (*poker.TableStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.stats[tableID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (m *Memory) AccountBalance(_ context.Context, account string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[account], nil
}

func (m *Memory) Fund(ctx context.Context, account string, amount int64, notes string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	book := &memBook{balances: m.balances}
	bal, err := ledger.New(NewID, m.now).Credit(ctx, book, account, amount, NewID(), notes)
	m.entries = append(m.entries, book.entries...)
	return bal, err
}

func (m *Memory) HandLog(_ context.Context, tableID string, handNumber int64) ([]poker.HistoryEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []poker.HistoryEvent{}
	for _, ev := range m.events[tableID] {
		if ev.HandNumber == handNumber {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (m *Memory) RecentChat(_ context.Context, tableID string, limit int) ([]poker.ChatLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := m.chat[tableID]
	if limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	return append([]poker.ChatLine{}, lines...), nil
}

func (m *Memory) Notifications(_ context.Context, tableID string, limit int) ([]poker.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	src := m.notices[tableID]
	out := make([]poker.Notification, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, src[i])
	}
	return out, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

// Commits counts successful CommitSnapshot calls.
func (m *Memory) Commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commits
}

type memBook struct {
	balances map[string]int64
	entries  []ledger.Entry
}

func (b *memBook) LockBalance(_ context.Context, account string) (int64, error) {
	return b.balances[account], nil
}

func (b *memBook) SetBalance(_ context.Context, account string, balance int64) error {
	b.balances[account] = balance
	return nil
}

func (b *memBook) RecordEntry(_ context.Context, e ledger.Entry) error {
	b.entries = append(b.entries, e)
	return nil
}
