package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"pokerbeat/internal/poker"
)

// Memory is an in-process Queue. Waiters block on a per-table channel that
// Push closes.
type Memory struct {
	newID func() string
	now   func() time.Time

	mu      sync.Mutex
	entries map[string][]Entry
	waiters map[string]chan struct{}
}

func NewMemory(newID func() string, now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{
		newID:   newID,
		now:     now,
		entries: map[string][]Entry{},
		waiters: map[string]chan struct{}{},
	}
}

func (m *Memory) Push(_ context.Context, tableID string, a poker.Action) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := Entry{ID: m.newID(), TableID: tableID, Action: a, EnqueuedAt: m.now()}
	m.entries[tableID] = append(m.entries[tableID], e)
	if ch, ok := m.waiters[tableID]; ok {
		close(ch)
		delete(m.waiters, tableID)
	}
	return e, nil
}

func (m *Memory) Peek(ctx context.Context, tableID string, wait time.Duration) (*Entry, error) {
	var timer *time.Timer
	for {
		m.mu.Lock()
		if q := m.entries[tableID]; len(q) > 0 {
			q[0].Attempts++
			e := q[0]
			m.mu.Unlock()
			if timer != nil {
				timer.Stop()
			}
			return &e, nil
		}
		ch, ok := m.waiters[tableID]
		if !ok {
			ch = make(chan struct{})
			m.waiters[tableID] = ch
		}
		m.mu.Unlock()

		if wait <= 0 {
			return nil, nil
		}
		if timer == nil {
			timer = time.NewTimer(wait)
		}
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
			return nil, nil
		case <-ch:
		}
	}
}

func (m *Memory) Ack(_ context.Context, tableID, entryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := m.entries[tableID]
	for i, e := range q {
		if e.ID == entryID {
			m.entries[tableID] = append(q[:i:i], q[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Len reports how many entries wait for tableID.
func (m *Memory) Len(tableID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries[tableID])
}

type MemoryBots struct {
	now func() time.Time

	mu      sync.Mutex
	entries map[string]BotEntry
}

func NewMemoryBots(now func() time.Time) *MemoryBots {
	if now == nil {
		now = time.Now
	}
	return &MemoryBots{now: now, entries: map[string]BotEntry{}}
}

func (m *MemoryBots) Push(_ context.Context, e BotEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.ID] = e
	return nil
}

func (m *MemoryBots) PeekReady(_ context.Context) (*BotEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	ready := make([]BotEntry, 0, len(m.entries))
	for _, e := range m.entries {
		if !e.ReadyAt.After(now) {
			ready = append(ready, e)
		}
	}
	if len(ready) == 0 {
		return nil, nil
	}
	sort.Slice(ready, func(i, j int) bool {
		if ready[i].ReadyAt.Equal(ready[j].ReadyAt) {
			return ready[i].ID < ready[j].ID
		}
		return ready[i].ReadyAt.Before(ready[j].ReadyAt)
	})
	e := ready[0]
	return &e, nil
}

func (m *MemoryBots) Requeue(_ context.Context, id string, readyAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return ErrNotFound
	}
	e.ReadyAt = readyAt
	m.entries[id] = e
	return nil
}

func (m *MemoryBots) Ack(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *MemoryBots) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
