// Package broadcast fans committed table state out to connected viewers.
// Every viewer gets a payload rendered for its own player id, so hole cards
// never reach the wrong audience.
package broadcast

import (
	"strconv"
	"sync"
	"time"
)

type Event struct {
	EventID  string `json:"event_id"`
	Event    string `json:"event"`
	TableID  string `json:"table_id"`
	ServerTS int64  `json:"server_ts"`
	Data     any    `json:"data"`

	audience string
}

// Watcher is one connected viewer. PlayerID is empty for spectators.
type Watcher struct {
	TableID  string
	PlayerID string
	C        chan Event
}

type room struct {
	nextID   int64
	events   []Event
	watchers map[*Watcher]struct{}
}

type Hub struct {
	mu     sync.Mutex
	max    int
	now    func() time.Time
	rooms  map[string]*room
	closed bool
}

// NewHub keeps up to max recent events per table for Last-Event-ID replay.
func NewHub(max int) *Hub {
	if max <= 0 {
		max = 200
	}
	return &Hub{max: max, now: time.Now, rooms: map[string]*room{}}
}

func (h *Hub) room(tableID string) *room {
	r := h.rooms[tableID]
	if r == nil {
		r = &room{watchers: map[*Watcher]struct{}{}}
		h.rooms[tableID] = r
	}
	return r
}

// Broadcast renders one payload per distinct audience and delivers it
// without blocking; a slow viewer misses events and resyncs on the next.
func (h *Hub) Broadcast(tableID, event string, render func(playerID string) any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	r := h.room(tableID)
	audiences := map[string]Event{"": {}}
	for w := range r.watchers {
		audiences[w.PlayerID] = Event{}
	}
	ts := h.now().UnixMilli()
	for aud := range audiences {
		r.nextID++
		ev := Event{
			EventID:  strconv.FormatInt(r.nextID, 10),
			Event:    event,
			TableID:  tableID,
			ServerTS: ts,
			Data:     render(aud),
			audience: aud,
		}
		audiences[aud] = ev
		r.events = append(r.events, ev)
	}
	if len(r.events) > h.max {
		r.events = r.events[len(r.events)-h.max:]
	}
	for w := range r.watchers {
		select {
		case w.C <- audiences[w.PlayerID]:
		default:
		}
	}
}

// ReplayAfter returns the buffered events for playerID newer than
// lastEventID. An empty or malformed id replays everything buffered.
func (h *Hub) ReplayAfter(tableID, playerID, lastEventID string) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	r := h.rooms[tableID]
	if r == nil {
		return nil
	}
	last, err := strconv.ParseInt(lastEventID, 10, 64)
	if err != nil {
		last = 0
	}
	out := make([]Event, 0, len(r.events))
	for _, ev := range r.events {
		if ev.audience != playerID {
			continue
		}
		id, _ := strconv.ParseInt(ev.EventID, 10, 64)
		if id > last {
			out = append(out, ev)
		}
	}
	return out
}

// Current stamps data with the newest id handed out for tableID. A viewer
// that starts from it and reconnects with that Last-Event-ID misses nothing.
func (h *Hub) Current(tableID, event string, data any) Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	var last int64
	if r := h.rooms[tableID]; r != nil {
		last = r.nextID
	}
	return Event{
		EventID:  strconv.FormatInt(last, 10),
		Event:    event,
		TableID:  tableID,
		ServerTS: h.now().UnixMilli(),
		Data:     data,
	}
}

func (h *Hub) Subscribe(tableID, playerID string) *Watcher {
	w := &Watcher{TableID: tableID, PlayerID: playerID, C: make(chan Event, 32)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(w.C)
		return w
	}
	h.room(tableID).watchers[w] = struct{}{}
	metricViewersActive.Add(1)
	return w
}

func (h *Hub) Unsubscribe(w *Watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r := h.rooms[w.TableID]
	if r == nil {
		return
	}
	if _, ok := r.watchers[w]; ok {
		delete(r.watchers, w)
		close(w.C)
		metricViewersActive.Add(-1)
	}
}

// Viewers counts connected watchers; the heartbeat uses it for idle checks.
func (h *Hub) Viewers(tableID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r := h.rooms[tableID]; r != nil {
		return len(r.watchers)
	}
	return 0
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, r := range h.rooms {
		for w := range r.watchers {
			close(w.C)
			delete(r.watchers, w)
			metricViewersActive.Add(-1)
		}
	}
}
