package httptransport

import (
	"net/http"
	"time"

	"pokerbeat/internal/beat"
	"pokerbeat/internal/broadcast"
	"pokerbeat/internal/poker"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

var ssePingInterval = 15 * time.Second

// EventsSSEHandler streams committed table updates rendered for
// ?player_id=. A fresh connection starts with the committed state; a
// reconnect with Last-Event-ID replays what was missed instead.
func EventsSSEHandler(hub *broadcast.Hub, st TableStore, sup Enqueuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tableID := chi.URLParam(r, "table_id")
		playerID := r.URL.Query().Get("player_id")
		if _, err := st.LoadSnapshot(r.Context(), tableID); err != nil {
			status, code := mapError(err)
			WriteHTTPError(w, status, code)
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			WriteHTTPError(w, http.StatusInternalServerError, "stream_not_supported")
			return
		}

		metricSSEConnectionsTotal.Add(1)
		metricSSEConnectionsActive.Add(1)
		defer metricSSEConnectionsActive.Add(-1)

		// subscribe before waking the worker so its first broadcast is seen
		sub := hub.Subscribe(tableID, playerID)
		defer hub.Unsubscribe(sub)
		sup.EnsureRunning(tableID)

		broadcast.SetSSEHeaders(w)
		w.WriteHeader(http.StatusOK)
		log.Info().
			Str("request_id", chimw.GetReqID(r.Context())).
			Str("table_id", tableID).
			Str("player_id", playerID).
			Msg("sse stream opened")

		if lastID := r.Header.Get("Last-Event-ID"); lastID != "" {
			for _, ev := range hub.ReplayAfter(tableID, playerID, lastID) {
				if err := broadcast.WriteSSE(w, ev); err != nil {
					return
				}
				logSSEEvent(r, "replay", ev)
			}
		} else {
			// id first: anything committed after it also reaches sub.C
			ev := hub.Current(tableID, "gamestate", nil)
			snap, err := st.LoadSnapshot(r.Context(), tableID)
			if err != nil {
				log.Error().Err(err).Str("table_id", tableID).Msg("sse initial state failed")
				return
			}
			ev.Data = beat.Update{State: poker.GameStateFor(poker.NewAccessor(snap), playerID)}
			if err := broadcast.WriteSSE(w, ev); err != nil {
				return
			}
			logSSEEvent(r, "initial", ev)
		}
		flusher.Flush()

		ticker := time.NewTicker(ssePingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-r.Context().Done():
				log.Info().
					Str("request_id", chimw.GetReqID(r.Context())).
					Str("table_id", tableID).
					Err(r.Context().Err()).
					Msg("sse stream closed")
				return
			case ev, ok := <-sub.C:
				if !ok {
					return
				}
				if err := broadcast.WriteSSE(w, ev); err != nil {
					return
				}
				logSSEEvent(r, "live", ev)
				flusher.Flush()
			case <-ticker.C:
				now := time.Now().UnixMilli()
				ping := broadcast.Event{Event: "ping", TableID: tableID, ServerTS: now, Data: map[string]any{"ts": now}}
				if err := broadcast.WriteSSE(w, ping); err != nil {
					return
				}
				logSSEEvent(r, "ping", ping)
				flusher.Flush()
			}
		}
	}
}

func logSSEEvent(r *http.Request, source string, ev broadcast.Event) {
	evt := log.Debug()
	if ev.Event == "ping" {
		evt = log.Trace()
	}
	evt.
		Str("request_id", chimw.GetReqID(r.Context())).
		Str("table_id", ev.TableID).
		Str("event", ev.Event).
		Str("event_id", ev.EventID).
		Str("source", source).
		Msg("sse event sent")
}
