package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"pokerbeat/internal/poker"
	"pokerbeat/internal/queue"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// TableStore is the read side the HTTP surface needs. Writes only ever go
// through the table's action queue.
type TableStore interface {
	LoadSnapshot(ctx context.Context, tableID string) (poker.Snapshot, error)
	HandLog(ctx context.Context, tableID string, handNumber int64) ([]poker.HistoryEvent, error)
	RecentChat(ctx context.Context, tableID string, limit int) ([]poker.ChatLine, error)
	Notifications(ctx context.Context, tableID string, limit int) ([]poker.Notification, error)
	LoadStats(ctx context.Context, tableID string) (*poker.TableStats, error)
	AccountBalance(ctx context.Context, account string) (int64, error)
	Fund(ctx context.Context, account string, amount int64, notes string) (int64, error)
	CreateTable(ctx context.Context, snap poker.Snapshot) error
	Ping(ctx context.Context) error
}

// Enqueuer hands actions to the table's worker.
type Enqueuer interface {
	Enqueue(ctx context.Context, tableID string, a poker.Action) (queue.Entry, error)
	EnsureRunning(tableID string) bool
}

type TableHandlers struct {
	store TableStore
	sup   Enqueuer
}

func NewTableHandlers(st TableStore, sup Enqueuer) *TableHandlers {
	return &TableHandlers{store: st, sup: sup}
}

type actionResponse struct {
	EntryID string `json:"entry_id"`
	TableID string `json:"table_id"`
	Type    string `json:"type"`
}

// Actions queues an action for the table. The response only confirms the
// enqueue; the outcome arrives on the event stream.
func (h *TableHandlers) Actions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricActionSubmitTotal.Add(1)
		tableID := chi.URLParam(r, "table_id")
		var a poker.Action
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
			metricActionSubmitErrors.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if err := a.ValidateShape(); err != nil {
			metricActionSubmitErrors.Add(1)
			status, code := mapError(err)
			WriteHTTPError(w, status, code)
			return
		}
		if a.Type == poker.ActionForceAction {
			metricActionSubmitErrors.Add(1)
			WriteHTTPError(w, http.StatusForbidden, "internal_action")
			return
		}
		if _, err := h.store.LoadSnapshot(r.Context(), tableID); err != nil {
			metricActionSubmitErrors.Add(1)
			status, code := mapError(err)
			WriteHTTPError(w, status, code)
			return
		}
		e, err := h.sup.Enqueue(r.Context(), tableID, a)
		if err != nil {
			metricActionSubmitErrors.Add(1)
			log.Error().Err(err).Str("request_id", chimw.GetReqID(r.Context())).Str("table_id", tableID).Msg("enqueue action failed")
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, http.StatusAccepted, actionResponse{EntryID: e.ID, TableID: tableID, Type: string(a.Type)})
	}
}

// State renders the committed table for ?player_id=, or the public view.
func (h *TableHandlers) State() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := h.store.LoadSnapshot(r.Context(), chi.URLParam(r, "table_id"))
		if err != nil {
			status, code := mapError(err)
			WriteHTTPError(w, status, code)
			return
		}
		gs := poker.GameStateFor(poker.NewAccessor(snap), r.URL.Query().Get("player_id"))
		writeJSON(w, http.StatusOK, gs)
	}
}

// Log returns one hand's events with hole cards hidden from everyone but
// their owner. ?hand= defaults to the current hand.
func (h *TableHandlers) Log() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricLogQueryTotal.Add(1)
		tableID := chi.URLParam(r, "table_id")
		snap, err := h.store.LoadSnapshot(r.Context(), tableID)
		if err != nil {
			metricLogQueryErrors.Add(1)
			status, code := mapError(err)
			WriteHTTPError(w, status, code)
			return
		}
		hand := snap.Table.HandNumber
		if v := r.URL.Query().Get("hand"); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n < 0 || n > snap.Table.HandNumber {
				metricLogQueryErrors.Add(1)
				WriteHTTPError(w, http.StatusBadRequest, "invalid_hand")
				return
			}
			hand = n
		}
		events, err := h.store.HandLog(r.Context(), tableID, hand)
		if err != nil {
			metricLogQueryErrors.Add(1)
			log.Error().Err(err).Str("table_id", tableID).Int64("hand_number", hand).Msg("hand log query failed")
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		events = poker.RedactLog(events, r.URL.Query().Get("player_id"))
		writeJSON(w, http.StatusOK, map[string]any{"table_id": tableID, "hand_number": hand, "events": events})
	}
}

func (h *TableHandlers) Chat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tableID := chi.URLParam(r, "table_id")
		lines, err := h.store.RecentChat(r.Context(), tableID, ParseLimit(r, 50))
		if err != nil {
			status, code := mapError(err)
			WriteHTTPError(w, status, code)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": lines})
	}
}

func (h *TableHandlers) Notifications() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tableID := chi.URLParam(r, "table_id")
		items, err := h.store.Notifications(r.Context(), tableID, ParseLimit(r, 20))
		if err != nil {
			status, code := mapError(err)
			WriteHTTPError(w, status, code)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	}
}

func (h *TableHandlers) Stats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tableID := chi.URLParam(r, "table_id")
		stats, err := h.store.LoadStats(r.Context(), tableID)
		if err != nil {
			status, code := mapError(err)
			WriteHTTPError(w, status, code)
			return
		}
		if stats == nil {
			stats = &poker.TableStats{TableID: tableID}
		}
		writeJSON(w, http.StatusOK, stats)
	}
}
