package httptransport

import (
	"encoding/json"
	"net/http"

	"pokerbeat/internal/ledger"
	"pokerbeat/internal/poker"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type AdminHandlers struct {
	store TableStore
	sup   Enqueuer
	newID func() string
}

func NewAdminHandlers(st TableStore, sup Enqueuer, newID func() string) *AdminHandlers {
	return &AdminHandlers{store: st, sup: sup, newID: newID}
}

func (h *AdminHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.store.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "db": "down"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "db": "up"})
	}
}

// Fund credits a user's ledger account outside of play.
func (h *AdminHandlers) Fund() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			UserID string `json:"user_id"`
			Amount int64  `json:"amount"`
			Notes  string `json:"notes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if body.UserID == "" || body.Amount <= 0 {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		if body.Notes == "" {
			body.Notes = "admin fund"
		}
		account := ledger.UserAccount(body.UserID)
		bal, err := h.store.Fund(r.Context(), account, body.Amount, body.Notes)
		if err != nil {
			log.Error().Err(err).Str("account", account).Msg("fund failed")
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"account": account, "balance": bal})
	}
}

func (h *AdminHandlers) Balance() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account := r.URL.Query().Get("account")
		if account == "" {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		bal, err := h.store.AccountBalance(r.Context(), account)
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"account": account, "balance": bal})
	}
}

// ForceAction makes the player to act take their default action now.
func (h *AdminHandlers) ForceAction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tableID := chi.URLParam(r, "table_id")
		if _, err := h.store.LoadSnapshot(r.Context(), tableID); err != nil {
			status, code := mapError(err)
			WriteHTTPError(w, status, code)
			return
		}
		e, err := h.sup.Enqueue(r.Context(), tableID, poker.Action{Type: poker.ActionForceAction})
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, http.StatusAccepted, actionResponse{EntryID: e.ID, TableID: tableID, Type: string(poker.ActionForceAction)})
	}
}

// CreateTable opens a cash table and starts its worker.
func (h *AdminHandlers) CreateTable() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p poker.TableParams
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if p.ID == "" {
			p.ID = h.newID()
		}
		snap, err := poker.NewCashTable(p)
		if err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_table")
			return
		}
		if err := h.store.CreateTable(r.Context(), snap); err != nil {
			log.Error().Err(err).Str("table_id", p.ID).Msg("create table failed")
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		h.sup.EnsureRunning(p.ID)
		log.Info().Str("table_id", p.ID).Str("variant", string(snap.Table.Variant)).Msg("table created")
		writeJSON(w, http.StatusCreated, snap.Table)
	}
}
