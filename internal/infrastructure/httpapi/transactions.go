package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"ucp-debugger/internal/domain"
	"ucp-debugger/internal/usecase"
)

// handleTransactions: GET lists newest first, DELETE clears everything.
func (d *Deps) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodDelete:
		if err := d.Svc.Clear(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, "TRANSACTIONS_CLEAR_FAILED", err.Error(), nil)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case http.MethodGet:
		items, err := d.Svc.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "TRANSACTIONS_LIST_FAILED", err.Error(), nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
	default:
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	}
}

func (d *Deps) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	// path: /api/transactions/{id}[/(messages|status|har)]
	// split the escaped path so ids containing "/" survive as %2F
	path := strings.TrimPrefix(r.URL.EscapedPath(), "/api/transactions/")
	parts := strings.Split(path, "/")
	for i, p := range parts {
		seg, err := url.PathUnescape(p)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_PATH", err.Error(), nil)
			return
		}
		parts[i] = seg
	}
	id := parts[0]
	if id == "" {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
		return
	}
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			tx, ok, err := d.Svc.Get(r.Context(), id)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "TRANSACTION_GET_FAILED", err.Error(), map[string]any{"id": id})
				return
			}
			if !ok {
				writeError(w, http.StatusNotFound, "NOT_FOUND", "transaction not found", map[string]any{"id": id})
				return
			}
			writeJSON(w, http.StatusOK, tx)
		case http.MethodPost:
			var body struct {
				ServerURL string `json:"serverUrl"`
			}
			if r.ContentLength != 0 {
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
					return
				}
			}
			if err := d.Svc.AddTransaction(r.Context(), id, body.ServerURL); err != nil {
				writeError(w, http.StatusInternalServerError, "TRANSACTION_CREATE_FAILED", err.Error(), map[string]any{"id": id})
				return
			}
			tx, _, _ := d.Svc.Get(r.Context(), id)
			writeJSON(w, http.StatusOK, tx)
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
		}
		return
	}
	switch parts[1] {
	case "messages":
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 {
			limit = 100
		}
		f := usecase.MessageFilter{From: r.URL.Query().Get("from"), Limit: limit}
		if a := r.URL.Query().Get("action"); a != "" {
			action, ok := domain.ParseAction(a)
			if !ok {
				writeError(w, http.StatusBadRequest, "INVALID_ACTION", "unknown action", map[string]any{"action": a})
				return
			}
			f.Action = action
		}
		msgs, next, err := d.Svc.ListMessages(r.Context(), id, f)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "MESSAGES_LIST_FAILED", err.Error(), map[string]any{"id": id})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": msgs, "next": next})
	case "har":
		exportHARForTransaction(w, r, d, id)
	case "status":
		if r.Method != http.MethodPut {
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
			return
		}
		var body struct {
			Status domain.Status `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || !body.Status.Valid() {
			writeError(w, http.StatusBadRequest, "INVALID_STATUS", "status must be pending, completed or failed", nil)
			return
		}
		err := d.Svc.UpdateStatus(r.Context(), id, body.Status)
		if errors.Is(err, usecase.ErrTransactionNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "transaction not found", map[string]any{"id": id})
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "STATUS_UPDATE_FAILED", err.Error(), map[string]any{"id": id})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
	}
}

func (d *Deps) handleOrphans(w http.ResponseWriter, r *http.Request) {
	items, err := d.Svc.Orphans(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ORPHANS_LIST_FAILED", err.Error(), nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
}

func (d *Deps) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := d.Svc.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "STATUS_FAILED", err.Error(), nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"observers": d.Hub.Count(), "store": st})
}
