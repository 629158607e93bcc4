package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"ucp-debugger/internal/adapters/ucpclient"
	"ucp-debugger/internal/domain"
)

type callRequest struct {
	TransactionID string          `json:"transactionId"`
	ID            string          `json:"id"`
	Body          json.RawMessage `json:"body"`
}

// handleCall issues an outbound UCP call: POST /api/calls/{action}.
func (d *Deps) handleCall(w http.ResponseWriter, r *http.Request) {
	if d.UCP == nil {
		writeError(w, http.StatusServiceUnavailable, "UCP_CLIENT_DISABLED", "no UCP server configured", nil)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
		return
	}
	action, ok := domain.ParseAction(strings.TrimPrefix(r.URL.Path, "/api/calls/"))
	if !ok || action == domain.ActionWebhook {
		writeError(w, http.StatusNotFound, "UNKNOWN_ACTION", "unknown action", nil)
		return
	}
	var req callRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
	}
	var body any
	if len(req.Body) > 0 {
		_ = json.Unmarshal(req.Body, &body)
	}

	ctx := r.Context()
	var (
		res ucpclient.Result
		err error
	)
	switch action {
	case domain.ActionDiscover:
		res, err = d.UCP.Discover(ctx, req.TransactionID)
	case domain.ActionCreateCheckout:
		res, err = d.UCP.CreateCheckout(ctx, req.TransactionID, body)
	case domain.ActionGetCheckout:
		res, err = d.UCP.GetCheckout(ctx, req.TransactionID, req.ID)
	case domain.ActionUpdateCheckout:
		res, err = d.UCP.UpdateCheckout(ctx, req.TransactionID, req.ID, body)
	case domain.ActionCompleteCheckout:
		res, err = d.UCP.CompleteCheckout(ctx, req.TransactionID, req.ID, body)
	case domain.ActionCancelCheckout:
		res, err = d.UCP.CancelCheckout(ctx, req.TransactionID, req.ID)
	case domain.ActionGetOrder:
		res, err = d.UCP.GetOrder(ctx, req.TransactionID, req.ID)
	case domain.ActionCreateCart:
		res, err = d.UCP.CreateCart(ctx, req.TransactionID)
	case domain.ActionGetCart:
		res, err = d.UCP.GetCart(ctx, req.TransactionID, req.ID)
	case domain.ActionAddToCart:
		res, err = d.UCP.AddToCart(ctx, req.TransactionID, req.ID, body)
	case domain.ActionGetProducts:
		res, err = d.UCP.GetProducts(ctx, req.TransactionID)
	default:
		writeError(w, http.StatusNotImplemented, "ACTION_NOT_SUPPORTED", "action has no outbound call", map[string]any{"action": action})
		return
	}
	if err != nil {
		d.Logger.Warn().Err(err).Str("action", string(action)).Str("transaction", res.TransactionID).Msg("ucp call failed")
		writeError(w, http.StatusBadGateway, "UCP_CALL_FAILED", err.Error(), res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
