package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ucp-debugger/internal/adapters/decoders/webhook"
	"ucp-debugger/internal/domain"
	"ucp-debugger/internal/usecase"
	"ucp-debugger/pkg/shared/redact"
)

// handleWebhook accepts UCP callbacks at /api/webhook/{path...}.
func (d *Deps) handleWebhook(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/api/webhook"), "/")
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "path": path, "timestamp": time.Now().UTC()})
	case http.MethodPost, http.MethodPut:
		d.ingestWebhook(w, r, path)
	default:
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", map[string]any{"method": r.Method})
	}
}

func (d *Deps) ingestWebhook(w http.ResponseWriter, r *http.Request, path string) {
	defer func() {
		if rec := recover(); rec != nil {
			d.Logger.Error().Interface("panic", rec).Str("path", path).Msg("webhook ingestion fault")
			d.countDelivery("NACK")
			writeNACK(w, "internal error while processing webhook")
		}
	}()

	limit := int64(d.Cfg.WebhookMaxBytes)
	if limit <= 0 {
		limit = 4 << 20
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		d.Logger.Error().Err(err).Str("path", path).Msg("webhook body read failed")
		d.countDelivery("NACK")
		writeNACK(w, err.Error())
		return
	}

	if _, err := d.ingest(r.Context(), path, r.Header, raw); err != nil {
		d.Logger.Error().Err(err).Str("path", path).Msg("webhook ingestion failed")
		d.countDelivery("NACK")
		writeNACK(w, err.Error())
		return
	}
	d.countDelivery("ACK")
	writeACK(w)
}

// ingest decodes one delivery, records it in the store and broadcasts the decorated delivery.
func (d *Deps) ingest(ctx context.Context, path string, h http.Header, raw []byte) (domain.WebhookDelivery, error) {
	body := webhook.Decode(h.Get("Content-Type"), raw)
	if body.DecodeErr != nil {
		d.Logger.Warn().Err(body.DecodeErr).Str("path", path).Msg("webhook body is not valid JSON, kept as text")
	}
	payload := body.Payload()
	ext := webhook.ExtractContext(payload)

	delivery := domain.WebhookDelivery{
		Type:      domain.EventWebhook,
		Path:      path,
		Timestamp: time.Now().UTC(),
		Headers:   d.deliveryHeaders(h),
		Payload:   payload,
		Context:   ext.Context,
	}

	txID := ""
	if ext.Correlated() {
		txID = ext.Context.TransactionID
	} else if d.Cfg.UncorrelatedBucket != "" {
		txID = d.Cfg.UncorrelatedBucket
	}

	ev := d.Logger.Info().Str("path", path).Str("shape", string(ext.Shape))
	if ext.Context != nil {
		ev = ev.Str("transaction", ext.Context.TransactionID).Str("messageId", ext.Context.MessageID)
	}
	ev.Bool("correlated", ext.Correlated()).Msg("webhook received")

	if txID != "" {
		in := usecase.MessageInput{
			TransactionID: txID,
			Action:        webhook.ActionOf(ext.Context),
			Payload:       payload,
		}
		if ext.Context != nil {
			in.MessageID = ext.Context.MessageID
		}
		id, err := d.Svc.AddWebhook(ctx, in)
		if err != nil {
			return delivery, fmt.Errorf("record webhook: %w", err)
		}
		delivery.LocalID = id
	}
	d.Svc.Broadcast(delivery)
	return delivery, nil
}

func (d *Deps) deliveryHeaders(h http.Header) map[string]string {
	if d.Cfg.ExposeSensitiveHeaders {
		return redact.Flatten(h)
	}
	return redact.Headers(h, d.Cfg.RedactHeaders...)
}

func (d *Deps) countDelivery(status string) {
	if d.Metrics != nil {
		d.Metrics.WebhookDeliveries.WithLabelValues(status).Inc()
	}
}
