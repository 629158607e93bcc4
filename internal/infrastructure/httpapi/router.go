package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"ucp-debugger/internal/adapters/ucpclient"
	"ucp-debugger/internal/infrastructure/config"
	"ucp-debugger/internal/infrastructure/live"
	obs "ucp-debugger/internal/infrastructure/observability"
	"ucp-debugger/internal/usecase"
)

type Deps struct {
	Cfg     config.Config
	Logger  *zerolog.Logger
	Metrics *obs.Metrics
	Svc     *usecase.CorrelationService
	Hub     *live.Hub
	// UCP is optional; /api/calls is disabled without it.
	UCP *ucpclient.Client
}

func NewRouterWithDeps(d *Deps) http.Handler {
	return withCORS(d.Cfg, buildBaseMux(d))
}

// buildBaseMux constructs the mux with all routes, without wrappers.
func buildBaseMux(d *Deps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if d.Metrics != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry(), promhttp.HandlerOpts{}))
	}

	mux.HandleFunc("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"name":    "ucp-debugger",
			"version": obs.Version,
			"commit":  obs.Commit,
			"time":    time.Now().UTC(),
		})
	})

	// Inbound webhooks: /api/webhook/{path...}; the suffix is only logged.
	mux.HandleFunc("/api/webhook", d.handleWebhook)
	mux.HandleFunc("/api/webhook/", d.handleWebhook)

	// Live streams
	mux.HandleFunc("/api/events", d.handleEvents)
	mux.HandleFunc("/api/monitor/ws", d.handleMonitorWS)

	// Read API over the correlation store
	mux.HandleFunc("/api/transactions", d.handleTransactions)
	mux.HandleFunc("/api/transactions/", d.handleTransactionByID)
	mux.HandleFunc("/api/orphans", d.handleOrphans)
	mux.HandleFunc("/api/status", d.handleStatus)

	// Outbound UCP calls
	mux.HandleFunc("/api/calls/", d.handleCall)

	return mux
}

func withCORS(cfg config.Config, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, UCP-Agent, X-UCP-API-Key")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
