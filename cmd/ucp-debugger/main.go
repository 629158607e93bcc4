package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"ucp-debugger/internal/adapters/storage/memory"
	"ucp-debugger/internal/adapters/ucpclient"
	"ucp-debugger/internal/domain"
	cfgpkg "ucp-debugger/internal/infrastructure/config"
	httpapi "ucp-debugger/internal/infrastructure/httpapi"
	"ucp-debugger/internal/infrastructure/live"
	obs "ucp-debugger/internal/infrastructure/observability"
	"ucp-debugger/internal/usecase"
)

func main() {
	cfg := cfgpkg.FromEnv()
	cfgpkg.BindFlags(pflag.CommandLine, &cfg)
	pflag.Parse()

	logger := obs.NewLogger(cfg.LogLevel)
	logger.Info().Str("addr", cfg.Addr).Str("ucp", cfg.UCPBaseURL).Msg("starting ucp-debugger")

	metrics := obs.NewMetrics()

	hub := live.NewHub().WithStats(metrics)
	store := memory.NewStore()
	svc := usecase.NewCorrelationService(store, hub, usecase.WithLogger(logger), usecase.WithRecorder(metrics))

	deps := &httpapi.Deps{Cfg: cfg, Logger: logger, Metrics: metrics, Svc: svc, Hub: hub}
	if cfg.UCPBaseURL != "" {
		deps.UCP = ucpclient.New(ucpclient.Config{
			BaseURL:         cfg.UCPBaseURL,
			PlatformProfile: cfg.UCPPlatformProfile,
			APIKey:          cfg.UCPAPIKey,
			Timeout:         time.Duration(cfg.UCPTimeoutMs) * time.Millisecond,
			InsecureTLS:     cfg.InsecureTLS,
		}, svc,
			ucpclient.WithLogger(logger),
			ucpclient.WithLatencyObserver(func(a domain.Action, d time.Duration) {
				metrics.OutboundCallSeconds.WithLabelValues(string(a)).Observe(d.Seconds())
			}),
		)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewRouterWithDeps(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		// no WriteTimeout: /api/events and /api/monitor/ws are long-lived
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server error")
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	logger.Info().Msg("ucp-debugger stopped")
}
