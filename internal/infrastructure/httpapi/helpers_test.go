package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"ucp-debugger/internal/adapters/storage/memory"
	"ucp-debugger/internal/infrastructure/config"
	"ucp-debugger/internal/infrastructure/live"
	obs "ucp-debugger/internal/infrastructure/observability"
	"ucp-debugger/internal/usecase"
)

func testConfig() config.Config {
	return config.Config{
		CORSAllowOrigin:        "*",
		ExposeSensitiveHeaders: true,
		WebhookMaxBytes:        1 << 20,
		UncorrelatedBucket:     "uncorrelated",
		SSEHeartbeatMs:         1000,
	}
}

func newTestDeps(t *testing.T, mutate func(*config.Config)) *Deps {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	logger := zerolog.New(io.Discard)
	metrics := obs.NewMetrics()
	hub := live.NewHub().WithStats(metrics)
	svc := usecase.NewCorrelationService(memory.NewStore(), hub, usecase.WithLogger(&logger), usecase.WithRecorder(metrics))
	return &Deps{Cfg: cfg, Logger: &logger, Metrics: metrics, Svc: svc, Hub: hub}
}

func serve(t *testing.T, d *Deps) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewRouterWithDeps(d))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, d *Deps, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	NewRouterWithDeps(d).ServeHTTP(rr, req)
	return rr
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

// openStream connects to the SSE endpoint and yields the data payload of each event.
func openStream(t *testing.T, srv *httptest.Server) (<-chan map[string]any, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	out := make(chan map[string]any, 64)
	go func() {
		defer resp.Body.Close()
		defer close(out)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			line := sc.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var ev map[string]any
			if json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev) == nil {
				out <- ev
			}
		}
	}()
	return out, cancel
}

func next(t *testing.T, ch <-chan map[string]any) map[string]any {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "stream closed")
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return nil
}
