package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ucp-debugger/internal/domain"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	m.ObserversChanged(3)
	m.EventPublished()
	m.ObserverDropped()
	m.MessageRecorded(domain.MessageWebhook)
	m.CorrelationMiss("transaction")

	assert.Equal(t, 3.0, testutil.ToFloat64(m.Observers))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ObserverDrops))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MessagesTotal.WithLabelValues("webhook")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CorrelationMisses.WithLabelValues("transaction")))
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf, "warn")
	l.Info().Msg("hidden")
	l.Warn().Str("k", "v").Msg("shown")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	assert.Equal(t, "shown", rec["message"])
	assert.Equal(t, Version, rec["version"])
	assert.Equal(t, "v", rec["k"])
}
