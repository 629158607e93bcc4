package httpapi

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventsStartsWithConnected(t *testing.T) {
	d := newTestDeps(t, nil)
	srv := serve(t, d)
	events, cancel := openStream(t, srv)

	hello := next(t, events)
	assert.Equal(t, "connected", hello["type"])
	_, err := time.Parse(time.RFC3339Nano, hello["timestamp"].(string))
	assert.NoError(t, err)
	assert.Equal(t, 1, d.Hub.Count())

	cancel()
	require.Eventually(t, func() bool { return d.Hub.Count() == 0 }, 3*time.Second, 10*time.Millisecond)
}

func TestEventsStreamsWebhookChanges(t *testing.T) {
	d := newTestDeps(t, nil)
	srv := serve(t, d)
	events, _ := openStream(t, srv)
	next(t, events)

	body := `{"context":{"transaction_id":"txn_live","message_id":"m7"}}`
	resp, err := http.Post(srv.URL+"/api/webhook/orders", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()

	created := next(t, events)
	assert.Equal(t, "transaction_created", created["type"])
	assert.Equal(t, "txn_live", created["transactionId"])

	added := next(t, events)
	assert.Equal(t, "message_added", added["type"])
	msg := added["message"].(map[string]any)
	assert.Equal(t, "webhook", msg["type"])
	assert.Equal(t, true, msg["isOrphan"])

	delivery := next(t, events)
	assert.Equal(t, "webhook", delivery["type"])
	assert.Equal(t, "orders", delivery["path"])
	assert.Equal(t, msg["id"], delivery["localId"])
	assert.Equal(t, map[string]any{"transaction_id": "txn_live", "message_id": "m7"}, delivery["context"])
}

func TestEventsRejectsNonGet(t *testing.T) {
	d := newTestDeps(t, nil)
	rr := do(t, d, http.MethodPost, "/api/events", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestMonitorWebSocketMirrorsEvents(t *testing.T) {
	d := newTestDeps(t, nil)
	srv := serve(t, d)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/monitor/ws"
	c, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer c.Close()
	_ = c.SetReadDeadline(time.Now().Add(3 * time.Second))

	var hello map[string]any
	require.NoError(t, c.ReadJSON(&hello))
	assert.Equal(t, "connected", hello["type"])

	d.Svc.Broadcast(map[string]any{"type": "webhook", "path": "direct"})
	var ev map[string]any
	require.NoError(t, c.ReadJSON(&ev))
	assert.Equal(t, "direct", ev["path"])

	require.NoError(t, c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	require.Eventually(t, func() bool { return d.Hub.Count() == 0 }, 3*time.Second, 10*time.Millisecond)
}
