package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"ucp-debugger/internal/infrastructure/live"
)

var monitorUpgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// handleMonitorWS is the WebSocket flavour of /api/events: same frames, one per text message.
func (d *Deps) handleMonitorWS(w http.ResponseWriter, r *http.Request) {
	c, err := monitorUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer c.Close()

	mb := live.NewMailbox()
	d.Hub.Attach(mb)
	defer d.Hub.Detach(mb)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		// keepalive reads to detect client close
		defer cancel()
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	write := func(data []byte) error {
		_ = c.SetWriteDeadline(time.Now().Add(5 * time.Second))
		return c.WriteMessage(websocket.TextMessage, data)
	}
	hello, _ := json.Marshal(connectedEvent())
	if err := write(hello); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-mb.Ready():
			frames, ok := mb.Drain()
			if !ok {
				return
			}
			for _, f := range frames {
				if err := write(f); err != nil {
					mb.Close()
					return
				}
			}
		}
	}
}
