package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"ucp-debugger/internal/domain"
	"ucp-debugger/internal/infrastructure/live"
)

// handleEvents streams every published change as Server-Sent Events.
// Path: /api/events
func (d *Deps) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "STREAM_UNSUPPORTED", "stream unsupported", nil)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	mb := live.NewMailbox()
	d.Hub.Attach(mb)
	defer d.Hub.Detach(mb)
	d.Logger.Debug().Str("remote", r.RemoteAddr).Int("observers", d.Hub.Count()).Msg("sse observer attached")

	hello, _ := json.Marshal(connectedEvent())
	if err := writeSSE(w, flusher, hello); err != nil {
		return
	}

	hb := time.NewTicker(d.heartbeat())
	defer hb.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-hb.C:
			if _, err := w.Write([]byte(": ping\n\n")); err != nil {
				return
			}
			flusher.Flush()
		case <-mb.Ready():
			frames, ok := mb.Drain()
			if !ok {
				return
			}
			for _, f := range frames {
				if err := writeSSE(w, flusher, f); err != nil {
					// unwritable sink: the hub drops it on the next publish
					mb.Close()
					return
				}
			}
		}
	}
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, data []byte) error {
	if _, err := w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if _, err := w.Write([]byte("\n\n")); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

func connectedEvent() map[string]any {
	return map[string]any{"type": domain.EventConnected, "timestamp": time.Now().UTC()}
}

func (d *Deps) heartbeat() time.Duration {
	if d.Cfg.SSEHeartbeatMs > 0 {
		return time.Duration(d.Cfg.SSEHeartbeatMs) * time.Millisecond
	}
	return 15 * time.Second
}
