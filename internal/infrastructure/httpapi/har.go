package httpapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"time"

	"ucp-debugger/internal/domain"
	obs "ucp-debugger/internal/infrastructure/observability"
)

// Minimal HAR 1.2 structs for export
type harLog struct {
	Version string     `json:"version"`
	Creator harName    `json:"creator"`
	Entries []harEntry `json:"entries"`
}

type harName struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type harEntry struct {
	StartedDateTime time.Time   `json:"startedDateTime"`
	Time            int64       `json:"time"`
	Request         harRequest  `json:"request"`
	Response        harResponse `json:"response"`
	Comment         string      `json:"comment,omitempty"`
}

type harHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type harRequest struct {
	Method      string      `json:"method"`
	URL         string      `json:"url"`
	Headers     []harHeader `json:"headers"`
	HeadersSize int         `json:"headersSize"`
	BodySize    int         `json:"bodySize"`
	PostData    *harContent `json:"postData,omitempty"`
}

type harResponse struct {
	Status      int         `json:"status"`
	StatusText  string      `json:"statusText"`
	Headers     []harHeader `json:"headers"`
	HeadersSize int         `json:"headersSize"`
	BodySize    int         `json:"bodySize"`
	Content     harContent  `json:"content"`
}

type harContent struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

// buildHAR pairs every request with its response. Pending requests get status 0.
func buildHAR(tx domain.Transaction) harLog {
	responses := make(map[string]domain.CorrelatedMessage)
	for _, m := range tx.Messages {
		if m.Type == domain.MessageResponse && m.ParentID != "" {
			responses[m.ParentID] = m
		}
	}
	entries := make([]harEntry, 0, len(tx.Messages))
	for _, m := range tx.Messages {
		if m.Type != domain.MessageRequest {
			continue
		}
		e := harEntry{StartedDateTime: m.Timestamp, Comment: string(m.Action) + " " + string(m.Status)}
		if m.Duration != nil {
			e.Time = *m.Duration
		}
		e.Request = harRequest{HeadersSize: -1, BodySize: -1, Headers: []harHeader{}}
		if m.HTTP != nil {
			e.Request.Method = m.HTTP.Method
			e.Request.URL = m.HTTP.URL
			e.Request.Headers = harHeaders(m.HTTP.Headers)
		}
		if text := payloadText(m.Payload); text != "" {
			e.Request.PostData = &harContent{MimeType: "application/json", Text: text}
			e.Request.BodySize = len(text)
		}
		e.Response = harResponse{HeadersSize: -1, BodySize: -1, Headers: []harHeader{}}
		if resp, ok := responses[m.ID]; ok {
			text := payloadText(resp.Payload)
			e.Response.Content = harContent{MimeType: "application/json", Text: text}
			e.Response.BodySize = len(text)
			if resp.HTTP != nil {
				e.Response.Status = resp.HTTP.Status
				e.Response.StatusText = resp.HTTP.StatusText
				e.Response.Headers = harHeaders(resp.HTTP.Headers)
			}
		}
		entries = append(entries, e)
	}
	return harLog{Version: "1.2", Creator: harName{Name: "ucp-debugger", Version: obs.Version}, Entries: entries}
}

func harHeaders(h map[string]string) []harHeader {
	out := make([]harHeader, 0, len(h))
	for k, v := range h {
		out = append(out, harHeader{Name: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func payloadText(p any) string {
	switch t := p.(type) {
	case nil:
		return ""
	case string:
		return t
	}
	b, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return string(b)
}

func exportHARForTransaction(w http.ResponseWriter, r *http.Request, d *Deps, id string) {
	tx, ok, err := d.Svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "TRANSACTION_GET_FAILED", err.Error(), map[string]any{"id": id})
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "transaction not found", map[string]any{"id": id})
		return
	}
	har := struct {
		Log harLog `json:"log"`
	}{Log: buildHAR(tx)}
	w.Header().Set("Content-Disposition", "attachment; filename=ucp_transaction_"+url.PathEscape(id)+".har")
	writeJSON(w, http.StatusOK, har)
}
