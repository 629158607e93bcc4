package domain

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted || s == StatusFailed
}

type MessageType string

const (
	MessageRequest  MessageType = "request"
	MessageResponse MessageType = "response"
	MessageWebhook  MessageType = "webhook"
)

// Transaction is the timeline of one protocol exchange, keyed by the remote-assigned id.
// Messages are kept in arrival order.
type Transaction struct {
	ID        string              `json:"id"`
	Status    Status              `json:"status"`
	Messages  []CorrelatedMessage `json:"messages"`
	ServerURL string              `json:"serverUrl,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// CorrelatedMessage is one observed request, response or webhook.
// ID is generated locally; MessageID is the counterparty's correlation id.
type CorrelatedMessage struct {
	ID            string            `json:"id"`
	TransactionID string            `json:"transactionId"`
	MessageID     string            `json:"messageId"`
	Type          MessageType       `json:"type"`
	Action        Action            `json:"action"`
	Payload       any               `json:"payload"`
	ParentID      string            `json:"parentId,omitempty"`
	IsOrphan      bool              `json:"isOrphan,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
	Duration      *int64            `json:"duration,omitempty"` // ms, parent request only
	Status        Status            `json:"status"`
	Errors        []ProtocolMessage `json:"errors,omitempty"`
	HTTP          *HTTPDetails      `json:"http,omitempty"`
}

// ProtocolMessage is an error/warning/info entry from a UCP response body.
type ProtocolMessage struct {
	Type     string `json:"type"`
	Code     string `json:"code"`
	Path     string `json:"path,omitempty"`
	Content  string `json:"content"`
	Severity string `json:"severity,omitempty"`
}

// HTTPDetails captures the HTTP exchange behind a request or response message.
type HTTPDetails struct {
	Method     string            `json:"method,omitempty"`
	URL        string            `json:"url,omitempty"`
	Status     int               `json:"status,omitempty"`
	StatusText string            `json:"statusText,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
}

// Clone returns a copy whose message slice can be handed to readers.
func (t Transaction) Clone() Transaction {
	out := t
	out.Messages = make([]CorrelatedMessage, len(t.Messages))
	for i := range t.Messages {
		out.Messages[i] = t.Messages[i].Clone()
	}
	return out
}

// Clone copies the mutable parts of the message. Payload is shared; it is never mutated after append.
func (m CorrelatedMessage) Clone() CorrelatedMessage {
	out := m
	if m.Duration != nil {
		d := *m.Duration
		out.Duration = &d
	}
	if m.Errors != nil {
		out.Errors = append([]ProtocolMessage(nil), m.Errors...)
	}
	if m.HTTP != nil {
		h := *m.HTTP
		if m.HTTP.Headers != nil {
			h.Headers = make(map[string]string, len(m.HTTP.Headers))
			for k, v := range m.HTTP.Headers {
				h.Headers[k] = v
			}
		}
		out.HTTP = &h
	}
	return out
}
