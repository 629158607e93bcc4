package domain

import "time"

type EventType string

const (
	EventConnected           EventType = "connected"
	EventTransactionCreated  EventType = "transaction_created"
	EventTransactionUpdated  EventType = "transaction_updated"
	EventMessageAdded        EventType = "message_added"
	EventMessageUpdated      EventType = "message_updated"
	EventTransactionsCleared EventType = "transactions_cleared"
	EventWebhook             EventType = "webhook"
)

// Event is one committed state change as pushed to live observers.
type Event struct {
	Type          EventType          `json:"type"`
	Timestamp     time.Time          `json:"timestamp"`
	TransactionID string             `json:"transactionId,omitempty"`
	Status        Status             `json:"status,omitempty"`
	Message       *CorrelatedMessage `json:"message,omitempty"`
	ServerURL     string             `json:"serverUrl,omitempty"`
}

// WebhookContext is the correlation context found in a webhook payload.
type WebhookContext struct {
	TransactionID string `json:"transaction_id,omitempty"`
	MessageID     string `json:"message_id,omitempty"`
	Action        string `json:"action,omitempty"`
}

// WebhookDelivery is the decorated inbound delivery broadcast to observers.
type WebhookDelivery struct {
	Type      EventType         `json:"type"`
	Path      string            `json:"path"`
	Timestamp time.Time         `json:"timestamp"`
	Headers   map[string]string `json:"headers"`
	Payload   any               `json:"payload"`
	Context   *WebhookContext   `json:"context"`
	LocalID   string            `json:"localId,omitempty"`
}
