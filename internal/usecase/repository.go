package usecase

import (
	"context"
	"errors"

	"ucp-debugger/internal/domain"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// TransactionRepository is the authoritative store of transactions and their messages.
// Implementations must apply every mutation atomically.
type TransactionRepository interface {
	AddTransaction(ctx context.Context, id, serverURL string) (Change, error)
	AddRequest(ctx context.Context, in MessageInput) (Change, error)
	// AddResponse returns ErrTransactionNotFound, leaving the store untouched,
	// when the transaction is unknown.
	AddResponse(ctx context.Context, in MessageInput, parentLocalID string, errs []domain.ProtocolMessage) (Change, error)
	AddWebhook(ctx context.Context, in MessageInput) (Change, error)
	UpdateStatus(ctx context.Context, id string, status domain.Status) (Change, error)
	Clear(ctx context.Context) error

	GetTransaction(ctx context.Context, id string) (domain.Transaction, bool, error)
	ListTransactions(ctx context.Context) ([]domain.Transaction, error)
	ListMessages(ctx context.Context, transactionID string, f MessageFilter) ([]domain.CorrelatedMessage, string, error)
	GetOrphans(ctx context.Context) ([]domain.CorrelatedMessage, error)
	Stats(ctx context.Context) (Stats, error)
}

// Publisher pushes committed changes to live observers.
type Publisher interface {
	Publish(v any) error
}

// Recorder receives diagnostics from the correlation service.
type Recorder interface {
	MessageRecorded(t domain.MessageType)
	CorrelationMiss(kind string)
}

type MessageInput struct {
	TransactionID string
	MessageID     string
	Action        domain.Action
	Payload       any
	HTTP          *domain.HTTPDetails
}

// Change describes what a single mutation committed.
type Change struct {
	TransactionID string
	Created       bool
	Status        domain.Status
	StatusChanged bool
	ServerURL     string
	Message       *domain.CorrelatedMessage
	// Parent is the request completed by a response, nil when none matched.
	Parent *domain.CorrelatedMessage
}

type MessageFilter struct {
	From   string
	Limit  int
	Action domain.Action // empty: any
}

type Stats struct {
	Transactions int `json:"transactions"`
	Messages     int `json:"messages"`
	Orphans      int `json:"orphans"`
	Pending      int `json:"pendingRequests"`
}
