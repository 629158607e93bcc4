package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ucp-debugger/internal/domain"
)

const (
	MissTransaction = "transaction"
	MissParent      = "parent"
)

// CorrelationService funnels every mutation through the repository and publishes
// the committed change before the next mutation starts.
type CorrelationService struct {
	// mu spans "mutate + publish" so observers see changes in commit order.
	mu     sync.Mutex
	repo   TransactionRepository
	pub    Publisher
	logger *zerolog.Logger
	rec    Recorder
	now    func() time.Time
}

type ServiceOption func(*CorrelationService)

func WithLogger(l *zerolog.Logger) ServiceOption {
	return func(s *CorrelationService) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithRecorder(r Recorder) ServiceOption {
	return func(s *CorrelationService) { s.rec = r }
}

func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *CorrelationService) { s.now = now }
}

func NewCorrelationService(repo TransactionRepository, pub Publisher, opts ...ServiceOption) *CorrelationService {
	nop := zerolog.Nop()
	s := &CorrelationService{repo: repo, pub: pub, logger: &nop, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *CorrelationService) AddTransaction(ctx context.Context, id, serverURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, err := s.repo.AddTransaction(ctx, id, serverURL)
	if err != nil {
		return err
	}
	s.publishLocked(ch)
	return nil
}

// AddRequest records an outbound request as pending and returns its local id.
func (s *CorrelationService) AddRequest(ctx context.Context, in MessageInput) (string, error) {
	return s.append(ctx, domain.MessageRequest, func() (Change, error) {
		return s.repo.AddRequest(ctx, in)
	})
}

// AddResponse completes the request identified by parentLocalID. An unknown transaction
// is a correlation miss: nothing is recorded, a warning is logged and ErrTransactionNotFound returned.
func (s *CorrelationService) AddResponse(ctx context.Context, in MessageInput, parentLocalID string, errs []domain.ProtocolMessage) (string, error) {
	id, err := s.append(ctx, domain.MessageResponse, func() (Change, error) {
		return s.repo.AddResponse(ctx, in, parentLocalID, errs)
	})
	if errors.Is(err, ErrTransactionNotFound) {
		s.logger.Warn().
			Str("transaction", in.TransactionID).
			Str("messageId", in.MessageID).
			Str("parent", parentLocalID).
			Str("action", string(in.Action)).
			Msg("response dropped: transaction not found")
		s.miss(MissTransaction)
	}
	return id, err
}

// AddWebhook records a delivered webhook; unknown transactions are created and the message flagged orphan.
func (s *CorrelationService) AddWebhook(ctx context.Context, in MessageInput) (string, error) {
	return s.append(ctx, domain.MessageWebhook, func() (Change, error) {
		return s.repo.AddWebhook(ctx, in)
	})
}

func (s *CorrelationService) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return err
	}
	s.publishLocked(ch)
	return nil
}

func (s *CorrelationService) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.Clear(ctx); err != nil {
		return err
	}
	s.emit(domain.Event{Type: domain.EventTransactionsCleared, Timestamp: s.now().UTC()})
	return nil
}

// Broadcast publishes v without touching the store, e.g. a decorated webhook delivery.
func (s *CorrelationService) Broadcast(v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(v); err != nil {
		s.logger.Error().Err(err).Msg("broadcast failed")
	}
}

func (s *CorrelationService) Get(ctx context.Context, id string) (domain.Transaction, bool, error) {
	return s.repo.GetTransaction(ctx, id)
}

func (s *CorrelationService) List(ctx context.Context) ([]domain.Transaction, error) {
	return s.repo.ListTransactions(ctx)
}

func (s *CorrelationService) ListMessages(ctx context.Context, transactionID string, f MessageFilter) ([]domain.CorrelatedMessage, string, error) {
	return s.repo.ListMessages(ctx, transactionID, f)
}

func (s *CorrelationService) Orphans(ctx context.Context) ([]domain.CorrelatedMessage, error) {
	return s.repo.GetOrphans(ctx)
}

func (s *CorrelationService) Stats(ctx context.Context) (Stats, error) {
	return s.repo.Stats(ctx)
}

func (s *CorrelationService) append(ctx context.Context, kind domain.MessageType, fn func() (Change, error)) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, err := fn()
	if err != nil {
		return "", err
	}
	if s.rec != nil {
		s.rec.MessageRecorded(kind)
	}
	if kind == domain.MessageResponse && ch.Parent == nil && ch.Message != nil {
		s.logger.Warn().
			Str("transaction", ch.TransactionID).
			Str("parent", ch.Message.ParentID).
			Msg("response recorded without a matching request")
		s.miss(MissParent)
	}
	s.publishLocked(ch)
	if ch.Message == nil {
		return "", nil
	}
	return ch.Message.ID, nil
}

func (s *CorrelationService) publishLocked(ch Change) {
	ts := s.now().UTC()
	if ch.Created {
		s.emit(domain.Event{Type: domain.EventTransactionCreated, Timestamp: ts, TransactionID: ch.TransactionID, Status: ch.Status, ServerURL: ch.ServerURL})
	}
	if ch.Parent != nil {
		s.emit(domain.Event{Type: domain.EventMessageUpdated, Timestamp: ts, TransactionID: ch.TransactionID, Status: ch.Status, Message: ch.Parent})
	}
	if ch.Message != nil {
		s.emit(domain.Event{Type: domain.EventMessageAdded, Timestamp: ts, TransactionID: ch.TransactionID, Status: ch.Status, Message: ch.Message})
	}
	if ch.StatusChanged {
		s.emit(domain.Event{Type: domain.EventTransactionUpdated, Timestamp: ts, TransactionID: ch.TransactionID, Status: ch.Status})
	}
}

func (s *CorrelationService) emit(ev domain.Event) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(ev); err != nil {
		s.logger.Error().Err(err).Str("event", string(ev.Type)).Msg("publish failed")
	}
}

func (s *CorrelationService) miss(kind string) {
	if s.rec != nil {
		s.rec.CorrelationMiss(kind)
	}
}
