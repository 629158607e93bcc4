package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"ucp-debugger/internal/domain"
	"ucp-debugger/internal/usecase"
)

// Store is the in-memory correlation store. Transactions live until Clear.
type Store struct {
	mu sync.RWMutex
	// insertion order of transaction ids
	order []string
	items map[string]*domain.Transaction

	now   func() time.Time
	newID func(prefix string) string
}

type Option func(*Store)

// WithClock overrides the time source used for message and transaction timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides local message id generation.
func WithIDGenerator(fn func(prefix string) string) Option {
	return func(s *Store) { s.newID = fn }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		order: make([]string, 0, 64),
		items: make(map[string]*domain.Transaction, 64),
		now:   time.Now,
		newID: newLocalID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newLocalID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

func (s *Store) AddTransaction(ctx context.Context, id, serverURL string) (usecase.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx, ok := s.items[id]; ok {
		return usecase.Change{TransactionID: id, Status: tx.Status, ServerURL: tx.ServerURL}, nil
	}
	tx := s.createLocked(id, serverURL)
	return usecase.Change{TransactionID: id, Created: true, Status: tx.Status, ServerURL: serverURL}, nil
}

func (s *Store) AddRequest(ctx context.Context, in usecase.MessageInput) (usecase.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, created := s.ensureLocked(in.TransactionID)
	msg := s.newMessageLocked(in, domain.MessageRequest, "req")
	msg.Status = domain.StatusPending
	return s.appendLocked(tx, msg, created), nil
}

func (s *Store) AddResponse(ctx context.Context, in usecase.MessageInput, parentLocalID string, errs []domain.ProtocolMessage) (usecase.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.items[in.TransactionID]
	if !ok {
		return usecase.Change{TransactionID: in.TransactionID}, usecase.ErrTransactionNotFound
	}
	status := domain.ResponseStatus(errs)
	msg := s.newMessageLocked(in, domain.MessageResponse, "res")
	msg.ParentID = parentLocalID
	msg.Status = status
	if len(errs) > 0 {
		msg.Errors = append([]domain.ProtocolMessage(nil), errs...)
	}

	var parent *domain.CorrelatedMessage
	if i := domain.FindParent(tx.Messages, parentLocalID); i >= 0 {
		p := &tx.Messages[i]
		p.Status = status
		d := domain.ElapsedMillis(p.Timestamp, msg.Timestamp)
		p.Duration = &d
		cp := p.Clone()
		parent = &cp
	}

	prev := tx.Status
	ch := s.appendLocked(tx, msg, false)
	ch.Parent = parent
	tx.Status = domain.TransactionStatusAfter(prev, in.Action, errs)
	ch.Status = tx.Status
	ch.StatusChanged = tx.Status != prev
	return ch, nil
}

func (s *Store) AddWebhook(ctx context.Context, in usecase.MessageInput) (usecase.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, created := s.ensureLocked(in.TransactionID)
	msg := s.newMessageLocked(in, domain.MessageWebhook, "wh")
	msg.Status = domain.StatusCompleted
	msg.IsOrphan = domain.IsOrphanWebhook(!created)
	return s.appendLocked(tx, msg, created), nil
}

func (s *Store) UpdateStatus(ctx context.Context, id string, status domain.Status) (usecase.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.items[id]
	if !ok {
		return usecase.Change{TransactionID: id}, usecase.ErrTransactionNotFound
	}
	prev := tx.Status
	tx.Status = status
	tx.UpdatedAt = s.now()
	return usecase.Change{TransactionID: id, Status: status, StatusChanged: prev != status, ServerURL: tx.ServerURL}, nil
}

// Clear drops all transactions.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]*domain.Transaction, len(s.items))
	s.order = s.order[:0]
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (domain.Transaction, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if tx, ok := s.items[id]; ok {
		return tx.Clone(), true, nil
	}
	return domain.Transaction{}, false, nil
}

// ListTransactions returns all transactions, newest first.
func (s *Store) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	s.mu.RLock()
	out := make([]domain.Transaction, 0, len(s.order))
	for _, id := range s.order {
		if tx := s.items[id]; tx != nil {
			out = append(out, tx.Clone())
		}
	}
	s.mu.RUnlock()
	// order is creation order, so a stable reverse-by-time sort keeps ties newest-inserted first
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListMessages(ctx context.Context, transactionID string, f usecase.MessageFilter) ([]domain.CorrelatedMessage, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.items[transactionID]
	if !ok {
		return nil, "", nil
	}
	msgs := tx.Messages
	if f.Action != "" {
		filtered := make([]domain.CorrelatedMessage, 0, len(msgs))
		for i := range msgs {
			if msgs[i].Action == f.Action {
				filtered = append(filtered, msgs[i])
			}
		}
		msgs = filtered
	}
	start := 0
	if f.From != "" {
		// naive linear search for the id position
		start = -1
		for i := range msgs {
			if msgs[i].ID == f.From {
				start = i + 1
				break
			}
		}
		if start < 0 {
			// stale cursor: nothing after it
			return []domain.CorrelatedMessage{}, "", nil
		}
	}
	end := start + f.Limit
	if f.Limit <= 0 || end > len(msgs) {
		end = len(msgs)
	}
	next := ""
	if end < len(msgs) {
		next = msgs[end-1].ID
	}
	out := make([]domain.CorrelatedMessage, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, msgs[i].Clone())
	}
	return out, next, nil
}

// GetOrphans collects every orphan-flagged message across all transactions.
func (s *Store) GetOrphans(ctx context.Context) ([]domain.CorrelatedMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CorrelatedMessage, 0)
	for _, id := range s.order {
		tx := s.items[id]
		if tx == nil {
			continue
		}
		for i := range tx.Messages {
			if tx.Messages[i].IsOrphan {
				out = append(out, tx.Messages[i].Clone())
			}
		}
	}
	return out, nil
}

func (s *Store) Stats(ctx context.Context) (usecase.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := usecase.Stats{Transactions: len(s.items)}
	for _, tx := range s.items {
		st.Messages += len(tx.Messages)
		for i := range tx.Messages {
			m := &tx.Messages[i]
			if m.IsOrphan {
				st.Orphans++
			}
			if m.Type == domain.MessageRequest && m.Status == domain.StatusPending {
				st.Pending++
			}
		}
	}
	return st, nil
}

func (s *Store) ensureLocked(id string) (*domain.Transaction, bool) {
	if tx, ok := s.items[id]; ok {
		return tx, false
	}
	return s.createLocked(id, ""), true
}

func (s *Store) createLocked(id, serverURL string) *domain.Transaction {
	now := s.now()
	tx := &domain.Transaction{
		ID:        id,
		Status:    domain.StatusPending,
		Messages:  make([]domain.CorrelatedMessage, 0, 8),
		ServerURL: serverURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.items[id] = tx
	s.order = append(s.order, id)
	return tx
}

func (s *Store) newMessageLocked(in usecase.MessageInput, t domain.MessageType, prefix string) domain.CorrelatedMessage {
	msg := domain.CorrelatedMessage{
		ID:            s.newID(prefix),
		TransactionID: in.TransactionID,
		MessageID:     in.MessageID,
		Type:          t,
		Action:        in.Action,
		Payload:       in.Payload,
		Timestamp:     s.now(),
	}
	if in.HTTP != nil {
		msg.HTTP = domain.CorrelatedMessage{HTTP: in.HTTP}.Clone().HTTP
	}
	return msg
}

func (s *Store) appendLocked(tx *domain.Transaction, msg domain.CorrelatedMessage, created bool) usecase.Change {
	tx.Messages = append(tx.Messages, msg)
	tx.UpdatedAt = msg.Timestamp
	cp := msg.Clone()
	return usecase.Change{
		TransactionID: tx.ID,
		Created:       created,
		Status:        tx.Status,
		ServerURL:     tx.ServerURL,
		Message:       &cp,
	}
}
