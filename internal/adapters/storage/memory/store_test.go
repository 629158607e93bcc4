package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ucp-debugger/internal/domain"
	"ucp-debugger/internal/usecase"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore() (*Store, *fakeClock) {
	clk := &fakeClock{t: time.Date(2026, 1, 11, 10, 0, 0, 0, time.UTC)}
	return NewStore(WithClock(clk.Now)), clk
}

func in(tx, msg string, a domain.Action, payload any) usecase.MessageInput {
	return usecase.MessageInput{TransactionID: tx, MessageID: msg, Action: a, Payload: payload}
}

func TestRequestResponseCompletesParent(t *testing.T) {
	ctx := context.Background()
	s, clk := newTestStore()

	_, err := s.AddTransaction(ctx, "txn_1", "http://merchant.test")
	require.NoError(t, err)
	reqCh, err := s.AddRequest(ctx, in("txn_1", "m1", domain.ActionCreateCheckout, map[string]any{"line_items": []any{}}))
	require.NoError(t, err)
	reqID := reqCh.Message.ID
	assert.Equal(t, domain.StatusPending, reqCh.Message.Status)

	clk.Advance(120 * time.Millisecond)
	resCh, err := s.AddResponse(ctx, in("txn_1", "m1", domain.ActionCreateCheckout, map[string]any{"ok": true}), reqID, nil)
	require.NoError(t, err)
	require.NotNil(t, resCh.Parent)

	tx, ok, _ := s.GetTransaction(ctx, "txn_1")
	require.True(t, ok)
	require.Len(t, tx.Messages, 2)
	req, res := tx.Messages[0], tx.Messages[1]
	assert.Equal(t, domain.StatusCompleted, req.Status)
	require.NotNil(t, req.Duration)
	assert.EqualValues(t, 120, *req.Duration)
	assert.Equal(t, domain.MessageResponse, res.Type)
	assert.Equal(t, domain.StatusCompleted, res.Status)
	assert.Equal(t, reqID, res.ParentID)
	assert.Nil(t, res.Duration)
	assert.Equal(t, "http://merchant.test", tx.ServerURL)
	assert.Equal(t, domain.StatusPending, tx.Status)
	assert.Equal(t, res.Timestamp, tx.UpdatedAt)
}

func TestResponseWithErrorsFailsBoth(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()
	reqCh, _ := s.AddRequest(ctx, in("txn_e", "m1", domain.ActionUpdateCheckout, nil))
	errs := []domain.ProtocolMessage{{Type: "error", Code: "invalid_address", Content: "bad zip"}}

	_, err := s.AddResponse(ctx, in("txn_e", "m1", domain.ActionUpdateCheckout, nil), reqCh.Message.ID, errs)
	require.NoError(t, err)

	tx, _, _ := s.GetTransaction(ctx, "txn_e")
	assert.Equal(t, domain.StatusFailed, tx.Messages[0].Status)
	assert.Equal(t, domain.StatusFailed, tx.Messages[1].Status)
	assert.Equal(t, errs, tx.Messages[1].Errors)
	// update_checkout does not move the transaction
	assert.Equal(t, domain.StatusPending, tx.Status)
}

func TestTransactionStatusFollowsCompletionAndCancel(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	r1, _ := s.AddRequest(ctx, in("txn_c", "m1", domain.ActionCompleteCheckout, nil))
	ch, err := s.AddResponse(ctx, in("txn_c", "m1", domain.ActionCompleteCheckout, nil), r1.Message.ID, nil)
	require.NoError(t, err)
	assert.True(t, ch.StatusChanged)
	assert.Equal(t, domain.StatusCompleted, ch.Status)

	r2, _ := s.AddRequest(ctx, in("txn_x", "m1", domain.ActionCancelCheckout, nil))
	ch, err = s.AddResponse(ctx, in("txn_x", "m1", domain.ActionCancelCheckout, nil), r2.Message.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, ch.Status)

	// completion with errors leaves the transaction pending
	r3, _ := s.AddRequest(ctx, in("txn_f", "m1", domain.ActionCompleteCheckout, nil))
	ch, _ = s.AddResponse(ctx, in("txn_f", "m1", domain.ActionCompleteCheckout, nil), r3.Message.ID,
		[]domain.ProtocolMessage{{Type: "error", Code: "payment_declined"}})
	assert.False(t, ch.StatusChanged)
	assert.Equal(t, domain.StatusPending, ch.Status)
}

func TestResponseForUnknownTransactionIsDropped(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	_, err := s.AddResponse(ctx, in("txn_missing", "m9", domain.ActionGetCheckout, map[string]any{}), "req_x", nil)
	require.ErrorIs(t, err, usecase.ErrTransactionNotFound)

	_, ok, _ := s.GetTransaction(ctx, "txn_missing")
	assert.False(t, ok)
	st, _ := s.Stats(ctx)
	assert.Equal(t, usecase.Stats{}, st)
}

func TestOnlyNamedParentCompletes(t *testing.T) {
	ctx := context.Background()
	s, clk := newTestStore()
	a, _ := s.AddRequest(ctx, in("txn_p", "same", domain.ActionGetCheckout, nil))
	b, _ := s.AddRequest(ctx, in("txn_p", "same", domain.ActionGetCheckout, nil))
	clk.Advance(5 * time.Millisecond)

	_, err := s.AddResponse(ctx, in("txn_p", "same", domain.ActionGetCheckout, nil), b.Message.ID, nil)
	require.NoError(t, err)

	tx, _, _ := s.GetTransaction(ctx, "txn_p")
	assert.Equal(t, a.Message.ID, tx.Messages[0].ID)
	assert.Equal(t, domain.StatusPending, tx.Messages[0].Status)
	assert.Nil(t, tx.Messages[0].Duration)
	assert.Equal(t, domain.StatusCompleted, tx.Messages[1].Status)
}

func TestResponseWithUnknownParentStillAppended(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()
	_, _ = s.AddTransaction(ctx, "txn_u", "")
	ch, err := s.AddResponse(ctx, in("txn_u", "m1", domain.ActionGetCart, nil), "req_gone", nil)
	require.NoError(t, err)
	assert.Nil(t, ch.Parent)
	tx, _, _ := s.GetTransaction(ctx, "txn_u")
	require.Len(t, tx.Messages, 1)
	assert.Equal(t, "req_gone", tx.Messages[0].ParentID)
}

func TestWebhookOnUnknownTransactionIsOrphan(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	ch, err := s.AddWebhook(ctx, in("txn_2", "w1", domain.ActionGetOrder, map[string]any{"status": "shipped"}))
	require.NoError(t, err)
	assert.True(t, ch.Created)

	tx, ok, _ := s.GetTransaction(ctx, "txn_2")
	require.True(t, ok)
	require.Len(t, tx.Messages, 1)
	assert.True(t, tx.Messages[0].IsOrphan)
	assert.Equal(t, domain.StatusCompleted, tx.Messages[0].Status)
	assert.Equal(t, domain.StatusPending, tx.Status)

	// second webhook for the now-known transaction is not re-flagged
	ch, _ = s.AddWebhook(ctx, in("txn_2", "w2", domain.ActionGetOrder, nil))
	assert.False(t, ch.Created)
	assert.False(t, ch.Message.IsOrphan)

	txs, _ := s.ListTransactions(ctx)
	assert.Len(t, txs, 1)
}

func TestWebhookAfterRequestIsNotOrphan(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()
	_, _ = s.AddRequest(ctx, in("txn_3", "m1", domain.ActionCreateCheckout, nil))
	ch, _ := s.AddWebhook(ctx, in("txn_3", "w1", domain.ActionWebhook, nil))
	assert.False(t, ch.Message.IsOrphan)
}

func TestGetOrphansAcrossTransactions(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()
	want := map[string]bool{}
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("txn_%d", i)
		if i%3 == 0 {
			_, _ = s.AddTransaction(ctx, id, "")
		}
		ch, _ := s.AddWebhook(ctx, in(id, "w", domain.ActionWebhook, nil))
		if ch.Message.IsOrphan {
			want[ch.Message.ID] = true
		}
		_, _ = s.AddWebhook(ctx, in(id, "w2", domain.ActionWebhook, nil))
	}

	orphans, err := s.GetOrphans(ctx)
	require.NoError(t, err)
	got := map[string]bool{}
	for _, m := range orphans {
		assert.True(t, m.IsOrphan)
		got[m.ID] = true
	}
	assert.Equal(t, want, got)
	assert.Len(t, orphans, 13)
	st, _ := s.Stats(ctx)
	assert.Equal(t, 13, st.Orphans)
}

func TestAddTransactionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()
	ch, _ := s.AddTransaction(ctx, "txn_1", "http://a")
	assert.True(t, ch.Created)
	ch, _ = s.AddTransaction(ctx, "txn_1", "http://b")
	assert.False(t, ch.Created)
	tx, _, _ := s.GetTransaction(ctx, "txn_1")
	assert.Equal(t, "http://a", tx.ServerURL)
	assert.Empty(t, tx.Messages)
}

func TestViewsAreCopies(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()
	r, _ := s.AddRequest(ctx, in("txn_v", "m1", domain.ActionDiscover, nil))
	tx, _, _ := s.GetTransaction(ctx, "txn_v")
	tx.Messages[0].Status = domain.StatusFailed
	tx.Messages = append(tx.Messages, domain.CorrelatedMessage{ID: "bogus"})

	again, _, _ := s.GetTransaction(ctx, "txn_v")
	require.Len(t, again.Messages, 1)
	assert.Equal(t, r.Message.ID, again.Messages[0].ID)
	assert.Equal(t, domain.StatusPending, again.Messages[0].Status)
}

func TestListTransactionsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s, clk := newTestStore()
	for _, id := range []string{"a", "b", "c"} {
		_, _ = s.AddTransaction(ctx, id, "")
		clk.Advance(time.Second)
	}
	txs, _ := s.ListTransactions(ctx)
	require.Len(t, txs, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{txs[0].ID, txs[1].ID, txs[2].ID})
}

func TestListMessagesCursorAndFilter(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()
	var ids []string
	for i := 0; i < 5; i++ {
		a := domain.ActionGetCheckout
		if i%2 == 1 {
			a = domain.ActionUpdateCheckout
		}
		ch, _ := s.AddRequest(ctx, in("txn_l", "m", a, nil))
		ids = append(ids, ch.Message.ID)
	}

	page, next, err := s.ListMessages(ctx, "txn_l", usecase.MessageFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{ids[0], ids[1]}, []string{page[0].ID, page[1].ID})
	assert.Equal(t, ids[1], next)

	page, next, _ = s.ListMessages(ctx, "txn_l", usecase.MessageFilter{From: next, Limit: 10})
	assert.Len(t, page, 3)
	assert.Empty(t, next)

	page, _, _ = s.ListMessages(ctx, "txn_l", usecase.MessageFilter{Action: domain.ActionUpdateCheckout})
	assert.Len(t, page, 2)

	page, next, _ = s.ListMessages(ctx, "nope", usecase.MessageFilter{})
	assert.Nil(t, page)
	assert.Empty(t, next)
}

func TestClearDropsEverything(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()
	_, _ = s.AddWebhook(ctx, in("t1", "w", domain.ActionWebhook, nil))
	_, _ = s.AddRequest(ctx, in("t2", "m", domain.ActionDiscover, nil))
	require.NoError(t, s.Clear(ctx))
	txs, _ := s.ListTransactions(ctx)
	assert.Empty(t, txs)
	orphans, _ := s.GetOrphans(ctx)
	assert.Empty(t, orphans)

	// ids recreated after clear count as new again
	ch, _ := s.AddWebhook(ctx, in("t1", "w", domain.ActionWebhook, nil))
	assert.True(t, ch.Message.IsOrphan)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()
	_, err := s.UpdateStatus(ctx, "none", domain.StatusFailed)
	require.ErrorIs(t, err, usecase.ErrTransactionNotFound)

	_, _ = s.AddTransaction(ctx, "t", "")
	ch, err := s.UpdateStatus(ctx, "t", domain.StatusFailed)
	require.NoError(t, err)
	assert.True(t, ch.StatusChanged)
	tx, _, _ := s.GetTransaction(ctx, "t")
	assert.Equal(t, domain.StatusFailed, tx.Status)
}

func TestLocalIDsAreUniqueAndPrefixed(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seen := map[string]bool{}
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, _ := s.AddRequest(ctx, in("txn", "m", domain.ActionGetCart, nil))
			w, _ := s.AddWebhook(ctx, in("txn", "w", domain.ActionWebhook, nil))
			mu.Lock()
			seen[r.Message.ID] = true
			seen[w.Message.ID] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 100)
	for id := range seen {
		assert.Regexp(t, `^(req|wh)_`, id)
	}
	st, _ := s.Stats(ctx)
	assert.Equal(t, 100, st.Messages)
	assert.Equal(t, 50, st.Pending)
}

func TestResponseNeverCompletesWebhookOrResponse(t *testing.T) {
	ctx := context.Background()
	s, clk := newTestStore()
	wh, _ := s.AddWebhook(ctx, in("t", "w1", domain.ActionWebhook, nil))
	req, _ := s.AddRequest(ctx, in("t", "m1", domain.ActionGetCart, nil))
	res, _ := s.AddResponse(ctx, in("t", "m1", domain.ActionGetCart, nil), req.Message.ID, nil)
	clk.Advance(50 * time.Millisecond)

	errs := []domain.ProtocolMessage{{Type: "error", Code: "x"}}
	ch, err := s.AddResponse(ctx, in("t", "m2", domain.ActionGetCart, nil), wh.Message.ID, errs)
	require.NoError(t, err)
	assert.Nil(t, ch.Parent)
	ch, err = s.AddResponse(ctx, in("t", "m3", domain.ActionGetCart, nil), res.Message.ID, errs)
	require.NoError(t, err)
	assert.Nil(t, ch.Parent)

	tx, _, _ := s.GetTransaction(ctx, "t")
	require.Len(t, tx.Messages, 5)
	webhook, firstRes := tx.Messages[0], tx.Messages[2]
	assert.Equal(t, domain.StatusCompleted, webhook.Status)
	assert.Nil(t, webhook.Duration)
	assert.Equal(t, domain.StatusCompleted, firstRes.Status)
	assert.Nil(t, firstRes.Duration)
	assert.Equal(t, domain.StatusFailed, tx.Messages[3].Status)
	assert.Equal(t, wh.Message.ID, tx.Messages[3].ParentID)
}

func TestListMessagesStaleCursorIsEmpty(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()
	_, _ = s.AddRequest(ctx, in("t", "m", domain.ActionDiscover, nil))
	_, _ = s.AddRequest(ctx, in("t", "m", domain.ActionDiscover, nil))

	page, next, err := s.ListMessages(ctx, "t", usecase.MessageFilter{From: "req_gone", Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page)
	assert.NotNil(t, page)
	assert.Empty(t, next)
}
