package domain

import "time"

// ResponseStatus is the status a response (and its parent request) settles to.
func ResponseStatus(errs []ProtocolMessage) Status {
	if len(errs) > 0 {
		return StatusFailed
	}
	return StatusCompleted
}

// TransactionStatusAfter advances a transaction after a response with the given action.
// Only checkout completion and cancellation move the transaction; everything else leaves it.
func TransactionStatusAfter(current Status, action Action, errs []ProtocolMessage) Status {
	switch action {
	case ActionCompleteCheckout:
		if len(errs) == 0 {
			return StatusCompleted
		}
	case ActionCancelCheckout:
		return StatusFailed
	}
	return current
}

// FindParent returns the index of the request with the given local id, or -1.
// Matching is by local id only, never by protocol message id or action.
// Responses and webhooks are never parents.
func FindParent(msgs []CorrelatedMessage, parentLocalID string) int {
	if parentLocalID == "" {
		return -1
	}
	for i := range msgs {
		if msgs[i].ID == parentLocalID {
			if msgs[i].Type != MessageRequest {
				return -1
			}
			return i
		}
	}
	return -1
}

// IsOrphanWebhook reports whether a webhook must be flagged: its transaction did not exist.
func IsOrphanWebhook(txExists bool) bool { return !txExists }

func ElapsedMillis(from, to time.Time) int64 {
	return to.Sub(from).Milliseconds()
}
