package live

import (
	"errors"
	"sync"
)

var ErrObserverClosed = errors.New("live: observer closed")

// Mailbox is an Observer backed by an unbounded queue. The transport that owns it drains
// frames on its own goroutine, so a slow transport only grows its own queue.
type Mailbox struct {
	mu     sync.Mutex
	queue  [][]byte
	closed bool
	ready  chan struct{}
}

func NewMailbox() *Mailbox {
	return &Mailbox{ready: make(chan struct{}, 1)}
}

func (m *Mailbox) Deliver(frame []byte) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrObserverClosed
	}
	m.queue = append(m.queue, frame)
	m.mu.Unlock()
	m.notify()
	return nil
}

// Ready fires when frames are queued or the mailbox closes.
func (m *Mailbox) Ready() <-chan struct{} { return m.ready }

// Drain takes every queued frame in delivery order. ok is false once the mailbox is closed;
// frames still queued at close are discarded.
func (m *Mailbox) Drain() (frames [][]byte, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, false
	}
	frames, m.queue = m.queue, nil
	return frames, true
}

// Close marks the sink unwritable. Safe to call more than once.
func (m *Mailbox) Close() {
	m.mu.Lock()
	m.closed = true
	m.queue = nil
	m.mu.Unlock()
	m.notify()
}

func (m *Mailbox) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Pending reports the number of queued frames.
func (m *Mailbox) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

func (m *Mailbox) notify() {
	select {
	case m.ready <- struct{}{}:
	default:
	}
}
