// Package mailbox is a single-slot, latest-wins handoff between goroutines.
package mailbox

import (
	"context"
	"sync"
)

// Mailbox holds at most one pending value. It is not a queue: Put replaces
// whatever is waiting, so a slow reader only ever sees the newest value.
type Mailbox[T any] struct {
	mu     sync.Mutex
	val    *T
	notify chan struct{}
}

func New[T any]() *Mailbox[T] {
	return &Mailbox[T]{notify: make(chan struct{}, 1)}
}

// Put stores v, replacing any pending value. It never blocks.
func (m *Mailbox[T]) Put(v T) {
	m.mu.Lock()
	m.val = &v
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// TryTake returns and clears the pending value, if any. It never blocks.
func (m *Mailbox[T]) TryTake() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	if m.val == nil {
		return zero, false
	}
	v := *m.val
	m.val = nil
	return v, true
}

// Take blocks until a value is available or ctx is done.
func (m *Mailbox[T]) Take(ctx context.Context) (T, error) {
	for {
		if v, ok := m.TryTake(); ok {
			return v, nil
		}
		select {
		case <-m.notify:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Notify fires after a Put. A receive does not consume the value; follow it
// with TryTake.
func (m *Mailbox[T]) Notify() <-chan struct{} { return m.notify }

// Pending reports whether a value is waiting.
func (m *Mailbox[T]) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.val != nil
}
