package browse

import "sync"

// Latest holds the result of the most recently started request. A response
// that arrives after a newer request was started is dropped, so a slow
// listing can never overwrite a fresher one.
type Latest[T any] struct {
	mu      sync.Mutex
	issued  uint64
	applied uint64
	value   T
	ok      bool
}

type Ticket uint64

// Begin marks the start of a request and returns its ticket.
func (l *Latest[T]) Begin() Ticket {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.issued++
	return Ticket(l.issued)
}

// Apply stores v if t is still the newest ticket and reports whether it did.
func (l *Latest[T]) Apply(t Ticket, v T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if uint64(t) != l.issued || uint64(t) <= l.applied {
		return false
	}
	l.applied = uint64(t)
	l.value = v
	l.ok = true
	return true
}

// Get returns the last applied value; ok is false until one was applied.
func (l *Latest[T]) Get() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value, l.ok
}
