package priopool

import "sync"

// resultSlot is the single-assignment cell described in spec.md §3: a
// task writes it exactly once, a Handle reads it at most once. Backed by
// a close-once channel rather than a condition variable, the idiomatic
// Go rendering of a single-producer/single-consumer rendezvous.
type resultSlot[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

func newResultSlot[T any]() *resultSlot[T] {
	return &resultSlot[T]{done: make(chan struct{})}
}

// set resolves the slot. Only the first call has any effect, matching
// spec.md invariant 5 ("exactly one resolution").
func (s *resultSlot[T]) set(v T, err error) {
	s.once.Do(func() {
		s.value = v
		s.err = err
		close(s.done)
	})
}

// Handle is the caller-side future returned by Submit (spec.md §4.4). It
// is moveable but not clonable: nothing enforces single-consumer at the
// type level (Go has no move-only types), but only one goroutine is
// expected to call Await/TryAwait per the spec's contract.
type Handle[T any] struct {
	slot *resultSlot[T]
}

// Await blocks until the task's result slot is filled, then returns the
// typed result or the captured failure (including a *TaskPanicError if
// the task's closure aborted abnormally).
func (h Handle[T]) Await() (T, error) {
	<-h.slot.done
	return h.slot.value, h.slot.err
}

// TryAwait returns immediately: the result (or captured failure) and true
// if the slot is already filled, or the zero value and false otherwise.
func (h Handle[T]) TryAwait() (T, error, bool) {
	select {
	case <-h.slot.done:
		return h.slot.value, h.slot.err, true
	default:
		var zero T
		return zero, nil, false
	}
}
