package priopool

import (
	"runtime/debug"

	"github.com/google/uuid"
)

// queueItem is the type-erased element the priority queue actually stores:
// a nullary closure producing no value (spec.md §9's "tagged sum/box"),
// the closure's priority, and a diagnostic id. The closure internally
// holds the caller's typed operation and writes its outcome into a
// type-specific result slot created by Submit.
type queueItem struct {
	id       string
	priority int
	// run executes the wrapped operation and reports whether its closure
	// panicked (and, if so, the recovered value) so the worker can record
	// that outcome without needing to know the operation's result type T.
	run func() (panicked bool, recov any)
}

// newQueueItem wraps a typed operation and its result slot behind a
// nullary closure, recovering any panic into a TaskPanicError stored in
// the slot rather than letting it escape the worker's goroutine.
func newQueueItem[T any](fn func() (T, error), priority int, slot *resultSlot[T]) *queueItem {
	id := uuid.NewString()
	return &queueItem{
		id:       id,
		priority: priority,
		run: func() (panicked bool, recov any) {
			defer func() {
				if r := recover(); r != nil {
					panicked = true
					recov = r
					var zero T
					slot.set(zero, &TaskPanicError{
						TaskID: id,
						Recov:  r,
						Stack:  string(debug.Stack()),
					})
				}
			}()
			v, err := fn()
			slot.set(v, err)
			return false, nil
		},
	}
}
