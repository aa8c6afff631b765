package priopool

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the pool's public API.
var (
	// ErrPoolClosed is returned by Submit (and its variants) once Close has
	// been invoked. The task is never enqueued.
	ErrPoolClosed = errors.New("priopool: pool is closed")

	// ErrConfigInvalid is returned by New and LoadPoolConfig when a
	// PoolConfig fails Validate.
	ErrConfigInvalid = errors.New("priopool: invalid pool configuration")
)

// TaskPanicError is stored in a task's result slot when its closure aborts
// abnormally. The worker that recovers the panic continues its loop; the
// error only ever surfaces through Handle.Await/TryAwait.
type TaskPanicError struct {
	TaskID string
	Recov  any
	Stack  string
}

func (e *TaskPanicError) Error() string {
	return fmt.Sprintf("priopool: task %s panicked: %v\n%s", e.TaskID, e.Recov, e.Stack)
}
