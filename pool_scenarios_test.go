package priopool

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// S1: priority ordering under a fixed, single-worker pool. Tasks submitted
// while the lone worker is busy queue up and must drain lowest-priority
// (numerically smallest) first.
func TestScenario_PriorityOrderingFixedPool(t *testing.T) {
	cfg := NewPoolConfig(FixedThread, 1, 1, 10, time.Second, 5)
	pool, err := New(cfg)
	require.NoError(t, err)
	defer pool.Close()

	block := make(chan struct{})
	_, err = Submit(pool, func() (int, error) {
		<-block
		return 0, nil
	}, 0)
	require.NoError(t, err)

	var mu sync.Mutex
	var order []int

	var handles []Handle[int]
	for _, p := range []int{5, 1, 3} {
		p := p
		h, err := Submit(pool, func() (int, error) {
			mu.Lock()
			order = append(order, p)
			mu.Unlock()
			return p, nil
		}, p)
		require.NoError(t, err)
		handles = append(handles, h)
	}

	close(block)
	for _, h := range handles {
		_, err := h.Await()
		require.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int{1, 3, 5}, order)
}

// S2: a full queue applies backpressure, blocking Submit until a slot
// frees up or the pool is closed.
func TestScenario_BackpressureBlocksSubmit(t *testing.T) {
	cfg := NewPoolConfig(FixedThread, 1, 1, 1, 30*time.Millisecond, 0)
	pool, err := New(cfg)
	require.NoError(t, err)
	defer pool.Close()

	block := make(chan struct{})
	_, err = Submit(pool, func() (int, error) {
		<-block
		return 0, nil
	})
	require.NoError(t, err)

	_, err = Submit(pool, func() (int, error) { return 1, nil })
	require.NoError(t, err)

	submitted := make(chan struct{})
	go func() {
		_, _ = Submit(pool, func() (int, error) { return 2, nil })
		close(submitted)
	}()

	select {
	case <-submitted:
		t.Fatal("submit should have blocked on a full queue")
	case <-time.After(50 * time.Millisecond):
	}

	close(block)
	select {
	case <-submitted:
	case <-time.After(time.Second):
		t.Fatal("submit never unblocked after queue space freed")
	}
}

// S3: an elastic pool scales up under sustained backpressure, up to
// MaxThreads.
func TestScenario_ElasticScaleUp(t *testing.T) {
	maxThreads := 4
	cfg := NewPoolConfig(MutableThread, 1, maxThreads, 1, 20*time.Millisecond, 0)
	pool, err := New(cfg)
	require.NoError(t, err)
	defer pool.Close()

	block := make(chan struct{})
	defer close(block)

	for i := 0; i < maxThreads+2; i++ {
		go func() {
			_, _ = Submit(pool, func() (int, error) {
				<-block
				return 0, nil
			})
		}()
	}

	require.Eventually(t, func() bool {
		return pool.ThreadCount() == maxThreads
	}, 2*time.Second, 10*time.Millisecond)
}

// S4: an elastic pool that scaled up retires idle workers back down to
// MinThreads once they sit idle past the timeout.
func TestScenario_ElasticScaleDownAfterIdle(t *testing.T) {
	cfg := NewPoolConfig(MutableThread, 1, 3, 1, 15*time.Millisecond, 0)
	pool, err := New(cfg)
	require.NoError(t, err)
	defer pool.Close()

	block := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func() {
			_, _ = Submit(pool, func() (int, error) {
				<-block
				return 0, nil
			})
		}()
	}
	require.Eventually(t, func() bool {
		return pool.ThreadCount() == 3
	}, 2*time.Second, 10*time.Millisecond)

	close(block)

	require.Eventually(t, func() bool {
		return pool.ThreadCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

// S5: Close drains every already-queued task before returning, and
// rejects submissions made afterward.
func TestScenario_GracefulCloseDrainsQueue(t *testing.T) {
	cfg := NewPoolConfig(FixedThread, 2, 2, 10, time.Second, 0)
	pool, err := New(cfg)
	require.NoError(t, err)

	var completed atomic.Int64
	var handles []Handle[int]
	for i := 0; i < 5; i++ {
		h, err := Submit(pool, func() (int, error) {
			time.Sleep(5 * time.Millisecond)
			completed.Add(1)
			return 0, nil
		})
		require.NoError(t, err)
		handles = append(handles, h)
	}

	require.NoError(t, pool.Close())
	require.Equal(t, int64(5), completed.Load())

	for _, h := range handles {
		_, err := h.Await()
		require.NoError(t, err)
	}

	_, err = Submit(pool, func() (int, error) { return 0, nil })
	require.ErrorIs(t, err, ErrPoolClosed)
}

// S6: a panicking task is isolated to its own Handle; the worker that ran
// it keeps running and the pool's thread count is unaffected.
func TestScenario_PanicIsolation(t *testing.T) {
	cfg := NewPoolConfig(FixedThread, 2, 2, 10, time.Second, 0)
	pool, err := New(cfg)
	require.NoError(t, err)
	defer pool.Close()

	before := pool.ThreadCount()

	h, err := Submit(pool, func() (int, error) {
		panic("boom")
	})
	require.NoError(t, err)

	_, err = h.Await()
	var panicErr *TaskPanicError
	require.ErrorAs(t, err, &panicErr)
	require.Equal(t, "boom", panicErr.Recov)

	h2, err := Submit(pool, func() (int, error) { return 7, nil })
	require.NoError(t, err)
	v, err := h2.Await()
	require.NoError(t, err)
	require.Equal(t, 7, v)

	require.Equal(t, before, pool.ThreadCount())

	stats := pool.Stats()
	require.Equal(t, int64(1), stats.PanickedTasks)
}

func TestScenario_StatsReflectThroughput(t *testing.T) {
	cfg := NewPoolConfig(FixedThread, 2, 2, 20, time.Second, 0)
	pool, err := New(cfg)
	require.NoError(t, err)
	defer pool.Close()

	var handles []Handle[int]
	for i := 0; i < 10; i++ {
		i := i
		h, err := Submit(pool, func() (int, error) { return i, nil })
		require.NoError(t, err)
		handles = append(handles, h)
	}
	for _, h := range handles {
		_, err := h.Await()
		require.NoError(t, err)
	}

	stats := pool.Stats()
	require.Equal(t, int64(10), stats.CompletedTasks)
}

func TestScenario_SubmitFuncConvenience(t *testing.T) {
	cfg := NewPoolConfig(FixedThread, 1, 1, 5, time.Second, 0)
	pool, err := New(cfg)
	require.NoError(t, err)
	defer pool.Close()

	var ran atomic.Bool
	h, err := SubmitFunc(pool, func() error {
		ran.Store(true)
		return nil
	})
	require.NoError(t, err)
	_, err = h.Await()
	require.NoError(t, err)
	require.True(t, ran.Load())
}

func TestScenario_RejectsAfterClose(t *testing.T) {
	cfg := NewPoolConfig(FixedThread, 1, 1, 5, time.Second, 0)
	pool, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, pool.Close())
	require.NoError(t, pool.Close())

	_, err = Submit(pool, func() (int, error) { return 0, nil })
	require.ErrorIs(t, err, ErrPoolClosed)
}

func TestScenario_SetMaxTasksAllowsShrinkBelowBacklog(t *testing.T) {
	cfg := NewPoolConfig(FixedThread, 1, 1, 10, 20*time.Millisecond, 0)
	pool, err := New(cfg)
	require.NoError(t, err)
	defer pool.Close()

	block := make(chan struct{})
	defer close(block)

	_, err = Submit(pool, func() (int, error) {
		<-block
		return 0, nil
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := Submit(pool, func() (int, error) { return 0, nil })
		require.NoError(t, err)
	}
	require.Equal(t, 3, pool.QueueLen())

	// Shrinking below the current backlog must not drop anything already
	// queued; it only tightens the cap new submissions are checked against.
	pool.SetMaxTasks(1)
	require.Equal(t, 3, pool.QueueLen())

	submitted := make(chan struct{})
	go func() {
		_, _ = Submit(pool, func() (int, error) { return 0, nil })
		close(submitted)
	}()

	select {
	case <-submitted:
		t.Fatal("submit should block once queue length already exceeds the shrunk cap")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestScenario_ConcurrentSubmitNoDeadlock(t *testing.T) {
	cfg := NewPoolConfig(MutableThread, 1, 4, 5, 10*time.Millisecond, 0)
	pool, err := New(cfg)
	require.NoError(t, err)
	defer pool.Close()

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := Submit(pool, func() (int, error) { return i, nil })
			if err != nil {
				errs <- err
				return
			}
			if _, err := h.Await(); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("unexpected error: %v", fmt.Errorf("submission failed: %w", err))
	}
}
