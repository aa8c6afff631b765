package priopool

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/savegress/priopool/internal/obslog"
	"github.com/savegress/priopool/internal/poolmetrics"
	"github.com/savegress/priopool/logsink"
)

// Pool is the Supervisor of spec.md §4: it owns the worker registry, the
// priority queue, and the two-lock coordination described in §5 (when both
// are held, the pool lock is acquired before, and released after, the
// queue's own internal lock; PriorityQueue never calls back into Pool while
// holding it, so the nesting is one-directional).
type Pool struct {
	mu      sync.Mutex
	cfg     PoolConfig
	running bool

	nextWorkerID int64
	registry     map[int64]*worker
	threadCount  atomic.Int64

	queue *PriorityQueue

	// notEmpty/notFull are buffered(1) channels standing in for the
	// not_empty/not_full condition variables of spec.md §5. A buffered
	// channel retains a pending signal even if sent before any goroutine
	// is waiting, which a sync.Cond's Signal would simply drop. Unlike
	// sync.Cond.Wait, select also composes safely with time.After, which
	// the elastic-timeout behavior of §4.2 requires (see DESIGN.md).
	// closed is closed exactly once by Close and stands in for the
	// "wake everyone" broadcast.
	notEmpty chan struct{}
	notFull  chan struct{}
	closed   chan struct{}

	wg        sync.WaitGroup
	closeOnce sync.Once

	sink    logsink.Sink
	log     *zap.Logger
	metrics *poolmetrics.Metrics
	stats   *statsCollector
}

// New constructs a Pool from cfg, validating it first, starting the
// optional logging sink, and spawning MinThreads workers.
func New(cfg PoolConfig) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pool{
		cfg:      cfg,
		running:  true,
		registry: make(map[int64]*worker, cfg.MaxThreads),
		queue:    newPriorityQueue(),
		notEmpty: make(chan struct{}, 1),
		notFull:  make(chan struct{}, 1),
		closed:   make(chan struct{}),
		sink:     cfg.Sink,
		log:      cfg.Logger,
		metrics:  poolmetrics.New(cfg.Registerer, "priopool"),
		stats:    newStatsCollector(),
	}

	if p.sink != nil {
		if err := p.sink.Start(); err != nil {
			obslog.SinkUnavailable(p.log, err)
			p.sink = nil
		}
	}

	p.mu.Lock()
	for i := 0; i < cfg.MinThreads; i++ {
		p.spawnWorkerLocked(false)
	}
	p.mu.Unlock()

	return p, nil
}

// NewPoolFromFile loads a PoolConfig from a YAML document (spec.md §6 /
// SPEC_FULL.md §7) and constructs a Pool from it.
func NewPoolFromFile(path string) (*Pool, error) {
	cfg, err := LoadPoolConfig(path)
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

// signalNotEmpty wakes one waiting worker, if any. Non-blocking: if the
// buffer already holds a pending signal, this is a no-op rather than a
// block, since one pending wake is all a single dequeue needs to satisfy.
func (p *Pool) signalNotEmpty() {
	select {
	case p.notEmpty <- struct{}{}:
	default:
	}
}

// signalNotFull wakes one submitter blocked on backpressure.
func (p *Pool) signalNotFull() {
	select {
	case p.notFull <- struct{}{}:
	default:
	}
}

// wait blocks on ch, the pool's closed channel, or a timeout, whichever
// comes first. signaled reports whether ch fired; shutdown reports
// whether the pool closed while waiting. Both are false only on a
// timeout.
func (p *Pool) wait(ch chan struct{}, timeout time.Duration) (signaled, shutdown bool) {
	select {
	case <-ch:
		return true, false
	case <-p.closed:
		return false, true
	case <-time.After(timeout):
		return false, false
	}
}

// Submit enqueues fn at the given priority (or the pool's DefaultPriority
// if omitted) and returns a Handle for its eventual result. It is a free
// function, not a method, because Go methods cannot introduce their own
// type parameters independent of the receiver's (spec.md §4.4).
//
// Implements the nine steps of spec.md §4.3: reject if closed; while the
// queue is at MaxTasks, block on backpressure up to cfg.Timeout and, on
// each timeout, spawn an additional worker if MutableThread mode has
// room; once space exists, enqueue and signal not_empty.
func Submit[T any](p *Pool, fn func() (T, error), priority ...int) (Handle[T], error) {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		p.stats.recordRejection()
		p.metrics.TasksRejected.Inc()
		return Handle[T]{}, ErrPoolClosed
	}
	prio := p.cfg.DefaultPriority
	if len(priority) > 0 {
		prio = priority[0]
	}
	maxTasks := p.cfg.MaxTasks
	timeout := p.cfg.Timeout
	mode := p.cfg.Mode
	p.mu.Unlock()

	slot := newResultSlot[T]()
	item := newQueueItem(fn, prio, slot)

	for {
		p.mu.Lock()
		if !p.running {
			p.mu.Unlock()
			p.stats.recordRejection()
			p.metrics.TasksRejected.Inc()
			return Handle[T]{}, ErrPoolClosed
		}
		if p.queue.Len() < maxTasks {
			p.queue.Enqueue(item)
			p.metrics.QueueLength.Set(float64(p.queue.Len()))
			p.mu.Unlock()
			p.signalNotEmpty()
			return Handle[T]{slot: slot}, nil
		}
		p.mu.Unlock()

		signaled, shutdown := p.wait(p.notFull, timeout)
		if shutdown {
			p.stats.recordRejection()
			p.metrics.TasksRejected.Inc()
			return Handle[T]{}, ErrPoolClosed
		}
		if !signaled && mode == MutableThread {
			p.mu.Lock()
			if int(p.threadCount.Load()) < p.cfg.MaxThreads {
				p.spawnWorkerLocked(true)
			}
			p.mu.Unlock()
		}
	}
}

// SubmitFunc is a convenience wrapper over Submit for operations with no
// useful return value.
func SubmitFunc(p *Pool, fn func() error, priority ...int) (Handle[struct{}], error) {
	return Submit(p, func() (struct{}, error) {
		return struct{}{}, fn()
	}, priority...)
}

// Close stops accepting submissions, wakes every worker so each can drain
// the remaining queue and exit, waits for them to finish, and stops the
// logging sink. It is idempotent.
func (p *Pool) Close() error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.running = false
		queued := p.queue.Len()
		p.mu.Unlock()

		obslog.PoolClosing(p.log, queued)
		close(p.closed)
		p.wg.Wait()

		if p.sink != nil {
			p.sink.Stop()
		}
		obslog.PoolClosed(p.log)
	})
	return nil
}

// ThreadCount returns the current worker population.
func (p *Pool) ThreadCount() int {
	return int(p.threadCount.Load())
}

// QueueLen returns the current number of queued, not-yet-executing tasks.
func (p *Pool) QueueLen() int {
	return p.queue.Len()
}

// SetMaxTasks changes the queue's capacity at runtime. Shrinking below
// the current queue length is allowed (spec.md §9 Open Question): it
// only blocks further submissions until the backlog drains under the new
// cap, it never drops already-queued tasks.
func (p *Pool) SetMaxTasks(n int) {
	p.mu.Lock()
	p.cfg.MaxTasks = n
	p.mu.Unlock()
}

// SetTimeout changes the backpressure/idle timeout used by future waits.
func (p *Pool) SetTimeout(d time.Duration) {
	p.mu.Lock()
	p.cfg.Timeout = d
	p.mu.Unlock()
}

// SetDefaultPriority changes the priority used by Submit calls that omit
// an explicit priority.
func (p *Pool) SetDefaultPriority(priority int) {
	p.mu.Lock()
	p.cfg.DefaultPriority = priority
	p.mu.Unlock()
}

// Stats returns a synchronous snapshot of pool counters.
func (p *Pool) Stats() Stats {
	return p.stats.snapshot(p.ThreadCount(), p.queue.Len())
}

// MetricsHandler returns an http.Handler serving this pool's Prometheus
// metrics. It falls back to prometheus.DefaultGatherer when the
// configured Registerer is not itself a Gatherer (PoolConfig.Registerer
// is typed narrowly so callers can pass any custom registry, but
// exposition needs the wider Gatherer interface).
func (p *Pool) MetricsHandler() http.Handler {
	if g, ok := p.cfg.Registerer.(prometheus.Gatherer); ok {
		return poolmetrics.Handler(g)
	}
	return poolmetrics.Handler(prometheus.DefaultGatherer)
}
