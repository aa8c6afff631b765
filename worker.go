package priopool

import (
	"fmt"
	"time"

	"github.com/savegress/priopool/internal/obslog"
)

// worker is the Supervisor's registry entry for one worker goroutine
// (spec.md §4.2). It carries no channels of its own: all coordination
// goes through the Pool it belongs to.
type worker struct {
	id int64
}

// runWorker is the worker loop of spec.md §4.2: dequeue and execute while
// work is available; when the queue runs dry, wait for a not-empty signal
// up to cfg.Timeout. In MutableThread mode a timed-out wait retires the
// worker once the population is above MinThreads. Close sets running to
// false and broadcasts on the closed channel, which unblocks every
// waiting worker; each then re-checks the queue and only exits once it is
// both closed and drained.
func (p *Pool) runWorker(w *worker) {
	defer p.wg.Done()

	for {
		item, ok := p.queue.TryDequeue()
		if ok {
			p.metrics.QueueLength.Set(float64(p.queue.Len()))
			p.signalNotFull()
			p.execute(item)
			continue
		}

		p.mu.Lock()
		running := p.running
		timeout := p.cfg.Timeout
		if !running {
			delete(p.registry, w.id)
			p.threadCount.Add(-1)
			p.metrics.ThreadCount.Set(float64(p.threadCount.Load()))
		}
		p.mu.Unlock()
		if !running {
			return
		}

		signaled, shutdown := p.wait(p.notEmpty, timeout)
		if shutdown {
			continue
		}
		if !signaled && p.cfg.Mode == MutableThread {
			if p.tryRetire(w) {
				return
			}
		}
	}
}

// execute runs one dequeued item, recording its latency and outcome.
func (p *Pool) execute(item *queueItem) {
	start := time.Now()
	panicked, recov := item.run()
	dur := time.Since(start)

	p.stats.recordCompletion(dur, panicked)
	p.metrics.TasksCompleted.Inc()
	p.metrics.TaskDuration.Observe(dur.Seconds())

	if panicked {
		p.metrics.TasksPanicked.Inc()
		obslog.TaskPanicked(p.log, item.id, recov)
	}
	if p.sink != nil {
		p.sink.Emit(fmt.Sprintf("task %s completed in %s (panicked=%v)", item.id, dur, panicked), true)
	} else {
		// No sink injected: still emit the same completion diagnostic, at
		// debug level, to the operational logger (SPEC_FULL.md §7 item 1).
		obslog.TaskCompleted(p.log, item.id, dur, panicked)
	}
}

// spawnWorkerLocked adds a worker to the registry and starts its
// goroutine. Called with p.mu held. This is safe: the new worker first
// takes only the queue's own lock (TryDequeue) and takes p.mu only after
// that, blocking until the caller releases it.
// elastic reports whether this spawn was triggered by submit-side
// backpressure (as opposed to the initial MinThreads fill in New).
func (p *Pool) spawnWorkerLocked(elastic bool) {
	id := p.nextWorkerID
	p.nextWorkerID++
	w := &worker{id: id}
	p.registry[id] = w
	p.threadCount.Add(1)
	p.wg.Add(1)

	tc := int(p.threadCount.Load())
	p.metrics.ThreadCount.Set(float64(tc))
	obslog.WorkerSpawned(p.log, id, tc)
	if elastic {
		obslog.ScaleUp(p.log, tc, p.cfg.MaxThreads)
	}

	go p.runWorker(w)
}

// tryRetire removes w from the registry if doing so keeps the population
// at or above MinThreads. Returns false (and leaves w running) otherwise.
func (p *Pool) tryRetire(w *worker) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if int(p.threadCount.Load()) <= p.cfg.MinThreads {
		return false
	}

	delete(p.registry, w.id)
	p.threadCount.Add(-1)

	tc := int(p.threadCount.Load())
	p.metrics.ThreadCount.Set(float64(tc))
	obslog.WorkerRetired(p.log, w.id, tc)
	return true
}
