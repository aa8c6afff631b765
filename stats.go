package priopool

import (
	"sync/atomic"
	"time"
)

// Stats is a synchronous snapshot of pool state, returned by Pool.Stats().
// It coexists with the Prometheus exposition in internal/poolmetrics for
// callers that want a single cheap read without scraping an HTTP endpoint.
type Stats struct {
	ThreadCount    int           // Current worker population
	QueueLength    int           // Tasks waiting in queue
	CompletedTasks int64         // Total tasks that finished executing
	RejectedTasks  int64         // Total submissions rejected (pool closed)
	PanickedTasks  int64         // Total tasks whose closure panicked
	AverageLatency time.Duration // Mean task execution time
	Uptime         time.Duration // Time since pool construction
}

// statsCollector holds the lock-free counters backing Stats, adapted from
// the teacher's getchainlens/pkg/workerpool/stats.go collector.
type statsCollector struct {
	completedTasks atomic.Int64
	rejectedTasks  atomic.Int64
	panickedTasks  atomic.Int64
	totalLatency   atomic.Int64 // nanoseconds
	startTime      time.Time
}

func newStatsCollector() *statsCollector {
	return &statsCollector{startTime: time.Now()}
}

func (s *statsCollector) snapshot(threadCount, queueLength int) Stats {
	completed := s.completedTasks.Load()
	var avg time.Duration
	if completed > 0 {
		avg = time.Duration(s.totalLatency.Load() / completed)
	}

	return Stats{
		ThreadCount:    threadCount,
		QueueLength:    queueLength,
		CompletedTasks: completed,
		RejectedTasks:  s.rejectedTasks.Load(),
		PanickedTasks:  s.panickedTasks.Load(),
		AverageLatency: avg,
		Uptime:         time.Since(s.startTime),
	}
}

func (s *statsCollector) recordCompletion(d time.Duration, panicked bool) {
	s.completedTasks.Add(1)
	s.totalLatency.Add(int64(d))
	if panicked {
		s.panickedTasks.Add(1)
	}
}

func (s *statsCollector) recordRejection() {
	s.rejectedTasks.Add(1)
}
