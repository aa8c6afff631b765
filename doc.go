// Package priopool provides a priority-scheduled worker pool: a bounded
// min-heap task queue ordered by caller-assigned priority, a fixed or
// elastic population of worker goroutines, and a generic completion
// handle per submission.
//
// Features:
//   - Priority-ordered dispatch via a binary min-heap
//   - Fixed or elastic worker population, scaling under backpressure and
//     retiring on idle timeout
//   - Bounded queue with submit-side backpressure
//   - Panic recovery per task, surfaced through the task's own Handle
//   - An injectable external logging sink (package logsink) and Prometheus
//     metrics exposition (internal/poolmetrics)
//
// # Basic usage
//
//	cfg := priopool.NewPoolConfig(priopool.FixedThread, 4, 4, 100, time.Second, 0)
//	pool, err := priopool.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pool.Close()
//
//	h, err := priopool.Submit(pool, func() (int, error) {
//	    return 42, nil
//	}, 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := h.Await()
//
// # Elastic sizing
//
//	cfg := priopool.NewPoolConfig(priopool.MutableThread, 1, 8, 1000, 50*time.Millisecond, 0)
//	pool, _ := priopool.New(cfg)
//
// Submissions that find the queue full block on backpressure for up to
// cfg.Timeout; repeated timeouts spawn additional workers up to
// cfg.MaxThreads. Workers that find the queue empty for cfg.Timeout
// retire down to cfg.MinThreads.
package priopool
