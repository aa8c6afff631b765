// Package obslog provides the Supervisor's and Worker's operational
// diagnostic logger (distinct from the spec's external "Logging Sink"
// collaborator in package logsink). It is grounded in
// aipilotbyjd-linkflow-ai/internal/platform/logger/logger.go's zap wrapper
// (see DESIGN.md).
package obslog

import (
	"time"

	"go.uber.org/zap"
)

// WorkerSpawned logs a worker joining the registry.
func WorkerSpawned(log *zap.Logger, id int64, threadCount int) {
	log.Debug("worker spawned", zap.Int64("worker_id", id), zap.Int("thread_count", threadCount))
}

// WorkerRetired logs a worker removing itself from the registry under
// elastic idle timeout.
func WorkerRetired(log *zap.Logger, id int64, threadCount int) {
	log.Debug("worker retired", zap.Int64("worker_id", id), zap.Int("thread_count", threadCount))
}

// ScaleUp logs an elastic spawn triggered by submit-side backpressure.
func ScaleUp(log *zap.Logger, threadCount, maxThreads int) {
	log.Info("elastic scale-up", zap.Int("thread_count", threadCount), zap.Int("max_threads", maxThreads))
}

// TaskPanicked logs a recovered task panic.
func TaskPanicked(log *zap.Logger, taskID string, recov any) {
	log.Warn("task panicked", zap.String("task_id", taskID), zap.Any("recovered", recov))
}

// TaskCompleted logs a routine task completion at debug level. The worker
// calls it only when no logsink.Sink was injected, so that completions are
// still reported when there is no sink to emit them to.
func TaskCompleted(log *zap.Logger, taskID string, duration time.Duration, panicked bool) {
	log.Debug("task completed",
		zap.String("task_id", taskID),
		zap.Duration("duration", duration),
		zap.Bool("panicked", panicked),
	)
}

// SinkUnavailable logs a failure to start the optional logging sink. Per
// spec.md §7 this is not a returned error: the pool continues without
// logging.
func SinkUnavailable(log *zap.Logger, err error) {
	log.Error("logging sink unavailable, continuing without it", zap.Error(err))
}

// PoolClosing logs Close being invoked.
func PoolClosing(log *zap.Logger, queued int) {
	log.Info("pool closing, draining queue", zap.Int("queued_tasks", queued))
}

// PoolClosed logs Close completing.
func PoolClosed(log *zap.Logger) {
	log.Info("pool closed")
}
