package cronrunner

import (
	"context"

	"go.uber.org/zap"

	"propwatch/internal/config"
	"propwatch/internal/queue"
)

// RegisterIngestionSchedules wires the recurring sweeps: each entry enqueues
// an all-properties job on its own durable queue, so a slow sweep delays
// nothing but itself.
func RegisterIngestionSchedules(r *Runner, cfg config.CronConfig, enq *queue.Enqueuer, logger *zap.Logger) error {
	entries := []struct {
		name     string
		spec     string
		taskType string
		queue    string
	}{
		{"nyc-delta", cfg.NycDelta, queue.TypeNycDelta, queue.QueueNycDelta},
		{"hazard", cfg.Hazard, queue.TypeHazard, queue.QueueHazard},
		{"valuation", cfg.Valuation, queue.TypeValuation, queue.QueueValuation},
		{"condition", cfg.Condition, queue.TypeCondition, queue.QueueCondition},
	}

	for _, entry := range entries {
		entry := entry
		_, err := r.Add(entry.spec, func(ctx context.Context) {
			if err := enq.EnqueueSweep(ctx, entry.taskType, entry.queue); err != nil {
				logger.Warn("failed to enqueue scheduled sweep",
					zap.String("schedule", entry.name),
					zap.Error(err))
				return
			}
			logger.Info("scheduled sweep enqueued", zap.String("schedule", entry.name))
		})
		if err != nil {
			return err
		}
	}
	return nil
}
