package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"propwatch/internal/config"
)

// Orchestrator is the shape every ingestion service exposes to the worker
// layer: a sweep entrypoint taking the job payload and a single-property
// entrypoint.
type Orchestrator interface {
	Run(ctx context.Context, payload SweepPayload) error
	RunForProperty(ctx context.Context, propertyID int64) error
}

// Handlers binds each logical queue to its orchestrator. The mapping is fixed
// at startup.
type Handlers struct {
	Delta     Orchestrator
	Hazard    Orchestrator
	Valuation Orchestrator
	Condition Orchestrator
	Logger    *zap.Logger
}

// NewMux builds the static task-type registry.
func NewMux(h Handlers) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeNycDelta, sweepHandler(h.Delta))
	mux.HandleFunc(TypeHazard, sweepHandler(h.Hazard))
	mux.HandleFunc(TypeValuation, sweepHandler(h.Valuation))
	mux.HandleFunc(TypeCondition, sweepHandler(h.Condition))
	mux.HandleFunc(TypeOnDemand, h.handleOnDemand)
	return mux
}

func sweepHandler(o Orchestrator) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload SweepPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("invalid sweep payload: %v: %w", err, asynq.SkipRetry)
		}
		return o.Run(ctx, payload)
	}
}

// handleOnDemand always runs the NYC delta sync for the property and runs the
// hazard orchestrator unless the providers list excludes it.
func (h Handlers) handleOnDemand(ctx context.Context, task *asynq.Task) error {
	var payload OnDemandPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid on-demand payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.PropertyID <= 0 {
		return fmt.Errorf("on-demand job without property id: %w", asynq.SkipRetry)
	}

	if err := h.Delta.RunForProperty(ctx, payload.PropertyID); err != nil {
		return err
	}
	if payload.WantsProvider(ProviderHazard) {
		if err := h.Hazard.RunForProperty(ctx, payload.PropertyID); err != nil {
			return err
		}
	}
	return nil
}

// NewServer builds the asynq worker server. All five queues get equal weight;
// retry backoff is exponential and bounded so a flaky upstream cannot pin a
// worker.
func NewServer(redisCfg config.RedisConfig, queueCfg config.QueueConfig, logger *zap.Logger) *asynq.Server {
	return asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     redisCfg.Addr,
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		},
		asynq.Config{
			Concurrency: queueCfg.Concurrency,
			Queues: map[string]int{
				QueueNycDelta:  1,
				QueueHazard:    1,
				QueueValuation: 1,
				QueueCondition: 1,
				QueueOnDemand:  1,
			},
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				delay := 30 * time.Second << n
				if delay > 10*time.Minute {
					delay = 10 * time.Minute
				}
				return delay
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				if logger != nil {
					logger.Warn("ingestion job failed",
						zap.String("type", task.Type()),
						zap.Error(err),
					)
				}
			}),
		},
	)
}

func NewClient(redisCfg config.RedisConfig) *asynq.Client {
	return asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisCfg.Addr,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})
}
