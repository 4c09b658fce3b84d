package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Enqueuer wraps the asynq client with the task options shared by all
// ingestion jobs. Retry policy is explicit rather than inherited from library
// defaults: maxRetry attempts with the server's exponential backoff.
type Enqueuer struct {
	client   *asynq.Client
	maxRetry int
}

func NewEnqueuer(client *asynq.Client, maxRetry int) *Enqueuer {
	if maxRetry <= 0 {
		maxRetry = 3
	}
	return &Enqueuer{client: client, maxRetry: maxRetry}
}

// EnqueueSweep queues an all-properties sweep on the queue belonging to
// taskType.
func (e *Enqueuer) EnqueueSweep(ctx context.Context, taskType, queueName string) error {
	return e.enqueue(ctx, taskType, queueName, SweepPayload{AllProperties: true})
}

// EnqueueProperty queues a single-property sweep job.
func (e *Enqueuer) EnqueueProperty(ctx context.Context, taskType, queueName string, propertyID int64) error {
	return e.enqueue(ctx, taskType, queueName, SweepPayload{PropertyID: propertyID})
}

// EnqueueOnDemand queues a user-triggered refresh for one property.
func (e *Enqueuer) EnqueueOnDemand(ctx context.Context, propertyID int64, providers []string) error {
	return e.enqueue(ctx, TypeOnDemand, QueueOnDemand, OnDemandPayload{
		PropertyID: propertyID,
		Providers:  providers,
	})
}

func (e *Enqueuer) enqueue(ctx context.Context, taskType, queueName string, payload any) error {
	if e == nil || e.client == nil {
		return fmt.Errorf("enqueuer is not initialized")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	task := asynq.NewTask(taskType, body)
	_, err = e.client.EnqueueContext(ctx, task,
		asynq.Queue(queueName),
		asynq.MaxRetry(e.maxRetry),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", taskType, err)
	}
	return nil
}
