// Package worker implements the background rate refresh on top of Asynq.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"fxchain/internal/rates"
)

// TaskTypeRefreshRates is the Asynq task type of a rate refresh.
const TaskTypeRefreshRates = "rates:refresh"

// RefreshPayload is the payload of a refresh task.
type RefreshPayload struct {
	RequestedAt time.Time `json:"requested_at"`
	Trigger     string    `json:"trigger"`
}

// Refresher performs one refresh pass.
type Refresher interface {
	Refresh(ctx context.Context) (*rates.Result, error)
}

// NewRefreshHandler returns a function to handle refresh tasks.
func NewRefreshHandler(svc Refresher, logger *zap.SugaredLogger) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload RefreshPayload
		if len(t.Payload()) > 0 {
			if err := json.Unmarshal(t.Payload(), &payload); err != nil {
				logger.Errorw("Invalid task payload", "type", t.Type(), "error", err)
				return fmt.Errorf("decode refresh payload: %w", asynq.SkipRetry)
			}
		}

		res, err := svc.Refresh(ctx)
		if err != nil {
			logger.Errorw("Rate refresh failed", "trigger", payload.Trigger, "error", err)
			return err
		}

		logger.Infow("Rate refresh completed",
			"trigger", payload.Trigger,
			"requested_at", payload.RequestedAt,
			"complete", res.Complete,
			"rates", len(res.Rates),
		)
		return nil
	}
}

// NewRefreshTask builds a refresh task tagged with trigger.
func NewRefreshTask(trigger string, maxRetry int, timeout time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(RefreshPayload{RequestedAt: time.Now().UTC(), Trigger: trigger})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeRefreshRates, data,
		asynq.MaxRetry(maxRetry),
		asynq.Timeout(timeout),
	), nil
}

// AsynqEnqueuer is responsible for enqueuing tasks to an Asynq queue with specific configurations for retries and timeouts.
type AsynqEnqueuer struct {
	client   *asynq.Client
	maxRetry int
	timeout  time.Duration
}

// NewAsynqEnqueuer creates a new AsynqEnqueuer with the given client, retry limit, and task timeout duration.
func NewAsynqEnqueuer(client *asynq.Client, maxRetry int, timeout time.Duration) *AsynqEnqueuer {
	return &AsynqEnqueuer{
		client:   client,
		maxRetry: maxRetry,
		timeout:  timeout,
	}
}

// EnqueueRefresh enqueues an on-demand refresh and returns the task ID.
func (e *AsynqEnqueuer) EnqueueRefresh(ctx context.Context) (string, error) {
	task, err := NewRefreshTask("api", e.maxRetry, e.timeout)
	if err != nil {
		return "", err
	}

	info, err := e.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

// RegisterRefreshSchedule registers the periodic refresh on scheduler.
func RegisterRefreshSchedule(scheduler *asynq.Scheduler, cronSpec string, maxRetry int, timeout time.Duration) (string, error) {
	task, err := NewRefreshTask("schedule", maxRetry, timeout)
	if err != nil {
		return "", err
	}
	entryID, err := scheduler.Register(cronSpec, task)
	if err != nil {
		return "", fmt.Errorf("register refresh schedule %q: %w", cronSpec, err)
	}
	return entryID, nil
}
