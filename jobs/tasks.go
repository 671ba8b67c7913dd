package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDashboardWarmup re-primes the dashboard cache after ledger writes.
	TaskDashboardWarmup = "dashboard:warmup"
)

// DashboardWarmupPayload carries the trigger time for tracing.
type DashboardWarmupPayload struct {
	RequestedAt time.Time `json:"requestedAt"`
}

// NewDashboardWarmupTask constructs an Asynq task.
func NewDashboardWarmupTask(payload DashboardWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardWarmup, data), nil
}
