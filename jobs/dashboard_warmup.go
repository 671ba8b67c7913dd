package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/sentosa-erp/sentosa/internal/dashboard"
	jobmetrics "github.com/sentosa-erp/sentosa/internal/jobs"
)

// NewDashboardWarmupHandler returns the Asynq handler that re-primes the
// standard dashboard views. Duplicate warmups collapse on the cache layer,
// so the handler is safe to run at any frequency.
func NewDashboardWarmupHandler(logger *slog.Logger, dash *dashboard.Service, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload DashboardWarmupPayload
		if len(t.Payload()) > 0 {
			if err := json.Unmarshal(t.Payload(), &payload); err != nil {
				return asynq.SkipRetry
			}
		}
		tracker := metrics.Track("dashboard_warmup")
		err := dash.Warm(ctx)
		if err != nil {
			logger.Warn("dashboard warmup failed", slog.Any("error", err))
		}
		return tracker.End(err)
	}
}
