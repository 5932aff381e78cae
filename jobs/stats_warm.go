package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/tradedesk/tradedesk/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// StatsWarmer recomputes and caches dashboard statistics.
type StatsWarmer interface {
	WarmStats(ctx context.Context) error
}

// StatsWarmJob keeps the dashboard statistics cache populated.
type StatsWarmJob struct {
	Stats   StatsWarmer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	Timeout time.Duration
}

// NewStatsWarmJob wires dependencies for the warm-up handler.
func NewStatsWarmJob(stats StatsWarmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *StatsWarmJob {
	return &StatsWarmJob{Stats: stats, Logger: logger, Metrics: metrics, Timeout: 30 * time.Second}
}

// Handle processes TaskStatsWarm tasks.
func (j *StatsWarmJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Stats == nil {
		return errors.New("stats warm: handler not configured")
	}
	var payload StatsWarmPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	tracker := j.metrics().Track(TaskStatsWarm)
	defer func() {
		err = tracker.End(err)
	}()

	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	logger := j.logger().With(slog.String("reason", payload.Reason))
	start := time.Now()
	if err = j.Stats.WarmStats(ctx); err != nil {
		logger.Error("warm stats", slog.Any("error", err))
		return err
	}
	logger.Info("stats warmed", slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *StatsWarmJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskStatsWarm))
	}
	return slog.Default().With(slog.String("job", TaskStatsWarm))
}

func (j *StatsWarmJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
