// Package jobs runs TradeDesk background work on Asynq.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStatsWarm recomputes the dashboard statistics cache.
	TaskStatsWarm = "stats:warm"
)

// StatsWarmPayload describes why a warm-up was requested.
type StatsWarmPayload struct {
	Reason string `json:"reason"`
}

// NewStatsWarmTask constructs a stats warm-up task.
func NewStatsWarmTask(reason string) (*asynq.Task, error) {
	data, err := json.Marshal(StatsWarmPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStatsWarm, data), nil
}
