package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/tradedesk/tradedesk/internal/jobs"
)

type stubWarmer struct {
	calls int
	err   error
}

func (s *stubWarmer) WarmStats(context.Context) error {
	s.calls++
	return s.err
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestStatsWarmJobRunsWarmer(t *testing.T) {
	warmer := &stubWarmer{}
	job := NewStatsWarmJob(warmer, discard, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewStatsWarmTask("cron")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 1, warmer.calls)

	var payload StatsWarmPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "cron", payload.Reason)
}

func TestStatsWarmJobErrors(t *testing.T) {
	boom := errors.New("redis down")
	job := NewStatsWarmJob(&stubWarmer{err: boom}, discard, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewStatsWarmTask("cron")
	require.NoError(t, err)
	assert.ErrorIs(t, job.Handle(context.Background(), task), boom)

	bad := asynq.NewTask(TaskStatsWarm, []byte("{"))
	assert.ErrorIs(t, job.Handle(context.Background(), bad), asynq.SkipRetry)

	var nilJob *StatsWarmJob
	assert.Error(t, nilJob.Handle(context.Background(), task))
}

func TestHealthEndpoint(t *testing.T) {
	serve := func(h *Handler) *httptest.ResponseRecorder {
		r := chi.NewRouter()
		r.Route("/jobs", h.MountRoutes)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
		return rr
	}

	rr := serve(NewHandler(nil, discard))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"data":{"queue":"default","pending":0,"active":0,"failed":0}}`, rr.Body.String())

	rr = serve(NewHandler(stubInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 4, Failed: 1}}, discard))
	assert.JSONEq(t, `{"success":true,"data":{"queue":"default","pending":4,"active":0,"failed":1}}`, rr.Body.String())

	rr = serve(NewHandler(stubInspector{err: errors.New("dial tcp")}, discard))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
