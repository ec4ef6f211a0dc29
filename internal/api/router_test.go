package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/storagelimits/internal/api/handlers"
	"github.com/wonny/storagelimits/internal/contracts"
	"github.com/wonny/storagelimits/internal/metrics"
	"github.com/wonny/storagelimits/internal/pipeline"
	"github.com/wonny/storagelimits/internal/scheduler"
	"github.com/wonny/storagelimits/pkg/database"
	"github.com/wonny/storagelimits/pkg/logger"
)

type fakeRunner struct {
	got pipeline.Request
	err error
}

func (f *fakeRunner) Run(_ context.Context, req pipeline.Request) (*pipeline.RunReport, error) {
	f.got = req
	return &pipeline.RunReport{RunID: "run-1", Trigger: req.Trigger, Period: req.Period}, f.err
}

type fakeDB struct{ err error }

func (f fakeDB) HealthCheck(context.Context) (*database.HealthStatus, error) {
	if f.err != nil {
		return &database.HealthStatus{Error: f.err.Error()}, f.err
	}
	return &database.HealthStatus{Healthy: true}, nil
}

type fakeJobs struct{}

func (fakeJobs) GetJobStats() map[string]scheduler.JobStats {
	return map[string]scheduler.JobStats{"limits_export": {JobName: "limits_export", TotalRuns: 2}}
}

func newTestRouter(runner *fakeRunner, db handlers.HealthChecker, jobs handlers.JobStatser) http.Handler {
	log := logger.Nop()
	return NewRouter(Handlers{
		Export:  handlers.NewExportHandler(runner, log),
		Status:  handlers.NewStatusHandler(db, jobs),
		Metrics: metrics.New().Handler(),
	}, log)
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		db         handlers.HealthChecker
		wantStatus int
		wantBody   string
	}{
		{"no database", nil, http.StatusOK, `"status":"ok"`},
		{"healthy database", fakeDB{}, http.StatusOK, `"healthy":true`},
		{"database down", fakeDB{err: errors.New("connection refused")}, http.StatusServiceUnavailable, `"status":"degraded"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(newTestRouter(&fakeRunner{}, tt.db, nil), http.MethodGet, "/health", "")
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(newTestRouter(&fakeRunner{}, nil, nil), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestExport(t *testing.T) {
	runner := &fakeRunner{}
	router := newTestRouter(runner, nil, nil)

	rec := do(router, http.MethodPost, "/api/exports",
		`{"from":"2024-03-01","to":"2024-03-31","shippers":[3,4],"formats":["xml","bogus"],"grouping":"period","dry_run":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report pipeline.RunReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "run-1", report.RunID)

	got := runner.got
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), got.Period.From)
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), got.Period.To)
	assert.Equal(t, []contracts.ShipperID{3, 4}, got.Shippers)
	assert.Equal(t, []contracts.Format{contracts.FormatXML, contracts.FormatCSV}, got.Formats)
	assert.Equal(t, contracts.GroupingPeriod, got.Grouping)
	assert.True(t, got.DryRun)
	assert.Equal(t, pipeline.TriggerAPI, got.Trigger)
}

func TestExportDefaults(t *testing.T) {
	runner := &fakeRunner{}
	rec := do(newTestRouter(runner, nil, nil), http.MethodPost, "/api/exports", `{"from":"2024-03-15"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.True(t, runner.got.Period.SingleDay())
	assert.Empty(t, runner.got.Formats)
	assert.Empty(t, runner.got.Grouping)
	assert.Empty(t, runner.got.Shippers)
}

func TestExportErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		runErr     error
		wantStatus int
		wantBody   string
	}{
		{"bad json", `{`, nil, http.StatusBadRequest, "Invalid request body"},
		{"missing from", `{}`, nil, http.StatusBadRequest, "'from' is required"},
		{"bad date", `{"from":"15/03/2024"}`, nil, http.StatusBadRequest, "invalid 'from'"},
		{"bad to", `{"from":"2024-03-15","to":"x"}`, nil, http.StatusBadRequest, "invalid 'to'"},
		{"reversed period", `{"from":"2024-03-15","to":"2024-03-01"}`, fmt.Errorf("%w: reversed", pipeline.ErrInvalidPeriod), http.StatusBadRequest, "invalid period"},
		{"run aborted", `{"from":"2024-03-15"}`, errors.New("load snapshot: timeout"), http.StatusInternalServerError, `"run_id":"run-1"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(newTestRouter(&fakeRunner{err: tt.runErr}, nil, nil), http.MethodPost, "/api/exports", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestJobs(t *testing.T) {
	rec := do(newTestRouter(&fakeRunner{}, nil, nil), http.MethodGet, "/api/jobs", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(newTestRouter(&fakeRunner{}, nil, fakeJobs{}), http.MethodGet, "/api/jobs", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_runs":2`)
}

func TestRouting(t *testing.T) {
	router := newTestRouter(&fakeRunner{}, nil, nil)

	assert.Equal(t, http.StatusNotFound, do(router, http.MethodGet, "/nope", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(router, http.MethodGet, "/api/exports", "").Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}
