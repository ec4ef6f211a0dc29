package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/storagelimits/internal/scheduler"
	"github.com/wonny/storagelimits/pkg/database"
)

// HealthChecker is satisfied by *database.DB
type HealthChecker interface {
	HealthCheck(ctx context.Context) (*database.HealthStatus, error)
}

// JobStatser is satisfied by *scheduler.Scheduler
type JobStatser interface {
	GetJobStats() map[string]scheduler.JobStats
}

// StatusHandler serves health and scheduler status
type StatusHandler struct {
	db        HealthChecker // may be nil
	scheduler JobStatser    // may be nil
}

func NewStatusHandler(db HealthChecker, sched JobStatser) *StatusHandler {
	return &StatusHandler{db: db, scheduler: sched}
}

// Health reports service and database health
// GET /health
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":  "ok",
		"service": "storagelimits",
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status, err := h.db.HealthCheck(ctx)
		resp["database"] = status
		if err != nil {
			resp["status"] = "degraded"
			respondJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

// Jobs returns scheduler statistics
// GET /api/jobs
func (h *StatusHandler) Jobs(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		respondError(w, http.StatusNotFound, "Scheduler not running in this process")
		return
	}

	respondJSON(w, http.StatusOK, h.scheduler.GetJobStats())
}
