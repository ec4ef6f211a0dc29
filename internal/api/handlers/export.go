package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/storagelimits/internal/calendar"
	"github.com/wonny/storagelimits/internal/contracts"
	"github.com/wonny/storagelimits/internal/pipeline"
	"github.com/wonny/storagelimits/pkg/logger"
)

// ExportRunner is satisfied by *pipeline.Runner
type ExportRunner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.RunReport, error)
}

// ExportHandler triggers on-demand export runs
// ⭐ SSOT: 수동 내보내기 API 핸들러는 여기서만
type ExportHandler struct {
	runner ExportRunner
	logger *logger.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(runner ExportRunner, log *logger.Logger) *ExportHandler {
	return &ExportHandler{
		runner: runner,
		logger: log.WithComponent("export_handler"),
	}
}

// ExportRequest is the body of POST /api/exports
type ExportRequest struct {
	From     string   `json:"from"`
	To       string   `json:"to"` // defaults to from
	Shippers []int    `json:"shippers"`
	Formats  []string `json:"formats"`
	Grouping string   `json:"grouping"`
	DryRun   bool     `json:"dry_run"`
}

// ExportResponse wraps the report of an aborted run
type ExportResponse struct {
	Error  string              `json:"error"`
	Report *pipeline.RunReport `json:"report"`
}

// Export runs the pipeline synchronously and returns its report
// POST /api/exports
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	var body ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req, err := body.toRequest()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"from":     body.From,
		"to":       req.Period.To.Format(calendar.DateLayout),
		"shippers": len(req.Shippers),
		"dry_run":  req.DryRun,
	}).Info("Export triggered")

	report, err := h.runner.Run(r.Context(), req)
	switch {
	case errors.Is(err, pipeline.ErrInvalidPeriod):
		respondError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		respondJSON(w, http.StatusInternalServerError, ExportResponse{Error: err.Error(), Report: report})
	default:
		respondJSON(w, http.StatusOK, report)
	}
}

func (b ExportRequest) toRequest() (pipeline.Request, error) {
	if b.From == "" {
		return pipeline.Request{}, errors.New("'from' is required (YYYY-MM-DD)")
	}
	from, err := calendar.Parse(b.From)
	if err != nil {
		return pipeline.Request{}, errors.New("invalid 'from' date format (expected YYYY-MM-DD)")
	}

	to := from
	if b.To != "" {
		if to, err = calendar.Parse(b.To); err != nil {
			return pipeline.Request{}, errors.New("invalid 'to' date format (expected YYYY-MM-DD)")
		}
	}

	req := pipeline.Request{
		Period:  contracts.Period{From: from, To: to},
		DryRun:  b.DryRun,
		Trigger: pipeline.TriggerAPI,
	}
	for _, s := range b.Shippers {
		req.Shippers = append(req.Shippers, contracts.ShipperID(s))
	}
	if len(b.Formats) > 0 {
		req.Formats = contracts.ParseFormats(b.Formats)
	}
	if b.Grouping != "" {
		req.Grouping = contracts.ParseGrouping(b.Grouping)
	}

	return req, nil
}
