package pipeline

import (
	"time"

	"github.com/wonny/storagelimits/internal/contracts"
)

// Stage names where a failure happened
const (
	StageLoad    = "load"
	StageDerive  = "derive"
	StagePublish = "publish"
)

// Failure is one isolated error of a run
type Failure struct {
	Stage   string              `json:"stage"`
	Shipper contracts.ShipperID `json:"shipper,omitempty"`
	GasDay  string              `json:"gas_day,omitempty"`
	Error   string              `json:"error"`
}

// RunReport summarises one export run
type RunReport struct {
	RunID      string             `json:"run_id"`
	Trigger    string             `json:"trigger"`
	Period     contracts.Period   `json:"period"`
	Grouping   contracts.Grouping `json:"grouping"`
	Formats    []contracts.Format `json:"formats"`
	DryRun     bool               `json:"dry_run"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Duration   time.Duration      `json:"duration"`

	// Empty is set when the snapshot had nothing to derive from
	Empty bool `json:"empty"`

	Shippers     int                     `json:"shippers"`
	Days         int                     `json:"days"`
	Derived      int                     `json:"derived"`
	Skipped      map[string]int          `json:"skipped"`
	Batches      int                     `json:"batches"`
	Publications []contracts.Publication `json:"publications"`
	Failures     []Failure               `json:"failures"`
	Collisions   int                     `json:"key_collisions,omitempty"` // keys written twice in this run
}

func newReport(runID string, req Request, now time.Time) *RunReport {
	return &RunReport{
		RunID:        runID,
		Trigger:      req.Trigger,
		Period:       req.Period,
		Grouping:     req.Grouping,
		Formats:      req.Formats,
		DryRun:       req.DryRun,
		StartedAt:    now,
		Skipped:      make(map[string]int),
		Publications: make([]contracts.Publication, 0),
		Failures:     make([]Failure, 0),
	}
}

// Success reports whether the run finished without any failure
func (r *RunReport) Success() bool {
	return len(r.Failures) == 0
}

// SkippedTotal sums the skips of every reason
func (r *RunReport) SkippedTotal() int {
	n := 0
	for _, c := range r.Skipped {
		n += c
	}
	return n
}

func (r *RunReport) fail(f Failure) {
	r.Failures = append(r.Failures, f)
}
