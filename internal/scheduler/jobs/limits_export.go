package jobs

import (
	"context"
	"time"

	"github.com/wonny/storagelimits/internal/calendar"
	"github.com/wonny/storagelimits/internal/contracts"
	"github.com/wonny/storagelimits/internal/pipeline"
	"github.com/wonny/storagelimits/pkg/logger"
)

// ExportRunner is satisfied by *pipeline.Runner
type ExportRunner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.RunReport, error)
}

// LimitsExportJob publishes the limits of the gas day lookaheadDays after today
// ⭐ SSOT: 일일 한도 내보내기 스케줄은 이 Job에서만
type LimitsExportJob struct {
	runner    ExportRunner
	schedule  string
	lookahead int
	logger    *logger.Logger

	now func() time.Time
}

// NewLimitsExportJob creates the daily export job
func NewLimitsExportJob(runner ExportRunner, schedule string, lookaheadDays int, log *logger.Logger) *LimitsExportJob {
	return &LimitsExportJob{
		runner:    runner,
		schedule:  schedule,
		lookahead: lookaheadDays,
		logger:    log.WithComponent("limits_export_job"),
		now:       time.Now,
	}
}

// Name returns the job name
func (j *LimitsExportJob) Name() string {
	return "limits_export"
}

// Schedule returns the cron schedule (SCHEDULER_EXPORT_CRON, 6 AM daily by default)
func (j *LimitsExportJob) Schedule() string {
	return j.schedule
}

// GasDay is the day the next run exports
func (j *LimitsExportJob) GasDay() time.Time {
	return calendar.AddDays(calendar.Day(j.now()), j.lookahead)
}

// Run exports one gas day. Only run-ending errors are returned; isolated
// failures stay in the report and are logged.
func (j *LimitsExportJob) Run(ctx context.Context) error {
	gasDay := j.GasDay()

	j.logger.WithField("gas_day", gasDay.Format(calendar.DateLayout)).Info("Starting scheduled limits export")

	report, err := j.runner.Run(ctx, pipeline.Request{
		Period:  contracts.Period{From: gasDay, To: gasDay},
		Trigger: pipeline.TriggerScheduler,
	})
	if err != nil {
		return err
	}

	if !report.Success() {
		j.logger.WithFields(map[string]interface{}{
			"run_id":   report.RunID,
			"failures": len(report.Failures),
		}).Warn("Scheduled export finished with isolated failures")
	}

	return nil
}
