package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/storagelimits/internal/calendar"
	"github.com/wonny/storagelimits/internal/contracts"
	"github.com/wonny/storagelimits/internal/metrics"
	"github.com/wonny/storagelimits/internal/s1_limits"
	"github.com/wonny/storagelimits/pkg/logger"
)

// Triggers
const (
	TriggerCLI       = "cli"
	TriggerScheduler = "scheduler"
	TriggerAPI       = "api"
)

var ErrInvalidPeriod = errors.New("invalid period")

// Request is one export run
type Request struct {
	Period   contracts.Period
	Shippers []contracts.ShipperID // every shipper when empty
	Formats  []contracts.Format    // Options.Formats when empty
	Grouping contracts.Grouping    // Options.Grouping when empty
	DryRun   bool
	Trigger  string
}

// Options are the run defaults
type Options struct {
	Author   string
	Formats  []contracts.Format
	Grouping contracts.Grouping
	Timeout  time.Duration // 0 = no deadline
}

// limitDeriver is satisfied by *s1_limits.Deriver
type limitDeriver interface {
	Derive(shipper contracts.ShipperID, day time.Time) (s1_limits.DeriveResult, error)
}

// Runner drives S0 → S1 → S2/S3 for one period
// ⭐ SSOT: 실행 파이프라인은 여기서만 조립
type Runner struct {
	loader    contracts.SnapshotLoader
	publisher contracts.BatchPublisher
	opts      Options
	metrics   *metrics.Metrics
	base      *logger.Logger
	logger    *logger.Logger

	newDeriver func(snap *contracts.Snapshot) limitDeriver
	now        func() time.Time
}

func NewRunner(loader contracts.SnapshotLoader, publisher contracts.BatchPublisher, opts Options, m *metrics.Metrics, log *logger.Logger) *Runner {
	if opts.Author == "" {
		opts.Author = s1_limits.DefaultAuthor
	}
	if len(opts.Formats) == 0 {
		opts.Formats = []contracts.Format{contracts.FormatCSV}
	}
	if opts.Grouping == "" {
		opts.Grouping = contracts.GroupingDay
	}

	r := &Runner{
		loader:    loader,
		publisher: publisher,
		opts:      opts,
		metrics:   m,
		base:      log,
		logger:    log.WithComponent("runner"),
		now:       time.Now,
	}
	r.newDeriver = func(snap *contracts.Snapshot) limitDeriver {
		return s1_limits.NewDeriver(snap, r.opts.Author, r.base)
	}
	return r
}

// Run exports every (shipper, gas day) of the request.
// Derivation and publish failures are isolated and recorded in the report; the
// returned error is reserved for failures that end the run (invalid request,
// snapshot fetch, cancellation or timeout). The report is never nil.
func (r *Runner) Run(ctx context.Context, req Request) (*RunReport, error) {
	req = r.withDefaults(req)
	report := newReport(uuid.NewString(), req, r.now())

	log := r.logger.WithFields(map[string]interface{}{
		"run_id":  report.RunID,
		"trigger": req.Trigger,
		"from":    req.Period.From.Format(calendar.DateLayout),
		"to":      req.Period.To.Format(calendar.DateLayout),
		"dry_run": req.DryRun,
	})

	err := r.run(ctx, req, report, log)

	report.FinishedAt = r.now()
	report.Duration = report.FinishedAt.Sub(report.StartedAt)
	r.metrics.ObserveRun(req.Trigger, runResult(report, err), report.Duration)

	fields := map[string]interface{}{
		"derived":      report.Derived,
		"skipped":      report.SkippedTotal(),
		"batches":      report.Batches,
		"publications": len(report.Publications),
		"failures":     len(report.Failures),
		"duration_ms":  report.Duration.Milliseconds(),
	}
	switch {
	case err != nil:
		log.WithFields(fields).WithError(err).Error("run aborted")
	case !report.Success():
		log.WithFields(fields).Warn("run finished with failures")
	default:
		log.WithFields(fields).Info("run finished")
	}

	return report, err
}

func (r *Runner) withDefaults(req Request) Request {
	req.Period = contracts.Period{From: calendar.Day(req.Period.From), To: calendar.Day(req.Period.To)}
	if len(req.Formats) == 0 {
		req.Formats = r.opts.Formats
	}
	if req.Grouping == "" {
		req.Grouping = r.opts.Grouping
	}
	if req.Trigger == "" {
		req.Trigger = TriggerCLI
	}
	return req
}

func (r *Runner) run(ctx context.Context, req Request, report *RunReport, log *logger.Logger) error {
	if !req.Period.Valid() {
		return fmt.Errorf("%w: %s after %s", ErrInvalidPeriod,
			req.Period.From.Format(calendar.DateLayout), req.Period.To.Format(calendar.DateLayout))
	}

	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	// S0: 입력 스냅샷 (한 번만 조회)
	snap, err := r.loader.Load(ctx, req.Period, req.Shippers)
	if err != nil {
		report.fail(Failure{Stage: StageLoad, Error: err.Error()})
		return fmt.Errorf("load snapshot: %w", err)
	}
	r.observeSnapshot(snap)

	report.Shippers = len(snap.Shippers)
	report.Days = calendar.Count(req.Period.From, req.Period.To)

	if snap.Empty() {
		report.Empty = true
		log.Info("nothing to export for the period")
		return nil
	}

	// S1: 한도 파생
	deriver := r.newDeriver(snap)
	keys := make(map[string]contracts.ShipperID)

	for _, shipper := range snap.Shippers {
		var pending []contracts.Limit

		for day := range calendar.EachDay(req.Period.From, req.Period.To) {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("run interrupted at shipper %d, day %s: %w", shipper, day.Format(calendar.DateLayout), err)
			}

			res, err := deriver.Derive(shipper, day)
			if err != nil {
				log.WithError(err).WithFields(map[string]interface{}{
					"shipper": shipper,
					"gas_day": day.Format(calendar.DateLayout),
				}).Error("derive failed")
				r.metrics.ObserveDerivation(metrics.OutcomeFailed, "error")
				report.fail(Failure{
					Stage:   StageDerive,
					Shipper: shipper,
					GasDay:  day.Format(calendar.DateLayout),
					Error:   err.Error(),
				})
				continue
			}
			if !res.Accepted() {
				r.metrics.ObserveDerivation(metrics.OutcomeSkipped, string(res.Skipped))
				report.Skipped[string(res.Skipped)]++
				continue
			}

			r.metrics.ObserveDerivation(metrics.OutcomeAccepted, "")
			report.Derived++

			if req.Grouping == contracts.GroupingDay {
				r.publish(ctx, req, report, log, keys, contracts.Batch{
					ShipperID: shipper,
					Period:    contracts.Period{From: day, To: day},
					Limits:    []contracts.Limit{res.Limit},
				})
				continue
			}
			pending = append(pending, res.Limit)
		}

		if len(pending) > 0 {
			r.publish(ctx, req, report, log, keys, contracts.Batch{
				ShipperID: shipper,
				Period:    req.Period,
				Limits:    pending,
			})
		}
	}

	return nil
}

// S2/S3: 문서 생성 및 게시
// keys maps every object key written in this run to its shipper.
func (r *Runner) publish(ctx context.Context, req Request, report *RunReport, log *logger.Logger, keys map[string]contracts.ShipperID, batch contracts.Batch) {
	report.Batches++

	pubs, err := r.publisher.Publish(ctx, batch, req.Formats, req.DryRun)
	report.Publications = append(report.Publications, pubs...)
	for _, p := range pubs {
		if p.Key == "" {
			continue
		}
		if prev, ok := keys[p.Key]; ok {
			// same receiver within the same second: the later upload replaces the earlier one
			log.WithFields(map[string]interface{}{
				"key":      p.Key,
				"shipper":  batch.ShipperID,
				"previous": prev,
				"receiver": p.Receiver,
			}).Warn("object key already written in this run")
			report.Collisions++
		}
		keys[p.Key] = batch.ShipperID
	}
	if err != nil {
		f := Failure{Stage: StagePublish, Shipper: batch.ShipperID, Error: err.Error()}
		if batch.Period.SingleDay() {
			f.GasDay = batch.Period.From.Format(calendar.DateLayout)
		}
		report.fail(f)
	}
}

func (r *Runner) observeSnapshot(snap *contracts.Snapshot) {
	r.metrics.ObserveSnapshot("shippers", len(snap.Shippers))
	r.metrics.ObserveSnapshot("storage_contracts", len(snap.StorageContracts))
	r.metrics.ObserveSnapshot("transport_contracts", len(snap.TransportContracts))
	r.metrics.ObserveSnapshot("storage_limits", len(snap.StorageLimits))
	r.metrics.ObserveSnapshot("balances", len(snap.Balances))
}

func runResult(report *RunReport, err error) string {
	switch {
	case err != nil || !report.Success():
		return metrics.ResultError
	case report.Empty:
		return metrics.ResultEmpty
	default:
		return metrics.ResultSuccess
	}
}
