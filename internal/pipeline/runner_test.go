package pipeline

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/storagelimits/internal/contracts"
	"github.com/wonny/storagelimits/internal/metrics"
	"github.com/wonny/storagelimits/internal/s1_limits"
	"github.com/wonny/storagelimits/internal/s3_publish"
	"github.com/wonny/storagelimits/pkg/logger"
	"github.com/wonny/storagelimits/pkg/objectstore"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

type fakeLoader struct {
	snap  *contracts.Snapshot
	err   error
	calls int
}

func (f *fakeLoader) Load(_ context.Context, period contracts.Period, _ []contracts.ShipperID) (*contracts.Snapshot, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	snap := *f.snap
	snap.Period = period
	return &snap, nil
}

type recordingPublisher struct {
	batches []contracts.Batch
	failFor map[contracts.ShipperID]error
	keyFor  func(contracts.Batch, contracts.Format) string
}

func (p *recordingPublisher) Publish(_ context.Context, batch contracts.Batch, formats []contracts.Format, dryRun bool) ([]contracts.Publication, error) {
	p.batches = append(p.batches, batch)
	if err := p.failFor[batch.ShipperID]; err != nil {
		return nil, err
	}
	pubs := make([]contracts.Publication, 0, len(formats))
	for _, f := range formats {
		pub := contracts.Publication{Format: f, DryRun: dryRun}
		if p.keyFor != nil {
			pub.Key = p.keyFor(batch, f)
		}
		pubs = append(pubs, pub)
	}
	return pubs, nil
}

func rawLimit(id int64, shipper contracts.ShipperID, gasDay time.Time, typ contracts.LimitType) contracts.RawStorageLimit {
	return contracts.RawStorageLimit{
		ID:            id,
		ShipperID:     shipper,
		GasDay:        gasDay,
		Active:        true,
		Type:          typ,
		StockMax:      decimal.NewFromInt(1000),
		MaxInjection:  decimal.NewFromInt(50),
		MaxWithdrawal: decimal.NewFromInt(60),
	}
}

// shipper 1 is fully covered on 10-12 March; shipper 2 has no transport contract
func testSnapshot() *contracts.Snapshot {
	return &contracts.Snapshot{
		Shippers: []contracts.ShipperID{1, 2},
		StorageContracts: []contracts.StorageContract{
			{ShipperID: 1, Start: day(1), End: day(31)},
			{ShipperID: 2, Start: day(1), End: day(31)},
		},
		TransportContracts: []contracts.TransportContract{
			{ShipperID: 1, Start: day(1), End: day(31)},
		},
		StorageLimits: []contracts.RawStorageLimit{
			rawLimit(1, 1, day(10), contracts.LimitTypeDefinitive),
			rawLimit(2, 1, day(11), contracts.LimitTypeProvisional),
			rawLimit(3, 1, day(12), contracts.LimitTypeDefinitive),
			rawLimit(4, 2, day(10), contracts.LimitTypeDefinitive),
		},
		Balances: []contracts.DailyBalance{
			{ShipperID: 1, Date: day(9), StorageTrade: decimal.NewFromInt(-15)},
		},
	}
}

func newTestRunner(loader contracts.SnapshotLoader, pub contracts.BatchPublisher) *Runner {
	return NewRunner(loader, pub, Options{
		Formats:  []contracts.Format{contracts.FormatXML, contracts.FormatCSV},
		Grouping: contracts.GroupingDay,
	}, metrics.New(), logger.Nop())
}

func TestRunPerDay(t *testing.T) {
	pub := &recordingPublisher{}
	runner := newTestRunner(&fakeLoader{snap: testSnapshot()}, pub)

	report, err := runner.Run(context.Background(), Request{
		Period: contracts.Period{From: day(10), To: day(12)},
	})
	require.NoError(t, err)

	assert.True(t, report.Success())
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, TriggerCLI, report.Trigger)
	assert.Equal(t, 2, report.Shippers)
	assert.Equal(t, 3, report.Days)
	assert.Equal(t, 3, report.Derived)
	assert.Equal(t, map[string]int{string(s1_limits.SkipNoTransportContract): 3}, report.Skipped)
	assert.Equal(t, 3, report.Batches)
	assert.Len(t, report.Publications, 6)

	require.Len(t, pub.batches, 3)
	for i, b := range pub.batches {
		assert.Equal(t, contracts.ShipperID(1), b.ShipperID)
		assert.True(t, b.Period.SingleDay())
		assert.Equal(t, day(10+i), b.Period.From)
		require.Len(t, b.Limits, 1)
		assert.Equal(t, s1_limits.DefaultAuthor, b.Limits[0].Author)
	}

	// the balance of the 9th is day-1 of the definitive 10th and day-2 of the provisional 11th
	assert.True(t, pub.batches[0].Limits[0].StorageTrade.Equal(decimal.NewFromInt(-15)))
	assert.True(t, pub.batches[1].Limits[0].Reconciled())
	assert.False(t, pub.batches[2].Limits[0].Reconciled())
}

func TestRunPerPeriod(t *testing.T) {
	pub := &recordingPublisher{}
	runner := newTestRunner(&fakeLoader{snap: testSnapshot()}, pub)

	report, err := runner.Run(context.Background(), Request{
		Period:   contracts.Period{From: day(9), To: day(12)},
		Grouping: contracts.GroupingPeriod,
		Formats:  []contracts.Format{contracts.FormatXLSX},
		DryRun:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Batches)
	assert.Equal(t, 1, report.Skipped[string(s1_limits.SkipNoActiveLimit)])
	require.Len(t, pub.batches, 1)
	assert.Equal(t, contracts.Period{From: day(9), To: day(12)}, pub.batches[0].Period)
	assert.Len(t, pub.batches[0].Limits, 3)

	require.Len(t, report.Publications, 1)
	assert.True(t, report.Publications[0].DryRun)
	assert.Equal(t, contracts.FormatXLSX, report.Publications[0].Format)
}

func TestRunEmptySnapshot(t *testing.T) {
	snap := testSnapshot()
	snap.TransportContracts = nil
	pub := &recordingPublisher{}

	report, err := newTestRunner(&fakeLoader{snap: snap}, pub).Run(context.Background(), Request{
		Period: contracts.Period{From: day(10), To: day(12)},
	})
	require.NoError(t, err)
	assert.True(t, report.Empty)
	assert.True(t, report.Success())
	assert.Zero(t, report.Derived)
	assert.Empty(t, pub.batches)
}

func TestRunLoadFailureAborts(t *testing.T) {
	boom := errors.New("connection refused")
	pub := &recordingPublisher{}

	report, err := newTestRunner(&fakeLoader{err: boom}, pub).Run(context.Background(), Request{
		Period: contracts.Period{From: day(10), To: day(10)},
	})
	require.ErrorIs(t, err, boom)
	require.NotNil(t, report)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, StageLoad, report.Failures[0].Stage)
	assert.Empty(t, pub.batches)
}

func TestRunInvalidPeriod(t *testing.T) {
	loader := &fakeLoader{snap: testSnapshot()}

	_, err := newTestRunner(loader, &recordingPublisher{}).Run(context.Background(), Request{
		Period: contracts.Period{From: day(12), To: day(10)},
	})
	assert.ErrorIs(t, err, ErrInvalidPeriod)
	assert.Zero(t, loader.calls)
}

// failingDeriver fails one (shipper, day) and delegates the rest
type failingDeriver struct {
	next    limitDeriver
	shipper contracts.ShipperID
	day     time.Time
}

func (f failingDeriver) Derive(shipper contracts.ShipperID, d time.Time) (s1_limits.DeriveResult, error) {
	if shipper == f.shipper && d.Equal(f.day) {
		return s1_limits.DeriveResult{Skipped: s1_limits.SkipMalformed}, s1_limits.ErrLimitMismatch
	}
	return f.next.Derive(shipper, d)
}

func TestRunIsolatesFailures(t *testing.T) {
	snap := testSnapshot()
	snap.TransportContracts = append(snap.TransportContracts,
		contracts.TransportContract{ShipperID: 2, Start: day(1), End: day(31)})

	pub := &recordingPublisher{failFor: map[contracts.ShipperID]error{2: errors.New("bucket not found")}}

	var logs bytes.Buffer
	runner := NewRunner(&fakeLoader{snap: snap}, pub, Options{
		Formats:  []contracts.Format{contracts.FormatXML, contracts.FormatCSV},
		Grouping: contracts.GroupingDay,
	}, metrics.New(), logger.NewWithWriter(&logs, "json", "info"))
	base := runner.newDeriver
	runner.newDeriver = func(s *contracts.Snapshot) limitDeriver {
		return failingDeriver{next: base(s), shipper: 1, day: day(11)}
	}

	report, err := runner.Run(context.Background(), Request{
		Period: contracts.Period{From: day(10), To: day(12)},
	})
	require.NoError(t, err)
	assert.Contains(t, logs.String(), `"message":"derive failed"`)
	assert.Contains(t, logs.String(), `"gas_day":"2024-03-11"`)
	assert.False(t, report.Success())

	// shipper 1: 10 and 12 published, 11 failed; shipper 2: 10 derived but upload failed
	assert.Equal(t, 3, report.Derived)
	assert.Equal(t, 3, report.Batches)
	assert.Len(t, report.Publications, 4)

	require.Len(t, report.Failures, 2)
	assert.Equal(t, Failure{Stage: StageDerive, Shipper: 1, GasDay: "2024-03-11", Error: report.Failures[0].Error}, report.Failures[0])
	assert.Contains(t, report.Failures[0].Error, s1_limits.ErrLimitMismatch.Error())
	assert.Equal(t, Failure{Stage: StagePublish, Shipper: 2, GasDay: "2024-03-10", Error: "bucket not found"}, report.Failures[1])
}

func TestRunPublishesUnknownLimitType(t *testing.T) {
	snap := testSnapshot()
	snap.StorageLimits[0].Type = ""
	pub := &recordingPublisher{}

	report, err := newTestRunner(&fakeLoader{snap: snap}, pub).Run(context.Background(), Request{
		Period: contracts.Period{From: day(10), To: day(10)},
	})
	require.NoError(t, err)
	assert.True(t, report.Success())
	assert.Equal(t, 1, report.Derived)

	require.Len(t, pub.batches, 1)
	l := pub.batches[0].Limits[0]
	assert.True(t, l.StorageTrade.IsZero())
	assert.True(t, l.StorageTradeDate.IsZero())
}

func TestRunWarnsOnKeyCollision(t *testing.T) {
	snap := testSnapshot()
	snap.TransportContracts = append(snap.TransportContracts,
		contracts.TransportContract{ShipperID: 2, Start: day(1), End: day(31)})
	// neither shipper has a receiver, so both documents get the same name
	pub := &recordingPublisher{keyFor: func(b contracts.Batch, f contracts.Format) string {
		return "Limits--J-" + b.Period.From.Format("20060102") + "." + string(f)
	}}

	var logs bytes.Buffer
	runner := NewRunner(&fakeLoader{snap: snap}, pub, Options{
		Formats:  []contracts.Format{contracts.FormatXML},
		Grouping: contracts.GroupingDay,
	}, metrics.New(), logger.NewWithWriter(&logs, "json", "info"))

	report, err := runner.Run(context.Background(), Request{
		Period: contracts.Period{From: day(10), To: day(10)},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Batches)
	assert.Equal(t, 1, report.Collisions)
	assert.Contains(t, logs.String(), "object key already written in this run")
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pub := &recordingPublisher{}
	report, err := newTestRunner(&fakeLoader{snap: testSnapshot()}, pub).Run(ctx, Request{
		Period: contracts.Period{From: day(10), To: day(12)},
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, report.Derived)
	assert.Empty(t, pub.batches)
}

func TestRunWithPublisher(t *testing.T) {
	store := objectstore.NewMemoryStore()
	publisher := s3_publish.NewPublisher(
		s3_publish.StaticResolver{Receivers: map[contracts.ShipperID]string{1: "GRT-01"}, Label: "CTR"},
		s3_publish.NewMemorySequence(),
		store,
		s3_publish.Config{Sender: "TIGF"},
		nil,
		logger.Nop(),
	)
	runner := newTestRunner(&fakeLoader{snap: testSnapshot()}, publisher)

	report, err := runner.Run(context.Background(), Request{
		Period:  contracts.Period{From: day(10), To: day(11)},
		Trigger: TriggerAPI,
	})
	require.NoError(t, err)
	assert.True(t, report.Success())
	assert.Len(t, store.Keys(), 4)

	numbers := make(map[string]bool)
	for _, p := range report.Publications {
		numbers[p.DocNumber] = true
		assert.Equal(t, "GRT-01", p.Receiver)
	}
	// one number per batch
	assert.Len(t, numbers, 2)
}
