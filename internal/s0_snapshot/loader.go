package s0_snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/storagelimits/internal/calendar"
	"github.com/wonny/storagelimits/internal/contracts"
	"github.com/wonny/storagelimits/pkg/logger"
)

// Source is where the loader reads from; *Repository is the production source
type Source interface {
	ListShippers(ctx context.Context) ([]contracts.ShipperID, error)
	ListStorageContracts(ctx context.Context, period contracts.Period, shippers []contracts.ShipperID) ([]contracts.StorageContract, error)
	ListTransportContracts(ctx context.Context, period contracts.Period, shippers []contracts.ShipperID) ([]contracts.TransportContract, error)
	ListStorageLimits(ctx context.Context, period contracts.Period, shippers []contracts.ShipperID) ([]contracts.RawStorageLimit, error)
	ListBalances(ctx context.Context, period contracts.Period, shippers []contracts.ShipperID) ([]contracts.DailyBalance, error)
}

// Loader builds the read-once snapshot of a run
// ⭐ SSOT: S0 → S1 입력 스냅샷 생성
type Loader struct {
	source Source
	logger *logger.Logger
}

func NewLoader(source Source, log *logger.Logger) *Loader {
	return &Loader{source: source, logger: log.WithComponent("loader")}
}

// Load fetches every input of period for shippers (every shipper when empty).
// When a prerequisite collection comes back empty the remaining fetches are skipped
// and the returned snapshot reports Empty(); that is not an error.
func (l *Loader) Load(ctx context.Context, period contracts.Period, shippers []contracts.ShipperID) (*contracts.Snapshot, error) {
	period = contracts.Period{From: calendar.Day(period.From), To: calendar.Day(period.To)}
	if !period.Valid() {
		return nil, fmt.Errorf("invalid period %s..%s", period.From.Format(calendar.DateLayout), period.To.Format(calendar.DateLayout))
	}

	start := time.Now()
	snap := &contracts.Snapshot{Period: period}

	if len(shippers) == 0 {
		all, err := l.source.ListShippers(ctx)
		if err != nil {
			return nil, fmt.Errorf("list shippers: %w", err)
		}
		shippers = all
	}
	snap.Shippers = uniqueShippers(shippers)

	log := l.logger.WithFields(map[string]interface{}{
		"from":     period.From.Format(calendar.DateLayout),
		"to":       period.To.Format(calendar.DateLayout),
		"shippers": len(snap.Shippers),
	})

	if len(snap.Shippers) == 0 {
		log.Info("no shipper to export")
		return snap, nil
	}

	var err error

	// 저장 계약 (ATS)
	if snap.StorageContracts, err = l.source.ListStorageContracts(ctx, period, snap.Shippers); err != nil {
		return nil, fmt.Errorf("list storage contracts: %w", err)
	}
	if len(snap.StorageContracts) == 0 {
		log.Info("no storage contract for the period")
		return snap, nil
	}

	// 수송 계약 (TRASP)
	if snap.TransportContracts, err = l.source.ListTransportContracts(ctx, period, snap.Shippers); err != nil {
		return nil, fmt.Errorf("list transport contracts: %w", err)
	}
	if len(snap.TransportContracts) == 0 {
		log.Info("no transport contract for the period")
		return snap, nil
	}

	if snap.StorageLimits, err = l.source.ListStorageLimits(ctx, period, snap.Shippers); err != nil {
		return nil, fmt.Errorf("list storage limits: %w", err)
	}
	if len(snap.StorageLimits) == 0 {
		log.Info("no storage limit for the period")
		return snap, nil
	}

	if snap.Balances, err = l.source.ListBalances(ctx, period, snap.Shippers); err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"storage_contracts":   len(snap.StorageContracts),
		"transport_contracts": len(snap.TransportContracts),
		"storage_limits":      len(snap.StorageLimits),
		"balances":            len(snap.Balances),
		"duration_ms":         time.Since(start).Milliseconds(),
	}).Info("snapshot loaded")

	return snap, nil
}

// uniqueShippers drops duplicates, keeping first occurrence order
func uniqueShippers(in []contracts.ShipperID) []contracts.ShipperID {
	seen := make(map[contracts.ShipperID]bool, len(in))
	out := make([]contracts.ShipperID, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
