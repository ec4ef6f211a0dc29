package s1_limits

import (
	"time"

	"github.com/wonny/storagelimits/internal/calendar"
	"github.com/wonny/storagelimits/internal/contracts"
	"github.com/wonny/storagelimits/pkg/logger"
)

// Deriver binds the snapshot lookups to Derive
// ⭐ SSOT: S1 한도 파생기
type Deriver struct {
	contracts *ContractIndex
	balances  *BalanceLookup
	limits    *LimitSelector
	author    string
	logger    *logger.Logger
}

// NewDeriver indexes a snapshot once; the snapshot must not change afterwards
func NewDeriver(snap *contracts.Snapshot, author string, log *logger.Logger) *Deriver {
	return &Deriver{
		contracts: NewContractIndex(snap.StorageContracts, snap.TransportContracts),
		balances:  NewBalanceLookup(snap.Balances),
		limits:    NewLimitSelector(snap.StorageLimits),
		author:    author,
		logger:    log.WithComponent("deriver"),
	}
}

// Derive gathers the inputs of (shipper, day) and derives its limit
func (d *Deriver) Derive(shipper contracts.ShipperID, day time.Time) (DeriveResult, error) {
	day = calendar.Day(day)

	in := DeriveInput{
		Shipper:              shipper,
		Day:                  day,
		HasStorageContract:   d.contracts.HasActiveStorageContract(shipper, day),
		HasTransportContract: d.contracts.HasActiveTransportContract(shipper, day),
		Author:               d.author,
	}

	if raw, sel := d.limits.Select(shipper, day); sel.Found {
		in.Limit = &raw
		if !raw.Type.Valid() {
			d.logger.WithFields(map[string]interface{}{
				"shipper": shipper,
				"gas_day": day.Format(calendar.DateLayout),
				"limit":   raw.ID,
				"type":    string(raw.Type),
			}).Warn("unknown limit type, no balance reconciliation")
		}
		if sel.Ambiguous() {
			d.logger.WithFields(map[string]interface{}{
				"shipper":    shipper,
				"gas_day":    day.Format(calendar.DateLayout),
				"candidates": sel.Candidates,
				"picked":     raw.ID,
			}).Warn("multiple active storage limits, keeping lowest ident")
		}
	}
	if bal, ok := d.balances.FindBalance(shipper, day, 1); ok {
		in.BalanceDayMinus1 = &bal
	}
	if bal, ok := d.balances.FindBalance(shipper, day, 2); ok {
		in.BalanceDayMinus2 = &bal
	}

	res, err := Derive(in)
	if err != nil {
		return res, err
	}

	if !res.Accepted() {
		d.logger.WithFields(map[string]interface{}{
			"shipper": shipper,
			"gas_day": day.Format(calendar.DateLayout),
			"reason":  string(res.Skipped),
		}).Debug("limit skipped")
	}

	return res, nil
}
