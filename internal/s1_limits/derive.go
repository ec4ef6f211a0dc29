package s1_limits

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/storagelimits/internal/calendar"
	"github.com/wonny/storagelimits/internal/contracts"
)

// DefaultAuthor tags limits produced by the automated export
const DefaultAuthor = "AWS"

// ErrLimitMismatch is returned when the raw limit belongs to another shipper or gas day
var ErrLimitMismatch = errors.New("limit does not match shipper and gas day")

// SkipReason explains why a (shipper, day) pair produced no limit
type SkipReason string

const (
	SkipNone                SkipReason = ""
	SkipNoStorageContract   SkipReason = "no_storage_contract"
	SkipNoTransportContract SkipReason = "no_transport_contract"
	SkipNoActiveLimit       SkipReason = "no_active_limit"
	SkipMalformed           SkipReason = "malformed"
)

// DeriveInput is everything Derive looks at for one (shipper, day)
type DeriveInput struct {
	Shipper              contracts.ShipperID
	Day                  time.Time
	HasStorageContract   bool
	HasTransportContract bool
	Limit                *contracts.RawStorageLimit
	BalanceDayMinus1     *contracts.DailyBalance
	BalanceDayMinus2     *contracts.DailyBalance
	Author               string
}

// DeriveResult holds either a derived limit or the reason it was skipped
type DeriveResult struct {
	Limit   contracts.Limit
	Skipped SkipReason
}

// Accepted reports whether a limit was produced.
// A zero result is not accepted.
func (r DeriveResult) Accepted() bool {
	return r.Skipped == SkipNone && !r.Limit.GasDay.IsZero()
}

// capacities are the six CLT bound pairs of a limit
type capacities struct {
	withdrawalMin, withdrawalMax               decimal.Decimal
	injectionMin, injectionMax                 decimal.Decimal
	reducedWithdrawalMin, reducedWithdrawalMax decimal.Decimal
	reducedInjectionMin, reducedInjectionMax   decimal.Decimal
}

// Derive computes the limit of one shipper for one gas day.
// It is a pure function: missing data yields a skip or zero fields, never an error.
// A Type other than D or P reconciles nothing and the limit is still emitted.
// ⭐ SSOT: 한도 파생 규칙
func Derive(in DeriveInput) (DeriveResult, error) {
	switch {
	case !in.HasStorageContract:
		return DeriveResult{Skipped: SkipNoStorageContract}, nil
	case !in.HasTransportContract:
		return DeriveResult{Skipped: SkipNoTransportContract}, nil
	case in.Limit == nil:
		return DeriveResult{Skipped: SkipNoActiveLimit}, nil
	}

	raw := in.Limit
	day := calendar.Day(in.Day)
	if raw.ShipperID != in.Shipper || !calendar.Day(raw.GasDay).Equal(day) {
		return DeriveResult{Skipped: SkipMalformed}, fmt.Errorf("limit %d (shipper %d, gas day %s): %w",
			raw.ID, raw.ShipperID, raw.GasDay.Format(calendar.DateLayout), ErrLimitMismatch)
	}
	trade, tradeDate := reconcile(raw.Type, in.BalanceDayMinus1, in.BalanceDayMinus2)
	regime, clt := classify(raw)

	author := in.Author
	if author == "" {
		author = DefaultAuthor
	}

	return DeriveResult{
		Limit: contracts.Limit{
			GasDay:    day,
			ShipperID: in.Shipper,

			StockMin: raw.StockMin,
			StockMax: raw.StockMax,

			WithdrawalMin:        clt.withdrawalMin,
			WithdrawalMax:        clt.withdrawalMax,
			InjectionMin:         clt.injectionMin,
			InjectionMax:         clt.injectionMax,
			ReducedWithdrawalMin: clt.reducedWithdrawalMin,
			ReducedWithdrawalMax: clt.reducedWithdrawalMax,
			ReducedInjectionMin:  clt.reducedInjectionMin,
			ReducedInjectionMax:  clt.reducedInjectionMax,

			StockRefUsed:     raw.StockRef,
			StockRefDate:     calendar.AddDays(day, -1),
			FinalStock:       raw.StockFinal,
			FinalStockDate:   tradeDate,
			StorageTrade:     trade,
			StorageTradeDate: tradeDate,

			Regime: regime,
			Author: author,
		},
	}, nil
}

// reconcile picks the balance matching the limit stage:
// definitive limits use day-1, provisional ones day-2.
func reconcile(t contracts.LimitType, dayMinus1, dayMinus2 *contracts.DailyBalance) (decimal.Decimal, time.Time) {
	switch {
	case t == contracts.LimitTypeDefinitive && dayMinus1 != nil:
		return dayMinus1.StorageTrade, calendar.Day(dayMinus1.Date)
	case t == contracts.LimitTypeProvisional && dayMinus2 != nil:
		return dayMinus2.StorageTrade, calendar.Day(dayMinus2.Date)
	default:
		return decimal.Zero, time.Time{}
	}
}

// classify applies the first matching capacity regime
func classify(raw *contracts.RawStorageLimit) (contracts.Regime, capacities) {
	switch {
	case raw.MaxWithdrawal.IsPositive() && raw.MaxInjection.IsPositive():
		return contracts.RegimeBidirectional, capacities{
			withdrawalMax:        raw.MaxWithdrawal.Abs(),
			reducedWithdrawalMax: raw.ReducedMaxWithdrawal.Abs(),
			injectionMax:         raw.MaxInjection.Abs(),
			reducedInjectionMax:  raw.ReducedMaxInjection.Abs(),
		}

	case !raw.MinInjection.IsNegative() && raw.MaxInjection.IsPositive():
		return contracts.RegimeInjectionOnly, capacities{
			injectionMin:        raw.MinInjection.Abs(),
			reducedInjectionMin: raw.ReducedMinInjection.Abs(),
			injectionMax:        raw.MaxInjection.Abs(),
			reducedInjectionMax: raw.ReducedMaxInjection.Abs(),
		}

	case raw.MaxWithdrawal.IsPositive() && !raw.MinWithdrawal.IsNegative():
		return contracts.RegimeWithdrawalOnly, capacities{
			withdrawalMax:        raw.MaxWithdrawal.Abs(),
			reducedWithdrawalMax: raw.ReducedMaxWithdrawal.Abs(),
			withdrawalMin:        raw.MinWithdrawal.Abs(),
			reducedWithdrawalMin: raw.ReducedMinWithdrawal.Abs(),
		}

	default:
		return contracts.RegimeNone, capacities{}
	}
}
