package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// LimitType tells whether a raw limit is final or still provisional
type LimitType string

const (
	LimitTypeDefinitive  LimitType = "D"
	LimitTypeProvisional LimitType = "P"
)

// Valid reports whether t is one of the known types
func (t LimitType) Valid() bool {
	return t == LimitTypeDefinitive || t == LimitTypeProvisional
}

// DailyBalance is one line of the daily balance sheet (bilan journalier)
type DailyBalance struct {
	ShipperID    ShipperID       `json:"shipper_id"`
	Date         time.Time       `json:"date"`
	StorageTrade decimal.Decimal `json:"storage_trade"` // 저장 매매량 (achat/vente stockage)
}

// RawStorageLimit is a limit record as stored upstream (limitestockage).
// Several records may exist per (shipper, gas day); only active ones are considered.
type RawStorageLimit struct {
	ID        int64     `json:"id"`
	ShipperID ShipperID `json:"shipper_id"`
	GasDay    time.Time `json:"gas_day"`
	Active    bool      `json:"active"`
	Type      LimitType `json:"type"`

	// 재고
	StockMin   decimal.Decimal `json:"stock_min"`
	StockMax   decimal.Decimal `json:"stock_max"`
	StockRef   decimal.Decimal `json:"stock_ref"`
	StockFinal decimal.Decimal `json:"stock_final"`

	// CLT (capacité limite technique)
	MaxInjection  decimal.Decimal `json:"max_injection"`
	MinInjection  decimal.Decimal `json:"min_injection"`
	MaxWithdrawal decimal.Decimal `json:"max_withdrawal"`
	MinWithdrawal decimal.Decimal `json:"min_withdrawal"`

	// 감소된 CLT
	ReducedMaxInjection  decimal.Decimal `json:"reduced_max_injection"`
	ReducedMinInjection  decimal.Decimal `json:"reduced_min_injection"`
	ReducedMaxWithdrawal decimal.Decimal `json:"reduced_max_withdrawal"`
	ReducedMinWithdrawal decimal.Decimal `json:"reduced_min_withdrawal"`
}

// Regime is the capacity regime a limit was derived under
type Regime string

const (
	RegimeBidirectional  Regime = "bidirectional"
	RegimeInjectionOnly  Regime = "injection_only"
	RegimeWithdrawalOnly Regime = "withdrawal_only"
	RegimeNone           Regime = "none"
)

// Limit is the derived, publishable limit of one shipper for one gas day.
// Zero decimals and zero dates mean "not set".
// ⭐ SSOT: 파생된 한도 (출력 단위)
type Limit struct {
	GasDay    time.Time `json:"gas_day"`
	ShipperID ShipperID `json:"shipper_id"`

	StockMin decimal.Decimal `json:"stock_min"`
	StockMax decimal.Decimal `json:"stock_max"`

	WithdrawalMin        decimal.Decimal `json:"withdrawal_min"`
	WithdrawalMax        decimal.Decimal `json:"withdrawal_max"`
	InjectionMin         decimal.Decimal `json:"injection_min"`
	InjectionMax         decimal.Decimal `json:"injection_max"`
	ReducedWithdrawalMin decimal.Decimal `json:"reduced_withdrawal_min"`
	ReducedWithdrawalMax decimal.Decimal `json:"reduced_withdrawal_max"`
	ReducedInjectionMin  decimal.Decimal `json:"reduced_injection_min"`
	ReducedInjectionMax  decimal.Decimal `json:"reduced_injection_max"`

	StockRefUsed     decimal.Decimal `json:"stock_ref_used"`
	StockRefDate     time.Time       `json:"stock_ref_date"`
	FinalStock       decimal.Decimal `json:"final_stock"`
	FinalStockDate   time.Time       `json:"final_stock_date,omitzero"`
	StorageTrade     decimal.Decimal `json:"storage_trade"`
	StorageTradeDate time.Time       `json:"storage_trade_date,omitzero"`

	Regime Regime `json:"regime"`
	Author string `json:"author"`
}

// Reconciled reports whether a balance was applied to the limit
func (l Limit) Reconciled() bool {
	return !l.StorageTradeDate.IsZero()
}
