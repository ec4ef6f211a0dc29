package contracts

import (
	"time"
)

// ShipperID identifies a shipper (expéditeur, EXPNUM)
type ShipperID int

// StorageContract grants a shipper storage access (ATS) over [Start, End]
// ⭐ SSOT: 저장 계약 (ATS)
type StorageContract struct {
	ShipperID ShipperID `json:"shipper_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

// Covers reports Start <= day <= End
func (c StorageContract) Covers(day time.Time) bool {
	return covers(c.Start, c.End, day)
}

// TransportContract grants a shipper transport access (ATR, TRASP) over [Start, End]
// ⭐ SSOT: 수송 계약 (TRASP)
type TransportContract struct {
	ShipperID ShipperID `json:"shipper_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

// Covers reports Start <= day <= End
func (c TransportContract) Covers(day time.Time) bool {
	return covers(c.Start, c.End, day)
}

func covers(start, end, day time.Time) bool {
	return !day.Before(start) && !day.After(end)
}

// Period is an inclusive range of gas days
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Valid reports From <= To
func (p Period) Valid() bool {
	return !p.From.After(p.To)
}

// SingleDay reports whether the period spans exactly one gas day
func (p Period) SingleDay() bool {
	return p.From.Equal(p.To)
}
