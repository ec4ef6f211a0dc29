package s1_limits

import (
	"time"

	"github.com/wonny/storagelimits/internal/calendar"
	"github.com/wonny/storagelimits/internal/contracts"
)

// dayKey identifies one (shipper, gas day) pair
type dayKey struct {
	shipper contracts.ShipperID
	day     int64
}

func keyOf(shipper contracts.ShipperID, day time.Time) dayKey {
	return dayKey{shipper: shipper, day: calendar.Day(day).Unix()}
}

// ContractIndex answers contract presence questions over a snapshot
type ContractIndex struct {
	storage   map[contracts.ShipperID][]contracts.StorageContract
	transport map[contracts.ShipperID][]contracts.TransportContract
}

// NewContractIndex groups contracts by shipper, keeping input order
func NewContractIndex(storage []contracts.StorageContract, transport []contracts.TransportContract) *ContractIndex {
	idx := &ContractIndex{
		storage:   make(map[contracts.ShipperID][]contracts.StorageContract),
		transport: make(map[contracts.ShipperID][]contracts.TransportContract),
	}
	for _, c := range storage {
		idx.storage[c.ShipperID] = append(idx.storage[c.ShipperID], c)
	}
	for _, c := range transport {
		idx.transport[c.ShipperID] = append(idx.transport[c.ShipperID], c)
	}
	return idx
}

// HasActiveStorageContract reports whether an ATS contract of shipper covers day
func (x *ContractIndex) HasActiveStorageContract(shipper contracts.ShipperID, day time.Time) bool {
	day = calendar.Day(day)
	for _, c := range x.storage[shipper] {
		if c.Covers(day) {
			return true
		}
	}
	return false
}

// HasActiveTransportContract reports whether a transport contract of shipper covers day
func (x *ContractIndex) HasActiveTransportContract(shipper contracts.ShipperID, day time.Time) bool {
	day = calendar.Day(day)
	for _, c := range x.transport[shipper] {
		if c.Covers(day) {
			return true
		}
	}
	return false
}

// BalanceLookup finds daily balances by (shipper, date)
type BalanceLookup struct {
	byKey map[dayKey]contracts.DailyBalance
}

// NewBalanceLookup indexes balances; on duplicate keys the first in input order wins
func NewBalanceLookup(balances []contracts.DailyBalance) *BalanceLookup {
	b := &BalanceLookup{byKey: make(map[dayKey]contracts.DailyBalance, len(balances))}
	for _, bal := range balances {
		k := keyOf(bal.ShipperID, bal.Date)
		if _, dup := b.byKey[k]; !dup {
			b.byKey[k] = bal
		}
	}
	return b
}

// FindBalance returns the balance of shipper dated day - offsetDays, if posted
func (b *BalanceLookup) FindBalance(shipper contracts.ShipperID, day time.Time, offsetDays int) (contracts.DailyBalance, bool) {
	bal, ok := b.byKey[keyOf(shipper, calendar.AddDays(day, -offsetDays))]
	return bal, ok
}

// Selection describes the outcome of an active limit lookup
type Selection struct {
	Found bool
	// Candidates is the number of eligible records; above one the pick is ambiguous
	Candidates int
}

// Ambiguous reports whether more than one active record was eligible
func (s Selection) Ambiguous() bool {
	return s.Candidates > 1
}

// SelectActiveLimit returns the first record of raw matching shipper, day and Active.
// raw is expected in tie-break order (ident ascending).
func SelectActiveLimit(shipper contracts.ShipperID, day time.Time, raw []contracts.RawStorageLimit) (contracts.RawStorageLimit, Selection) {
	day = calendar.Day(day)

	var (
		picked contracts.RawStorageLimit
		sel    Selection
	)
	for _, r := range raw {
		if r.ShipperID != shipper || !r.Active || !calendar.Day(r.GasDay).Equal(day) {
			continue
		}
		if !sel.Found {
			picked = r
			sel.Found = true
		}
		sel.Candidates++
	}

	return picked, sel
}

// LimitSelector indexes raw limits by (shipper, gas day)
type LimitSelector struct {
	byKey map[dayKey][]contracts.RawStorageLimit
}

func NewLimitSelector(raw []contracts.RawStorageLimit) *LimitSelector {
	s := &LimitSelector{byKey: make(map[dayKey][]contracts.RawStorageLimit)}
	for _, r := range raw {
		k := keyOf(r.ShipperID, r.GasDay)
		s.byKey[k] = append(s.byKey[k], r)
	}
	return s
}

// Select is SelectActiveLimit restricted to the records of (shipper, day)
func (s *LimitSelector) Select(shipper contracts.ShipperID, day time.Time) (contracts.RawStorageLimit, Selection) {
	return SelectActiveLimit(shipper, day, s.byKey[keyOf(shipper, day)])
}
