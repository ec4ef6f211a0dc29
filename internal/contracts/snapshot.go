package contracts

// Snapshot is every input of one run, fetched once and read-only afterwards
// ⭐ SSOT: 실행 단위 입력 스냅샷
type Snapshot struct {
	Period             Period              `json:"period"`
	Shippers           []ShipperID         `json:"shippers"`
	StorageContracts   []StorageContract   `json:"storage_contracts"`
	TransportContracts []TransportContract `json:"transport_contracts"`
	Balances           []DailyBalance      `json:"balances"`
	StorageLimits      []RawStorageLimit   `json:"storage_limits"`
}

// Empty reports whether a derivation pass over the snapshot can produce nothing.
// Any of the three prerequisite collections being empty short-circuits the run.
func (s *Snapshot) Empty() bool {
	return len(s.Shippers) == 0 ||
		len(s.StorageContracts) == 0 ||
		len(s.TransportContracts) == 0 ||
		len(s.StorageLimits) == 0
}
