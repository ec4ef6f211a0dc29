package contracts

import (
	"context"
)

// Batch is the set of limits published as one document
type Batch struct {
	ShipperID ShipperID `json:"shipper_id"`
	Period    Period    `json:"period"`
	Limits    []Limit   `json:"limits"`
}

// Publication describes one uploaded (or, in dry-run, rendered) document
type Publication struct {
	Format    Format `json:"format"`
	Key       string `json:"key"`
	Location  string `json:"location"`
	DocNumber string `json:"doc_number"`
	Receiver  string `json:"receiver"`
	Bytes     int    `json:"bytes"`
	DryRun    bool   `json:"dry_run,omitempty"`
}

// SnapshotLoader fetches every input of a run (S0)
// ⭐ SSOT: S0 입력 스냅샷 인터페이스
type SnapshotLoader interface {
	Load(ctx context.Context, period Period, shippers []ShipperID) (*Snapshot, error)
}

// BatchPublisher renders and uploads one batch (S3)
// ⭐ SSOT: S3 게시 인터페이스
type BatchPublisher interface {
	Publish(ctx context.Context, batch Batch, formats []Format, dryRun bool) ([]Publication, error)
}
