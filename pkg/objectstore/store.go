package objectstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wonny/storagelimits/pkg/config"
)

// ErrNotFound is returned by stores that can read back an object
var ErrNotFound = errors.New("object not found")

// Object is one document to upload
type Object struct {
	Key         string
	Body        []byte
	ContentType string
	Metadata    map[string]string
}

// Store is the upload target of the published documents
// ⭐ SSOT: 모든 업로드는 이 인터페이스를 통해서만 수행
type Store interface {
	Put(ctx context.Context, obj Object) error
	// Location renders the URL-ish address of key, for logs and reports
	Location(key string) string
	Close() error
}

// New builds the store selected by STORAGE_BACKEND, rate limited when STORAGE_PUT_RATE > 0
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	var (
		store Store
		err   error
	)

	switch strings.ToLower(cfg.Backend) {
	case "s3":
		store, err = NewS3Store(ctx, S3Options{
			Bucket:   cfg.Bucket,
			Region:   cfg.Region,
			Endpoint: cfg.Endpoint,
		})
	case "gcs":
		store, err = NewGCSStore(ctx, cfg.Bucket, cfg.CredentialsJSON)
	case "local":
		store, err = NewLocalStore(cfg.LocalDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s store: %w", cfg.Backend, err)
	}

	if cfg.PutRate > 0 {
		store = NewThrottled(store, cfg.PutRate)
	}

	return store, nil
}
