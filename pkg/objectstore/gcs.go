package objectstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore uploads to a Google Cloud Storage bucket
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore prefers explicit service account JSON, then falls back to ADC
// (GOOGLE_APPLICATION_CREDENTIALS or the runtime service account).
func NewGCSStore(ctx context.Context, bucket, credentialsJSON string) (*GCSStore, error) {
	if bucket == "" {
		return nil, errors.New("gcs bucket is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(credentialsJSON) != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}

	return &GCSStore{client: client, bucket: bucket}, nil
}

func (g *GCSStore) Put(ctx context.Context, obj Object) error {
	wc := g.client.Bucket(g.bucket).Object(obj.Key).NewWriter(ctx)
	wc.ContentType = obj.ContentType
	wc.Metadata = obj.Metadata

	if _, err := wc.Write(obj.Body); err != nil {
		_ = wc.Close()
		return fmt.Errorf("gcs write %s: %w", obj.Key, err)
	}
	// the object only exists once Close succeeds
	if err := wc.Close(); err != nil {
		return fmt.Errorf("gcs close %s: %w", obj.Key, err)
	}

	return nil
}

func (g *GCSStore) Location(key string) string {
	return fmt.Sprintf("gs://%s/%s", g.bucket, key)
}

func (g *GCSStore) Close() error {
	return g.client.Close()
}
