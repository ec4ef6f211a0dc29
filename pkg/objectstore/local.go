package objectstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes objects below a directory; metadata goes to a "{key}.meta.json" sidecar
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	return &LocalStore{dir: dir}, nil
}

func (l *LocalStore) path(key string) (string, error) {
	p := filepath.Join(l.dir, filepath.FromSlash(key))
	rel, err := filepath.Rel(l.dir, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("key %q escapes %s", key, l.dir)
	}
	return p, nil
}

func (l *LocalStore) Put(ctx context.Context, obj Object) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := l.path(obj.Key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(p, obj.Body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", obj.Key, err)
	}

	if len(obj.Metadata) > 0 {
		meta, err := json.MarshalIndent(obj.Metadata, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(p+".meta.json", meta, 0o644); err != nil {
			return fmt.Errorf("write %s metadata: %w", obj.Key, err)
		}
	}

	return nil
}

// Get reads back an object body
func (l *LocalStore) Get(key string) ([]byte, error) {
	p, err := l.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return data, err
}

func (l *LocalStore) Location(key string) string {
	return "file://" + filepath.Join(l.dir, filepath.FromSlash(key))
}

func (l *LocalStore) Close() error { return nil }
