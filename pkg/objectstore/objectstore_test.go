package objectstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/storagelimits/pkg/config"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	body := []byte("<Data/>")
	require.NoError(t, store.Put(ctx, Object{Key: "b.xml", Body: body, ContentType: "application/xml"}))
	require.NoError(t, store.Put(ctx, Object{Key: "a.xls", Body: []byte("x")}))

	// the stored copy is detached from the caller's buffer
	body[0] = 'X'

	got, err := store.Get("b.xml")
	require.NoError(t, err)
	assert.Equal(t, "<Data/>", string(got.Body))
	assert.Equal(t, "application/xml", got.ContentType)
	assert.Equal(t, []string{"a.xls", "b.xml"}, store.Keys())

	_, err = store.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreFailKeys(t *testing.T) {
	boom := errors.New("boom")
	store := NewMemoryStore()
	store.FailKeys = map[string]error{"bad.xml": boom}

	err := store.Put(context.Background(), Object{Key: "bad.xml"})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, store.Keys())
}

func TestLocalStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	require.NoError(t, err)

	obj := Object{
		Key:      "limits/Limits-GRT-J-20240315-15032024101500.xml",
		Body:     []byte("<Data/>"),
		Metadata: map[string]string{"doc-number": "LIMITS20240315A00001"},
	}
	require.NoError(t, store.Put(context.Background(), obj))

	data, err := store.Get(obj.Key)
	require.NoError(t, err)
	assert.Equal(t, "<Data/>", string(data))

	_, err = os.Stat(filepath.Join(dir, "limits", "Limits-GRT-J-20240315-15032024101500.xml.meta.json"))
	assert.NoError(t, err)

	_, err = store.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStoreRejectsEscape(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	err = store.Put(context.Background(), Object{Key: "../outside.xml", Body: []byte("x")})
	assert.Error(t, err)
}

func TestThrottled(t *testing.T) {
	mem := NewMemoryStore()
	store := NewThrottled(mem, 1)

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, Object{Key: "first"}))

	// burst is spent, the next put has to wait ~1s and the deadline is shorter
	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	assert.Error(t, store.Put(short, Object{Key: "second"}))

	assert.Equal(t, []string{"first"}, mem.Keys())
	assert.Equal(t, "mem://x", store.Location("x"))
}

func TestNewLocalBackend(t *testing.T) {
	store, err := New(context.Background(), config.StorageConfig{
		Backend:  "local",
		LocalDir: t.TempDir(),
		PutRate:  5,
	})
	require.NoError(t, err)
	defer store.Close()

	_, ok := store.(*Throttled)
	assert.True(t, ok)
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{Backend: "ftp"})
	assert.Error(t, err)
}
