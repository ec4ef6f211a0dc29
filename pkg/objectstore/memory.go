package objectstore

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps objects in memory (dry runs, tests)
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]Object
	// FailKeys makes Put fail for the listed keys
	FailKeys map[string]error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]Object)}
}

func (m *MemoryStore) Put(ctx context.Context, obj Object) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.FailKeys[obj.Key]; ok {
		return err
	}

	body := make([]byte, len(obj.Body))
	copy(body, obj.Body)
	obj.Body = body
	m.objects[obj.Key] = obj

	return nil
}

func (m *MemoryStore) Get(key string) (Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return Object{}, ErrNotFound
	}
	return obj, nil
}

// Keys returns the stored keys in lexical order
func (m *MemoryStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *MemoryStore) Location(key string) string { return "mem://" + key }

func (m *MemoryStore) Close() error { return nil }
