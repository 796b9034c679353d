package entity

import (
	"context"
	"maps"
	"path"
	"slices"
	"strconv"
	"sync"

	"github.com/kailas-cloud/feedsearch/internal/db"
)

// mockStore is an in-memory store for tests.
type mockStore struct {
	mu       sync.Mutex
	hashes   map[string]map[string]string
	kv       map[string]string
	hgetalls int
	scanErr  error
	pageSize int
}

func newMockStore() *mockStore {
	return &mockStore{
		hashes:   make(map[string]map[string]string),
		kv:       make(map[string]string),
		pageSize: 2,
	}
}

func (m *mockStore) HSet(_ context.Context, key string, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hashes[key] == nil {
		m.hashes[key] = make(map[string]string)
	}
	maps.Copy(m.hashes[key], fields)
	return nil
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	for _, it := range items {
		if err := m.HSet(ctx, it.Key, it.Fields); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hgetalls++
	h, ok := m.hashes[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return maps.Clone(h), nil
}

func (m *mockStore) HGetAllMulti(_ context.Context, keys []string) ([]map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		out[i] = maps.Clone(m.hashes[k])
	}
	return out, nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.hashes, key)
	delete(m.kv, key)
	return nil
}

func (m *mockStore) Scan(_ context.Context, pattern string, fn func(keys []string) error) error {
	if m.scanErr != nil {
		return m.scanErr
	}
	m.mu.Lock()
	var keys []string
	for k := range m.hashes {
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	m.mu.Unlock()
	slices.Sort(keys)

	for start := 0; start < len(keys); start += m.pageSize {
		end := min(start+m.pageSize, len(keys))
		if err := fn(keys[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.kv[key]
	if !ok {
		return "", db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) SetAndCount(_ context.Context, key, value, counter string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv[key] = value
	n, _ := strconv.ParseInt(m.kv[counter], 10, 64)
	n++
	m.kv[counter] = strconv.FormatInt(n, 10)
	return n, nil
}
