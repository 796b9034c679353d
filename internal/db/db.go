package db

import (
	"context"
	"time"
)

// Store is the key-value facade backing the entity store.
type Store interface {
	Pinger
	HashStore
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashSetItem holds a single key+fields pair for pipelined HSET.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// HashStore provides hash-based key-value operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string, fn func(keys []string) error) error
}

// KVStore provides string values and counters.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetAndCount(ctx context.Context, key, value, counter string) (int64, error)
}

// Index is the inverted index facade: point-in-time snapshots for readers,
// batched mutations for the single writer.
type Index interface {
	Snapshotter
	Batch(ctx context.Context, ops []DocOp) error
	Clear(ctx context.Context) error
	Optimize(ctx context.Context) error
	DocCount() (uint64, error)
	Close() error
}

// Snapshotter opens read-only views of the index.
type Snapshotter interface {
	// Snapshot opens a view of the latest committed state.
	Snapshot() (Snapshot, error)
	// Reopen opens a view newer than prev. It reports false, and returns prev,
	// when nothing was committed since prev was opened.
	Reopen(prev Snapshot) (Snapshot, bool, error)
}

// Snapshot is a read-only, point-in-time view of the index.
type Snapshot interface {
	Search(ctx context.Context, req *SearchRequest) (*SearchResult, error)
	DocCount() (uint64, error)
	Close() error
}

// DocOpKind distinguishes index mutations.
type DocOpKind int

const (
	// DocIndex adds or replaces a document.
	DocIndex DocOpKind = iota
	// DocDelete removes a document.
	DocDelete
)

// DocOp is a single document mutation of a batch.
type DocOp struct {
	Kind     DocOpKind
	ID       string
	Document map[string]any
}
