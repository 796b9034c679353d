package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/feedsearch/internal/db"
)

// Get returns the string stored at key. A missing key yields db.ErrKeyNotFound.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.do(ctx, s.b().Get().Key(key).Build()).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return "", db.ErrKeyNotFound
		}
		return "", &db.Error{Op: db.OpGet, Err: err}
	}
	return v, nil
}

// SetAndCount stores value at key and increments counter in one round-trip.
// It returns the counter after the increment.
func (s *Store) SetAndCount(ctx context.Context, key, value, counter string) (int64, error) {
	results := s.client.DoMulti(ctx,
		s.b().Set().Key(key).Value(value).Build(),
		s.b().Incr().Key(counter).Build(),
	)
	if err := results[0].Error(); err != nil {
		return 0, &db.Error{Op: db.OpSet, Err: fmt.Errorf("key %s: %w", key, err)}
	}
	n, err := results[1].AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpIncr, Err: fmt.Errorf("key %s: %w", counter, err)}
	}
	return n, nil
}
