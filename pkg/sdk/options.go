package feedsearch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	password string
	db       int

	indexPath      string
	batchSize      int
	commitInterval time.Duration
	pollInterval   time.Duration

	maxClauseCount   int
	resultLimit      int
	reindexBatchSize int

	locationCacheSize int
	locationCacheTTL  time.Duration

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithRedis configures the entity store connection.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedisDB selects the logical Redis database.
func WithRedisDB(db int) Option {
	return optionFunc(func(c *clientConfig) {
		c.db = db
	})
}

// WithIndexPath stores the index on disk at path. Without it the index lives
// in memory and is lost on Close.
func WithIndexPath(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.indexPath = path
	})
}

// WithCommitPolicy sets the number of pending mutations that triggers a commit
// and the interval of background commits.
// Defaults: 500 mutations, 1s.
func WithCommitPolicy(batchSize int, interval time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.batchSize = batchSize
		c.commitInterval = interval
	})
}

// WithMaxClauseCount sets the initial clause ceiling of compiled queries.
// Default: 1024.
func WithMaxClauseCount(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxClauseCount = n
	})
}

// WithResultLimit caps the number of ranked hits. Default: unlimited.
func WithResultLimit(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.resultLimit = n
	})
}

// WithLocationCache sizes the cache of resolved folder locations.
// Defaults: 1024 entries, 5m.
func WithLocationCache(size int, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.locationCacheSize = size
		c.locationCacheTTL = ttl
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
