package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Search subsystem Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "feedsearch",
			Name:      "search_requests_total",
			Help:      "Total number of search operations",
		},
		[]string{"operation", "status"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "feedsearch",
			Name:      "search_duration_seconds",
			Help:      "Search operation duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation"},
	)

	SearchHits = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "feedsearch",
			Name:      "search_hits",
			Help:      "Number of hits returned per search",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"operation"},
	)

	ClauseCeilingRaisesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "feedsearch",
			Name:      "clause_ceiling_raises_total",
			Help:      "Times the boolean clause ceiling was lifted after a clause explosion",
		},
	)

	AdminOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "feedsearch",
			Name:      "index_admin_operations_total",
			Help:      "Index admin operations by outcome",
		},
		[]string{"operation", "status"},
	)

	ReindexedDocumentsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "feedsearch",
			Name:      "reindexed_documents_total",
			Help:      "News items queued for indexing by full reindex runs",
		},
	)

	IndexDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "feedsearch",
			Name:      "index_documents",
			Help:      "Documents in the index after the last commit",
		},
	)
)

var registerSearchOnce sync.Once

// RegisterSearchMetrics registers the search metrics. Safe to call more than once.
func RegisterSearchMetrics() {
	registerSearchOnce.Do(func() {
		prometheus.MustRegister(
			SearchRequestsTotal,
			SearchDuration,
			SearchHits,
			ClauseCeilingRaisesTotal,
			AdminOperationsTotal,
			ReindexedDocumentsTotal,
			IndexDocuments,
		)
	})
}

// ViewStats is the lifecycle manager snapshot exported as gauges.
type ViewStats struct {
	Views      int
	Generation uint64
	Leases     int64
}

// RegisterViewMetrics exports live view count, published generation and
// outstanding leases, sampled from stats on every scrape.
func RegisterViewMetrics(reg prometheus.Registerer, stats func() ViewStats) error {
	collectors := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "feedsearch",
			Name:      "index_views",
			Help:      "Index views alive, published or draining",
		}, func() float64 { return float64(stats().Views) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "feedsearch",
			Name:      "index_view_generation",
			Help:      "Generation of the published index view",
		}, func() float64 { return float64(stats().Generation) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "feedsearch",
			Name:      "index_view_leases",
			Help:      "Outstanding leases across all index views",
		}, func() float64 { return float64(stats().Leases) }),
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Status returns the status label for an operation outcome.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
