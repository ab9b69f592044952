package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ActivitiesLogged     prometheus.Counter
	DuplicatesSuppressed prometheus.Counter
	LogInsertFailures    prometheus.Counter
	UsernameCacheHits    prometheus.Counter
	UsernameCacheMisses  prometheus.Counter
	UsernameLookupErrors prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		ActivitiesLogged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "modguard_activity_logged_total",
			Help: "Total number of activity log entries stored",
		}),
		DuplicatesSuppressed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "modguard_activity_duplicates_suppressed_total",
			Help: "Total number of activity entries dropped by the dedup window",
		}),
		LogInsertFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "modguard_activity_insert_failures_total",
			Help: "Total number of swallowed activity insert failures",
		}),
		UsernameCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "modguard_username_cache_hits_total",
			Help: "Username cache hits during log enrichment",
		}),
		UsernameCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "modguard_username_cache_misses_total",
			Help: "Username cache misses during log enrichment",
		}),
		UsernameLookupErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "modguard_username_lookup_errors_total",
			Help: "Failed or timed-out Discord username lookups",
		}),
	}
}
