package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	rulesetsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aegis_rulesets_created_total",
		Help: "Total number of rulesets created",
	})
	rulesetsDeletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aegis_rulesets_deleted_total",
		Help: "Total number of rulesets deleted, including retention sweeps",
	})
	rulesetsPrunedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aegis_rulesets_pruned_total",
		Help: "Total number of stale rulesets removed by the retention sweep",
	})
	releaseUpdatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aegis_release_updates_total",
		Help: "Total number of release pointer changes",
	})
	lintRejectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aegis_lint_rejections_total",
		Help: "Total number of ruleset submissions rejected by validation",
	})
	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "aegis_http_requests_total",
		Help: "Total number of HTTP requests by method, route and status",
	}, []string{"method", "path", "status"})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(rulesetsCreatedTotal, rulesetsDeletedTotal,
		rulesetsPrunedTotal, releaseUpdatesTotal, lintRejectionsTotal,
		httpRequestsTotal)
}

// IncRulesetCreated increments the created rulesets counter.
func IncRulesetCreated() { rulesetsCreatedTotal.Inc() }

// IncRulesetDeleted increments the deleted rulesets counter.
func IncRulesetDeleted() { rulesetsDeletedTotal.Inc() }

// AddRulesetsPruned records rulesets removed by one retention sweep.
func AddRulesetsPruned(n int) { rulesetsPrunedTotal.Add(float64(n)) }

// IncReleaseUpdate increments the release changes counter.
func IncReleaseUpdate() { releaseUpdatesTotal.Inc() }

// IncLintRejection increments the rejected submissions counter.
func IncLintRejection() { lintRejectionsTotal.Inc() }

// ObserveHTTPRequest counts one handled request. The path must be the route
// template, not the raw URL, to keep label cardinality bounded.
func ObserveHTTPRequest(method, path string, status int) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}
