package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "brokenexp",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status.",
	}, []string{"method", "route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "brokenexp",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	togglesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "brokenexp",
		Name:      "toggles_total",
		Help:      "Upvote and bookmark toggles by resulting state.",
	}, []string{"kind", "active"})

	issuesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "brokenexp",
		Name:      "issues_created_total",
		Help:      "Issues reported.",
	})

	searchFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "brokenexp",
		Name:      "search_similar_results_total",
		Help:      "Searches answered with similar results because nothing matched exactly.",
	})

	reputationRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "brokenexp",
		Name:      "reputation_runs_total",
		Help:      "Reputation job runs by outcome.",
	}, []string{"outcome"})

	badgesAwarded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "brokenexp",
		Name:      "badges_awarded_total",
		Help:      "Badges awarded by the reputation job.",
	})
)

// Middleware records request count and latency under the matched route pattern.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		requestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves /metrics.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

func Toggle(kind string, active bool) {
	togglesTotal.WithLabelValues(kind, strconv.FormatBool(active)).Inc()
}

func IssueCreated() {
	issuesCreated.Inc()
}

func SearchFallback() {
	searchFallbacks.Inc()
}

func ReputationRun(profiles, awarded int, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	reputationRuns.WithLabelValues(outcome).Inc()
	badgesAwarded.Add(float64(awarded))
}
