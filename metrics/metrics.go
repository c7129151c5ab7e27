package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds all Prometheus collectors for the application
type Metrics struct {
	Registry          *prometheus.Registry
	ComplaintsCreated *prometheus.CounterVec
	StatusChanges     *prometheus.CounterVec
	Votes             *prometheus.CounterVec
	RateLimited       prometheus.Counter
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry, so tests can build as many
// as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		ComplaintsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wardsync_complaints_created_total",
			Help: "Complaints accepted, by AI category.",
		}, []string{"category"}),
		StatusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wardsync_complaint_status_changes_total",
			Help: "Complaint status transitions, by target status.",
		}, []string{"status"}),
		Votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wardsync_votes_total",
			Help: "Upvotes added and removed.",
		}, []string{"action"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wardsync_complaints_rate_limited_total",
			Help: "Complaint submissions rejected by the daily limit.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wardsync_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wardsync_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(
		m.ComplaintsCreated,
		m.StatusChanges,
		m.Votes,
		m.RateLimited,
		m.HTTPRequests,
		m.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}
