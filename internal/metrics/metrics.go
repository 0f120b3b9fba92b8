// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yamdb_http_requests_total",
			Help: "Total HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "yamdb_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	AuthzDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yamdb_authz_decisions_total",
			Help: "Total authorization decisions by subject, kind, action and outcome",
		},
		[]string{"subject", "kind", "action", "decision"},
	)

	MailDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yamdb_mail_deliveries_total",
			Help: "Confirmation mail deliveries by backend and result",
		},
		[]string{"backend", "result"},
	)

	FixtureRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yamdb_fixture_rows_total",
			Help: "Fixture rows processed by table and result",
		},
		[]string{"table", "result"},
	)
)
