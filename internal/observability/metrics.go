// Package observability holds the Prometheus metrics and log handler setup.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//nolint:gochecknoglobals // Prometheus metrics must be global for registration
var (
	// RosterRowsTotal counts roster rows read, by outcome.
	RosterRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "absentee_roster_rows_total",
			Help: "Roster rows read from uploads and files",
		},
		[]string{"result"}, // result: accepted, never_attended
	)

	// RosterRejectedTotal counts roster loads rejected before a draft was built.
	RosterRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "absentee_roster_rejected_total",
			Help: "Roster loads rejected by validation",
		},
		[]string{"reason"}, // reason: schema, date, format
	)

	// DraftsComputedTotal counts drafts produced by the engine.
	DraftsComputedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "absentee_drafts_computed_total",
			Help: "Drafts computed",
		},
	)

	// DraftComputeDuration measures normalisation plus windowing time.
	DraftComputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "absentee_draft_compute_duration_seconds",
			Help:    "Time to compute a draft from a roster",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
	)

	// ReportsFinalizedTotal counts finalized reports by delivery channel.
	ReportsFinalizedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "absentee_reports_finalized_total",
			Help: "Reports finalized",
		},
		[]string{"source"}, // source: web, cli
	)

	// CurationErrorsTotal counts selections rejected for not matching their draft.
	CurationErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "absentee_curation_errors_total",
			Help: "Operator selections rejected as inconsistent with the draft",
		},
	)

	// LoginAttemptsTotal counts operator sign-in attempts.
	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "absentee_login_attempts_total",
			Help: "Operator login attempts",
		},
		[]string{"result"}, // result: success, failure, locked
	)

	// DraftsActive tracks drafts held in memory awaiting curation.
	DraftsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "absentee_drafts_active",
			Help: "Drafts awaiting curation",
		},
	)
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
