// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SignupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signup_events_total",
			Help: "Total number of sign-up and withdrawal events",
		},
		[]string{"sheet", "action"},
	)

	SlotMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slot_mutations_total",
			Help: "Total number of slot create/update/delete operations",
		},
		[]string{"op"},
	)

	GradeUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grade_updates_total",
			Help: "Total number of grading mutations",
		},
		[]string{"sheet", "endpoint"},
	)

	FinalGradeHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "final_grade",
			Help:    "Distribution of final grades",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
		[]string{"sheet"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
