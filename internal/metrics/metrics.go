package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	requestSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "maru",
			Name:      "request_submitted_total",
			Help:      "Count of accepted rental submissions by room category.",
		},
		[]string{"category"},
	)

	validationIssue = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "maru",
			Name:      "validation_issue_total",
			Help:      "Count of validation issues by issue code.",
		},
		[]string{"code"},
	)

	staffDecision = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "maru",
			Name:      "staff_decision_total",
			Help:      "Count of staff decisions over rental requests by resulting status.",
		},
		[]string{"status"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(requestSubmitted, validationIssue, staffDecision)
	})
}

func IncRequestSubmitted(category string) {
	requestSubmitted.WithLabelValues(category).Inc()
}

func IncValidationIssue(code string) {
	validationIssue.WithLabelValues(code).Inc()
}

func IncStaffDecision(status string) {
	staffDecision.WithLabelValues(status).Inc()
}
