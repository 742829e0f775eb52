// Package metrics holds the prometheus collectors of the portal.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "records_portal"

var (
	backendCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "backend",
		Name:      "call_duration_seconds",
		Help:      "Duration of calls to the records backend.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	documentCheckins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "documents",
		Name:      "checkins_total",
		Help:      "Document checkin attempts by outcome.",
	}, []string{"outcome"})

	documentCheckouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "documents",
		Name:      "checkouts_total",
		Help:      "Document checkout attempts by outcome.",
	}, []string{"outcome"})

	conflictResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "documents",
		Name:      "conflict_resolutions_total",
		Help:      "Conflict resolutions chosen by users.",
	}, []string{"resolution"})

	questionnaireSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "questionnaires",
		Name:      "submissions_total",
		Help:      "Questionnaire submissions and drafts by outcome.",
	}, []string{"kind", "outcome"})

	validationWarnings = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "questionnaires",
		Name:      "validation_warnings_total",
		Help:      "Page advances or submissions blocked by unanswered required questions.",
	})

	activeSessions = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "portal",
		Name:      "active_sessions",
		Help:      "Open editor and questionnaire sessions.",
	}, []string{"kind"})
)

// ObserveBackendCall records one backend round trip. status is 0 for
// transport failures.
func ObserveBackendCall(method string, route string, status int, d time.Duration) {
	backendCallDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func CountCheckout(outcome string) {
	documentCheckouts.WithLabelValues(outcome).Inc()
}

func CountCheckin(outcome string) {
	documentCheckins.WithLabelValues(outcome).Inc()
}

func CountConflictResolution(resolution string) {
	conflictResolutions.WithLabelValues(resolution).Inc()
}

func CountQuestionnaireSubmission(kind string, outcome string) {
	questionnaireSubmissions.WithLabelValues(kind, outcome).Inc()
}

func CountValidationWarning() {
	validationWarnings.Inc()
}

func SetActiveSessions(kind string, n int) {
	activeSessions.WithLabelValues(kind).Set(float64(n))
}
