package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cert_evaluator"

var (
	// turnsTotal counts processed conversation turns.
	// Labels: status (state after the turn), intent
	turnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "conversation",
		Name:      "turns_total",
		Help:      "Conversation turns by resulting status and intent",
	}, []string{"status", "intent"})

	// evaluationsTotal counts persisted evaluations.
	// Labels: outcome (passed, failed)
	evaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "evaluation",
		Name:      "runs_total",
		Help:      "Evaluations by outcome",
	}, []string{"outcome"})

	evaluationScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "evaluation",
		Name:      "score",
		Help:      "Distribution of overall evaluation scores",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})

	// collaboratorLatency measures retrieval, LLM, embedding and extraction calls.
	// Labels: collaborator, outcome (ok, error, timeout, parse_error)
	collaboratorLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "collaborator",
		Name:      "latency_seconds",
		Help:      "Collaborator call latency in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"collaborator", "outcome"})

	indexingTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "indexing",
		Name:      "documents_total",
		Help:      "Indexed documents by final status",
	}, []string{"status"})
)

func RecordTurn(status, intent string) {
	turnsTotal.WithLabelValues(status, intent).Inc()
}

func RecordEvaluation(score float64, passed bool) {
	outcome := "failed"
	if passed {
		outcome = "passed"
	}
	evaluationsTotal.WithLabelValues(outcome).Inc()
	evaluationScore.Observe(score)
}

func RecordCollaborator(collaborator, outcome string, started time.Time) {
	collaboratorLatency.WithLabelValues(collaborator, outcome).Observe(time.Since(started).Seconds())
}

func RecordIndexing(status string) {
	indexingTotal.WithLabelValues(status).Inc()
}

var auditedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "audit",
	Name:      "events_total",
	Help:      "Domain events seen by the audit worker",
}, []string{"type"})

func RecordAuditedEvent(eventType string) {
	auditedEvents.WithLabelValues(eventType).Inc()
}
