package rest

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metric definitions for the assessment pipeline

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clg",
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clg",
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~32s
		},
		[]string{"method"},
	)

	// Claim domain metrics
	claimsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clg",
			Subsystem: "claims",
			Name:      "submitted_total",
			Help:      "Total number of claims submitted",
		},
		[]string{"claim_type"},
	)

	claimStatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clg",
			Subsystem: "claims",
			Name:      "status_changes_total",
			Help:      "Total number of claim status transitions",
		},
		[]string{"status"},
	)

	riskScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "clg",
			Subsystem: "risk",
			Name:      "score",
			Help:      "Distribution of computed risk scores",
			Buckets:   prometheus.LinearBuckets(0, 10, 11), // 0 to 100
		},
	)

	documentsAnalyzed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clg",
			Subsystem: "forensics",
			Name:      "documents_analyzed_total",
			Help:      "Total number of documents run through forensic analysis",
		},
		[]string{"result"},
	)

	// Decision policy metrics
	decisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clg",
			Subsystem: "policy",
			Name:      "decisions_total",
			Help:      "Total number of claim decisions",
		},
		[]string{"action", "source"},
	)

	feedbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clg",
			Subsystem: "policy",
			Name:      "feedback_total",
			Help:      "Total number of reviewer feedback signals",
		},
		[]string{"outcome"},
	)

	policyVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "clg",
			Subsystem: "policy",
			Name:      "version",
			Help:      "Currently published decision policy version",
		},
	)

	trainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clg",
			Subsystem: "policy",
			Name:      "training_runs_total",
			Help:      "Total number of training passes",
		},
		[]string{"result"},
	)
)

// MetricsHandler returns the Prometheus metrics handler
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// metricsMiddleware records request counts and latency per method.
func metricsMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			httpRequestsTotal.WithLabelValues(r.Method, statusCodeClass(rec.status)).Inc()
			httpRequestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
		})
	}
}

// statusCodeClass returns the status code class (2xx, 3xx, 4xx, 5xx)
func statusCodeClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}

func recordClaimSubmitted(claimType string) {
	claimsSubmitted.WithLabelValues(claimType).Inc()
}

func recordStatusChange(status string) {
	claimStatusChanges.WithLabelValues(status).Inc()
}

func recordRiskScore(score float64) {
	riskScores.Observe(score)
}

func recordDocumentAnalyzed(valid bool) {
	result := "valid"
	if !valid {
		result = "invalid"
	}
	documentsAnalyzed.WithLabelValues(result).Inc()
}

func recordDecision(action, source string) {
	decisionsTotal.WithLabelValues(action, source).Inc()
}

func recordFeedback(wasCorrect bool) {
	outcome := "correct"
	if !wasCorrect {
		outcome = "incorrect"
	}
	feedbackTotal.WithLabelValues(outcome).Inc()
}

func recordTrainingRun(err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	trainingRuns.WithLabelValues(result).Inc()
}

func setPolicyVersion(version int) {
	policyVersion.Set(float64(version))
}
