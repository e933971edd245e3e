package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Questions produced, by generation path: llm/fallback
	QuestionsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memory_test_questions_generated_total",
			Help: "Total number of questions generated",
		},
		[]string{"path"},
	)

	TestsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "memory_test_tests_created_total",
			Help: "Total number of tests created",
		},
	)

	// status: success/already_completed/failure
	TestCompletions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memory_test_completions_total",
			Help: "Total number of test completion attempts",
		},
		[]string{"status"},
	)

	// source: llm/fallback
	ReportsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memory_test_reports_generated_total",
			Help: "Total number of patient reports generated",
		},
		[]string{"source"},
	)

	// outcome: ok/quota_exceeded/rate_limited/unconfigured/error
	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memory_test_llm_requests_total",
			Help: "Total number of language model requests",
		},
		[]string{"outcome"},
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "memory_test_llm_request_duration_seconds",
			Help:    "Time spent waiting for the language model",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)
)
