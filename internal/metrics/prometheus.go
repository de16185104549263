package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SynthesisRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatforge_synthesis_runs_total",
			Help: "Total knowledge synthesis runs",
		},
		[]string{"status"},
	)

	SynthesisBatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatforge_synthesis_batches_total",
			Help: "Question batches processed, by outcome",
		},
		[]string{"outcome"},
	)

	SynthesisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chatforge_synthesis_duration_seconds",
			Help:    "Synthesis run duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	KnowledgeGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatforge_knowledge_generated_total",
			Help: "QA pairs that passed the confidence filter",
		},
	)

	KnowledgeSaved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatforge_knowledge_saved_total",
			Help: "QA pairs actually persisted (duplicates skipped)",
		},
	)

	AnalyticsRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatforge_analytics_requests_total",
			Help: "Analytics report requests",
		},
		[]string{"status"},
	)

	AnalyticsDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chatforge_analytics_duration_seconds",
			Help:    "Analytics report build duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 15},
		},
	)

	SentimentDegrades = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatforge_sentiment_degrades_total",
			Help: "Sentiment computations that degraded to zero counts",
		},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatforge_llm_tokens_used_total",
			Help: "Total LLM tokens used",
		},
		[]string{"model", "type"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatforge_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatforge_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)
)

func Init() {
	prometheus.MustRegister(SynthesisRuns)
	prometheus.MustRegister(SynthesisBatches)
	prometheus.MustRegister(SynthesisDuration)
	prometheus.MustRegister(KnowledgeGenerated)
	prometheus.MustRegister(KnowledgeSaved)
	prometheus.MustRegister(AnalyticsRequests)
	prometheus.MustRegister(AnalyticsDuration)
	prometheus.MustRegister(SentimentDegrades)
	prometheus.MustRegister(LLMTokensUsed)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
