package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ChatSendDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ai_studio_chat_send_duration_seconds",
			Help:    "Chat round-trip duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)

	ChatMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_studio_chat_messages_total",
			Help: "Total chat messages processed",
		},
		[]string{"status"},
	)

	CodeSnippetsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ai_studio_code_snippets_total",
			Help: "Total code snippets generated in assistant replies",
		},
	)

	ActiveUsers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ai_studio_active_users",
			Help: "Users active within the tracking retention window",
		},
	)

	UserRating = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ai_studio_user_rating",
			Help: "Running average user rating",
		},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_studio_llm_tokens_used",
			Help: "Total LLM tokens used",
		},
		[]string{"type"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_studio_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_studio_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)
)

func Init() {
	prometheus.MustRegister(ChatSendDuration)
	prometheus.MustRegister(ChatMessagesTotal)
	prometheus.MustRegister(CodeSnippetsTotal)
	prometheus.MustRegister(ActiveUsers)
	prometheus.MustRegister(UserRating)
	prometheus.MustRegister(LLMTokensUsed)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
