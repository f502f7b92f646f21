package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "curator",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "curator",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 20},
	}, []string{"method", "path"})

	ProviderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "curator",
		Name:      "provider_requests_total",
		Help:      "Total fetch tasks sent to content providers by provider name and result status.",
	}, []string{"provider", "status"})

	ProviderRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "curator",
		Name:      "provider_request_duration_seconds",
		Help:      "Content provider fetch duration in seconds.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30},
	}, []string{"provider"})

	SearchRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "curator",
		Name:      "search_requests_total",
		Help:      "Total aggregation runs by tier (free or premium).",
	}, []string{"tier"})

	SearchResultCount = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "curator",
		Name:      "search_result_count",
		Help:      "Number of deduplicated results produced per aggregation run.",
		Buckets:   []float64{0, 5, 10, 25, 50, 100, 200},
	}, []string{"tier"})

	PremiumFallbacksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "curator",
		Name:      "premium_fallbacks_total",
		Help:      "Total unified searches that fell back from premium to free providers.",
	})

	ArticlesStoredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "curator",
		Name:      "articles_stored_total",
		Help:      "Total newly stored articles per tab fetch.",
	}, []string{"backend"})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ProviderRequestsTotal,
		ProviderRequestDuration,
		SearchRequestsTotal,
		SearchResultCount,
		PremiumFallbacksTotal,
		ArticlesStoredTotal,
	)
}
