package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// EmbeddingTokensHeader carries the provider tokens a request consumed.
const EmbeddingTokensHeader = "X-Embedding-Tokens"

// Endpoint labels for the mounted routes.
const (
	EndpointSearch        = "search"
	EndpointItemEmbedding = "item_embedding"
	EndpointRegenerate    = "regenerate"
	EndpointHealth        = "health"
	EndpointMetrics       = "metrics"
	EndpointUnmatched     = "unmatched"
)

var endpoints = map[string]string{
	"/v1/search":                EndpointSearch,
	"/v1/items/embedding":       EndpointItemEmbedding,
	"/v1/embeddings/regenerate": EndpointRegenerate,
	"/health":                   EndpointHealth,
	"/metrics":                  EndpointMetrics,
}

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			// regeneration is paced and can run for minutes
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpEmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_embedding_tokens_total",
			Help:      "Embedding tokens consumed by HTTP requests, per endpoint",
		},
		[]string{"endpoint"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpEmbeddingTokensTotal)
}

// Middleware records HTTP request duration and count per endpoint, and the
// embedding tokens reported through EmbeddingTokensHeader.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(ww.status)
			endpoint := endpointLabel(chi.RouteContext(r.Context()).RoutePattern())

			httpRequestDuration.WithLabelValues(r.Method, endpoint, status).Observe(duration)
			httpRequestsTotal.WithLabelValues(r.Method, endpoint, status).Inc()

			if tokens, err := strconv.Atoi(ww.Header().Get(EmbeddingTokensHeader)); err == nil && tokens > 0 {
				httpEmbeddingTokensTotal.WithLabelValues(endpoint).Add(float64(tokens))
			}
		})
	}
}

// endpointLabel maps a chi route pattern to a fixed endpoint name so unknown
// paths cannot grow label cardinality.
func endpointLabel(pattern string) string {
	if e, ok := endpoints[pattern]; ok {
		return e
	}
	return EndpointUnmatched
}

// statusWriter captures the response status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.wroteHeader = true
	}
	return w.ResponseWriter.Write(b) //nolint:wrapcheck // delegating to underlying ResponseWriter
}
