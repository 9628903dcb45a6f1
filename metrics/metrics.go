package metrics

import (
	"net/http"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courtside_http_requests_total",
		Help: "Total number of HTTP requests processed, by method and status code.",
	}, []string{"method", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "courtside_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	matchesConfirmedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "courtside_matches_confirmed_total",
		Help: "Total number of match results confirmed by a witness.",
	})

	tournamentsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "courtside_tournaments_completed_total",
		Help: "Total number of tournaments transitioned to COMPLETED.",
	})
)

// Handler отдаёт метрики в формате Prometheus.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware считает запросы и их длительность.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		httpRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(ww.Status())).Inc()
		httpRequestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

func IncMatchConfirmed() {
	matchesConfirmedTotal.Inc()
}

func IncTournamentCompleted() {
	tournamentsCompletedTotal.Inc()
}
