package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
	Payments  *prometheus.CounterVec
}

// NewServerMetrics registers the HTTP and payment collectors on reg. A nil
// reg means the default registry.
func NewServerMetrics(service string, reg prometheus.Registerer) *ServerMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mallow",
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mallow",
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})
	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mallow",
		Subsystem: service,
		Name:      "checkout_observations_total",
		Help:      "Payment status observations by source and payment status.",
	}, []string{"source", "payment_status"})

	reg.MustRegister(requests, latency, payments)
	return &ServerMetrics{Requests: requests, LatencyMS: latency, Payments: payments}
}

// Middleware records one request count and latency sample per request,
// labelled with the matched chi route pattern.
func (m *ServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		handler := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				handler = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.Requests.WithLabelValues(handler, strconv.Itoa(status)).Inc()
		m.LatencyMS.WithLabelValues(handler).Observe(float64(time.Since(start).Milliseconds()))
	})
}

// ObservePayment counts a payment status seen through polling or a webhook.
func (m *ServerMetrics) ObservePayment(source, paymentStatus string) {
	m.Payments.WithLabelValues(source, paymentStatus).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor serves the collectors registered on g.
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
