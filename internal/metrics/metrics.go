// Package metrics provides Prometheus instrumentation for the Bestie server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/manmitra-core/server/internal/agent/gateway"
	"github.com/manmitra-core/server/internal/agent/model"
)

// Metrics holds all Prometheus metric collectors.
type Metrics struct {
	RequestsTotal       *prometheus.CounterVec
	RequestDuration     *prometheus.HistogramVec
	ActiveRequests      prometheus.Gauge
	GatewayOutcomes     *prometheus.CounterVec
	ModelCallDuration   *prometheus.HistogramVec
	CrisisDetected      *prometheus.CounterVec
	ModerationDecisions *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	reg.MustRegister(prometheus.NewGoCollector())
	reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bestie_http_requests_total",
				Help: "Total HTTP requests by endpoint and status code.",
			},
			[]string{"endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bestie_http_request_duration_seconds",
				Help:    "HTTP request latency distribution.",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
			},
			[]string{"endpoint"},
		),
		ActiveRequests: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "bestie_http_active_requests",
				Help: "Number of requests currently being processed.",
			},
		),
		GatewayOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bestie_gateway_outcomes_total",
				Help: "Gateway responses by path (cached, generated, fallback) and fallback reason.",
			},
			[]string{"kind", "reason"},
		),
		ModelCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bestie_model_call_duration_seconds",
				Help:    "Latency of upstream model calls.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32},
			},
			[]string{"result"},
		),
		CrisisDetected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bestie_crisis_detected_total",
				Help: "Chat messages routed to the crisis responder by severity.",
			},
			[]string{"severity"},
		),
		ModerationDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bestie_moderation_decisions_total",
				Help: "Moderation verdicts by decision and method.",
			},
			[]string{"decision", "method"},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.ActiveRequests,
		m.GatewayOutcomes,
		m.ModelCallDuration,
		m.CrisisDetected,
		m.ModerationDecisions,
	)

	return m
}

// Handler returns an http.Handler that serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WatchGateway exports the gateway's admission state as gauges sampled on scrape.
func (m *Metrics) WatchGateway(status func() gateway.Status) {
	gauge := func(name, help string, v func(gateway.Status) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, func() float64 {
			return v(status())
		})
	}
	m.registry.MustRegister(
		gauge("bestie_gateway_requests_this_minute", "Model calls admitted in the trailing minute.",
			func(s gateway.Status) float64 { return float64(s.RequestsThisMinute) }),
		gauge("bestie_gateway_daily_tokens_used", "Estimated tokens spent today.",
			func(s gateway.Status) float64 { return float64(s.DailyTokensUsed) }),
		gauge("bestie_gateway_cache_size", "Entries in the response cache.",
			func(s gateway.Status) float64 { return float64(s.CacheSize) }),
		gauge("bestie_gateway_in_backoff", "1 while model calls are suspended by backoff.",
			func(s gateway.Status) float64 {
				if s.InBackoff {
					return 1
				}
				return 0
			}),
	)
}

// ObserveOutcome implements gateway.Observer.
func (m *Metrics) ObserveOutcome(o gateway.Outcome) {
	m.GatewayOutcomes.WithLabelValues(string(o.Kind), string(o.Reason)).Inc()
}

// ObserveModelCall implements gateway.Observer.
func (m *Metrics) ObserveModelCall(d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ModelCallDuration.WithLabelValues(result).Observe(d.Seconds())
}

func (m *Metrics) RecordCrisis(severity model.Severity) {
	m.CrisisDetected.WithLabelValues(string(severity)).Inc()
}

func (m *Metrics) RecordModeration(res model.ModerationResult) {
	m.ModerationDecisions.WithLabelValues(string(res.Decision), res.Method).Inc()
}

// RecordRequest records a completed request's metrics.
func (m *Metrics) RecordRequest(endpoint string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	m.RequestsTotal.WithLabelValues(endpoint, status).Inc()
	m.RequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// Middleware returns an HTTP middleware that instruments requests.
func (m *Metrics) Middleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.ActiveRequests.Inc()
		defer m.ActiveRequests.Dec()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rw, r)

		m.RecordRequest(endpoint, rw.statusCode, time.Since(start))
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

var _ gateway.Observer = (*Metrics)(nil)
