package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and the
// verification pipeline.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	verificationTransitions *prometheus.CounterVec
	evidenceUploads         *prometheus.CounterVec
	donationsTotal          prometheus.Counter
	donationsAmountCents    prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	verificationTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "verification_transitions_total",
		Help: "Verification status transitions by target status",
	}, []string{"status"})

	evidenceUploads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "evidence_uploads_total",
		Help: "Evidence file uploads by outcome",
	}, []string{"outcome"})

	donationsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "donations_total",
		Help: "Total recorded donations",
	})

	donationsAmountCents := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "donations_amount_cents_total",
		Help: "Total donated amount in cents",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheHits, cacheMisses,
		verificationTransitions, evidenceUploads, donationsTotal, donationsAmountCents, goroutines)

	return &MetricsService{
		registry:                registry,
		handler:                 promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:         requestDuration,
		requestTotal:            requestTotal,
		cacheHits:               cacheHits,
		cacheMisses:             cacheMisses,
		verificationTransitions: verificationTransitions,
		evidenceUploads:         evidenceUploads,
		donationsTotal:          donationsTotal,
		donationsAmountCents:    donationsAmountCents,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// RecordVerificationTransition counts a status transition.
func (m *MetricsService) RecordVerificationTransition(status string) {
	if m == nil {
		return
	}
	m.verificationTransitions.WithLabelValues(status).Inc()
}

// RecordEvidenceUpload counts one evidence file by outcome.
func (m *MetricsService) RecordEvidenceUpload(outcome string) {
	if m == nil {
		return
	}
	m.evidenceUploads.WithLabelValues(outcome).Inc()
}

// RecordDonation counts a completed donation.
func (m *MetricsService) RecordDonation(amountCents int64) {
	if m == nil {
		return
	}
	m.donationsTotal.Inc()
	m.donationsAmountCents.Add(float64(amountCents))
}
