package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds the Prometheus collectors shared by the commands. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Classification
	classifiedTotal      *prometheus.CounterVec
	extractFailuresTotal *prometheus.CounterVec
	decodeErrorsTotal    *prometheus.CounterVec

	// Fetching
	fetchRequestsTotal *prometheus.CounterVec
	fetchDuration      *prometheus.HistogramVec
	heightsScanned     prometheus.Counter

	// Sinks
	recordsWrittenTotal *prometheus.CounterVec
	sinkWriteDuration   *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		classifiedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txscope_classified_total",
				Help: "Transactions classified, by event tag",
			},
			[]string{"event_type"},
		),
		extractFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txscope_extract_failures_total",
				Help: "Recovered field extraction failures, by field",
			},
			[]string{"field"},
		),
		decodeErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txscope_decode_errors_total",
				Help: "Raw payloads that could not be decoded, by source",
			},
			[]string{"source"},
		),
		fetchRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txscope_fetch_requests_total",
				Help: "Ledger queries, by source and status",
			},
			[]string{"source", "status"},
		),
		fetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "txscope_fetch_duration_seconds",
				Help:    "Duration of ledger queries in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"source"},
		),
		heightsScanned: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "txscope_heights_scanned_total",
				Help: "Block heights scanned by fetch",
			},
		),
		recordsWrittenTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txscope_records_written_total",
				Help: "Records written, by sink",
			},
			[]string{"sink"},
		),
		sinkWriteDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "txscope_sink_write_duration_seconds",
				Help:    "Duration of sink batch writes in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"sink"},
		),
	}
}

// Registry exposes the underlying registry for handlers and tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) RecordClassified(eventType string) {
	if m == nil {
		return
	}
	m.classifiedTotal.WithLabelValues(eventType).Inc()
}

func (m *Metrics) RecordExtractFailure(field string) {
	if m == nil {
		return
	}
	m.extractFailuresTotal.WithLabelValues(field).Inc()
}

func (m *Metrics) RecordDecodeError(source string) {
	if m == nil {
		return
	}
	m.decodeErrorsTotal.WithLabelValues(source).Inc()
}

// RecordFetch records one ledger query with its duration.
func (m *Metrics) RecordFetch(source string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.fetchRequestsTotal.WithLabelValues(source, status).Inc()
	m.fetchDuration.WithLabelValues(source).Observe(duration.Seconds())
}

func (m *Metrics) RecordHeightScanned() {
	if m == nil {
		return
	}
	m.heightsScanned.Inc()
}

// RecordWrite records a sink batch write.
func (m *Metrics) RecordWrite(sink string, count int, duration time.Duration) {
	if m == nil {
		return
	}
	m.recordsWrittenTotal.WithLabelValues(sink).Add(float64(count))
	m.sinkWriteDuration.WithLabelValues(sink).Observe(duration.Seconds())
}

// Serve exposes /metrics on addr until ctx is cancelled. An empty addr is a no-op.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *zap.Logger) {
	if m == nil || addr == "" {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("metrics server start", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown failed", zap.Error(err))
		}
	}()
}
