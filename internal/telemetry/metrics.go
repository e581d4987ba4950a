package telemetry

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/webtools"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Build metrics
	BuildsTotal      metric.Int64Counter
	BuildErrorsTotal metric.Int64Counter
	BuildDuration    metric.Float64Histogram
	OutputFilesTotal metric.Int64Counter
	OutputBytesTotal metric.Int64Counter

	// Dev server metrics
	RequestsTotal    metric.Int64Counter
	NotModifiedTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.BuildsTotal, _ = meter.Int64Counter(
		"webtools.builds.total",
		metric.WithDescription("Total number of asset builds"),
		metric.WithUnit("{build}"),
	)

	m.BuildErrorsTotal, _ = meter.Int64Counter(
		"webtools.builds.errors.total",
		metric.WithDescription("Total number of failed asset builds"),
		metric.WithUnit("{error}"),
	)

	m.BuildDuration, _ = meter.Float64Histogram(
		"webtools.builds.duration",
		metric.WithDescription("Duration of asset builds"),
		metric.WithUnit("ms"),
	)

	m.OutputFilesTotal, _ = meter.Int64Counter(
		"webtools.builds.output.files",
		metric.WithDescription("Total number of files written by builds"),
		metric.WithUnit("{file}"),
	)

	m.OutputBytesTotal, _ = meter.Int64Counter(
		"webtools.builds.output.bytes",
		metric.WithDescription("Total number of bytes written by builds"),
		metric.WithUnit("By"),
	)

	m.RequestsTotal, _ = meter.Int64Counter(
		"webtools.devserver.requests.total",
		metric.WithDescription("Total number of dev server requests"),
		metric.WithUnit("{request}"),
	)

	m.NotModifiedTotal, _ = meter.Int64Counter(
		"webtools.devserver.not_modified.total",
		metric.WithDescription("Total number of requests answered from the client cache"),
		metric.WithUnit("{request}"),
	)

	return m
}

// RecordBuild records one finished build.
func (m *Metrics) RecordBuild(ctx context.Context, mode string, elapsed time.Duration, files int, bytes int64, err error) {
	attrs := metric.WithAttributes(attribute.String("mode", mode))

	m.BuildsTotal.Add(ctx, 1, attrs)
	m.BuildDuration.Record(ctx, float64(elapsed.Milliseconds()), attrs)
	if err != nil {
		m.BuildErrorsTotal.Add(ctx, 1, attrs)
		return
	}
	m.OutputFilesTotal.Add(ctx, int64(files), attrs)
	m.OutputBytesTotal.Add(ctx, bytes, attrs)
}

// RecordRequest records one dev server response.
func (m *Metrics) RecordRequest(ctx context.Context, method string, status int) {
	m.RequestsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.Int("status", status),
	))
	if status == http.StatusNotModified {
		m.NotModifiedTotal.Add(ctx, 1)
	}
}
