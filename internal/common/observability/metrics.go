// Package observability records job throughput through OpenTelemetry,
// exported on the Prometheus registry served at /metrics.
package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Job outcomes recorded as the "status" attribute.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusThrown    = "error_thrown"
	StatusUnknown   = "unanswered"
)

type Observability struct {
	meterProvider *metric.MeterProvider
	jobCounter    otelmetric.Int64Counter
	jobDuration   otelmetric.Float64Histogram
}

func New(serviceName string, opts ...prometheus.Option) (*Observability, error) {
	exporter, err := prometheus.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	jobCounter, err := meter.Int64Counter(
		"jobs_processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("create job counter: %w", err)
	}

	jobDuration, err := meter.Float64Histogram(
		"jobs_duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("create job histogram: %w", err)
	}

	return &Observability{
		meterProvider: provider,
		jobCounter:    jobCounter,
		jobDuration:   jobDuration,
	}, nil
}

func (o *Observability) RecordJob(ctx context.Context, taskType, status string, duration time.Duration) {
	attrs := otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	)
	o.jobCounter.Add(ctx, 1, attrs)
	o.jobDuration.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

// Instrument wraps a job handler so every job is counted and timed. The
// outcome is taken from the command the handler sends back to Zeebe.
func (o *Observability) Instrument(taskType string, handler worker.JobHandler) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		rec := &recordingClient{JobClient: client, status: StatusUnknown}
		start := time.Now()
		handler(rec, job)
		o.RecordJob(context.Background(), taskType, rec.status, time.Since(start))
	}
}

func (o *Observability) Shutdown(ctx context.Context) error {
	return o.meterProvider.Shutdown(ctx)
}

// recordingClient notes which terminal command the handler created.
type recordingClient struct {
	worker.JobClient
	status string
}

func (r *recordingClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	r.status = StatusCompleted
	return r.JobClient.NewCompleteJobCommand()
}

func (r *recordingClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	r.status = StatusFailed
	return r.JobClient.NewFailJobCommand()
}

func (r *recordingClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	r.status = StatusThrown
	return r.JobClient.NewThrowErrorCommand()
}
