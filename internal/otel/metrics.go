// Package otel provides lightweight wrapper functions to
// record OpenTelemetry metrics using Temporal activities.
package otel

import (
	"context"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.temporal.io/sdk/workflow"

	"github.com/tzrikka/conduct/internal/logger"
)

const name = "github.com/tzrikka/conduct/internal/otel"

var activityOpts = workflow.LocalActivityOptions{
	ScheduleToCloseTimeout: time.Second,
}

type activityRequest struct {
	Name  string
	Inc   int64
	Attrs map[string]string
}

// InitMetrics sets up a global OTLP metrics exporter, based on the
// "otlp-*" CLI flags. If the exporter is disabled, it returns nil.
func InitMetrics(ctx context.Context, cmd *cli.Command) (*metric.MeterProvider, error) {
	if cmd.Bool("otlp-disabled") {
		return nil, nil
	}

	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpointURL(cmd.String("otlp-endpoint")),
		otlpmetrichttp.WithTimeout(time.Duration(cmd.Int64("otlp-timeout-ms")) * time.Millisecond),
	}
	if cmd.String("otlp-compression") == "gzip" {
		opts = append(opts, otlpmetrichttp.WithCompression(otlpmetrichttp.GzipCompression))
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	reader := metric.NewPeriodicReader(exporter)
	res := resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName("conduct"))
	provider := metric.NewMeterProvider(metric.WithReader(reader), metric.WithResource(res))

	otel.SetMeterProvider(provider)
	return provider, nil
}

// IncrementCounter increments a metric counter. Attributes are optional.
func IncrementCounter(ctx workflow.Context, name string, incr int64, attrs map[string]string) {
	req := activityRequest{Name: name, Inc: incr, Attrs: attrs}
	ctx = workflow.WithLocalActivityOptions(ctx, activityOpts)
	if err := workflow.ExecuteLocalActivity(ctx, incrementCounterActivity, req).Get(ctx, nil); err != nil {
		logger.From(ctx).Error("failed to increment metric counter", slog.Any("error", err),
			slog.String("name", name), slog.Any("attrs", attrs))
	}
}

func incrementCounterActivity(ctx context.Context, req activityRequest) error {
	meter := otel.GetMeterProvider().Meter(name)
	counter, err := meter.Int64Counter(req.Name)
	if err != nil {
		return err
	}

	attrs := make([]attribute.KeyValue, 0, len(req.Attrs))
	for k, v := range req.Attrs {
		if v == "" {
			continue
		}
		attrs = append(attrs, attribute.String(k, v))
	}

	counter.Add(ctx, req.Inc, otelmetric.WithAttributes(attrs...))
	return nil
}

// SignalReceived increments a metric that a Temporal signal was
// received from Timpani, triggered by an incoming webhook event.
func SignalReceived(ctx workflow.Context, name string, draining bool) {
	msg := "received signal"
	if draining {
		msg += " while draining"
	}
	logger.From(ctx).Info(msg, slog.String("signal_name", name))
	IncrementCounter(ctx, "signal.received", 1, map[string]string{"signal_name": name})
}

// ReportsFiled counts Airtable rows created by a single form submission.
// The resolution label must have a low cardinality (not free text).
func ReportsFiled(ctx workflow.Context, count int, resolutionLabel string) {
	IncrementCounter(ctx, "reports.filed", int64(count), map[string]string{"resolution": resolutionLabel})
}

// CaseEscalated counts urgent re-prompts posted by the tracker sweep.
func CaseEscalated(ctx workflow.Context, channelID string) {
	IncrementCounter(ctx, "cases.escalated", 1, map[string]string{"channel_id": channelID})
}

// AuditEventRelayed counts Hackatime audit events announced in Slack.
func AuditEventRelayed(ctx workflow.Context) {
	IncrementCounter(ctx, "audit.relayed", 1, nil)
}
