package otel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config holds OTel configuration
type Config struct {
	Enabled        bool
	ServiceName    string
	BatchTimeout   time.Duration
	LogWriter      io.Writer // OTel log records, required unless Endpoint is set
	MetricWriter   io.Writer // periodic metric dumps, optional
	MetricInterval time.Duration
	Endpoint       string // OTLP/HTTP log endpoint, optional
	Insecure       bool
}

func (c Config) withDefaults() Config {
	if c.ServiceName == "" {
		c.ServiceName = "flightplanner"
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = 30 * time.Second
	}
	if c.MetricInterval <= 0 {
		c.MetricInterval = time.Minute
	}
	return c
}

// Provider owns the OTel log and metric providers of the planner service.
type Provider struct {
	config Config
	logs   *sdklog.LoggerProvider
	meters *sdkmetric.MeterProvider
}

// New creates the providers. A disabled config yields no-op meters and a nil
// logger provider. An enabled meter provider becomes the global one so that
// packages calling otel.Meter report through it.
func New(cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{config: cfg}, nil
	}
	cfg = cfg.withDefaults()
	ctx := context.Background()

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	processors, err := logProcessors(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if len(processors) == 0 {
		return nil, errors.New("OTel enabled but no log writer or endpoint configured")
	}

	logOpts := []sdklog.LoggerProviderOption{sdklog.WithResource(res)}
	for _, proc := range processors {
		logOpts = append(logOpts, sdklog.WithProcessor(proc))
	}
	p := &Provider{config: cfg, logs: sdklog.NewLoggerProvider(logOpts...)}

	if cfg.MetricWriter != nil {
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(cfg.MetricWriter))
		if err != nil {
			return nil, fmt.Errorf("failed to create metric exporter: %w", err)
		}
		reader := sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(cfg.MetricInterval))
		p.meters = sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(reader))
		otel.SetMeterProvider(p.meters)
	}
	return p, nil
}

// logProcessors builds one batch processor per configured log sink.
func logProcessors(ctx context.Context, cfg Config) ([]sdklog.Processor, error) {
	var exporters []sdklog.Exporter

	if cfg.LogWriter != nil {
		exp, err := stdoutlog.New(stdoutlog.WithWriter(cfg.LogWriter), stdoutlog.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create file log exporter: %w", err)
		}
		exporters = append(exporters, exp)
	}

	if cfg.Endpoint != "" {
		opts := []otlploghttp.Option{otlploghttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlploghttp.WithInsecure())
		}
		exp, err := otlploghttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP log exporter: %w", err)
		}
		exporters = append(exporters, exp)
	}

	processors := make([]sdklog.Processor, 0, len(exporters))
	for _, exp := range exporters {
		processors = append(processors, sdklog.NewBatchProcessor(exp, sdklog.WithExportTimeout(cfg.BatchTimeout)))
	}
	return processors, nil
}

// LoggerProvider returns the provider for the otelslog bridge, or nil when
// OTel is disabled.
func (p *Provider) LoggerProvider() *sdklog.LoggerProvider {
	return p.logs
}

// Meter returns a named meter, or a no-op meter when metrics are disabled.
func (p *Provider) Meter(name string) metric.Meter {
	if p.meters == nil {
		return noop.Meter{}
	}
	return p.meters.Meter(name)
}

type lifecycle interface {
	ForceFlush(context.Context) error
	Shutdown(context.Context) error
}

func (p *Provider) each(action string, fn func(lifecycle) error) error {
	var errs []error
	if p.logs != nil {
		if err := fn(p.logs); err != nil {
			errs = append(errs, fmt.Errorf("log %s failed: %w", action, err))
		}
	}
	if p.meters != nil {
		if err := fn(p.meters); err != nil {
			errs = append(errs, fmt.Errorf("metric %s failed: %w", action, err))
		}
	}
	return errors.Join(errs...)
}

// Flush exports pending logs and metrics, e.g. after a plan save.
func (p *Provider) Flush(ctx context.Context) error {
	return p.each("flush", func(l lifecycle) error { return l.ForceFlush(ctx) })
}

// Shutdown stops all providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.each("shutdown", func(l lifecycle) error { return l.Shutdown(ctx) })
}

// Enabled reports whether OTel is enabled.
func (p *Provider) Enabled() bool {
	return p.config.Enabled
}
