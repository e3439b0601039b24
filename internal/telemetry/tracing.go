package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Протоколы OTLP экспортёра.
const (
	ProtocolHTTP = "otlphttp"
	ProtocolGRPC = "otlpgrpc"
)

// TracerName — имя инструментирующей библиотеки.
const TracerName = "github.com/shaiso/obsdemo"

// TracingConfig — настройки трассировки.
type TracingConfig struct {
	Enabled     bool
	Endpoint    string  // "localhost:4318" для otlphttp, "localhost:4317" для otlpgrpc
	Protocol    string  // otlphttp | otlpgrpc
	Insecure    bool    // без TLS
	ServiceName string  // service.name ресурса
	SampleRatio float64 // 0..1
}

// Validate проверяет конфигурацию. Выключенная трассировка всегда валидна.
func (c TracingConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	switch c.Protocol {
	case ProtocolHTTP, ProtocolGRPC:
	default:
		return fmt.Errorf("tracing: unknown protocol %q", c.Protocol)
	}

	if c.SampleRatio < 0 || c.SampleRatio > 1 {
		return errors.New("tracing: sample ratio must be between 0 and 1")
	}

	return nil
}

// Tracing — tracer и функция остановки провайдера.
type Tracing struct {
	Tracer   trace.Tracer
	Shutdown func(context.Context) error
}

// NoopTracing возвращает Tracing без экспорта.
func NoopTracing() *Tracing {
	return &Tracing{
		Tracer:   noop.NewTracerProvider().Tracer(TracerName),
		Shutdown: func(context.Context) error { return nil },
	}
}

// TracingWithProvider оборачивает готовый провайдер (используется в тестах).
func TracingWithProvider(tp trace.TracerProvider) *Tracing {
	return &Tracing{
		Tracer:   tp.Tracer(TracerName),
		Shutdown: func(context.Context) error { return nil },
	}
}

// SetupTracing создаёт TracerProvider с OTLP экспортёром и делает его глобальным.
// Если трассировка выключена, возвращает no-op tracer.
func SetupTracing(ctx context.Context, cfg TracingConfig) (*Tracing, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Пропагатор ставим и при выключенном экспорте.
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if !cfg.Enabled {
		return NoopTracing(), nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(semconv.ServiceName(cfg.ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("build resource: %w", err)
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(cfg.SampleRatio)),
	)
	otel.SetTracerProvider(tp)

	return &Tracing{
		Tracer:   tp.Tracer(TracerName),
		Shutdown: tp.Shutdown,
	}, nil
}

// newSampler выбирает sampler для корневых span. Решение входящего
// traceparent соблюдается при любом ratio.
func newSampler(ratio float64) sdktrace.Sampler {
	var root sdktrace.Sampler
	switch {
	case ratio >= 1:
		root = sdktrace.AlwaysSample()
	case ratio <= 0:
		root = sdktrace.NeverSample()
	default:
		root = sdktrace.TraceIDRatioBased(ratio)
	}
	return sdktrace.ParentBased(root)
}

func newExporter(ctx context.Context, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	switch cfg.Protocol {
	case ProtocolGRPC:
		var opts []otlptracegrpc.Option
		if cfg.Endpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.New(ctx, opts...)
	default:
		var opts []otlptracehttp.Option
		if cfg.Endpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	}
}
