package telemetry

import (
	"context"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestTracingConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     TracingConfig
		wantErr bool
	}{
		{"disabled ignores fields", TracingConfig{Protocol: "bogus", SampleRatio: 7}, false},
		{"http", TracingConfig{Enabled: true, Protocol: ProtocolHTTP, SampleRatio: 1}, false},
		{"grpc", TracingConfig{Enabled: true, Protocol: ProtocolGRPC, SampleRatio: 0.5}, false},
		{"unknown protocol", TracingConfig{Enabled: true, Protocol: "zipkin", SampleRatio: 1}, true},
		{"ratio too high", TracingConfig{Enabled: true, Protocol: ProtocolHTTP, SampleRatio: 1.5}, true},
		{"ratio negative", TracingConfig{Enabled: true, Protocol: ProtocolHTTP, SampleRatio: -0.1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSetupTracing_Disabled(t *testing.T) {
	tr, err := SetupTracing(context.Background(), TracingConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, span := tr.Tracer.Start(context.Background(), "noop")
	if span.SpanContext().IsValid() {
		t.Error("disabled tracing must produce invalid span contexts")
	}
	span.End()

	if err := tr.Shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestSetupTracing_InvalidConfig(t *testing.T) {
	if _, err := SetupTracing(context.Background(), TracingConfig{Enabled: true, Protocol: "x"}); err == nil {
		t.Error("expected error for unknown protocol")
	}
}

func TestTracingWithProvider(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tr := TracingWithProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr)))

	_, span := tr.Tracer.Start(context.Background(), "recorded")
	span.End()

	if got := len(sr.Ended()); got != 1 {
		t.Fatalf("expected 1 span, got %d", got)
	}
	if sr.Ended()[0].InstrumentationScope().Name != TracerName {
		t.Errorf("unexpected tracer name %q", sr.Ended()[0].InstrumentationScope().Name)
	}
}

func TestNewSampler_RespectsParent(t *testing.T) {
	parent := func(sampled bool) context.Context {
		var flags trace.TraceFlags
		if sampled {
			flags = trace.FlagsSampled
		}
		sc := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    trace.TraceID{1, 2, 3},
			SpanID:     trace.SpanID{4, 5, 6},
			TraceFlags: flags,
			Remote:     true,
		})
		return trace.ContextWithRemoteSpanContext(context.Background(), sc)
	}

	tests := []struct {
		name    string
		ratio   float64
		ctx     context.Context
		sampled bool
	}{
		{"always, no parent", 1, context.Background(), true},
		{"always, unsampled parent", 1, parent(false), false},
		{"always, sampled parent", 1, parent(true), true},
		{"never, no parent", 0, context.Background(), false},
		{"never, sampled parent", 0, parent(true), true},
		{"ratio, unsampled parent", 0.5, parent(false), false},
		{"ratio, sampled parent", 0.5, parent(true), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(newSampler(tt.ratio)))
			_, span := tp.Tracer("test").Start(tt.ctx, "op")
			defer span.End()

			if got := span.SpanContext().IsSampled(); got != tt.sampled {
				t.Errorf("sampled = %v, want %v", got, tt.sampled)
			}
		})
	}
}
