package api

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/shaiso/obsdemo/internal/instrument"
	"github.com/shaiso/obsdemo/internal/service"
	"github.com/shaiso/obsdemo/internal/telemetry"
)

// DefaultServiceName — имя сервиса в ответе health.
const DefaultServiceName = "observability-demo"

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	svc         *service.Service
	in          *instrument.Instrumenter
	logger      *slog.Logger
	tracer      trace.Tracer
	httpMetrics *telemetry.HTTPMetrics
	serviceName string
	now         func() time.Time
}

// Config — конфигурация для создания Handler.
type Config struct {
	Service      *service.Service
	Instrumenter *instrument.Instrumenter
	Logger       *slog.Logger
	Tracer       trace.Tracer           // опционально, по умолчанию no-op
	HTTPMetrics  *telemetry.HTTPMetrics // опционально
	ServiceName  string
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	h := &Handler{
		svc:         cfg.Service,
		in:          cfg.Instrumenter,
		logger:      cfg.Logger,
		tracer:      cfg.Tracer,
		httpMetrics: cfg.HTTPMetrics,
		serviceName: cfg.ServiceName,
		now:         time.Now,
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.in == nil {
		h.in = instrument.New(instrument.Config{Logger: h.logger})
	}
	if h.svc == nil {
		h.svc = service.New(service.Config{Logger: h.logger})
	}
	if h.tracer == nil {
		h.tracer = telemetry.NoopTracing().Tracer
	}
	if h.serviceName == "" {
		h.serviceName = DefaultServiceName
	}
	return h
}
