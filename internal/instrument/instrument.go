package instrument

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shaiso/obsdemo/internal/telemetry"
)

// Op описывает границу одной операции.
type Op struct {
	// Name — имя операции (например "demo.user.get"); метка operation и имя span.
	Name string

	// Counter — счётчик с исходом (опционально).
	Counter string

	// Timer — таймер с исходом (опционально).
	Timer string

	// Tags — дополнительные метки для Counter.
	Tags map[string]string

	// UserID — кладётся в scope как user_id (опционально).
	UserID string
}

// Work — единица работы операции.
type Work[T any] func(ctx context.Context) (T, error)

// Instrumenter хранит зависимости наблюдаемости.
type Instrumenter struct {
	logger  *slog.Logger
	metrics telemetry.Sink
	tracer  trace.Tracer
	newID   func() string
	now     func() time.Time

	// active меняется и публикуется в gauge под activeMu: значения
	// доходят до Sink в том же порядке, в котором менялся счётчик.
	activeMu sync.Mutex
	active   int64
}

// Config — конфигурация Instrumenter.
type Config struct {
	Logger  *slog.Logger
	Metrics telemetry.Sink
	Tracer  trace.Tracer  // по умолчанию no-op
	NewID   func() string // по умолчанию telemetry.NewRequestID
}

// New создаёт Instrumenter.
func New(cfg Config) *Instrumenter {
	in := &Instrumenter{
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		tracer:  cfg.Tracer,
		newID:   cfg.NewID,
		now:     time.Now,
	}
	if in.logger == nil {
		in.logger = slog.Default()
	}
	if in.metrics == nil {
		in.metrics = telemetry.Discard
	}
	if in.tracer == nil {
		in.tracer = telemetry.NoopTracing().Tracer
	}
	if in.newID == nil {
		in.newID = telemetry.NewRequestID
	}
	return in
}

// Metrics возвращает Sink для метрик, которые пишутся внутри работы.
func (in *Instrumenter) Metrics() telemetry.Sink {
	return in.metrics
}

// Logger возвращает логгер Instrumenter.
func (in *Instrumenter) Logger() *slog.Logger {
	return in.logger
}

// ActiveScopes — количество открытых scope.
func (in *Instrumenter) ActiveScopes() int64 {
	in.activeMu.Lock()
	defer in.activeMu.Unlock()
	return in.active
}

// adjustActive меняет количество открытых scope и публикует его
// в demo.scopes.active.
func (in *Instrumenter) adjustActive(delta int64) {
	in.activeMu.Lock()
	defer in.activeMu.Unlock()
	in.active += delta
	in.metrics.SetGauge(telemetry.MetricScopesActive, float64(in.active))
}

// Run выполняет work внутри correlation scope.
//
// Одна попытка, без retry. Ошибка work возвращается как *OperationError
// с видом, сообщением и correlation id. Panic в work перехватывается
// и превращается в ошибку вида KindInternal. Scope закрывается ровно один
// раз до возврата управления.
func Run[T any](ctx context.Context, in *Instrumenter, op Op, work Work[T]) (result T, err error) {
	requestID := in.newID()

	var attrs []slog.Attr
	if op.UserID != "" {
		attrs = append(attrs, slog.String(telemetry.KeyUserID, op.UserID))
	}
	ctx, scope := telemetry.OpenScope(ctx, requestID, attrs...)
	in.adjustActive(1)

	ctx, span := in.tracer.Start(ctx, op.Name, trace.WithAttributes(
		attribute.String("request.id", requestID),
		attribute.String("operation", op.Name),
	))

	start := in.now()

	defer func() {
		if p := recover(); p != nil {
			in.logger.ErrorContext(ctx, "operation panicked",
				"operation", op.Name,
				"panic", p,
				"stack", string(debug.Stack()),
			)
			var zero T
			result = zero
			err = &OperationError{
				Kind:      KindInternal,
				Operation: op.Name,
				RequestID: requestID,
				Message:   "unexpected failure",
				Err:       fmt.Errorf("panic: %v", p),
			}
		}

		in.record(op, telemetry.OutcomeOf(err), in.now().Sub(start))

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(KindOf(err)))
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()

		if scope.Close() {
			in.adjustActive(-1)
		}
	}()

	in.logger.InfoContext(ctx, "operation started", "operation", op.Name)

	result, err = work(ctx)
	if err != nil {
		kind := KindOf(err)
		in.logger.ErrorContext(ctx, "operation failed",
			"operation", op.Name,
			"kind", kind,
			"error", err,
		)

		var zero T
		return zero, &OperationError{
			Kind:      kind,
			Operation: op.Name,
			RequestID: requestID,
			Message:   err.Error(),
			Err:       err,
		}
	}

	in.logger.InfoContext(ctx, "operation completed",
		"operation", op.Name,
		"duration", in.now().Sub(start),
	)
	return result, nil
}

// record пишет метрики исхода: по одному событию на каждую метрику.
func (in *Instrumenter) record(op Op, outcome telemetry.Outcome, d time.Duration) {
	opTags := map[string]string{telemetry.LabelOperation: op.Name}

	in.metrics.Count(telemetry.MetricEvent{Name: telemetry.MetricOperations, Outcome: outcome, Tags: opTags})
	in.metrics.Observe(telemetry.MetricEvent{Name: telemetry.MetricOperationDuration, Outcome: outcome, Tags: opTags}, d)

	if op.Counter != "" {
		in.metrics.Count(telemetry.MetricEvent{Name: op.Counter, Outcome: outcome, Tags: op.Tags})
	}
	if op.Timer != "" {
		in.metrics.Observe(telemetry.MetricEvent{Name: op.Timer, Outcome: outcome}, d)
	}
}
