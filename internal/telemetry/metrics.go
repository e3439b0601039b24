package telemetry

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome — исход операции для метрик.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
)

// OutcomeOf возвращает исход по ошибке операции.
func OutcomeOf(err error) Outcome {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}

// Имена метрик сервиса.
const (
	MetricHealthRequests = "demo.health.requests"
	MetricUserRequests   = "demo.user.requests"
	MetricUserCreated    = "demo.user.created"
	MetricErrors         = "demo.errors"
	MetricMetricRequests = "demo.metrics.requests"
	MetricOperations     = "demo.operations"
	MetricAuditEvents    = "demo.audit.events"
	MetricMQReconnects   = "demo.mq.reconnects"

	MetricHealthTimer        = "demo.health.timer"
	MetricUserGetTimer       = "demo.user.get.timer"
	MetricUserCreateTimer    = "demo.user.create.timer"
	MetricSlowTimer          = "demo.slow.timer"
	MetricSlowProcessingTime = "demo.slow.processing.time"
	MetricOperationDuration  = "demo.operation.duration"

	MetricRandomValue  = "demo.random.value"
	MetricUsersCount   = "demo.users.count"
	MetricScopesActive = "demo.scopes.active"
)

// Имена меток. Метка статуса всегда первая.
const (
	LabelStatus    = "status"
	LabelUserID    = "user_id"
	LabelOperation = "operation"
)

// MetricEvent — событие метрики: имя, исход и дополнительные теги.
type MetricEvent struct {
	Name    string
	Outcome Outcome
	Tags    map[string]string
}

// Sink принимает метрики. Только запись, чтения нет.
type Sink interface {
	Count(ev MetricEvent)
	Observe(ev MetricEvent, d time.Duration)
	SetGauge(name string, value float64)
}

type discard struct{}

func (discard) Count(MetricEvent)                   {}
func (discard) Observe(MetricEvent, time.Duration) {}
func (discard) SetGauge(string, float64)           {}

// Discard — Sink, который ничего не делает.
var Discard Sink = discard{}

type metricDef struct {
	help   string
	labels []string // без status
}

var counterCatalog = map[string]metricDef{
	MetricHealthRequests: {help: "Health endpoint calls by outcome"},
	MetricUserRequests:   {help: "User lookups by outcome and user id", labels: []string{LabelUserID}},
	MetricUserCreated:    {help: "User creations by outcome"},
	MetricErrors:         {help: "Error endpoint calls by outcome"},
	MetricMetricRequests: {help: "Custom metrics endpoint calls"},
	MetricOperations:     {help: "Instrumented operations by name and outcome", labels: []string{LabelOperation}},
	MetricAuditEvents:    {help: "User events processed by the auditor"},
	MetricMQReconnects:   {help: "RabbitMQ reconnect attempts by outcome"},
}

var timerCatalog = map[string]metricDef{
	MetricHealthTimer:        {help: "Health endpoint latency"},
	MetricUserGetTimer:       {help: "User lookup latency"},
	MetricUserCreateTimer:    {help: "User creation latency"},
	MetricSlowTimer:          {help: "Slow endpoint latency"},
	MetricSlowProcessingTime: {help: "Simulated processing time of the slow endpoint"},
	MetricOperationDuration:  {help: "Instrumented operation latency", labels: []string{LabelOperation}},
}

var gaugeCatalog = map[string]string{
	MetricRandomValue:  "Random value emitted by the custom metrics endpoint",
	MetricUsersCount:   "Number of stored users",
	MetricScopesActive: "Correlation scopes currently open",
}

type vecEntry[V any] struct {
	vec    V
	labels []string // полный список меток, status первой
}

func (e *vecEntry[V]) values(ev MetricEvent) []string {
	out := make([]string, len(e.labels))
	out[0] = string(ev.Outcome)
	for i, l := range e.labels[1:] {
		out[i+1] = ev.Tags[l]
	}
	return out
}

// Metrics — Sink на Prometheus.
//
// Имена с точками переводятся в имена Prometheus:
// счётчики получают суффикс _total, таймеры — _seconds (histogram).
// Неизвестные имена регистрируются лениво с метками первого события.
type Metrics struct {
	reg prometheus.Registerer

	mu       sync.Mutex
	counters map[string]*vecEntry[*prometheus.CounterVec]
	timers   map[string]*vecEntry[*prometheus.HistogramVec]
	gauges   map[string]prometheus.Gauge
}

// NewMetrics создаёт Metrics и регистрирует каталог метрик в reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		reg:      reg,
		counters: make(map[string]*vecEntry[*prometheus.CounterVec]),
		timers:   make(map[string]*vecEntry[*prometheus.HistogramVec]),
		gauges:   make(map[string]prometheus.Gauge),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for name, def := range counterCatalog {
		m.newCounter(name, def)
	}
	for name, def := range timerCatalog {
		m.newTimer(name, def)
	}
	for name, help := range gaugeCatalog {
		m.newGauge(name, help)
	}

	return m
}

// Count увеличивает счётчик.
func (m *Metrics) Count(ev MetricEvent) {
	m.mu.Lock()
	e, ok := m.counters[ev.Name]
	if !ok {
		e = m.newCounter(ev.Name, metricDef{help: ev.Name, labels: tagKeys(ev.Tags)})
	}
	m.mu.Unlock()

	e.vec.WithLabelValues(e.values(ev)...).Inc()
}

// Observe записывает длительность в histogram.
func (m *Metrics) Observe(ev MetricEvent, d time.Duration) {
	m.mu.Lock()
	e, ok := m.timers[ev.Name]
	if !ok {
		e = m.newTimer(ev.Name, metricDef{help: ev.Name, labels: tagKeys(ev.Tags)})
	}
	m.mu.Unlock()

	e.vec.WithLabelValues(e.values(ev)...).Observe(d.Seconds())
}

// SetGauge устанавливает значение gauge.
func (m *Metrics) SetGauge(name string, value float64) {
	m.mu.Lock()
	g, ok := m.gauges[name]
	if !ok {
		g = m.newGauge(name, name)
	}
	m.mu.Unlock()

	g.Set(value)
}

// Counter возвращает CounterVec по имени или nil.
func (m *Metrics) Counter(name string) *prometheus.CounterVec {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.counters[name]; ok {
		return e.vec
	}
	return nil
}

// Timer возвращает HistogramVec по имени или nil.
func (m *Metrics) Timer(name string) *prometheus.HistogramVec {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.timers[name]; ok {
		return e.vec
	}
	return nil
}

// Gauge возвращает gauge по имени или nil.
func (m *Metrics) Gauge(name string) prometheus.Gauge {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gauges[name]
}

// newCounter вызывается под m.mu.
func (m *Metrics) newCounter(name string, def metricDef) *vecEntry[*prometheus.CounterVec] {
	labels := append([]string{LabelStatus}, def.labels...)
	vec := register(m.reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: promName(name, "_total"),
		Help: def.help,
	}, labels))

	e := &vecEntry[*prometheus.CounterVec]{vec: vec, labels: labels}
	m.counters[name] = e
	return e
}

// newTimer вызывается под m.mu.
func (m *Metrics) newTimer(name string, def metricDef) *vecEntry[*prometheus.HistogramVec] {
	labels := append([]string{LabelStatus}, def.labels...)
	vec := register(m.reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    promName(name, "_seconds"),
		Help:    def.help,
		Buckets: TimerBuckets,
	}, labels))

	e := &vecEntry[*prometheus.HistogramVec]{vec: vec, labels: labels}
	m.timers[name] = e
	return e
}

// newGauge вызывается под m.mu.
func (m *Metrics) newGauge(name, help string) prometheus.Gauge {
	g := register(m.reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: promName(name, ""),
		Help: help,
	}))
	m.gauges[name] = g
	return g
}

// TimerBuckets покрывают диапазон от быстрых lookup до slow endpoint (до 4с).
var TimerBuckets = []float64{0.01, 0.05, 0.1, 0.2, 0.3, 0.5, 1, 2, 3, 4, 5, 10}

// promName переводит "demo.user.requests" в "demo_user_requests" + suffix.
func promName(name, suffix string) string {
	r := strings.NewReplacer(".", "_", "-", "_", " ", "_")
	return r.Replace(name) + suffix
}

func tagKeys(tags map[string]string) []string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		if k == LabelStatus {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// register регистрирует коллектор; при повторной регистрации
// возвращает уже существующий.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// HTTPMetrics — метрики HTTP слоя.
type HTTPMetrics struct {
	// RequestsTotal — количество запросов по методу, маршруту и статусу.
	RequestsTotal *prometheus.CounterVec

	// RequestDuration — латентность по методу и маршруту.
	RequestDuration *prometheus.HistogramVec

	// InFlight — запросы в обработке.
	InFlight prometheus.Gauge
}

// NewHTTPMetrics регистрирует HTTP метрики в reg.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	return &HTTPMetrics{
		RequestsTotal: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by method, route and status code",
		}, []string{"method", "route", "status_code"})),

		RequestDuration: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: TimerBuckets,
		}, []string{"method", "route"})),

		InFlight: register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "HTTP requests currently being served",
		})),
	}
}
