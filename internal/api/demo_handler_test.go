package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/shaiso/obsdemo/internal/instrument"
	"github.com/shaiso/obsdemo/internal/repo"
	"github.com/shaiso/obsdemo/internal/service"
	"github.com/shaiso/obsdemo/internal/telemetry"
)

type testEnv struct {
	mux         *http.ServeMux
	in          *instrument.Instrumenter
	metrics     *telemetry.Metrics
	httpMetrics *telemetry.HTTPMetrics
	spans       *tracetest.SpanRecorder
}

func noSleep(context.Context, time.Duration) error { return nil }

func newTestEnv(t *testing.T, chaos service.Chaos, sleep func(context.Context, time.Duration) error) *testEnv {
	t.Helper()

	logger := telemetry.NewLogger(io.Discard, slog.LevelDebug, "json")
	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)
	httpMetrics := telemetry.NewHTTPMetrics(reg)
	spans := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)).Tracer("test")

	in := instrument.New(instrument.Config{Logger: logger, Metrics: metrics, Tracer: tracer})
	svc := service.New(service.Config{
		Store:             repo.NewMemoryUserRepo(),
		Chaos:             chaos,
		Logger:            logger,
		Sleep:             sleep,
		CreateFailureRate: service.DefaultCreateFailureRate,
		ErrorRate:         service.DefaultErrorRate,
	})

	h := NewHandler(Config{
		Service:      svc,
		Instrumenter: in,
		Logger:       logger,
		Tracer:       tracer,
		HTTPMetrics:  httpMetrics,
	})

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	return &testEnv{mux: mux, in: in, metrics: metrics, httpMetrics: httpMetrics, spans: spans}
}

func (e *testEnv) do(t *testing.T, method, target string, body io.Reader) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, target, body)
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("%s %s: invalid JSON %q: %v", method, target, rec.Body.String(), err)
	}
	return rec, out
}

func keys(m map[string]any) string {
	ks := make([]string, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return strings.Join(ks, ",")
}

func assertRequestID(t *testing.T, rec *httptest.ResponseRecorder, body map[string]any) string {
	t.Helper()

	id, _ := body["requestId"].(string)
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("requestId %q is not a valid identifier", id)
	}
	if h := rec.Header().Get(telemetry.RequestIDHeader); h != id {
		t.Errorf("header %s = %q, body requestId = %q", telemetry.RequestIDHeader, h, id)
	}
	return id
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, service.FixedChaos{}, noSleep)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		rec, body := env.do(t, http.MethodGet, "/api/demo/health", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if body["status"] != "UP" || body["service"] != DefaultServiceName {
			t.Errorf("unexpected body %v", body)
		}
		if _, ok := body["timestamp"].(float64); !ok {
			t.Errorf("timestamp must be epoch ms, got %v", body["timestamp"])
		}

		id := assertRequestID(t, rec, body)
		if seen[id] {
			t.Fatalf("requestId %s repeated", id)
		}
		seen[id] = true
	}

	if v := testutil.ToFloat64(env.metrics.Counter(telemetry.MetricHealthRequests).WithLabelValues("success")); v != 5 {
		t.Errorf("expected 5 successful health requests, got %v", v)
	}
	if env.in.ActiveScopes() != 0 {
		t.Errorf("scopes leaked: %d", env.in.ActiveScopes())
	}
}

func TestGetUser_NotFound(t *testing.T) {
	env := newTestEnv(t, service.FixedChaos{}, noSleep)

	rec, body := env.do(t, http.MethodGet, "/api/demo/users/ghost-42", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if body["error"] != "User not found" || body["userId"] != "ghost-42" {
		t.Errorf("unexpected body %v", body)
	}
	assertRequestID(t, rec, body)

	if v := testutil.ToFloat64(env.metrics.Counter(telemetry.MetricUserRequests).WithLabelValues("error", "ghost-42")); v != 1 {
		t.Errorf("expected error counter 1, got %v", v)
	}
	if v := testutil.ToFloat64(env.httpMetrics.RequestsTotal.WithLabelValues("GET", "/api/demo/users/{userId}", "404")); v != 1 {
		t.Errorf("expected http counter 1, got %v", v)
	}
}

func TestCreateThenGetUser(t *testing.T) {
	env := newTestEnv(t, service.FixedChaos{}, noSleep)

	rec, created := env.do(t, http.MethodPost, "/api/demo/users", strings.NewReader(`{"name":"Jane","email":"jane@example.com"}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %v", rec.Code, created)
	}
	if keys(created) != "createdAt,email,id,name,status" {
		t.Errorf("unexpected user shape: %s", keys(created))
	}
	if created["status"] != "active" {
		t.Errorf("expected active, got %v", created["status"])
	}
	id, _ := created["id"].(string)
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("generated id %q is not a uuid", id)
	}
	if _, err := uuid.Parse(rec.Header().Get(telemetry.RequestIDHeader)); err != nil {
		t.Error("create response must carry X-Request-ID")
	}

	rec, got := env.do(t, http.MethodGet, "/api/demo/users/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got["name"] != "Jane" || got["email"] != "jane@example.com" || got["createdAt"] != created["createdAt"] {
		t.Errorf("unexpected user %v", got)
	}

	if v := testutil.ToFloat64(env.metrics.Counter(telemetry.MetricUserCreated).WithLabelValues("success")); v != 1 {
		t.Errorf("expected created counter 1, got %v", v)
	}
}

func TestCreateUser_Failures(t *testing.T) {
	tests := []struct {
		name  string
		chaos service.Chaos
		body  string
	}{
		{"injected fault", service.FixedChaos{Fail: true}, `{"name":"Jane"}`},
		{"missing name", service.FixedChaos{}, `{"email":"x@example.com"}`},
		{"empty name", service.FixedChaos{}, `{"name":""}`},
		{"malformed body", service.FixedChaos{}, `{"name":`},
		{"wrong type", service.FixedChaos{}, `{"name":42}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.chaos, noSleep)

			rec, body := env.do(t, http.MethodPost, "/api/demo/users", strings.NewReader(tt.body))
			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("expected 500, got %d", rec.Code)
			}
			if keys(body) != "error,requestId" || body["error"] != "Failed to create user" {
				t.Errorf("unexpected failure body %v", body)
			}
			assertRequestID(t, rec, body)

			if v := testutil.ToFloat64(env.metrics.Counter(telemetry.MetricUserCreated).WithLabelValues("error")); v != 1 {
				t.Errorf("expected error counter 1, got %v", v)
			}
		})
	}
}

func TestCreateUser_RandomChaosMatchesOneShape(t *testing.T) {
	env := newTestEnv(t, service.NewRandomChaos(3), noSleep)

	for i := 0; i < 50; i++ {
		rec, body := env.do(t, http.MethodPost, "/api/demo/users", strings.NewReader(`{"name":"Jane"}`))

		switch rec.Code {
		case http.StatusCreated:
			if body["status"] != "active" || body["id"] == "" || body["error"] != nil {
				t.Fatalf("bad success shape %v", body)
			}
		case http.StatusInternalServerError:
			if body["error"] != "Failed to create user" || body["id"] != nil {
				t.Fatalf("bad failure shape %v", body)
			}
		default:
			t.Fatalf("unexpected status %d", rec.Code)
		}
	}
}

func TestErrorEndpoint(t *testing.T) {
	tests := []struct {
		name   string
		chaos  service.Chaos
		query  string
		status int
	}{
		{"forced", service.FixedChaos{}, "?forceError=true", http.StatusInternalServerError},
		{"forced upper", service.FixedChaos{}, "?forceError=TRUE", http.StatusInternalServerError},
		{"not forced, lucky", service.FixedChaos{}, "?forceError=false", http.StatusOK},
		{"garbage is false", service.FixedChaos{}, "?forceError=maybe", http.StatusOK},
		{"default", service.FixedChaos{}, "", http.StatusOK},
		{"not forced, unlucky", service.FixedChaos{Fail: true}, "", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.chaos, noSleep)

			rec, body := env.do(t, http.MethodGet, "/api/demo/error"+tt.query, nil)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			assertRequestID(t, rec, body)

			outcome := "success"
			if tt.status == http.StatusInternalServerError {
				outcome = "error"
				if body["error"] != "Simulated error occurred" {
					t.Errorf("unexpected error %v", body["error"])
				}
				if _, ok := body["timestamp"].(float64); !ok {
					t.Error("error body must carry timestamp")
				}
			} else if body["message"] != "No error this time!" {
				t.Errorf("unexpected message %v", body["message"])
			}

			if v := testutil.ToFloat64(env.metrics.Counter(telemetry.MetricErrors).WithLabelValues(outcome)); v != 1 {
				t.Errorf("expected demo.errors{status=%s} 1, got %v", outcome, v)
			}
		})
	}
}

// panicChaos роняет операцию при розыгрыше сбоя.
type panicChaos struct{ service.FixedChaos }

func (panicChaos) ShouldFail(float64) bool { panic("chaos exploded") }

func TestErrorEndpoint_InternalFailureIsGeneric(t *testing.T) {
	env := newTestEnv(t, panicChaos{}, noSleep)

	rec, body := env.do(t, http.MethodGet, "/api/demo/error", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	assertRequestID(t, rec, body)

	if body["error"] != MsgInternalError {
		t.Errorf("expected generic error, got %v", body["error"])
	}
	if got := keys(body); got != "error,requestId" {
		t.Errorf("unexpected body keys %s", got)
	}
	if v := testutil.ToFloat64(env.metrics.Counter(telemetry.MetricErrors).WithLabelValues("error")); v != 1 {
		t.Errorf("expected demo.errors{status=error} 1, got %v", v)
	}
}

func TestSlow_WallClockMatchesProcessingTime(t *testing.T) {
	if testing.Short() {
		t.Skip("slow endpoint sleeps for at least a second")
	}

	env := newTestEnv(t, service.NewRandomChaos(11), service.SleepContext)

	start := time.Now()
	rec, body := env.do(t, http.MethodGet, "/api/demo/slow", nil)
	elapsed := time.Since(start)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	assertRequestID(t, rec, body)

	pt, ok := body["processingTime"].(float64)
	if !ok || pt < 1000 || pt > 3999 {
		t.Fatalf("processingTime %v out of [1000, 3999]", body["processingTime"])
	}

	want := time.Duration(pt) * time.Millisecond
	if elapsed < want || elapsed > want+500*time.Millisecond {
		t.Errorf("wall clock %v, processingTime %v", elapsed, want)
	}

	if n := testutil.CollectAndCount(env.metrics.Timer(telemetry.MetricSlowProcessingTime)); n != 1 {
		t.Errorf("expected processing time to be recorded, got %d series", n)
	}
}

func TestSlow_FixedDelay(t *testing.T) {
	env := newTestEnv(t, service.FixedChaos{DelayAt: 1}, noSleep)

	rec, body := env.do(t, http.MethodGet, "/api/demo/slow", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["processingTime"] != float64(3999) || body["message"] != "This was a slow operation" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestCustomMetrics(t *testing.T) {
	env := newTestEnv(t, service.FixedChaos{Val: 12.5}, noSleep)

	rec, body := env.do(t, http.MethodGet, "/api/demo/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["message"] != "Custom metrics generated" || body["availableMetrics"] != AvailableMetricsHint {
		t.Errorf("unexpected body %v", body)
	}
	assertRequestID(t, rec, body)

	if v := testutil.ToFloat64(env.metrics.Gauge(telemetry.MetricRandomValue)); v != 12.5 {
		t.Errorf("expected gauge 12.5, got %v", v)
	}
	if v := testutil.ToFloat64(env.metrics.Counter(telemetry.MetricMetricRequests).WithLabelValues("success")); v != 1 {
		t.Errorf("expected counter 1, got %v", v)
	}
}

func TestAPIInfo(t *testing.T) {
	env := newTestEnv(t, service.FixedChaos{}, noSleep)

	rec, body := env.do(t, http.MethodGet, "/api", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	eps, ok := body["available_endpoints"].(map[string]any)
	if !ok || eps["health"] != "/api/demo/health" {
		t.Errorf("unexpected endpoints %v", body["available_endpoints"])
	}
}

func TestSpans_OperationIsChildOfServerSpan(t *testing.T) {
	env := newTestEnv(t, service.FixedChaos{}, noSleep)

	env.do(t, http.MethodGet, "/api/demo/health", nil)

	ended := env.spans.Ended()
	if len(ended) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(ended))
	}

	var server, op sdktrace.ReadOnlySpan
	for _, s := range ended {
		switch s.Name() {
		case "GET /api/demo/health":
			server = s
		case OpHealth:
			op = s
		}
	}
	if server == nil || op == nil {
		t.Fatalf("unexpected spans %q, %q", ended[0].Name(), ended[1].Name())
	}
	if op.Parent().SpanID() != server.SpanContext().SpanID() {
		t.Error("operation span must be a child of the server span")
	}
}

func TestRecovery(t *testing.T) {
	var logs bytes.Buffer
	logger := telemetry.NewLogger(&logs, slog.LevelInfo, "json")

	h := Chain(Recovery(logger), Logging(logger))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("handler exploded")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["error"] != "Internal server error" {
		t.Errorf("unexpected body %v", body)
	}
	id := assertRequestID(t, rec, body)

	if !strings.Contains(logs.String(), id) {
		t.Error("recovered panic must be logged with its request id")
	}
}
