package config

import (
	"testing"
	"time"
)

// clearEnv сбрасывает переменные, которые читает Load.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"HTTP_ADDR", "AUDITOR_ADDR", "SERVICE_NAME", "LOG_LEVEL", "LOG_FORMAT",
		"DB_URL", "RABBITMQ_URL", "RABBITMQ_RECONNECT_INITIAL", "RABBITMQ_RECONNECT_MAX", "OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT",
		"OTEL_PROTOCOL", "OTEL_INSECURE", "OTEL_SAMPLE_RATIO", "CHAOS_SEED",
		"CREATE_FAILURE_RATE", "ERROR_RATE", "STATS_SCHEDULE", "SHUTDOWN_TIMEOUT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	// Пустые переменные Viper считает незаданными.
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.ServiceName != "observability-demo" {
		t.Errorf("ServiceName = %q", cfg.ServiceName)
	}
	if cfg.CreateFailureRate != 0.1 || cfg.ErrorRate != 0.5 {
		t.Errorf("rates = %v/%v, want 0.1/0.5", cfg.CreateFailureRate, cfg.ErrorRate)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 10s", cfg.ShutdownTimeout)
	}
	if cfg.StatsSchedule != "@every 30s" {
		t.Errorf("StatsSchedule = %q", cfg.StatsSchedule)
	}
	if cfg.OTelEnabled {
		t.Error("tracing should be disabled")
	}
	if cfg.DBURL != "" || cfg.RabbitMQURL != "" {
		t.Error("storage and broker should be unset by default")
	}
	if b := cfg.MQBackoff(); b.Initial != time.Second || b.Max != 30*time.Second {
		t.Errorf("MQBackoff = %+v, want 1s..30s", b)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("CHAOS_SEED", "42")
	t.Setenv("ERROR_RATE", "0")
	t.Setenv("CREATE_FAILURE_RATE", "1")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("STATS_SCHEDULE", "*/5 * * * *")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_PROTOCOL", "otlpgrpc")
	t.Setenv("OTEL_SAMPLE_RATIO", "0.25")
	t.Setenv("RABBITMQ_RECONNECT_INITIAL", "200ms")
	t.Setenv("RABBITMQ_RECONNECT_MAX", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" || cfg.ChaosSeed != 42 {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.ErrorRate != 0 || cfg.CreateFailureRate != 1 {
		t.Errorf("rates = %v/%v", cfg.ErrorRate, cfg.CreateFailureRate)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Errorf("ShutdownTimeout = %v", cfg.ShutdownTimeout)
	}

	if b := cfg.MQBackoff(); b.Initial != 200*time.Millisecond || b.Max != 5*time.Second {
		t.Errorf("MQBackoff = %+v, want 200ms..5s", b)
	}

	tr := cfg.Tracing()
	if !tr.Enabled || tr.Protocol != "otlpgrpc" || tr.SampleRatio != 0.25 {
		t.Errorf("unexpected tracing config %+v", tr)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		HTTPAddr:                 ":8080",
		ShutdownTimeout:          time.Second,
		CreateFailureRate:        0.1,
		ErrorRate:                0.5,
		RabbitMQReconnectInitial: time.Second,
		RabbitMQReconnectMax:     30 * time.Second,
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"no addr", func(c *Config) { c.HTTPAddr = "" }, true},
		{"failure rate > 1", func(c *Config) { c.CreateFailureRate = 1.5 }, true},
		{"error rate < 0", func(c *Config) { c.ErrorRate = -0.1 }, true},
		{"zero shutdown", func(c *Config) { c.ShutdownTimeout = 0 }, true},
		{"zero reconnect delay", func(c *Config) { c.RabbitMQReconnectInitial = 0 }, true},
		{"reconnect max below initial", func(c *Config) { c.RabbitMQReconnectMax = time.Millisecond }, true},
		{"bad schedule", func(c *Config) { c.StatsSchedule = "sometimes" }, true},
		{"empty schedule disables reporter", func(c *Config) { c.StatsSchedule = "" }, false},
		{"bad tracing protocol", func(c *Config) { c.OTelEnabled = true; c.OTelProtocol = "zipkin" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
