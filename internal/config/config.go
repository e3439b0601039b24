// Package config загружает конфигурацию из окружения и необязательного .env через Viper.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/shaiso/obsdemo/internal/mq"
	"github.com/shaiso/obsdemo/internal/scheduler"
	"github.com/shaiso/obsdemo/internal/telemetry"
)

// Config — конфигурация процессов obsdemo.
type Config struct {
	// HTTPAddr — адрес HTTP API (obsdemo-api).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// AuditorAddr — адрес /healthz и /metrics obsdemo-auditor.
	AuditorAddr string `mapstructure:"AUDITOR_ADDR"`
	// ServiceName — имя сервиса в ответе health и в ресурсе трассировки.
	ServiceName string `mapstructure:"SERVICE_NAME"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// DBURL — Postgres DSN. Пусто — пользователи хранятся в памяти.
	DBURL       string `mapstructure:"DB_URL"`
	// RabbitMQURL — AMQP URL. Пусто — события не публикуются.
	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`

	// RabbitMQReconnectInitial/Max — задержка переподключения: первая и предельная.
	RabbitMQReconnectInitial time.Duration `mapstructure:"RABBITMQ_RECONNECT_INITIAL"`
	RabbitMQReconnectMax     time.Duration `mapstructure:"RABBITMQ_RECONNECT_MAX"`

	OTelEnabled     bool    `mapstructure:"OTEL_ENABLED"`
	OTelEndpoint    string  `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelProtocol    string  `mapstructure:"OTEL_PROTOCOL"`
	OTelInsecure    bool    `mapstructure:"OTEL_INSECURE"`
	OTelSampleRatio float64 `mapstructure:"OTEL_SAMPLE_RATIO"`

	// ChaosSeed — seed генератора сбоев и задержек; 0 — от времени.
	ChaosSeed         uint64  `mapstructure:"CHAOS_SEED"`
	CreateFailureRate float64 `mapstructure:"CREATE_FAILURE_RATE"`
	ErrorRate         float64 `mapstructure:"ERROR_RATE"`

	// StatsSchedule — cron-расписание отчёта о пользователях; пусто — отчёт выключен.
	StatsSchedule string `mapstructure:"STATS_SCHEDULE"`

	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

// Load читает .env (если есть), затем окружение. Переменные окружения
// имеют приоритет над .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // .env необязателен

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("AUDITOR_ADDR", ":8082")
	v.SetDefault("SERVICE_NAME", "observability-demo")
	v.SetDefault("LOG_LEVEL", "INFO")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("DB_URL", "")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_RECONNECT_INITIAL", "1s")
	v.SetDefault("RABBITMQ_RECONNECT_MAX", "30s")
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")
	v.SetDefault("OTEL_PROTOCOL", telemetry.ProtocolHTTP)
	v.SetDefault("OTEL_INSECURE", true)
	v.SetDefault("OTEL_SAMPLE_RATIO", 1.0)
	v.SetDefault("CHAOS_SEED", 0)
	v.SetDefault("CREATE_FAILURE_RATE", 0.1)
	v.SetDefault("ERROR_RATE", 0.5)
	v.SetDefault("STATS_SCHEDULE", scheduler.DefaultSchedule)
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет диапазоны значений.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: HTTP_ADDR must be set")
	}
	if c.CreateFailureRate < 0 || c.CreateFailureRate > 1 {
		return errors.New("config: CREATE_FAILURE_RATE must be between 0 and 1")
	}
	if c.ErrorRate < 0 || c.ErrorRate > 1 {
		return errors.New("config: ERROR_RATE must be between 0 and 1")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("config: SHUTDOWN_TIMEOUT must be positive")
	}
	if c.RabbitMQReconnectInitial <= 0 {
		return errors.New("config: RABBITMQ_RECONNECT_INITIAL must be positive")
	}
	if c.RabbitMQReconnectMax < c.RabbitMQReconnectInitial {
		return errors.New("config: RABBITMQ_RECONNECT_MAX must not be less than RABBITMQ_RECONNECT_INITIAL")
	}
	if c.StatsSchedule != "" {
		if err := scheduler.ValidateCronExpr(c.StatsSchedule); err != nil {
			return fmt.Errorf("config: STATS_SCHEDULE: %w", err)
		}
	}
	if err := c.Tracing().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// MQBackoff возвращает политику переподключения к RabbitMQ.
func (c *Config) MQBackoff() mq.Backoff {
	return mq.Backoff{Initial: c.RabbitMQReconnectInitial, Max: c.RabbitMQReconnectMax}
}

// Tracing возвращает настройки трассировки.
func (c *Config) Tracing() telemetry.TracingConfig {
	return telemetry.TracingConfig{
		Enabled:     c.OTelEnabled,
		Endpoint:    c.OTelEndpoint,
		Protocol:    c.OTelProtocol,
		Insecure:    c.OTelInsecure,
		ServiceName: c.ServiceName,
		SampleRatio: c.OTelSampleRatio,
	}
}
