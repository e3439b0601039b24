package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/obsdemo/internal/instrument"
	"github.com/shaiso/obsdemo/internal/service"
	"github.com/shaiso/obsdemo/internal/telemetry"
)

// OpStatsReport — имя операции тика.
const OpStatsReport = "demo.stats.report"

// StatsSource — источник сводки.
type StatsSource interface {
	Stats(ctx context.Context) (service.Stats, error)
}

// Reporter — периодический отчёт о пользователях.
type Reporter struct {
	stats    StatsSource
	in       *instrument.Instrumenter
	logger   *slog.Logger
	schedule string
	cron     *cron.Cron
}

// Config — конфигурация Reporter.
type Config struct {
	Stats        StatsSource
	Instrumenter *instrument.Instrumenter
	Logger       *slog.Logger
	Schedule     string // cron-выражение (default: "@every 30s")
}

// New создаёт Reporter. Невалидное расписание — ошибка.
func New(cfg Config) (*Reporter, error) {
	if cfg.Stats == nil {
		return nil, errors.New("stats source is required")
	}

	schedule := cfg.Schedule
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if err := ValidateCronExpr(schedule); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	in := cfg.Instrumenter
	if in == nil {
		in = instrument.New(instrument.Config{Logger: logger})
	}

	return &Reporter{
		stats:    cfg.Stats,
		in:       in,
		logger:   logger,
		schedule: schedule,
	}, nil
}

// Report выполняет один тик.
func (r *Reporter) Report(ctx context.Context) (service.Stats, error) {
	return instrument.Run(ctx, r.in, instrument.Op{Name: OpStatsReport},
		func(ctx context.Context) (service.Stats, error) {
			st, err := r.stats.Stats(ctx)
			if err != nil {
				return service.Stats{}, err
			}

			r.in.Metrics().SetGauge(telemetry.MetricUsersCount, float64(st.TotalUsers))
			r.logger.InfoContext(ctx, "service stats",
				"total_users", st.TotalUsers,
				"timestamp", st.Timestamp.UnixMilli(),
			)
			return st, nil
		})
}

// Start запускает cron. Тики пропускаются, пока предыдущий не завершён.
func (r *Reporter) Start(ctx context.Context) {
	logger := cronLogger{logger: r.logger}
	r.cron = cron.New(
		cron.WithParser(cronParser),
		cron.WithLogger(logger),
		cron.WithChain(cron.SkipIfStillRunning(logger)),
	)

	// Расписание проверено в New
	_, _ = r.cron.AddFunc(r.schedule, func() {
		if ctx.Err() != nil {
			return
		}
		_, _ = r.Report(ctx)
	})

	r.cron.Start()

	next, _ := NextRun(r.schedule, time.Now())
	r.logger.Info("stats reporter started", "schedule", r.schedule, "next_run", next)
}

// Stop останавливает cron и ждёт завершения текущего тика.
func (r *Reporter) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
	r.logger.Info("stats reporter stopped")
}
