// Package scheduler периодически публикует сводку по сервису.
//
// Reporter запускается по cron-расписанию (STATS_SCHEDULE, по умолчанию
// "@every 30s"). Каждый тик — отдельная инструментированная операция
// demo.stats.report со своим correlation id: она читает Service.Stats и
// выставляет gauge demo.users.count.
//
// Структура:
//   - reporter.go — Reporter (Start, Stop, Report)
//   - cron.go     — парсинг cron-выражений и вычисление следующего времени
//
// Использование:
//
//	rep, err := scheduler.New(scheduler.Config{
//	    Stats:        svc,
//	    Instrumenter: in,
//	    Logger:       logger,
//	    Schedule:     "@every 30s",
//	})
//	rep.Start(ctx)
//	defer rep.Stop()
package scheduler
