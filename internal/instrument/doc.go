// Package instrument оборачивает операции сервиса в единый шаблон наблюдаемости.
//
// Run на каждую операцию:
//   - генерирует correlation id и открывает scope в контексте
//   - стартует span с именем операции
//   - логирует начало и результат
//   - пишет метрики с исходом success/error
//   - закрывает scope на любом пути выхода (успех, ошибка, panic)
//
// Использование:
//
//	user, err := instrument.Run(ctx, in, instrument.Op{
//	    Name:    "demo.user.get",
//	    Counter: telemetry.MetricUserRequests,
//	    Timer:   telemetry.MetricUserGetTimer,
//	    Tags:    map[string]string{"user_id": id},
//	    UserID:  id,
//	}, func(ctx context.Context) (*domain.User, error) {
//	    return svc.GetUser(ctx, id)
//	})
package instrument
