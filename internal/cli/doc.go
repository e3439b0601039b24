// Package cli реализует инструмент командной строки obsdemo.
//
// CLI работает через HTTP и не импортирует внутренние пакеты сервиса.
// Ответы API — плоский JSON; ошибки содержат requestId, по которому
// запрос ищется в логах и трассах.
//
// # Client
//
//	client := cli.NewClient("http://localhost:8080")
//	user, err := client.GetUser(ctx, "42")
//
// # Output
//
// Таблицы (text/tabwriter) по умолчанию или JSON с флагом --json.
// Данные выводятся в stdout, сообщения в stderr.
//
// # Commands
//
//   - health
//   - user get ID, user create --name --email
//   - slow
//   - error [--force]
//   - metrics
//   - info
//
// Команды создаются фабричными функциями, принимающими clientFn и outputFn:
// Client и Output создаются лениво, после разбора PersistentFlags.
package cli
