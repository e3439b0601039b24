// obsdemo — клиент командной строки для demo API.
//
// Использование:
//
//	obsdemo [--api-url URL] [--json] <command> [flags]
//
// Команды:
//
//	health            Проверка сервиса
//	user get ID       Пользователь по id
//	user create       Создание пользователя (--name, --email)
//	slow              Медленный endpoint
//	error [--force]   Endpoint с имитацией сбоя
//	metrics           Генерация custom метрик
//	info              Список endpoints
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/obsdemo/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "obsdemo",
		Short:         "obsdemo CLI — client for the observability demo API",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewHealthCmd(clientFn, outputFn),
		cli.NewUserCmd(clientFn, outputFn),
		cli.NewSlowCmd(clientFn, outputFn),
		cli.NewErrorCmd(clientFn, outputFn),
		cli.NewMetricsCmd(clientFn, outputFn),
		cli.NewInfoCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
