package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

// NewHealthCmd создаёт команду health.
func NewHealthCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check service health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := clientFn().Health(cmd.Context())
			if err != nil {
				return err
			}

			outputFn().Fields([][2]string{
				{"STATUS", h.Status},
				{"SERVICE", h.Service},
				{"TIMESTAMP", formatMillis(h.Timestamp)},
				{"REQUEST ID", h.RequestID},
			}, h)
			return nil
		},
	}
}

// NewUserCmd создаёт группу команд для пользователей.
func NewUserCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Look up and create demo users",
	}

	cmd.AddCommand(
		newUserGetCmd(clientFn, outputFn),
		newUserCreateCmd(clientFn, outputFn),
	)

	return cmd
}

func newUserGetCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show user by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := clientFn().GetUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			printUser(outputFn(), u)
			return nil
		},
	}
}

func newUserCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			u, err := clientFn().CreateUser(cmd.Context(), name, email)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("User created: %s", u.ID))
			printUser(out, u)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "User name (required)")
	cmd.Flags().StringVar(&email, "email", "", "User email")
	cmd.MarkFlagRequired("name")

	return cmd
}

// NewSlowCmd создаёт команду slow.
func NewSlowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "slow",
		Short: "Call the slow endpoint (1-4s)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := clientFn().Slow(cmd.Context())
			if err != nil {
				return err
			}

			outputFn().Fields([][2]string{
				{"MESSAGE", s.Message},
				{"PROCESSING", (time.Duration(s.ProcessingTime) * time.Millisecond).String()},
				{"REQUEST ID", s.RequestID},
			}, s)
			return nil
		},
	}
}

// NewErrorCmd создаёт команду error.
func NewErrorCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "error",
		Short: "Call the error endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := clientFn().Error(cmd.Context(), force)
			if err != nil {
				return err
			}

			outputFn().Fields([][2]string{
				{"MESSAGE", m.Message},
				{"REQUEST ID", m.RequestID},
			}, m)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Always fail")

	return cmd
}

// NewMetricsCmd создаёт команду metrics.
func NewMetricsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Emit custom metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := clientFn().Metrics(cmd.Context())
			if err != nil {
				return err
			}

			outputFn().Fields([][2]string{
				{"MESSAGE", m.Message},
				{"METRICS", m.AvailableMetrics},
				{"REQUEST ID", m.RequestID},
			}, m)
			return nil
		},
	}
}

// NewInfoCmd создаёт команду info.
func NewInfoCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "List available endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := clientFn().Info(cmd.Context())
			if err != nil {
				return err
			}

			names := make([]string, 0, len(info.AvailableEndpoints))
			for name := range info.AvailableEndpoints {
				names = append(names, name)
			}
			sort.Strings(names)

			rows := make([][]string, len(names))
			for i, name := range names {
				rows[i] = []string{name, info.AvailableEndpoints[name]}
			}

			outputFn().Print([]string{"NAME", "ENDPOINT"}, rows, info)
			return nil
		},
	}
}

func printUser(out *Output, u *UserResponse) {
	out.Print(
		[]string{"ID", "NAME", "EMAIL", "STATUS", "CREATED"},
		[][]string{{u.ID, u.Name, u.Email, u.Status, formatMillis(u.CreatedAt)}},
		u,
	)
}

// formatMillis форматирует epoch ms в RFC3339 (UTC).
func formatMillis(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
