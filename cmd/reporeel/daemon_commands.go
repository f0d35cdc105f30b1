package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reporeel/internal/daemonrun"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Daemon management",
	}

	daemonCmd.AddCommand(newDaemonRunCommand(ctx))
	daemonCmd.AddCommand(newDaemonStatusCommand(ctx))

	return daemonCmd
}

func newDaemonRunCommand(ctx *commandContext) *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the conversion daemon in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{LogLevel: logLevel})
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	return cmd
}

func newDaemonStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and queue summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Running: %t (pid %d)\n", status.Running, status.PID)
			if status.QueueDBPath != "" {
				fmt.Fprintf(out, "Queue DB: %s\n", status.QueueDBPath)
			}
			fmt.Fprintf(out, "Jobs: %d total, %d pending, %d processing, %d completed, %d failed\n",
				status.Queue.Total, status.Queue.Pending, status.Queue.Processing,
				status.Queue.Completed, status.Queue.Failed)

			if len(status.Dependencies) > 0 {
				rows := make([][]string, 0, len(status.Dependencies))
				for _, dep := range status.Dependencies {
					available := "yes"
					if !dep.Available {
						available = "no"
					}
					required := "required"
					if dep.Optional {
						required = "optional"
					}
					rows = append(rows, []string{dep.Name, dep.Command, required, available, dep.Detail})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Dependency", "Command", "Kind", "Available", "Detail"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
			}
			return nil
		},
	}
}
