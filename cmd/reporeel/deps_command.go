package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reporeel/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external binary availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			out := cmd.OutOrStdout()

			if isTerminal(out) {
				rows := make([][]string, 0, len(statuses))
				for _, status := range statuses {
					available := "yes"
					if !status.Available {
						available = "no"
					}
					kind := "required"
					if status.Optional {
						kind = "optional"
					}
					rows = append(rows, []string{status.Name, status.Command, kind, available, status.Description})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Dependency", "Command", "Kind", "Available", "Purpose"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
			} else {
				for _, status := range statuses {
					fmt.Fprintf(out, "%s\t%s\t%t\n", status.Name, status.Command, status.Available)
				}
			}

			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return fmt.Errorf("missing required dependencies: %v", missing)
			}
			return nil
		},
	}
}
