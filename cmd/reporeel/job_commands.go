package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"reporeel/internal/api"
)

var statusTitle = cases.Title(language.English)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <repository-url>",
		Short: "Queue a repository for conversion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			id, err := client.Submit(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Queued %s\nJob ID: %s\n", args[0], id)
			return nil
		},
	}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show the state of a conversion job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			job, err := client.Job(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(job)
			}

			fmt.Fprintf(out, "Job:        %s\n", job.ID)
			fmt.Fprintf(out, "Repository: %s\n", job.RepoURL)
			fmt.Fprintf(out, "Status:     %s (%d%%)\n", job.Status, job.Progress)
			if job.Message != "" {
				fmt.Fprintf(out, "Message:    %s\n", job.Message)
			}
			if job.OutputPath != "" {
				fmt.Fprintf(out, "Output:     %s\n", job.OutputPath)
			}
			if job.ErrorMessage != "" {
				fmt.Fprintf(out, "Error:      %s\n", job.ErrorMessage)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the job snapshot as JSON")
	return cmd
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var statusFilters []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List conversion jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			jobs, err := client.Jobs(cmd.Context(), statusFilters...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(jobs)
			}
			if len(jobs) == 0 {
				fmt.Fprintln(out, "No jobs found")
				return nil
			}

			if isTerminal(out) {
				fmt.Fprintln(out, renderJobTable(jobs))
				return nil
			}
			for _, job := range jobs {
				fmt.Fprintf(out, "%s\t%s\t%s\t%d%%\n", job.ID, jobName(job), job.Status, job.Progress)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the job list as JSON")
	cmd.Flags().StringSliceVar(&statusFilters, "status", nil, "Filter by status (repeatable)")
	return cmd
}

func renderJobTable(jobs []api.JobView) string {
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, []string{
			shortID(job.ID),
			jobName(job),
			statusTitle.String(job.Status),
			strconv.Itoa(job.Progress) + "%",
			job.Message,
		})
	}
	return renderTable(
		[]string{"ID", "Repository", "Status", "Progress", "Message"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}

func jobName(job api.JobView) string {
	if job.RepoName != "" {
		return job.RepoName
	}
	return job.RepoURL
}

func shortID(id string) string {
	if idx := strings.IndexByte(id, '-'); idx > 0 {
		return id[:idx]
	}
	return id
}
