package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect single-item transcription/separation jobs",
	}
	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.listJobs()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(resp.Jobs) == 0 {
				fmt.Fprintln(out, "No jobs")
				return nil
			}

			rows := make([][]string, 0, len(resp.Jobs))
			for _, job := range resp.Jobs {
				rows = append(rows, []string{
					job.JobID,
					job.Type,
					string(job.State),
					string(job.Phase),
					humanize.Time(job.CreatedAt),
				})
			}
			table := renderTable(
				[]string{"ID", "Type", "State", "Phase", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			)
			fmt.Fprintln(out, table)
			return nil
		},
	}
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a single job's full status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			job, err := client.getJob(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader(fmt.Sprintf("job %s", job.JobID), colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("type", statusInfo, job.Type, colorize))
			fmt.Fprintln(out, renderStatusLine("state", stateKind(job.State), fmt.Sprintf("%s/%s", job.State, job.Phase), colorize))
			fmt.Fprintln(out, renderStatusLine("created", statusInfo, humanize.Time(job.CreatedAt), colorize))
			if job.StartedAt != nil {
				fmt.Fprintln(out, renderStatusLine("started", statusInfo, humanize.Time(*job.StartedAt), colorize))
			}
			if job.FinishedAt != nil {
				fmt.Fprintln(out, renderStatusLine("finished", statusInfo, humanize.Time(*job.FinishedAt), colorize))
			}
			if job.ExpiresAt != nil {
				fmt.Fprintln(out, renderStatusLine("expires", statusInfo, humanize.Time(*job.ExpiresAt), colorize))
			}
			if job.Error != nil {
				fmt.Fprintln(out, renderStatusLine("error", statusError, fmt.Sprintf("%s: %s", job.Error.Code, job.Error.Message), colorize))
			}
			fmt.Fprintln(out, renderStatusLine("queue", statusInfo, fmt.Sprintf("%d pending, %d running", job.Queue.Pending, job.Queue.Running), colorize))

			if len(job.Artifacts) > 0 {
				fmt.Fprintln(out)
				rows := make([][]string, 0, len(job.Artifacts))
				for key, art := range job.Artifacts {
					size := ""
					if art.Bytes > 0 {
						size = humanize.Bytes(uint64(art.Bytes))
					}
					ready := "no"
					if art.Ready {
						ready = "yes"
					}
					rows = append(rows, []string{key, art.Name, ready, size})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Key", "Name", "Ready", "Size"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
				))
			}
			return nil
		},
	}
}
