package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newBatchesCommand(ctx *commandContext) *cobra.Command {
	batchesCmd := &cobra.Command{
		Use:   "batches",
		Short: "Inspect and manage multi-item batches",
	}
	batchesCmd.AddCommand(newBatchesListCommand(ctx))
	batchesCmd.AddCommand(newBatchesShowCommand(ctx))
	batchesCmd.AddCommand(newBatchesCancelCommand(ctx))
	return batchesCmd
}

func newBatchesListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known batches",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.listBatches()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(resp.Batches) == 0 {
				fmt.Fprintln(out, "No batches")
				return nil
			}

			rows := make([][]string, 0, len(resp.Batches))
			for _, batch := range resp.Batches {
				rows = append(rows, []string{
					batch.BatchID,
					string(batch.State),
					string(batch.Phase),
					fmt.Sprintf("%d/%d", batch.Counts.Succeeded+batch.Counts.Failed+batch.Counts.Canceled, batch.Counts.Total),
					humanize.Time(batch.CreatedAt),
				})
			}
			table := renderTable(
				[]string{"ID", "State", "Phase", "Done", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			)
			fmt.Fprintln(out, table)
			return nil
		},
	}
}

func newBatchesShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a batch's full status including per-item outcomes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			batch, err := client.getBatch(args[0])
			if err != nil {
				return err
			}
			renderBatch(cmd, batch)
			return nil
		},
	}
}

func newBatchesCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a running batch; queued items are marked canceled, running items finish in place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			batch, err := client.cancelBatch(args[0])
			if err != nil {
				return err
			}
			renderBatch(cmd, batch)
			return nil
		},
	}
}

func renderBatch(cmd *cobra.Command, batch batchView) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader(fmt.Sprintf("batch %s", batch.BatchID), colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("state", stateKind(batch.State), fmt.Sprintf("%s/%s", batch.State, batch.Phase), colorize))
	fmt.Fprintln(out, renderStatusLine("created", statusInfo, humanize.Time(batch.CreatedAt), colorize))
	fmt.Fprintln(out, renderStatusLine("counts", statusInfo,
		fmt.Sprintf("%d total, %d succeeded, %d failed, %d canceled, %d running, %d queued",
			batch.Counts.Total, batch.Counts.Succeeded, batch.Counts.Failed,
			batch.Counts.Canceled, batch.Counts.Running, batch.Counts.Queued), colorize))
	if batch.Error != nil {
		fmt.Fprintln(out, renderStatusLine("error", statusError, fmt.Sprintf("%s: %s", batch.Error.Code, batch.Error.Message), colorize))
	}

	if len(batch.Items) == 0 {
		return
	}
	fmt.Fprintln(out)
	rows := make([][]string, 0, len(batch.Items))
	for _, item := range batch.Items {
		errMsg := ""
		if item.Error != nil {
			errMsg = item.Error.Message
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", item.Idx),
			string(item.State),
			string(item.Phase),
			errMsg,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Idx", "State", "Phase", "Error"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	))
}
