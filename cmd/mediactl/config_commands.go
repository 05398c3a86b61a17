package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	configCmd.AddCommand(newConfigShowCommand(ctx))
	return configCmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("paths", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("api_bind", statusInfo, cfg.Paths.APIBind, colorize))
			fmt.Fprintln(out, renderStatusLine("tmp_dir", statusInfo, cfg.Paths.TmpDir, colorize))
			fmt.Fprintln(out, renderStatusLine("jobs_dir", statusInfo, cfg.Paths.JobsDir, colorize))
			fmt.Fprintln(out, renderStatusLine("batches_dir", statusInfo, cfg.Paths.BatchesDir, colorize))
			fmt.Fprintln(out, renderStatusLine("log_dir", statusInfo, cfg.Paths.LogDir, colorize))

			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("jobs", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("ttl_seconds", statusInfo, fmt.Sprintf("%d", cfg.Jobs.TTLSeconds), colorize))
			fmt.Fprintln(out, renderStatusLine("reaper_interval_seconds", statusInfo, fmt.Sprintf("%d", cfg.Jobs.ReaperInterval), colorize))
			fmt.Fprintln(out, renderStatusLine("max_batch_items", statusInfo, fmt.Sprintf("%d", cfg.Jobs.MaxBatchItems), colorize))

			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("engine", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("transcode_binary", statusInfo, cfg.Engine.TranscodeBinary, colorize))
			fmt.Fprintln(out, renderStatusLine("separate_binary", statusInfo, cfg.Engine.SeparateBinary, colorize))
			fmt.Fprintln(out, renderStatusLine("pack_binary", statusInfo, cfg.Engine.PackBinary, colorize))
			fmt.Fprintln(out, renderStatusLine("asr_worker_binary", statusInfo, cfg.Engine.ASRWorkerBinary, colorize))

			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("logging", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("format", statusInfo, cfg.Logging.Format, colorize))
			fmt.Fprintln(out, renderStatusLine("level", statusInfo, cfg.Logging.Level, colorize))
			return nil
		},
	}
}
