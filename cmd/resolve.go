package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tanq16/gdfetch/internal/output"
	"github.com/tanq16/gdfetch/internal/resolver"
	"github.com/tanq16/gdfetch/internal/utils"
)

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [URL...]",
		Short: "Show what would be downloaded without downloading anything",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closer, err := setup(cmd, v, configPath)
			if err != nil {
				return err
			}
			defer closer.Close()
			client, err := utils.NewFetchHTTPClient(cfg.HTTPClientConfig())
			if err != nil {
				return fmt.Errorf("creating HTTP client: %w", err)
			}
			tasks, skipped, err := collectTasks(cmd.Context(), cmd, cfg, client, args)
			if err != nil {
				return err
			}
			printPlan(os.Stdout, tasks, skipped)
			return nil
		},
	}
}

func printPlan(w io.Writer, tasks []utils.DownloadTask, skipped []resolver.Skipped) {
	for _, task := range tasks {
		what := task.Kind.Label()
		if task.IsExport {
			what += " as " + task.ExportFormat
		}
		fmt.Fprintf(w, "%s%s %s %s\n", strings.Repeat(" ", 2), output.FInfo(task.FileID), output.FDetail("["+what+"]"), task.OriginalURL)
		fmt.Fprintf(w, "%s%s\n", strings.Repeat(" ", 6), output.FDebug(task.DownloadURL))
	}
	for _, s := range skipped {
		reason := "skipped"
		if s.Err != nil {
			reason = string(s.Err.Kind)
		}
		fmt.Fprintf(w, "%s%s %s\n", strings.Repeat(" ", 2), output.FDebug("["+reason+"]"), s.URL)
	}
	fmt.Fprintf(w, "\n%s%d to download, %d skipped\n", strings.Repeat(" ", 2), len(tasks), len(skipped))
}
