package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tanq16/gdfetch/internal/config"
	"github.com/tanq16/gdfetch/internal/downloaders/gdrive"
	"github.com/tanq16/gdfetch/internal/links"
	"github.com/tanq16/gdfetch/internal/mirror"
	"github.com/tanq16/gdfetch/internal/output"
	"github.com/tanq16/gdfetch/internal/resolver"
	"github.com/tanq16/gdfetch/internal/scheduler"
	"github.com/tanq16/gdfetch/internal/utils"
)

// linkSource applies the source precedence: positional URLs, then scrape
// pages, then the links file. An explicit --links-file beats configured
// scrape pages unless --scrape-url is also given.
func linkSource(cmd *cobra.Command, cfg *config.Config, args []string) links.Source {
	src := links.Source{
		URLs:          args,
		ScrapeURLs:    cfg.ScrapeURLs,
		LinksFile:     cfg.LinksFile,
		Patterns:      cfg.LinkPatterns,
		CreateMissing: !cmd.Flags().Changed("links-file"),
	}
	if cmd.Flags().Changed("links-file") && !cmd.Flags().Changed("scrape-url") {
		src.ScrapeURLs = nil
	}
	return src
}

// formatChooser answers from --format choices first, then asks on the
// terminal when allowed, then falls back to configured defaults.
func formatChooser(cfg *config.Config) (resolver.FormatResolver, error) {
	choices, err := config.ParseFormatChoices(cfg.FormatChoices)
	if err != nil {
		return nil, err
	}
	var fallback resolver.FormatResolver = resolver.DefaultFormats
	if cfg.Prompt && resolver.StdinIsTerminal() {
		fallback = resolver.NewPrompt(os.Stdin, os.Stderr)
	}
	return resolver.StaticFormats{Choices: choices, Fallback: fallback}, nil
}

func collectTasks(ctx context.Context, cmd *cobra.Command, cfg *config.Config, client utils.HTTPDoer, args []string) ([]utils.DownloadTask, []resolver.Skipped, error) {
	candidates, err := links.Collect(ctx, client, linkSource(cmd, cfg, args))
	if err != nil {
		return nil, nil, err
	}
	chooser, err := formatChooser(cfg)
	if err != nil {
		return nil, nil, err
	}
	tasks, skipped := resolver.New(cfg.Formats, chooser).ResolveAll(candidates)
	log.Info().Str("op", "cmd/download").Msgf("%d link(s) found, %d to download, %d skipped", len(candidates), len(tasks), len(skipped))
	return tasks, skipped, nil
}

func download(ctx context.Context, cfg *config.Config, client utils.HTTPDoer, tasks []utils.DownloadTask, skipped []resolver.Skipped, w io.Writer) (*scheduler.Aggregator, error) {
	dir, err := gdrive.NewOutputDir(cfg.OutputDir, cfg.MaxCollisionAttempts)
	if err != nil {
		return nil, err
	}
	opts := gdrive.Options{ChunkSize: cfg.ChunkSize, TransferTimeout: cfg.TransferTimeout}
	if cfg.Mirror.Enabled() {
		s3Mirror, err := mirror.NewS3Mirror(ctx, cfg.Mirror)
		if err != nil {
			return nil, fmt.Errorf("setting up S3 mirror: %w", err)
		}
		opts.Mirror = s3Mirror
	}
	engine := gdrive.NewEngine(client, dir, opts)

	mgr := output.NewManager(w, dir.Path())
	for _, s := range skipped {
		mgr.RecordSkipped(s.URL, s.Err)
	}
	agg := scheduler.Run(ctx, tasks, cfg.Workers, engine, mgr)
	mgr.ShowSummary()
	return agg, nil
}
