package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tanq16/gdfetch/internal/config"
	"github.com/tanq16/gdfetch/internal/output"
	"github.com/tanq16/gdfetch/internal/utils"
)

var GDFetchVersion = "dev"

var (
	v          = config.New()
	configPath string
	noPrompt   bool
)

var errFailedTasks = errors.New("encountered failed download(s)")

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gdfetch [URL...]",
		Short: "Batch downloader for Google Drive files and Docs, Sheets and Slides exports",
		Long: `gdfetch collects Google Drive links from the command line, scraped pages or a
links file, then downloads every file concurrently into one output directory.
Google Docs, Sheets and Slides are exported in a format chosen once per kind.`,
		Version:       GDFetchVersion,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.BindFlags(v, cmd)
		},
		RunE: runDownload,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Config file (default ./gdfetch.yaml when present)")
	flags.StringP("output", "o", "", "Output directory (default downloaded_files)")
	flags.IntP("workers", "w", 0, "Number of downloads to run in parallel (default 5)")
	flags.String("links-file", "", "File with one link per line, or a YAML list of link entries (default links.txt)")
	flags.StringArray("scrape-url", []string{}, "Page to scrape for Drive links; can be specified multiple times")
	flags.StringArray("format", []string{}, "Export format per kind (like 'doc=docx'); can be specified multiple times")
	flags.BoolVar(&noPrompt, "no-prompt", false, "Never ask for export formats, use defaults instead")
	flags.StringP("user-agent", "a", "", "User agent ('randomize' picks a browser agent)")
	flags.StringP("proxy", "p", "", "HTTP/HTTPS/SOCKS5 proxy URL (e.g., socks5://127.0.0.1:1080)")
	flags.String("proxy-username", "", "Proxy username (if not provided in proxy URL)")
	flags.String("proxy-password", "", "Proxy password (if not provided in proxy URL)")
	flags.StringArrayP("header", "H", []string{}, "Custom headers (like 'Cookie: a=b'); can be specified multiple times")
	flags.Duration("connect-timeout", 0, "Connect and response header timeout (default 30s)")
	flags.DurationP("timeout", "t", 0, "Timeout for a whole transfer (default 2m)")
	flags.Int("chunk-size", 0, "Bytes written per chunk (default 8192)")
	flags.String("s3-bucket", "", "Also upload every saved file to this S3 bucket")
	flags.String("s3-prefix", "", "Key prefix for S3 uploads")
	flags.String("s3-profile", "", "AWS profile for S3 uploads")
	flags.String("s3-region", "", "AWS region for S3 uploads")
	flags.Bool("debug", false, "Enable debug logging")
	flags.String("log-file", "", "Also write JSON logs to this file")

	rootCmd.AddCommand(newResolveCmd())
	rootCmd.AddCommand(newFormatsCmd())
	rootCmd.AddCommand(newInitCmd())
	return rootCmd
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errFailedTasks) {
			output.PrintError(err.Error())
		}
		os.Exit(1)
	}
}

// setup loads configuration and installs the logger. The closer releases the
// log file, if any.
func setup(cmd *cobra.Command, vp *viper.Viper, path string) (*config.Config, io.Closer, error) {
	cfg, err := config.Load(vp, path)
	if err != nil {
		return nil, nil, err
	}
	closer, err := utils.InitLogger(cfg.Debug, cfg.LogFile)
	if err != nil {
		log.Warn().Str("op", "cmd/root").Err(err).Msg("file logging disabled")
	}
	if noPrompt {
		cfg.Prompt = false
	}
	log.Debug().Str("op", "cmd/root").Msgf("running %s with %d workers into %s", cmd.Name(), cfg.Workers, cfg.OutputDir)
	return cfg, closer, nil
}

func runDownload(cmd *cobra.Command, args []string) error {
	cfg, closer, err := setup(cmd, v, configPath)
	if err != nil {
		return err
	}
	defer closer.Close()
	ctx := cmd.Context()

	client, err := utils.NewFetchHTTPClient(cfg.HTTPClientConfig())
	if err != nil {
		return fmt.Errorf("creating HTTP client: %w", err)
	}
	tasks, skipped, err := collectTasks(ctx, cmd, cfg, client, args)
	if err != nil {
		return err
	}
	agg, err := download(ctx, cfg, client, tasks, skipped, os.Stdout)
	if err != nil {
		return err
	}
	if len(agg.Failed()) > 0 {
		fmt.Println()
		output.PrintError("Encountered failed download(s)")
		return errFailedTasks
	}
	return nil
}
