package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tanq16/gdfetch/internal/config"
	"github.com/tanq16/gdfetch/internal/links"
	"github.com/tanq16/gdfetch/internal/output"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter links file and config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// the config file named by --config may be what we are about to create
			existing := configPath
			if _, err := os.Stat(existing); err != nil {
				existing = ""
			}
			cfg, closer, err := setup(cmd, v, existing)
			if err != nil {
				return err
			}
			defer closer.Close()

			created, err := links.WriteDefaultLinksFile(cfg.LinksFile)
			if err != nil {
				return err
			}
			report(cfg.LinksFile, created)

			path := configPath
			if path == "" {
				path = config.DefaultConfigName + ".yaml"
			}
			created, err = config.WriteTemplate(path)
			if err != nil {
				return err
			}
			report(path, created)
			return nil
		},
	}
}

func report(path string, created bool) {
	if created {
		output.PrintSuccess("Created " + path)
		return
	}
	output.PrintWarning(path + " already exists, left unchanged")
}
