package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tanq16/gdfetch/internal/output"
	"github.com/tanq16/gdfetch/internal/utils"
)

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List export formats for Docs, Sheets and Slides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closer, err := setup(cmd, v, configPath)
			if err != nil {
				return err
			}
			defer closer.Close()
			printFormats(os.Stdout, cfg.Formats)
			return nil
		},
	}
}

func printFormats(w io.Writer, formats map[utils.LinkKind]utils.FormatSet) {
	for _, kind := range utils.ExportKinds {
		set := formats[kind]
		fmt.Fprintf(w, "%s%-14s %s %s\n", strings.Repeat(" ", 2), kind.Label(),
			output.FInfo("default "+set.Default), output.FDebug("("+strings.Join(set.Valid, ", ")+")"))
	}
}
