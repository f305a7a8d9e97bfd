package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tanq16/gdfetch/internal/utils"
)

// Template returns the default configuration, ready to be written out.
func Template() Config {
	formats := make(map[utils.LinkKind]utils.FormatSet, len(utils.DefaultFormats))
	for kind, set := range utils.DefaultFormats {
		formats[kind] = set
	}
	return Config{
		OutputDir:            "downloaded_files",
		Workers:              5,
		LinksFile:            "links.txt",
		ScrapeURLs:           []string{},
		LinkPatterns:         utils.DefaultLinkPatterns,
		UserAgent:            utils.DefaultUserAgent,
		ConnectTimeout:       utils.DefaultConnectTimeout,
		TransferTimeout:      utils.DefaultTransferTimeout,
		ChunkSize:            utils.DefaultChunkSize,
		MaxCollisionAttempts: utils.DefaultMaxCollisionAttempts,
		Headers:              []string{},
		Formats:              formats,
		FormatChoices:        []string{},
		Prompt:               true,
	}
}

// WriteTemplate writes the default configuration as YAML. Existing files are left alone.
func WriteTemplate(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	data, err := yaml.Marshal(Template())
	if err != nil {
		return false, fmt.Errorf("encoding config template: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return false, fmt.Errorf("writing config template: %w", err)
	}
	return true, nil
}
