package links

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/tanq16/gdfetch/internal/utils"
)

const defaultLinksTemplate = `# Add one Google Drive or Google Docs link per line.
# Blank lines and lines starting with # are ignored.
#
# https://drive.google.com/file/d/FILE_ID/view
# https://docs.google.com/document/d/DOC_ID/edit
# https://docs.google.com/spreadsheets/d/SHEET_ID/edit
# https://docs.google.com/presentation/d/SLIDES_ID/edit
`

// ReadLinksFile returns the candidate URLs listed in path. Files ending in
// .yaml or .yml hold a list of {link: URL} entries; anything else is read
// line by line.
func ReadLinksFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var urls []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		urls, err = parseYAMLLinks(f)
	default:
		urls, err = ParseLines(f)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	log.Info().Str("op", "links/file").Msgf("found %d links in %s", len(urls), path)
	return urls, nil
}

// ParseLines skips blank lines and # comments.
func ParseLines(r io.Reader) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, scanner.Err()
}

func parseYAMLLinks(r io.Reader) ([]string, error) {
	var entries []utils.DownloadEntry
	if err := yaml.NewDecoder(r).Decode(&entries); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	var urls []string
	for _, entry := range entries {
		if link := strings.TrimSpace(entry.URL); link != "" {
			urls = append(urls, link)
		}
	}
	return urls, nil
}

// WriteDefaultLinksFile creates a commented links file when none exists.
func WriteDefaultLinksFile(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return false, err
		}
	}
	if err := os.WriteFile(path, []byte(defaultLinksTemplate), 0644); err != nil {
		return false, err
	}
	log.Info().Str("op", "links/file").Msgf("created template links file %s", path)
	return true, nil
}

// Dedupe trims, drops empties and returns the unique URLs in sorted order.
func Dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}
