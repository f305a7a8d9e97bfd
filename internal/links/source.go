package links

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/tanq16/gdfetch/internal/utils"
)

// ErrNoCandidates means no candidate list could be obtained at all.
var ErrNoCandidates = errors.New("no candidate link list available")

// Source describes where candidate URLs come from. The first non-empty of
// URLs, ScrapeURLs and LinksFile wins. When every scrape fails, LinksFile is
// read instead if it exists.
type Source struct {
	URLs          []string
	ScrapeURLs    []string
	LinksFile     string
	Patterns      []string
	CreateMissing bool // write a template when LinksFile does not exist
}

// Collect returns the sorted, deduplicated candidate URLs.
func Collect(ctx context.Context, client utils.HTTPDoer, src Source) ([]string, error) {
	op := "links/source"
	switch {
	case len(src.URLs) > 0:
		log.Info().Str("op", op).Msgf("using %d links from the command line", len(src.URLs))
		return dedupeLogged(src.URLs), nil

	case len(src.ScrapeURLs) > 0:
		patterns, err := CompilePatterns(src.Patterns)
		if err != nil {
			return nil, err
		}
		found, err := ScrapePages(ctx, client, src.ScrapeURLs, patterns)
		if err == nil {
			if len(found) == 0 {
				log.Warn().Str("op", op).Msg("no links matching the configured patterns were found")
			}
			return found, nil
		}
		if src.LinksFile != "" {
			if _, statErr := os.Stat(src.LinksFile); statErr == nil {
				log.Warn().Str("op", op).Msgf("scraping failed, falling back to %s", src.LinksFile)
				return readFile(src.LinksFile)
			}
		}
		return nil, fmt.Errorf("%w: %w", ErrNoCandidates, err)

	case src.LinksFile != "":
		if src.CreateMissing {
			if created, err := WriteDefaultLinksFile(src.LinksFile); err != nil {
				log.Warn().Str("op", op).Err(err).Msg("could not create template links file")
			} else if created {
				log.Warn().Str("op", op).Msgf("edit %s with links or pass --scrape-url", src.LinksFile)
			}
		}
		return readFile(src.LinksFile)
	}
	return nil, fmt.Errorf("%w: no links, scrape URL or links file given", ErrNoCandidates)
}

func readFile(path string) ([]string, error) {
	urls, err := ReadLinksFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoCandidates, err)
	}
	if len(urls) == 0 {
		log.Warn().Str("op", "links/source").Msgf("no links found in %s", path)
	}
	return dedupeLogged(urls), nil
}

func dedupeLogged(urls []string) []string {
	unique := Dedupe(urls)
	if dropped := len(urls) - len(unique); dropped > 0 {
		log.Info().Str("op", "links/source").Msgf("removed %d duplicate links", dropped)
	}
	return unique
}
