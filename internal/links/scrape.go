package links

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/tanq16/gdfetch/internal/utils"
)

const (
	maxPageSize      = 16 * 1024 * 1024
	maxParallelPages = 4
)

var ignoredSchemes = []string{"javascript:", "mailto:", "tel:", "data:"}

// CompilePatterns compiles link patterns for case-insensitive matching.
func CompilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("invalid link pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// ScrapePage fetches pageURL and returns the absolute anchor targets that
// match at least one pattern, without fragments and without duplicates.
func ScrapePage(ctx context.Context, client utils.HTTPDoer, pageURL string, patterns []*regexp.Regexp) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetching %s: status %d", pageURL, resp.StatusCode)
	}
	if resp.Request != nil && resp.Request.URL != nil {
		base = resp.Request.URL
	}
	hrefs, docBase, err := extractAnchors(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", pageURL, err)
	}
	if docBase != "" {
		if ref, err := url.Parse(docBase); err == nil {
			base = base.ResolveReference(ref)
		}
	}
	var found []string
	seen := make(map[string]struct{})
	for _, href := range hrefs {
		target, ok := normalizeHref(base, href)
		if !ok {
			continue
		}
		if _, dup := seen[target]; dup {
			continue
		}
		for _, re := range patterns {
			if re.MatchString(target) {
				log.Debug().Str("op", "links/scrape").Msgf("matched %s", target)
				seen[target] = struct{}{}
				found = append(found, target)
				break
			}
		}
	}
	log.Info().Str("op", "links/scrape").Msgf("found %d matching links on %s", len(found), pageURL)
	return found, nil
}

// extractAnchors returns every <a href> value and the first <base href>.
// A read failure before the end of the page is returned as an error.
func extractAnchors(r io.Reader) ([]string, string, error) {
	var hrefs []string
	var docBase string
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return nil, "", err
			}
			return hrefs, docBase, nil
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if !hasAttr {
				continue
			}
			tag := string(name)
			if tag != "a" && tag != "base" {
				continue
			}
			for {
				key, val, more := z.TagAttr()
				if string(key) == "href" {
					if tag == "a" {
						hrefs = append(hrefs, string(val))
					} else if docBase == "" {
						docBase = string(val)
					}
				}
				if !more {
					break
				}
			}
		}
	}
}

func normalizeHref(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	lower := strings.ToLower(href)
	for _, scheme := range ignoredSchemes {
		if strings.HasPrefix(lower, scheme) {
			return "", false
		}
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	abs.Fragment = ""
	abs.RawFragment = ""
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	return abs.String(), true
}

// ScrapePages scrapes every page concurrently. A failing page is logged and
// skipped; an error is returned only when no page could be scraped.
func ScrapePages(ctx context.Context, client utils.HTTPDoer, pages []string, patterns []*regexp.Regexp) ([]string, error) {
	results := make([][]string, len(pages))
	errs := make([]error, len(pages))
	var g errgroup.Group
	g.SetLimit(maxParallelPages)
	for i, page := range pages {
		g.Go(func() error {
			found, err := ScrapePage(ctx, client, page, patterns)
			if err != nil {
				log.Error().Str("op", "links/scrape").Err(err).Msgf("could not scrape %s", page)
				errs[i] = err
				return nil
			}
			results[i] = found
			return nil
		})
	}
	_ = g.Wait()
	var all []string
	failed := 0
	for i := range pages {
		if errs[i] != nil {
			failed++
			continue
		}
		all = append(all, results[i]...)
	}
	if len(pages) > 0 && failed == len(pages) {
		return nil, errors.Join(errs...)
	}
	return Dedupe(all), nil
}
