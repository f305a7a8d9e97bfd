package gdrive

import (
	"bytes"
	"errors"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// peekLimit bounds how much of an HTML response is buffered to look for a
// confirmation page. Real content is replayed, so nothing is lost.
const peekLimit = 64 * 1024

var interstitialMarkers = [][]byte{
	[]byte("downloadForm"),
	[]byte("download-form"),
	[]byte("uc-download-link"),
	[]byte("confirm="),
	[]byte("Virus scan warning"),
}

var errNoConfirmTarget = errors.New("no confirmation form or link in page")

// needsPeek reports whether a response could be a confirmation page: HTML
// with no attachment header.
func needsPeek(h http.Header) bool {
	if h.Get("Content-Disposition") != "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(h.Get("Content-Type"))
	return err == nil && mediaType == "text/html"
}

// IsInterstitial is the single place that decides whether a response is the
// host's confirmation page rather than file content.
func IsInterstitial(h http.Header, peek []byte) bool {
	if !needsPeek(h) {
		return false
	}
	for _, marker := range interstitialMarkers {
		if bytes.Contains(peek, marker) {
			return true
		}
	}
	return false
}

// ConfirmTarget finds the URL that completes the confirmation. A download
// form wins (action plus hidden inputs for GET forms); otherwise the first
// link carrying a confirm token is used. Relative targets resolve against base.
func ConfirmTarget(page []byte, base *url.URL) (string, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return "", err
	}
	if form := findNode(doc, isDownloadForm); form != nil {
		if target, ok := formTarget(form, base); ok {
			return target, nil
		}
	}
	link := findNode(doc, func(n *html.Node) bool {
		return n.Data == "a" && strings.Contains(attr(n, "href"), "confirm=")
	})
	if link != nil {
		if target, ok := resolve(base, attr(link, "href")); ok {
			return target, nil
		}
	}
	return "", errNoConfirmTarget
}

func isDownloadForm(n *html.Node) bool {
	if n.Data != "form" {
		return false
	}
	id := attr(n, "id")
	return id == "downloadForm" || id == "download-form"
}

func formTarget(form *html.Node, base *url.URL) (string, bool) {
	action := attr(form, "action")
	if action == "" {
		return "", false
	}
	target, ok := resolve(base, action)
	if !ok {
		return "", false
	}
	method := strings.ToLower(attr(form, "method"))
	if method != "" && method != "get" {
		return target, true
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", false
	}
	query := u.Query()
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "input" && strings.EqualFold(attr(n, "type"), "hidden") {
			if name := attr(n, "name"); name != "" && !query.Has(name) {
				query.Set(name, attr(n, "value"))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(form)
	u.RawQuery = query.Encode()
	return u.String(), true
}

func resolve(base *url.URL, ref string) (string, bool) {
	parsed, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", false
	}
	if base != nil {
		parsed = base.ResolveReference(parsed)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", false
	}
	return parsed.String(), true
}

func findNode(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, match); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
