package utils

import (
	"regexp"
	"time"
)

const (
	DefaultChunkSize            = 8192
	DefaultConnectTimeout       = 30 * time.Second
	DefaultTransferTimeout      = 120 * time.Second
	DefaultKATimeout            = 90 * time.Second
	DefaultMaxCollisionAttempts = 1000
	MaxFilenameLength           = 200
	MaxFilenameBytes            = 240 // most filesystems stop at 255 bytes
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

const (
	directURLTemplate = "https://drive.google.com/uc?export=download&id=%s"
	exportURLTemplate = "https://docs.google.com/%s/d/%s/export?format=%s"
)

// Anchor targets worth keeping when scraping a page.
var DefaultLinkPatterns = []string{
	`drive\.google\.com/(?:file/d/|open\?id=|uc\?id=)([a-zA-Z0-9_-]+)`,
	`docs\.google\.com/(?:document|spreadsheets|presentation)/d/([a-zA-Z0-9_-]+)`,
}

var DefaultFormats = map[LinkKind]FormatSet{
	KindDocument:     {Default: "pdf", Valid: []string{"pdf", "docx", "odt", "rtf", "txt", "html", "epub"}},
	KindSpreadsheet:  {Default: "xlsx", Valid: []string{"pdf", "xlsx", "ods", "csv", "tsv", "html"}},
	KindPresentation: {Default: "pptx", Valid: []string{"pdf", "pptx", "odp", "txt"}},
}

// Ordered; the first match decides the kind.
var fileIDPatterns = []struct {
	re   *regexp.Regexp
	kind LinkKind
}{
	{regexp.MustCompile(`/file/d/([a-zA-Z0-9_-]+)`), KindFile},
	{regexp.MustCompile(`/document/d/([a-zA-Z0-9_-]+)`), KindDocument},
	{regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`), KindSpreadsheet},
	{regexp.MustCompile(`/presentation/d/([a-zA-Z0-9_-]+)`), KindPresentation},
	{regexp.MustCompile(`/drive/(?:u/\d+/)?folders/([a-zA-Z0-9_-]+)`), KindFolder},
	{regexp.MustCompile(`drive\.google\.com/(?:open|uc)\?(?:[^#]*&)?id=([a-zA-Z0-9_-]+)`), KindFile},
}

var (
	illegalFilenameChars = regexp.MustCompile(`[\\/*?:"<>|\x00-\x08\x0b\x0e-\x1f\x7f]`)
	separatorRuns        = regexp.MustCompile(`[\s_]+`)
	extendedFilename     = regexp.MustCompile(`(?i)filename\*\s*=\s*([^';\s]*)'([^']*)'([^;\s]+)`)
	plainFilename        = regexp.MustCompile(`(?i)(?:^|;)\s*filename\s*=\s*(?:"([^"]*)"|([^;]+))`)
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:135.0) Gecko/20100101 Firefox/135.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64; rv:135.0) Gecko/20100101 Firefox/135.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.3 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/132.0.0.0 Safari/537.36 Edg/132.0.0.0",
}
