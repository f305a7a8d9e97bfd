package utils

import "slices"

type LinkKind string

const (
	KindFile         LinkKind = "file"
	KindDocument     LinkKind = "document"
	KindSpreadsheet  LinkKind = "spreadsheets"
	KindPresentation LinkKind = "presentation"
	KindFolder       LinkKind = "folder"
)

// ExportKinds lists the kinds that are converted server-side before download.
var ExportKinds = []LinkKind{KindDocument, KindSpreadsheet, KindPresentation}

func (k LinkKind) Exportable() bool {
	return slices.Contains(ExportKinds, k)
}

// Label is the human name used in prompts and logs.
func (k LinkKind) Label() string {
	switch k {
	case KindDocument:
		return "Google Doc"
	case KindSpreadsheet:
		return "Google Sheet"
	case KindPresentation:
		return "Google Slides"
	case KindFolder:
		return "folder"
	default:
		return "file"
	}
}

type FormatSet struct {
	Default string   `mapstructure:"default" yaml:"default"`
	Valid   []string `mapstructure:"valid" yaml:"valid"`
}

func (f FormatSet) Contains(format string) bool {
	return slices.Contains(f.Valid, format)
}

// DownloadTask is built once by the resolver and treated as read-only afterwards.
type DownloadTask struct {
	ID            string
	OriginalURL   string
	FileID        string
	Kind          LinkKind
	DownloadURL   string
	FilenameHint  string
	FileExtension string
	IsExport      bool
	ExportFormat  string
}

type DownloadResult struct {
	TaskID      string
	OriginalURL string
	Success     bool
	FilePath    string
	PartialPath string
	Message     string
	Bytes       int64
	Err         *DownloadError
}

// DownloadEntry is one item of a YAML links file.
type DownloadEntry struct {
	URL  string `yaml:"link"`
	Note string `yaml:"note,omitempty"`
}
