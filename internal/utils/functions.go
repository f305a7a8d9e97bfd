package utils

import (
	"fmt"
	"mime"
	"net/url"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/ianaindex"
)

func GetRandomUserAgent() string {
	return userAgents[time.Now().UnixNano()%int64(len(userAgents))]
}

func DirectURL(fileID string) string {
	return fmt.Sprintf(directURLTemplate, fileID)
}

func ExportURL(kind LinkKind, fileID, format string) string {
	return fmt.Sprintf(exportURLTemplate, kind, fileID, format)
}

// ExtractFileID reports the id and kind of the first pattern that matches rawURL.
func ExtractFileID(rawURL string) (string, LinkKind, bool) {
	for _, p := range fileIDPatterns {
		if m := p.re.FindStringSubmatch(rawURL); len(m) > 1 && m[1] != "" {
			return m[1], p.kind, true
		}
	}
	return "", "", false
}

// SanitizeFilename returns a single path element safe for any common filesystem.
// SanitizeFilename(SanitizeFilename(s)) == SanitizeFilename(s).
func SanitizeFilename(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = illegalFilenameChars.ReplaceAllString(name, "")
	name = separatorRuns.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_.")
	if name == "" {
		return "unnamed_file"
	}
	if utf8.RuneCountInString(name) <= MaxFilenameLength && len(name) <= MaxFilenameBytes {
		return name
	}
	ext := filepath.Ext(name)
	if utf8.RuneCountInString(ext) > 16 || len(ext) > 32 {
		ext = ""
	}
	stem := strings.TrimRight(TruncateStem(strings.TrimSuffix(name, ext), ext), "_.")
	if stem == "" {
		stem = "unnamed_file"
	}
	return stem + ext
}

// TruncateStem cuts stem on a rune boundary so that stem+tail fits within
// MaxFilenameLength runes and MaxFilenameBytes bytes.
func TruncateStem(stem, tail string) string {
	runeBudget := MaxFilenameLength - utf8.RuneCountInString(tail)
	byteBudget := MaxFilenameBytes - len(tail)
	if utf8.RuneCountInString(stem) <= runeBudget && len(stem) <= byteBudget {
		return stem
	}
	var b strings.Builder
	count := 0
	for _, r := range stem {
		if count >= runeBudget || b.Len()+utf8.RuneLen(r) > byteBudget {
			break
		}
		b.WriteRune(r)
		count++
	}
	return b.String()
}

// ParseContentDisposition extracts the server-suggested filename, preferring the
// charset-tagged extended form. It returns "" when the header names no file.
func ParseContentDisposition(header string) string {
	if strings.TrimSpace(header) == "" {
		return ""
	}
	if m := extendedFilename.FindStringSubmatch(header); m != nil {
		if name, ok := decodeExtendedValue(m[1], m[3]); ok && strings.TrimSpace(name) != "" {
			return SanitizeFilename(name)
		}
	}
	var name string
	if _, params, err := mime.ParseMediaType(header); err == nil {
		name = params["filename"]
	}
	if name == "" {
		if m := plainFilename.FindStringSubmatch(header); m != nil {
			name = m[1]
			if name == "" {
				name = strings.TrimSpace(m[2])
			}
		}
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	if strings.TrimSpace(name) == "" {
		return ""
	}
	return SanitizeFilename(name)
}

func decodeExtendedValue(charset, value string) (string, bool) {
	raw, err := url.PathUnescape(value)
	if err != nil {
		return "", false
	}
	switch strings.ToLower(charset) {
	case "", "utf-8", "utf8", "us-ascii":
		return raw, utf8.ValidString(raw)
	}
	enc, err := ianaindex.MIME.Encoding(charset)
	if err != nil || enc == nil {
		return "", false
	}
	decoded, err := enc.NewDecoder().String(raw)
	if err != nil {
		return "", false
	}
	return decoded, true
}

func ParseHeaderArgs(headers []string) map[string]string {
	result := make(map[string]string)
	for _, header := range headers {
		parts := strings.SplitN(header, ":", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			result[key] = value
		}
	}
	return result
}

func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
