package resolver

import (
	"fmt"
	"maps"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tanq16/gdfetch/internal/utils"
)

// FormatCache remembers the export format chosen for each kind during a run.
type FormatCache map[utils.LinkKind]string

// Skipped is a candidate URL that never became a task.
type Skipped struct {
	URL string
	Err *utils.DownloadError
}

// Resolver turns raw URLs into download tasks. It owns the format cache and
// is not safe for concurrent use; resolution finishes before any download starts.
type Resolver struct {
	formats map[utils.LinkKind]utils.FormatSet
	chooser FormatResolver
	cache   FormatCache
}

func New(formats map[utils.LinkKind]utils.FormatSet, chooser FormatResolver) *Resolver {
	if chooser == nil {
		chooser = DefaultFormats
	}
	return &Resolver{
		formats: formats,
		chooser: chooser,
		cache:   make(FormatCache),
	}
}

// Cache returns a snapshot of the formats chosen so far.
func (r *Resolver) Cache() FormatCache {
	return maps.Clone(r.cache)
}

// Resolve classifies rawURL. Unrecognized links and folders come back as a
// *utils.DownloadError and never produce a task.
func (r *Resolver) Resolve(rawURL string) (utils.DownloadTask, error) {
	fileID, kind, ok := utils.ExtractFileID(rawURL)
	if !ok {
		return utils.DownloadTask{}, utils.NewError(utils.ErrKindUnrecognizedLink, utils.ReasonNone, "no file id in "+rawURL, nil)
	}
	if kind == utils.KindFolder {
		return utils.DownloadTask{}, utils.NewError(utils.ErrKindFolderSkipped, utils.ReasonNone, "folders cannot be downloaded directly: "+rawURL, nil)
	}
	task := utils.DownloadTask{
		ID:           uuid.NewString(),
		OriginalURL:  rawURL,
		FileID:       fileID,
		Kind:         kind,
		FilenameHint: fileID,
	}
	if !kind.Exportable() {
		task.DownloadURL = utils.DirectURL(fileID)
		log.Debug().Str("op", "resolver/resolver").Msgf("%s is a direct file (%s)", rawURL, fileID)
		return task, nil
	}
	format := r.exportFormat(kind)
	task.IsExport = true
	task.ExportFormat = format
	task.FileExtension = "." + format
	task.DownloadURL = utils.ExportURL(kind, fileID, format)
	log.Debug().Str("op", "resolver/resolver").Msgf("%s is a %s exported as %s", rawURL, kind.Label(), format)
	return task, nil
}

func (r *Resolver) exportFormat(kind utils.LinkKind) string {
	if format, ok := r.cache[kind]; ok {
		return format
	}
	set, ok := r.formats[kind]
	if !ok || len(set.Valid) == 0 {
		set = utils.DefaultFormats[kind]
	}
	choice, err := r.chooser.ChooseFormat(kind, set)
	choice = strings.ToLower(strings.TrimSpace(choice))
	if err != nil || !set.Contains(choice) {
		invalid := utils.NewError(utils.ErrKindInvalidExportFormat, utils.ReasonNone, fmt.Sprintf("%q for %s", choice, kind), err)
		log.Warn().Str("op", "resolver/resolver").Err(invalid).Msgf("using default format %s", set.Default)
		choice = set.Default
	}
	r.cache[kind] = choice
	return choice
}

// ResolveAll resolves urls in order, returning the tasks and the skipped links.
func (r *Resolver) ResolveAll(urls []string) ([]utils.DownloadTask, []Skipped) {
	tasks := make([]utils.DownloadTask, 0, len(urls))
	var skipped []Skipped
	for _, raw := range urls {
		task, err := r.Resolve(raw)
		if err != nil {
			de, ok := utils.AsDownloadError(err)
			if !ok {
				de = utils.NewError(utils.ErrKindUnrecognizedLink, utils.ReasonNone, raw, err)
			}
			log.Info().Str("op", "resolver/resolver").Msgf("skipping link: %s", de.Error())
			skipped = append(skipped, Skipped{URL: raw, Err: de})
			continue
		}
		tasks = append(tasks, task)
	}
	log.Info().Str("op", "resolver/resolver").Msgf("prepared %d tasks, skipped %d links", len(tasks), len(skipped))
	return tasks, skipped
}
