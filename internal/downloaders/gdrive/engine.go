package gdrive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tanq16/gdfetch/internal/utils"
)

// Mirror copies a finished download somewhere else and returns its location.
type Mirror interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

type Options struct {
	ChunkSize       int
	TransferTimeout time.Duration
	Mirror          Mirror
}

// Engine executes download tasks. One Engine is shared by all workers.
type Engine struct {
	client          utils.HTTPDoer
	dir             *OutputDir
	chunkSize       int
	transferTimeout time.Duration
	mirror          Mirror
}

func NewEngine(client utils.HTTPDoer, dir *OutputDir, opts Options) *Engine {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = utils.DefaultChunkSize
	}
	return &Engine{
		client:          client,
		dir:             dir,
		chunkSize:       opts.ChunkSize,
		transferTimeout: opts.TransferTimeout,
		mirror:          opts.Mirror,
	}
}

// page is a response whose body may already be partly consumed into peek.
type page struct {
	resp         *http.Response
	body         io.Reader
	peek         []byte
	interstitial bool
}

type outcome struct {
	path    string
	partial bool
	written int64
}

// Execute runs the whole protocol for one task and always returns a result;
// failures are reported in it, never returned or panicked.
func (e *Engine) Execute(ctx context.Context, task utils.DownloadTask) utils.DownloadResult {
	logger := log.With().Str("op", "gdrive/engine").Str("task", task.ID).Str("url", task.OriginalURL).Logger()
	start := time.Now()
	result := utils.DownloadResult{TaskID: task.ID, OriginalURL: task.OriginalURL}

	out, err := e.download(ctx, task, logger)
	result.Bytes = out.written
	if err != nil {
		de, ok := utils.AsDownloadError(err)
		if !ok {
			de = utils.NewError(utils.ErrKindFilesystem, utils.ReasonIO, "", err)
		}
		result.Err = de
		result.Message = de.Error()
		if out.partial {
			result.PartialPath = out.path
			result.Message += fmt.Sprintf("; partial file left at %s (%s)", out.path, utils.FormatBytes(uint64(out.written)))
		}
		logger.Error().Err(de).Msg("download failed")
		return result
	}

	result.Success = true
	result.FilePath = out.path
	result.Message = fmt.Sprintf("saved %s (%s in %s)", filepath.Base(out.path), utils.FormatBytes(uint64(out.written)), time.Since(start).Round(time.Millisecond))
	logger.Info().Msgf("saved %s", out.path)
	if e.mirror != nil {
		location, err := e.mirror.Upload(ctx, out.path)
		if err != nil {
			logger.Warn().Err(err).Msg("mirror upload failed")
			result.Message += "; mirror upload failed: " + err.Error()
		} else {
			result.Message += "; mirrored to " + location
		}
	}
	return result
}

func (e *Engine) download(ctx context.Context, task utils.DownloadTask, logger zerolog.Logger) (outcome, error) {
	if e.transferTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.transferTimeout)
		defer cancel()
	}

	p, err := e.fetch(ctx, task.DownloadURL)
	if err != nil {
		return outcome{}, err
	}
	if p.interstitial {
		p.resp.Body.Close()
		target, err := ConfirmTarget(p.peek, p.resp.Request.URL)
		if err != nil {
			return outcome{}, utils.NewError(utils.ErrKindConfirmationUnresolved, utils.ReasonNone, "confirmation page without a usable target", err)
		}
		logger.Debug().Msgf("confirmation page detected, following %s", target)
		p, err = e.fetch(ctx, target)
		if err != nil {
			return outcome{}, err
		}
		if p.interstitial {
			p.resp.Body.Close()
			return outcome{}, utils.NewError(utils.ErrKindConfirmationUnresolved, utils.ReasonNone, "confirmation page returned again after confirming", nil)
		}
	}
	defer p.resp.Body.Close()
	return e.save(ctx, task, p)
}

// fetch issues one GET. HTML responses without an attachment header are
// peeked to tell a confirmation page from real content.
func (e *Engine) fetch(ctx context.Context, target string) (page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return page{}, utils.NewError(utils.ErrKindNetwork, utils.ReasonConnection, "building request for "+target, err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return page{}, utils.NetworkError("GET "+target, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return page{}, utils.NewError(utils.ErrKindNetwork, utils.ReasonHTTPStatus, fmt.Sprintf("GET %s returned %s", target, resp.Status), nil)
	}
	if resp.Request == nil {
		resp.Request = req
	}
	if !needsPeek(resp.Header) {
		return page{resp: resp, body: resp.Body}, nil
	}
	peek, err := io.ReadAll(io.LimitReader(resp.Body, peekLimit))
	if err != nil {
		resp.Body.Close()
		return page{}, utils.NetworkError("reading "+target, err)
	}
	if IsInterstitial(resp.Header, peek) {
		return page{resp: resp, peek: peek, interstitial: true}, nil
	}
	return page{resp: resp, body: io.MultiReader(bytes.NewReader(peek), resp.Body)}, nil
}

func (e *Engine) save(ctx context.Context, task utils.DownloadTask, p page) (outcome, error) {
	name := chooseFilename(task, p.resp.Header)
	f, path, err := e.dir.Create(name)
	if err != nil {
		return outcome{}, err
	}
	written, err := e.stream(ctx, f, p.body)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = utils.FilesystemError("closing "+path, closeErr)
	}
	if err == nil && p.resp.ContentLength > 0 && written < p.resp.ContentLength {
		err = utils.NewError(utils.ErrKindNetwork, utils.ReasonConnection,
			fmt.Sprintf("body ended after %d of %d bytes", written, p.resp.ContentLength), nil)
	}
	if err != nil {
		return outcome{path: path, partial: true, written: written}, err
	}
	return outcome{path: path, written: written}, nil
}

// stream copies body to f one chunk at a time so read and write failures
// stay distinguishable.
func (e *Engine) stream(ctx context.Context, f *os.File, body io.Reader) (int64, error) {
	buffer := make([]byte, e.chunkSize)
	var written int64
	for {
		n, readErr := body.Read(buffer)
		if n > 0 {
			if _, err := f.Write(buffer[:n]); err != nil {
				return written, utils.FilesystemError("writing "+f.Name(), err)
			}
			written += int64(n)
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				readErr = fmt.Errorf("%w: %w", ctxErr, readErr)
			}
			return written, utils.NetworkError("reading body", readErr)
		}
	}
}

// chooseFilename prefers the server's name, then the task hint plus its
// expected extension.
func chooseFilename(task utils.DownloadTask, h http.Header) string {
	if name := utils.ParseContentDisposition(h.Get("Content-Disposition")); name != "" {
		if filepath.Ext(name) == "" && task.FileExtension != "" {
			name += task.FileExtension
		}
		return utils.SanitizeFilename(name)
	}
	hint := task.FilenameHint
	if hint == "" {
		hint = task.FileID
	}
	return utils.SanitizeFilename(hint + task.FileExtension)
}
