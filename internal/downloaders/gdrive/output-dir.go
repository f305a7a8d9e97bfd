package gdrive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tanq16/gdfetch/internal/utils"
)

// OutputDir hands out unique file names inside one directory. Name selection
// and creation happen under a single lock, and files are created with
// O_EXCL so an existing file is never truncated.
type OutputDir struct {
	path        string
	maxAttempts int
	mu          sync.Mutex
}

func NewOutputDir(path string, maxAttempts int) (*OutputDir, error) {
	if maxAttempts < 1 {
		maxAttempts = utils.DefaultMaxCollisionAttempts
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, utils.FilesystemError("creating output directory "+path, err)
	}
	return &OutputDir{path: path, maxAttempts: maxAttempts}, nil
}

func (d *OutputDir) Path() string {
	return d.path
}

// Create opens a new file named name, or name_1, name_2 ... (before the
// extension) when taken, trying at most maxAttempts suffixes.
func (d *OutputDir) Create(name string) (*os.File, string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for attempt := 0; attempt <= d.maxAttempts; attempt++ {
		candidate := name
		if attempt > 0 {
			suffix := fmt.Sprintf("_%d", attempt)
			candidate = utils.TruncateStem(stem, suffix+ext) + suffix + ext
		}
		path := filepath.Join(d.path, candidate)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return f, path, nil
		}
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		return nil, "", utils.FilesystemError("creating "+path, err)
	}
	return nil, "", utils.NewError(utils.ErrKindFilesystem, utils.ReasonCollisionExhausted,
		fmt.Sprintf("no free name for %s after %d attempts", name, d.maxAttempts), nil)
}
