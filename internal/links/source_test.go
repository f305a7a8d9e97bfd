package links

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanq16/gdfetch/internal/utils"
)

func TestCollectPrefersCommandLineURLs(t *testing.T) {
	t.Parallel()
	got, err := Collect(context.Background(), http.DefaultClient, Source{
		URLs:       []string{"https://b", "https://a", "https://b"},
		ScrapeURLs: []string{"http://127.0.0.1:1/unused"},
		LinksFile:  "unused.txt",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a", "https://b"}, got)
}

func TestCollectScrapesBeforeLinksFile(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<a href="https://docs.google.com/spreadsheets/d/S1/edit">sheet</a>`)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "links.txt")
	require.NoError(t, os.WriteFile(path, []byte("https://drive.google.com/file/d/FROMFILE/view\n"), 0644))

	got, err := Collect(context.Background(), srv.Client(), Source{
		ScrapeURLs: []string{srv.URL},
		LinksFile:  path,
		Patterns:   utils.DefaultLinkPatterns,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://docs.google.com/spreadsheets/d/S1/edit"}, got)
}

func TestCollectFallsBackToLinksFile(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "links.txt")
	require.NoError(t, os.WriteFile(path, []byte("https://drive.google.com/file/d/FROMFILE/view\n"), 0644))

	got, err := Collect(context.Background(), srv.Client(), Source{
		ScrapeURLs: []string{srv.URL},
		LinksFile:  path,
		Patterns:   utils.DefaultLinkPatterns,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://drive.google.com/file/d/FROMFILE/view"}, got)
}

func TestCollectFallsBackWhenScrapeStalls(t *testing.T) {
	t.Parallel()
	srv := stallingPage(t)
	client, err := utils.NewFetchHTTPClient(utils.HTTPClientConfig{TransferTimeout: 200 * time.Millisecond})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "links.txt")
	require.NoError(t, os.WriteFile(path, []byte("https://drive.google.com/file/d/FROMFILE/view\n"), 0644))

	got, err := Collect(context.Background(), client, Source{
		ScrapeURLs: []string{srv.URL},
		LinksFile:  path,
		Patterns:   utils.DefaultLinkPatterns,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://drive.google.com/file/d/FROMFILE/view"}, got)
}

func TestCollectFatalWithoutAnySource(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := Collect(context.Background(), srv.Client(), Source{
		ScrapeURLs: []string{srv.URL},
		LinksFile:  filepath.Join(t.TempDir(), "absent.txt"),
		Patterns:   utils.DefaultLinkPatterns,
	})
	assert.ErrorIs(t, err, ErrNoCandidates)

	_, err = Collect(context.Background(), srv.Client(), Source{})
	assert.ErrorIs(t, err, ErrNoCandidates)

	_, err = Collect(context.Background(), srv.Client(), Source{LinksFile: filepath.Join(t.TempDir(), "absent.txt")})
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestCollectCreatesMissingLinksFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "links.txt")
	got, err := Collect(context.Background(), http.DefaultClient, Source{LinksFile: path, CreateMissing: true})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.FileExists(t, path)
}
