package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanq16/gdfetch/internal/config"
	"github.com/tanq16/gdfetch/internal/resolver"
	"github.com/tanq16/gdfetch/internal/utils"
)

func testCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("links-file", "", "")
	cmd.Flags().StringArray("scrape-url", nil, "")
	require.NoError(t, cmd.Flags().Parse(args))
	return cmd
}

func TestLinkSourcePrecedence(t *testing.T) {
	cfg := &config.Config{LinksFile: "links.txt", ScrapeURLs: []string{"https://course.example/page"}}

	src := linkSource(testCommand(t), cfg, nil)
	assert.Equal(t, cfg.ScrapeURLs, src.ScrapeURLs)
	assert.True(t, src.CreateMissing)

	src = linkSource(testCommand(t, "--links-file", "mine.txt"), cfg, nil)
	assert.Empty(t, src.ScrapeURLs)
	assert.False(t, src.CreateMissing)

	src = linkSource(testCommand(t, "--links-file", "mine.txt", "--scrape-url", "https://x.example"), cfg, nil)
	assert.Equal(t, cfg.ScrapeURLs, src.ScrapeURLs)

	src = linkSource(testCommand(t), cfg, []string{"https://drive.google.com/file/d/A/view"})
	assert.Equal(t, []string{"https://drive.google.com/file/d/A/view"}, src.URLs)
}

func TestFormatChooserUsesChoices(t *testing.T) {
	cfg := &config.Config{FormatChoices: []string{"doc=docx"}}
	chooser, err := formatChooser(cfg)
	require.NoError(t, err)
	got, err := chooser.ChooseFormat(utils.KindDocument, utils.DefaultFormats[utils.KindDocument])
	require.NoError(t, err)
	assert.Equal(t, "docx", got)
	got, err = chooser.ChooseFormat(utils.KindSpreadsheet, utils.DefaultFormats[utils.KindSpreadsheet])
	require.NoError(t, err)
	assert.Equal(t, "xlsx", got)

	_, err = formatChooser(&config.Config{FormatChoices: []string{"video=mp4"}})
	assert.Error(t, err)
}

func TestDownloadPipeline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		fmt.Fprintf(w, "content of %s", id)
	}))
	defer srv.Close()

	cfg := &config.Config{OutputDir: filepath.Join(t.TempDir(), "out"), Workers: 3}
	cfg.Validate()
	var tasks []utils.DownloadTask
	for _, id := range []string{"A", "B", "C", "missing"} {
		tasks = append(tasks, utils.DownloadTask{
			ID: "t-" + id, OriginalURL: "https://drive.google.com/file/d/" + id + "/view",
			FileID: id, Kind: utils.KindFile, FilenameHint: id,
			DownloadURL: srv.URL + "/uc?id=" + id,
		})
	}
	skipped := []resolver.Skipped{{
		URL: "https://drive.google.com/drive/folders/F",
		Err: utils.NewError(utils.ErrKindFolderSkipped, utils.ReasonNone, "folder", nil),
	}}

	var buf bytes.Buffer
	agg, err := download(context.Background(), cfg, srv.Client(), tasks, skipped, &buf)
	require.NoError(t, err)
	assert.Equal(t, 4, agg.Total())
	assert.Len(t, agg.Succeeded(), 3)
	require.Len(t, agg.Failed(), 1)
	assert.Equal(t, utils.ReasonHTTPStatus, agg.Failed()[0].Err.Reason)

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, "B"))
	require.NoError(t, err)
	assert.Equal(t, "content of B", string(data))
	assert.Contains(t, buf.String(), "Completed 3 of 4")
	assert.Contains(t, buf.String(), "[folder_skipped]")
}

func TestPrintPlanAndFormats(t *testing.T) {
	var buf bytes.Buffer
	printPlan(&buf, []utils.DownloadTask{{
		FileID: "DOC1", Kind: utils.KindDocument, IsExport: true, ExportFormat: "pdf",
		OriginalURL: "https://docs.google.com/document/d/DOC1/edit", DownloadURL: utils.ExportURL(utils.KindDocument, "DOC1", "pdf"),
	}}, nil)
	assert.Contains(t, buf.String(), "DOC1")
	assert.Contains(t, buf.String(), "as pdf")
	assert.Contains(t, buf.String(), "1 to download, 0 skipped")

	buf.Reset()
	printFormats(&buf, utils.DefaultFormats)
	assert.Contains(t, buf.String(), "xlsx")
	assert.Contains(t, buf.String(), "pptx")
}
