package resolver

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanq16/gdfetch/internal/links"
	"github.com/tanq16/gdfetch/internal/utils"
)

type countingResolver struct {
	answer string
	err    error
	calls  map[utils.LinkKind]int
}

func (c *countingResolver) ChooseFormat(kind utils.LinkKind, _ utils.FormatSet) (string, error) {
	if c.calls == nil {
		c.calls = map[utils.LinkKind]int{}
	}
	c.calls[kind]++
	return c.answer, c.err
}

func TestLinksFileToDirectTask(t *testing.T) {
	t.Parallel()
	lines := strings.Join([]string{"# comment", "", "https://drive.google.com/file/d/ABC123/view"}, "\n")
	urls, err := links.ParseLines(strings.NewReader(lines))
	require.NoError(t, err)
	require.Len(t, urls, 1)

	task, err := New(utils.DefaultFormats, nil).Resolve(urls[0])
	require.NoError(t, err)
	assert.Equal(t, "https://drive.google.com/uc?export=download&id=ABC123", task.DownloadURL)
	assert.Equal(t, "ABC123", task.FileID)
	assert.Equal(t, "ABC123", task.FilenameHint)
	assert.Equal(t, utils.KindFile, task.Kind)
	assert.False(t, task.IsExport)
	assert.Empty(t, task.ExportFormat)
	assert.Empty(t, task.FileExtension)
	assert.NotEmpty(t, task.ID)
}

func TestDocumentExportUsesFormatResolver(t *testing.T) {
	t.Parallel()
	stub := &countingResolver{answer: "pdf"}
	task, err := New(utils.DefaultFormats, stub).Resolve("https://docs.google.com/document/d/XYZ/edit")
	require.NoError(t, err)
	assert.Equal(t, "https://docs.google.com/document/d/XYZ/export?format=pdf", task.DownloadURL)
	assert.True(t, task.IsExport)
	assert.Equal(t, "pdf", task.ExportFormat)
	assert.Equal(t, ".pdf", task.FileExtension)
	assert.Equal(t, 1, stub.calls[utils.KindDocument])
}

func TestFormatChosenOncePerKind(t *testing.T) {
	t.Parallel()
	stub := &countingResolver{answer: "pdf"}
	r := New(utils.DefaultFormats, stub)
	for _, u := range []string{
		"https://docs.google.com/document/d/D1/edit",
		"https://docs.google.com/document/d/D2/edit",
		"https://docs.google.com/spreadsheets/d/S1/edit",
		"https://docs.google.com/spreadsheets/d/S2/edit",
		"https://docs.google.com/presentation/d/P1/edit",
	} {
		_, err := r.Resolve(u)
		require.NoError(t, err)
	}
	assert.Equal(t, map[utils.LinkKind]int{
		utils.KindDocument:     1,
		utils.KindSpreadsheet:  1,
		utils.KindPresentation: 1,
	}, stub.calls)
	assert.Equal(t, FormatCache{
		utils.KindDocument:     "pdf",
		utils.KindSpreadsheet:  "pdf",
		utils.KindPresentation: "pdf",
	}, r.Cache())
}

func TestInvalidFormatFallsBackToDefault(t *testing.T) {
	t.Parallel()
	stub := &countingResolver{answer: "exe"}
	r := New(utils.DefaultFormats, stub)
	task, err := r.Resolve("https://docs.google.com/spreadsheets/d/S/edit")
	require.NoError(t, err)
	assert.Equal(t, "xlsx", task.ExportFormat)
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/S/export?format=xlsx", task.DownloadURL)

	_, err = r.Resolve("https://docs.google.com/spreadsheets/d/T/edit")
	require.NoError(t, err)
	assert.Equal(t, 1, stub.calls[utils.KindSpreadsheet], "fallback must be cached too")
}

func TestFormatResolverErrorFallsBackToDefault(t *testing.T) {
	t.Parallel()
	stub := &countingResolver{err: errors.New("no terminal")}
	task, err := New(utils.DefaultFormats, stub).Resolve("https://docs.google.com/presentation/d/P/edit")
	require.NoError(t, err)
	assert.Equal(t, "pptx", task.ExportFormat)
}

func TestUppercaseChoiceIsNormalized(t *testing.T) {
	t.Parallel()
	task, err := New(utils.DefaultFormats, StaticFormats{Choices: map[utils.LinkKind]string{utils.KindDocument: " DOCX "}}).
		Resolve("https://docs.google.com/document/d/X/edit")
	require.NoError(t, err)
	assert.Equal(t, "docx", task.ExportFormat)
}

func TestResolveIsDeterministic(t *testing.T) {
	t.Parallel()
	for _, u := range []string{
		"https://drive.google.com/file/d/ABC123/view",
		"https://drive.google.com/open?id=ABC123",
		"https://docs.google.com/document/d/XYZ/edit",
	} {
		first, err := New(utils.DefaultFormats, nil).Resolve(u)
		require.NoError(t, err)
		second, err := New(utils.DefaultFormats, nil).Resolve(u)
		require.NoError(t, err)
		assert.Equal(t, first.DownloadURL, second.DownloadURL, u)
		assert.NotEqual(t, first.ID, second.ID)
	}
}

func TestSkippedLinks(t *testing.T) {
	t.Parallel()
	r := New(utils.DefaultFormats, nil)

	_, err := r.Resolve("https://drive.google.com/drive/folders/FOLDER")
	de, ok := utils.AsDownloadError(err)
	require.True(t, ok)
	assert.Equal(t, utils.ErrKindFolderSkipped, de.Kind)

	_, err = r.Resolve("https://example.com/nothing")
	de, ok = utils.AsDownloadError(err)
	require.True(t, ok)
	assert.Equal(t, utils.ErrKindUnrecognizedLink, de.Kind)
}

func TestResolveAll(t *testing.T) {
	t.Parallel()
	tasks, skipped := New(utils.DefaultFormats, nil).ResolveAll([]string{
		"https://drive.google.com/file/d/F1/view",
		"https://drive.google.com/drive/folders/DIR",
		"garbage",
		"https://docs.google.com/document/d/D1/edit",
	})
	require.Len(t, tasks, 2)
	assert.Equal(t, "F1", tasks[0].FileID)
	assert.Equal(t, "D1", tasks[1].FileID)
	require.Len(t, skipped, 2)
	assert.Equal(t, utils.ErrKindFolderSkipped, skipped[0].Err.Kind)
	assert.Equal(t, utils.ErrKindUnrecognizedLink, skipped[1].Err.Kind)
}

func FuzzResolve(f *testing.F) {
	for _, seed := range []string{
		"",
		"https://drive.google.com/file/d/ABC123/view",
		"https://docs.google.com/document/d/XYZ/edit",
		"https://drive.google.com/drive/folders/F",
		"https://drive.google.com/uc?id=&id=Q",
		"\x00/file/d/",
		"::::",
	} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, raw string) {
		task, err := New(utils.DefaultFormats, nil).Resolve(raw)
		if err != nil {
			_, ok := utils.AsDownloadError(err)
			assert.True(t, ok)
			return
		}
		assert.NotEmpty(t, task.FileID)
		assert.NotEmpty(t, task.DownloadURL)
		assert.NotEmpty(t, task.FilenameHint)
		assert.Equal(t, task.IsExport, task.ExportFormat != "")
	})
}
