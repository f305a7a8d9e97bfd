package gdrive

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const formInterstitial = `<!DOCTYPE html><html><head><title>Google Drive - Virus scan warning</title></head>
<body>
<p>Google Drive can't scan this file for viruses.</p>
<form id="download-form" action="https://drive.usercontent.google.com/download" method="get">
  <input type="submit" value="Download anyway">
  <input type="hidden" name="id" value="FILE">
  <input type="hidden" name="export" value="download">
  <input type="hidden" name="confirm" value="t">
  <input type="hidden" name="uuid" value="u-1">
</form>
</body></html>`

const legacyInterstitial = `<html><body>
<form id="downloadForm" action="/uc?export=download&amp;confirm=AbCd&amp;id=FILE" method="post"></form>
</body></html>`

const anchorInterstitial = `<html><body>
<a href="/help">Help</a>
<a id="uc-download-link" href="/uc?export=download&amp;confirm=Zz9&amp;id=FILE">Download anyway</a>
</body></html>`

func htmlHeader() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "text/html; charset=utf-8")
	return h
}

func TestIsInterstitial(t *testing.T) {
	t.Parallel()
	assert.True(t, IsInterstitial(htmlHeader(), []byte(formInterstitial)))
	assert.True(t, IsInterstitial(htmlHeader(), []byte(legacyInterstitial)))
	assert.True(t, IsInterstitial(htmlHeader(), []byte(anchorInterstitial)))
	assert.False(t, IsInterstitial(htmlHeader(), []byte("<html><body>an exported document</body></html>")))

	withDisposition := htmlHeader()
	withDisposition.Set("Content-Disposition", `attachment; filename="page.html"`)
	assert.False(t, IsInterstitial(withDisposition, []byte(formInterstitial)))

	binary := http.Header{}
	binary.Set("Content-Type", "application/pdf")
	assert.False(t, IsInterstitial(binary, []byte("confirm=")))
	assert.False(t, IsInterstitial(http.Header{}, []byte(formInterstitial)))
}

func TestConfirmTargetFromGetForm(t *testing.T) {
	t.Parallel()
	base, _ := url.Parse("https://drive.google.com/uc?export=download&id=FILE")
	target, err := ConfirmTarget([]byte(formInterstitial), base)
	require.NoError(t, err)
	u, err := url.Parse(target)
	require.NoError(t, err)
	assert.Equal(t, "drive.usercontent.google.com", u.Host)
	assert.Equal(t, "/download", u.Path)
	assert.Equal(t, "FILE", u.Query().Get("id"))
	assert.Equal(t, "t", u.Query().Get("confirm"))
	assert.Equal(t, "u-1", u.Query().Get("uuid"))
}

func TestConfirmTargetFromPostFormKeepsAction(t *testing.T) {
	t.Parallel()
	base, _ := url.Parse("https://drive.google.com/uc?export=download&id=FILE")
	target, err := ConfirmTarget([]byte(legacyInterstitial), base)
	require.NoError(t, err)
	assert.Equal(t, "https://drive.google.com/uc?export=download&confirm=AbCd&id=FILE", target)
}

func TestConfirmTargetFromAnchor(t *testing.T) {
	t.Parallel()
	base, _ := url.Parse("https://drive.google.com/uc?export=download&id=FILE")
	target, err := ConfirmTarget([]byte(anchorInterstitial), base)
	require.NoError(t, err)
	assert.Equal(t, "https://drive.google.com/uc?export=download&confirm=Zz9&id=FILE", target)
}

func TestConfirmTargetMissing(t *testing.T) {
	t.Parallel()
	base, _ := url.Parse("https://drive.google.com/")
	_, err := ConfirmTarget([]byte(`<html><body>Virus scan warning, but nothing to click</body></html>`), base)
	assert.ErrorIs(t, err, errNoConfirmTarget)

	_, err = ConfirmTarget([]byte(`<a href="javascript:confirm=1">x</a>`), base)
	assert.ErrorIs(t, err, errNoConfirmTarget)
}
