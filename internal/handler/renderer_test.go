package handler

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTemplates() fstest.MapFS {
	return fstest.MapFS{
		"layout.html": {Data: []byte(`{{define "base"}}<html>{{template "content" .}}</html>{{end}}`)},
		"hello.html":  {Data: []byte(`{{define "content"}}Hello {{.}}{{end}}`)},
		"broken.html": {Data: []byte(`{{define "content"}}{{.Missing.Field}}{{end}}`)},
	}
}

func TestRenderer_Render(t *testing.T) {
	r, err := NewRenderer(testTemplates(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, "hello", "<world>"))
	assert.Equal(t, "<html>Hello &lt;world&gt;</html>", buf.String())

	_, err = r.Execute("layout")
	assert.Error(t, err, "the layout is not a page")
}

func TestRenderer_RenderHTTPStatus(t *testing.T) {
	r, err := NewRenderer(testTemplates(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.RenderHTTPStatus(rec, http.StatusConflict, "hello", "you")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "<html>Hello you</html>", rec.Body.String())

	rec = httptest.NewRecorder()
	r.RenderHTTP(rec, "broken", "no fields here")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<html>")

	rec = httptest.NewRecorder()
	r.RenderHTTP(rec, "missing", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestNewRenderer_MissingLayout(t *testing.T) {
	_, err := NewRenderer(fstest.MapFS{"hello.html": {Data: []byte(`x`)}}, nil)
	assert.Error(t, err)
}
