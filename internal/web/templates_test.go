package web

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTemplatesFS() fstest.MapFS {
	return fstest.MapFS{
		"layouts/base.html":  {Data: []byte(`{{define "base"}}<title>{{.Title}}</title>{{template "content" .}}{{end}}`)},
		"partials/note.html": {Data: []byte(`{{define "note"}}<p>{{.}}</p>{{end}}`)},
		"pages/home.html":    {Data: []byte(`{{define "content"}}{{template "note" "hi"}} {{percent 0.256}}{{end}}`)},
	}
}

func TestTemplates_Render(t *testing.T) {
	tmpl, err := NewTemplates(testTemplatesFS())
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, tmpl.Render(&sb, "home", PageData{Title: "T"}))
	assert.Equal(t, "<title>T</title><p>hi</p> 25.6%", sb.String())

	assert.Error(t, tmpl.Render(&sb, "missing", nil))
}

func TestTemplates_RenderPartialString(t *testing.T) {
	tmpl, err := NewTemplates(testTemplatesFS())
	require.NoError(t, err)

	out, err := tmpl.RenderPartialString("note", "<b>")
	require.NoError(t, err)
	assert.Equal(t, "<p>&lt;b&gt;</p>", out)

	_, err = tmpl.RenderPartialString("missing", nil)
	assert.Error(t, err)
}

func TestTemplates_NoPages(t *testing.T) {
	_, err := NewTemplates(fstest.MapFS{
		"layouts/base.html": {Data: []byte(`{{define "base"}}{{end}}`)},
	})
	assert.Error(t, err)
}

func TestTemplates_EmbeddedChartPartial(t *testing.T) {
	tmpl, err := NewTemplates(embeddedTemplates(t))
	require.NoError(t, err)

	out, err := tmpl.RenderPartialString("chart", chartFor(joyful))
	require.NoError(t, err)
	assert.Contains(t, out, `data-emotion="Joy"`)
	assert.Contains(t, out, "60.0%")
}
