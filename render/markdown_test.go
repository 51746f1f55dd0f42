package render

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mdmail/models"
	"mdmail/utils"
)

const sampleMarkdown = `# Weekly status

| Item | State |
|------|-------|
| API  | ~~blocked~~ done |

Term
: Definition of the term.

- [x] ship it
- [ ] celebrate

A claim[^1].

[^1]: The source.

<div class="raw">kept as is</div>
`

func newTestRenderer(t *testing.T, base string) *Renderer {
	t.Helper()
	r, err := NewRenderer(Options{ImageBaseDir: base, SignatureHTML: "<p>-- <br>Agent</p>"})
	require.NoError(t, err)
	return r
}

func TestRenderExtensions(t *testing.T) {
	r := newTestRenderer(t, t.TempDir())

	out, err := r.Render(sampleMarkdown)
	require.NoError(t, err)

	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<del>blocked</del>")
	assert.Contains(t, out, "<dl>")
	assert.Contains(t, out, "<dd>Definition of the term.</dd>")
	assert.Contains(t, out, `type="checkbox"`)
	assert.Contains(t, out, "footnote")
	assert.Contains(t, out, `<div class="raw">kept as is</div>`)
}

func TestRenderDeterministic(t *testing.T) {
	r := newTestRenderer(t, t.TempDir())

	first, err := r.Render(sampleMarkdown)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := r.Render(sampleMarkdown)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	other := newTestRenderer(t, t.TempDir())
	fromOther, err := other.Render(sampleMarkdown)
	require.NoError(t, err)
	assert.Equal(t, first, fromOther)
}

func TestRenderInvalidUTF8(t *testing.T) {
	r := newTestRenderer(t, t.TempDir())

	_, err := r.Render("bad \xff\xfe bytes")
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrEncoding))
}

func TestRenderDraft(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "chart.png"), []byte("png"), 0644))
	r := newTestRenderer(t, base)

	meta := models.NewMetadata("Numbers", []string{"a@example.com", "b@example.com"}, []string{"c@example.com"}, nil)
	meta.ThreadInfo = &models.ThreadInfo{From: "boss@example.com", Subject: "Re: Numbers"}

	preview, err := r.RenderDraft("See ![chart](chart.png) and ![gone](gone.png)", meta)
	require.NoError(t, err)

	assert.Contains(t, preview.HTML, `src="cid:97e963_chart.png"`)
	assert.Contains(t, preview.HTML, `src="gone.png"`)
	assert.Contains(t, preview.HTML, "a@example.com, b@example.com")
	assert.Contains(t, preview.HTML, "c@example.com")
	assert.Contains(t, preview.HTML, "boss@example.com")
	assert.NotContains(t, preview.HTML, "Bcc:")
	assert.Contains(t, preview.HTML, "<p>-- <br>Agent</p>")
	assert.Contains(t, preview.HTML, "<style>")
	assert.Equal(t, []models.InlineImage{{ContentID: "97e963_chart.png", Path: filepath.Join(base, "chart.png")}}, preview.Images)
	assert.Equal(t, []string{"gone.png"}, preview.Skipped)

	outgoing, err := r.RenderDraft("See ![chart](chart.png)", nil)
	require.NoError(t, err)
	assert.NotContains(t, outgoing.HTML, "draft-metadata\">")
	assert.True(t, strings.HasPrefix(outgoing.HTML, "<!DOCTYPE html>"))
	assert.Len(t, outgoing.Images, 1)
}
