package web

import (
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mdmail/config"
	"mdmail/models"
	"mdmail/render"
	"mdmail/storage"
)

func newTestApp(t *testing.T) (*fiber.App, *storage.DraftStorage, string) {
	t.Helper()
	base := t.TempDir()
	renderer, err := render.NewRenderer(render.Options{ImageBaseDir: base})
	require.NoError(t, err)

	drafts := storage.NewDraftStorage(filepath.Join(base, "drafts"), renderer)
	app := NewApp(NewPreviewHandler(drafts, renderer), config.PreviewConfig{RateLimit: 1000})
	return app, drafts, base
}

func get(t *testing.T, app *fiber.App, path string) (int, string, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, resp.Header.Get(fiber.HeaderContentType), string(body)
}

func TestPreviewWithoutDraft(t *testing.T) {
	app, _, _ := newTestApp(t)

	code, _, body := get(t, app, "/")
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.Contains(t, body, "No draft found")

	code, _, _ = get(t, app, "/draft.md")
	assert.Equal(t, fiber.StatusNotFound, code)
}

func TestPreviewDraft(t *testing.T) {
	app, drafts, base := newTestApp(t)
	require.NoError(t, os.WriteFile(filepath.Join(base, "a.png"), []byte("png-bytes"), 0644))

	meta := models.NewMetadata("Weekly report", []string{"a@example.com"}, []string{"b@example.com"}, nil)
	_, err := drafts.Write("# Report\n\n![chart](a.png)\n\n![lost](gone.png)", meta)
	require.NoError(t, err)

	code, ctype, body := get(t, app, "/")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, ctype, "text/html")
	assert.Contains(t, body, "Weekly report")
	assert.Contains(t, body, "b@example.com")
	assert.Contains(t, body, "gone.png")
	assert.Contains(t, body, `src="/draft.html"`)

	code, _, body = get(t, app, "/draft.html")
	assert.Equal(t, fiber.StatusOK, code)
	id := render.ContentID("a.png")
	assert.Contains(t, body, `src="/cid/`+id+`"`)
	assert.NotContains(t, body, "cid:"+id)

	code, _, body = get(t, app, "/cid/"+id)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "png-bytes", body)

	code, _, _ = get(t, app, "/cid/000000_nothing.png")
	assert.Equal(t, fiber.StatusNotFound, code)

	code, ctype, body = get(t, app, "/draft.md")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, ctype, "text/plain")
	assert.Equal(t, "# Report\n\n![chart](a.png)\n\n![lost](gone.png)", body)
}

func TestHealthAndMetrics(t *testing.T) {
	app, _, _ := newTestApp(t)

	code, _, body := get(t, app, "/health")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, body, `"status":"ok"`)

	code, _, body = get(t, app, "/metrics")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, body, "go_goroutines")
}
