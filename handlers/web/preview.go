package web

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"mdmail/models"
	"mdmail/render"
	"mdmail/storage"
	"mdmail/utils"
)

// PreviewHandler shows the current draft the way the recipient will see it
type PreviewHandler struct {
	drafts   *storage.DraftStorage
	renderer *render.Renderer
}

// NewPreviewHandler creates a new preview handler
func NewPreviewHandler(drafts *storage.DraftStorage, renderer *render.Renderer) *PreviewHandler {
	return &PreviewHandler{
		drafts:   drafts,
		renderer: renderer,
	}
}

// load re-renders the stored draft so edits to draft.md show up on reload
func (h *PreviewHandler) load() (string, *models.Metadata, *render.Rendered, error) {
	markdown, meta, err := h.drafts.Read()
	if err != nil {
		return "", nil, nil, err
	}
	rendered, err := h.renderer.RenderDraft(markdown, meta)
	if err != nil {
		return "", nil, nil, err
	}
	return markdown, meta, rendered, nil
}

// HandleIndex renders the page framing the draft
func (h *PreviewHandler) HandleIndex(c *fiber.Ctx) error {
	_, meta, rendered, err := h.load()
	if err != nil {
		return err
	}

	return c.Render("preview", fiber.Map{
		"Title":    meta.Subject,
		"Metadata": meta,
		"Paths":    h.drafts.Paths(),
		"Images":   rendered.Images,
		"Skipped":  rendered.Skipped,
		"Rendered": time.Now(),
	})
}

// HandleDocument serves the rendered draft with inline images pointing at
// this server instead of cid: references.
func (h *PreviewHandler) HandleDocument(c *fiber.Ctx) error {
	_, _, rendered, err := h.load()
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(strings.ReplaceAll(rendered.HTML, `src="cid:`, `src="/cid/`))
}

// HandleMarkdown serves the editable markdown source
func (h *PreviewHandler) HandleMarkdown(c *fiber.Ctx) error {
	markdown, _, err := h.drafts.Read()
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(markdown)
}

// HandleInlineImage serves one inline image by its content id
func (h *PreviewHandler) HandleInlineImage(c *fiber.Ctx) error {
	_, _, rendered, err := h.load()
	if err != nil {
		return err
	}

	id := c.Params("id")
	for _, img := range rendered.Images {
		if img.ContentID == id {
			return c.SendFile(img.Path)
		}
	}

	utils.Log.Debug("Preview requested unknown inline image %s", id)
	return fiber.NewError(fiber.StatusNotFound, "Inline image not found")
}
