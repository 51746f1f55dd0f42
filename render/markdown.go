// Package render turns a markdown draft into the HTML that is previewed and
// mailed. Local images are rewritten to cid: references on the way.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"mdmail/models"
	"mdmail/utils"
)

// Options configures a Renderer
type Options struct {
	ImageBaseDir  string // Relative image sources are resolved against this
	SignatureHTML string // Appended after the body, trusted markup
}

// Renderer converts markdown to HTML with a fixed extension set
type Renderer struct {
	md        goldmark.Markdown
	doc       *template.Template
	baseDir   string
	signature string
}

// Rendered is a fully prepared HTML document and the images it embeds
type Rendered struct {
	HTML    string
	Images  []models.InlineImage
	Skipped []string
}

// NewRenderer creates a renderer. Tables, strikethrough, definition lists,
// footnotes and task lists are always on, and raw HTML is passed through.
func NewRenderer(opts Options) (*Renderer, error) {
	doc, err := parseDocumentTemplate()
	if err != nil {
		return nil, fmt.Errorf("failed to parse document template: %w", err)
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.Strikethrough,
			extension.DefinitionList,
			extension.Footnote,
			extension.TaskList,
		),
		goldmark.WithRendererOptions(
			gmhtml.WithUnsafe(),
		),
	)

	return &Renderer{
		md:        md,
		doc:       doc,
		baseDir:   opts.ImageBaseDir,
		signature: opts.SignatureHTML,
	}, nil
}

// Render converts markdown to an HTML fragment.
func (r *Renderer) Render(markdown string) (string, error) {
	if !utf8.ValidString(markdown) {
		return "", utils.EncodingError("markdown is not valid UTF-8", nil)
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", utils.EncodingError("failed to render markdown", err)
	}
	return buf.String(), nil
}

// RenderDraft renders markdown, inlines local images and wraps the result in
// the HTML document. A non-nil meta adds the draft header shown in previews;
// outgoing messages are rendered with nil.
func (r *Renderer) RenderDraft(markdown string, meta *models.Metadata) (*Rendered, error) {
	body, err := r.Render(markdown)
	if err != nil {
		return nil, err
	}

	body, images, skipped, err := ResolveImages(body, r.baseDir)
	if err != nil {
		return nil, err
	}
	for _, src := range skipped {
		utils.Log.Warn("Inline image not found, leaving src as is: %s", src)
	}

	doc, err := r.Document(body, meta)
	if err != nil {
		return nil, err
	}

	return &Rendered{HTML: doc, Images: images, Skipped: skipped}, nil
}

// Document wraps an HTML fragment with the stylesheet and signature.
func (r *Renderer) Document(body string, meta *models.Metadata) (string, error) {
	data := documentData{
		CSS:       template.CSS(stylesheet),
		Content:   template.HTML(body),
		Signature: template.HTML(r.signature),
		Metadata:  meta,
	}

	var sb strings.Builder
	if err := r.doc.ExecuteTemplate(&sb, "email.html", data); err != nil {
		return "", fmt.Errorf("failed to render document: %w", err)
	}
	return sb.String(), nil
}
