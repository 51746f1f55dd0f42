package mailer

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"

	"mdmail/models"
	"mdmail/utils"
)

// Assembler builds the MIME form of a draft:
//
//	multipart/alternative
//	├── text/plain            (only with PlainTextPart)
//	└── multipart/related
//	    ├── text/html
//	    └── image/*           (one per inline image, Content-ID <cid>)
type Assembler struct {
	From          string
	PlainTextPart bool
	Now           func() time.Time
}

// NewAssembler creates an assembler sending as from
func NewAssembler(from string, plainTextPart bool) *Assembler {
	return &Assembler{
		From:          from,
		PlainTextPart: plainTextPart,
		Now:           time.Now,
	}
}

type imagePart struct {
	contentID string
	mediaType string
	params    map[string]string
	data      []byte
}

// Assemble returns the complete message ready for a transport. Every image
// is read before anything is written, so a vanished file aborts with an
// AttachmentReadError and no partial message.
func (a *Assembler) Assemble(html string, images []models.InlineImage, meta *models.Metadata) ([]byte, error) {
	if a.From == "" {
		return nil, fmt.Errorf("no sender address configured")
	}

	parts := make([]imagePart, 0, len(images))
	for _, img := range images {
		part, err := loadImage(img)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}

	h := a.header(meta)

	var buf bytes.Buffer
	mw, err := message.CreateWriter(&buf, h.Header)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	if a.PlainTextPart {
		var th message.Header
		th.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
		th.Set("Content-Transfer-Encoding", "quoted-printable")
		if err := writePart(mw, th, []byte(utils.HTMLToText(html))); err != nil {
			return nil, err
		}
	}

	var rh message.Header
	rh.SetContentType("multipart/related", map[string]string{"type": "text/html"})
	rw, err := mw.CreatePart(rh)
	if err != nil {
		return nil, fmt.Errorf("failed to create related part: %w", err)
	}

	var hh message.Header
	hh.SetContentType("text/html", map[string]string{"charset": "utf-8"})
	hh.Set("Content-Transfer-Encoding", "quoted-printable")
	if err := writePart(rw, hh, []byte(html)); err != nil {
		return nil, err
	}

	for _, part := range parts {
		var ih message.Header
		ih.SetContentType(part.mediaType, part.params)
		ih.Set("Content-Transfer-Encoding", "base64")
		ih.Set("Content-Id", "<"+part.contentID+">")
		ih.SetContentDisposition("inline", nil)
		if err := writePart(rw, ih, part.data); err != nil {
			return nil, err
		}
	}

	if err := rw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close related part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close message: %w", err)
	}

	return buf.Bytes(), nil
}

func (a *Assembler) header(meta *models.Metadata) mail.Header {
	var h mail.Header

	h.SetDate(a.Now())
	setAddresses(&h, "From", []string{a.From})
	setAddresses(&h, "To", meta.To)
	if len(meta.Cc) > 0 {
		setAddresses(&h, "Cc", meta.Cc)
	}
	if len(meta.Bcc) > 0 {
		setAddresses(&h, "Bcc", meta.Bcc)
	}
	h.SetSubject(meta.Subject)

	thread := utils.ThreadingHeaders(meta.ThreadInfo)
	if thread.References != "" {
		h.Set("References", thread.References)
	}
	if thread.InReplyTo != "" {
		h.Set("In-Reply-To", thread.InReplyTo)
	}

	h.Set("Message-Id", generateMessageID(a.From))
	h.Set("MIME-Version", "1.0")
	h.SetContentType("multipart/alternative", nil)

	return h
}

// setAddresses writes an address header. ASCII values pass through as
// given; values with non-ASCII display names are parsed so the names get
// RFC 2047 encoded. Anything that does not parse is kept verbatim.
func setAddresses(h *mail.Header, key string, values []string) {
	joined := strings.Join(values, ", ")
	if isASCII(joined) {
		h.Set(key, joined)
		return
	}

	var list []*mail.Address
	for _, v := range values {
		addrs, err := mail.ParseAddressList(v)
		if err != nil {
			utils.Log.Warn("Cannot encode %s address %q, sending it as written: %v", key, v, err)
			h.Set(key, joined)
			return
		}
		list = append(list, addrs...)
	}
	h.SetAddressList(key, list)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

func writePart(mw *message.Writer, h message.Header, data []byte) error {
	w, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create part: %w", err)
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		w.Close()
		return fmt.Errorf("failed to write part: %w", err)
	}
	return w.Close()
}

// loadImage reads an inline image and infers its type from the extension.
func loadImage(img models.InlineImage) (imagePart, error) {
	ctype := mime.TypeByExtension(strings.ToLower(filepath.Ext(img.Path)))
	if ctype == "" {
		return imagePart{}, utils.UnsupportedImageTypeError(
			fmt.Sprintf("cannot infer content type of %s", img.Path), nil)
	}
	mediaType, params, err := mime.ParseMediaType(ctype)
	if err != nil {
		return imagePart{}, utils.UnsupportedImageTypeError(
			fmt.Sprintf("cannot parse content type %q of %s", ctype, img.Path), err)
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return imagePart{}, utils.UnsupportedImageTypeError(
			fmt.Sprintf("%s is %s, not an image", img.Path, mediaType), nil)
	}

	data, err := os.ReadFile(img.Path)
	if err != nil {
		return imagePart{}, utils.AttachmentReadError(
			fmt.Sprintf("failed to read inline image %s", img.Path), err).
			WithContext("content_id", img.ContentID)
	}

	return imagePart{
		contentID: img.ContentID,
		mediaType: mediaType,
		params:    params,
		data:      data,
	}, nil
}

// generateMessageID creates a unique Message-ID in the sender's domain
func generateMessageID(from string) string {
	domain := "localhost"
	if addr, err := mail.ParseAddress(from); err == nil {
		if at := strings.LastIndex(addr.Address, "@"); at >= 0 && at < len(addr.Address)-1 {
			domain = addr.Address[at+1:]
		}
	}
	return fmt.Sprintf("<%s@%s>", uuid.New().String(), domain)
}
