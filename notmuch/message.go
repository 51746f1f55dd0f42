package notmuch

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	_ "github.com/emersion/go-message/charset"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"

	"mdmail/models"
	"mdmail/utils"
)

func readHeader(raw []byte) (*message.Entity, mail.Header, error) {
	e, err := message.Read(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) && !message.IsUnknownEncoding(err) {
		return nil, mail.Header{}, err
	}
	return e, mail.Header{Header: e.Header}, nil
}

// decodedText returns the RFC 2047 decoded value, or the raw one when it
// cannot be decoded.
func decodedText(h mail.Header, key string) string {
	if v, err := h.Text(key); err == nil {
		return v
	}
	return h.Get(key)
}

// idList unfolds header values such as References onto a single line
func idList(h mail.Header, key string) string {
	return strings.Join(strings.Fields(h.Get(key)), " ")
}

func parseThreadInfo(raw []byte) (*models.ThreadInfo, error) {
	_, h, err := readHeader(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	return &models.ThreadInfo{
		MessageID:  idList(h, "Message-Id"),
		References: idList(h, "References"),
		InReplyTo:  idList(h, "In-Reply-To"),
		Subject:    decodedText(h, "Subject"),
		From:       decodedText(h, "From"),
		ReplyTo:    decodedText(h, "Reply-To"),
	}, nil
}

// parseThreadMessage extracts the readable body of a message. HTML parts
// are converted to text; plain text parts are only used when the message
// has no HTML at all.
func parseThreadMessage(raw []byte) (*models.ThreadMessage, error) {
	e, h, err := readHeader(raw)
	if err != nil {
		return nil, err
	}

	msg := &models.ThreadMessage{
		MessageID: idList(h, "Message-Id"),
		From:      decodedText(h, "From"),
	}
	if date, err := h.Date(); err == nil {
		msg.Date = date
	}

	var htmlParts, textParts []string
	err = e.Walk(func(path []int, part *message.Entity, err error) error {
		if err != nil && !message.IsUnknownCharset(err) && !message.IsUnknownEncoding(err) {
			return err
		}
		if part == nil {
			return nil
		}
		mediaType, _, _ := part.Header.ContentType()
		if strings.HasPrefix(mediaType, "multipart/") {
			return nil
		}
		if disp, _, _ := part.Header.ContentDisposition(); disp == "attachment" {
			return nil
		}

		if mediaType != "text/html" && mediaType != "text/plain" && !(mediaType == "" && len(path) == 0) {
			return nil
		}

		body, err := io.ReadAll(part.Body)
		if err != nil {
			return err
		}
		if mediaType == "text/html" {
			htmlParts = append(htmlParts, utils.HTMLToText(string(body)))
		} else {
			textParts = append(textParts, utils.NormalizeEmptyLines(string(body)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(htmlParts) > 0 {
		msg.Body = strings.Join(htmlParts, "\n")
	} else {
		msg.Body = strings.Join(textParts, "\n")
	}
	return msg, nil
}
