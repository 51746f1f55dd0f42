package mailer

import (
	"context"
	"errors"
	"fmt"

	"mdmail/metrics"
	"mdmail/models"
	"mdmail/render"
	"mdmail/storage"
	"mdmail/utils"
)

// ThreadResolver returns the headers of the newest message of a thread
type ThreadResolver interface {
	ThreadInfo(ctx context.Context, threadID string) (*models.ThreadInfo, error)
}

// ComposeRequest is what an agent supplies to compose a draft
type ComposeRequest struct {
	Subject  string
	Body     string // Markdown
	To       []string
	Cc       []string
	Bcc      []string
	ThreadID string // Set when replying
}

// Composer runs the compose and send pipelines over the single draft
type Composer struct {
	drafts    *storage.DraftStorage
	renderer  *render.Renderer
	assembler *Assembler
	threads   ThreadResolver
	transport Transport
}

// NewComposer creates a new composer
func NewComposer(drafts *storage.DraftStorage, renderer *render.Renderer, assembler *Assembler, threads ThreadResolver, transport Transport) *Composer {
	return &Composer{
		drafts:    drafts,
		renderer:  renderer,
		assembler: assembler,
		threads:   threads,
		transport: transport,
	}
}

// Compose writes a new draft, replacing any previous one. With a ThreadID
// the newest message of that thread is captured for the threading headers
// and the subject gets the thread's "Re:" marker if it lacks one.
func (c *Composer) Compose(ctx context.Context, req ComposeRequest) (string, error) {
	meta := models.NewMetadata(req.Subject, req.To, req.Cc, req.Bcc)

	kind := "new"
	if req.ThreadID != "" {
		if c.threads == nil {
			return "", utils.ThreadNotFoundError("no thread resolver configured", nil)
		}
		info, err := c.threads.ThreadInfo(ctx, req.ThreadID)
		if err != nil {
			return "", err
		}
		if info == nil {
			return "", utils.ThreadNotFoundError(fmt.Sprintf("thread %s has no messages", req.ThreadID), nil)
		}
		meta.ThreadInfo = info
		meta.Subject = utils.ReplySubject(meta.Subject, info.Subject)
		kind = "reply"
	}

	draft, err := c.drafts.Write(req.Body, meta)
	if err != nil {
		return "", err
	}

	metrics.DraftsComposed.WithLabelValues(kind).Inc()
	metrics.InlineImages.Add(float64(len(draft.Images)))
	metrics.SkippedImages.Add(float64(len(draft.Skipped)))

	return draft.Summary(), nil
}

// Send assembles the stored draft and hands it to the transport. Delivery
// failures are an expected outcome and come back as the result text;
// anything that prevents building the message is returned as an error.
func (c *Composer) Send(ctx context.Context) (string, error) {
	markdown, meta, err := c.drafts.Read()
	if err != nil {
		return "", err
	}

	rendered, err := c.renderer.RenderDraft(markdown, nil)
	if err != nil {
		return "", err
	}

	msg, err := c.assembler.Assemble(rendered.HTML, rendered.Images, meta)
	if err != nil {
		return "", err
	}
	metrics.MessageSize.Observe(float64(len(msg)))

	if err := c.transport.Deliver(ctx, msg); err != nil {
		if !errors.Is(err, utils.ErrTransport) {
			return "", err
		}
		metrics.MessagesSent.WithLabelValues("failed").Inc()
		utils.Log.WithField("subject", meta.Subject).Error("Delivery failed: %v", err)
		return fmt.Sprintf("Error sending email: %s", utils.Diagnostic(err)), nil
	}

	metrics.MessagesSent.WithLabelValues("ok").Inc()
	utils.Log.Info("Email sent successfully: to=%v subject=%s", meta.To, meta.Subject)
	return "Email sent successfully", nil
}
