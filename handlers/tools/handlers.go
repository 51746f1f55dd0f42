package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"mdmail/mailer"
)

type FindThreadInput struct {
	Query string `json:"notmuch_search_query" jsonschema:"notmuch search terms, e.g. from:alice tag:inbox"`
}

type ThreadInput struct {
	ThreadID string `json:"thread_id" jsonschema:"notmuch thread id as returned by find_email_thread"`
}

type ComposeInput struct {
	Subject string   `json:"subject" jsonschema:"email subject"`
	Body    string   `json:"body_as_markdown" jsonschema:"email body in markdown, local images are embedded inline"`
	To      []string `json:"to" jsonschema:"recipient addresses"`
	Cc      []string `json:"cc,omitempty" jsonschema:"carbon copy addresses"`
	Bcc     []string `json:"bcc,omitempty" jsonschema:"blind carbon copy addresses"`
}

type ReplyInput struct {
	ThreadID string   `json:"thread_id" jsonschema:"notmuch thread id of the conversation to answer"`
	Subject  string   `json:"subject" jsonschema:"email subject, Re: is added when the thread uses it"`
	Body     string   `json:"body_as_markdown" jsonschema:"email body in markdown, local images are embedded inline"`
	To       []string `json:"to" jsonschema:"recipient addresses"`
	Cc       []string `json:"cc,omitempty" jsonschema:"carbon copy addresses"`
	Bcc      []string `json:"bcc,omitempty" jsonschema:"blind carbon copy addresses"`
}

type NoInput struct{}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// FindEmailThread lists matching threads, newest first
func (h *ToolHandler) FindEmailThread(ctx context.Context, req *mcp.CallToolRequest, in FindThreadInput) (*mcp.CallToolResult, any, error) {
	out, err := h.threads.FindThreads(ctx, in.Query)
	if err != nil {
		return nil, nil, err
	}
	return textResult(out), nil, nil
}

// ViewEmailThread shows every message of a thread as text
func (h *ToolHandler) ViewEmailThread(ctx context.Context, req *mcp.CallToolRequest, in ThreadInput) (*mcp.CallToolResult, any, error) {
	out, err := h.threads.ViewThread(ctx, in.ThreadID)
	if err != nil {
		return nil, nil, err
	}
	return textResult(out), nil, nil
}

// ComposeNewEmail writes a fresh draft
func (h *ToolHandler) ComposeNewEmail(ctx context.Context, req *mcp.CallToolRequest, in ComposeInput) (*mcp.CallToolResult, any, error) {
	out, err := h.drafts.Compose(ctx, mailer.ComposeRequest{
		Subject: in.Subject,
		Body:    in.Body,
		To:      in.To,
		Cc:      in.Cc,
		Bcc:     in.Bcc,
	})
	if err != nil {
		return nil, nil, err
	}
	return textResult(out), nil, nil
}

// ComposeEmailReply writes a draft threaded onto an existing conversation
func (h *ToolHandler) ComposeEmailReply(ctx context.Context, req *mcp.CallToolRequest, in ReplyInput) (*mcp.CallToolResult, any, error) {
	out, err := h.drafts.Compose(ctx, mailer.ComposeRequest{
		Subject:  in.Subject,
		Body:     in.Body,
		To:       in.To,
		Cc:       in.Cc,
		Bcc:      in.Bcc,
		ThreadID: in.ThreadID,
	})
	if err != nil {
		return nil, nil, err
	}
	return textResult(out), nil, nil
}

// SendEmail delivers the current draft
func (h *ToolHandler) SendEmail(ctx context.Context, req *mcp.CallToolRequest, _ NoInput) (*mcp.CallToolResult, any, error) {
	out, err := h.drafts.Send(ctx)
	if err != nil {
		return nil, nil, err
	}
	return textResult(out), nil, nil
}

// SyncEmails runs the configured sync script
func (h *ToolHandler) SyncEmails(ctx context.Context, req *mcp.CallToolRequest, _ NoInput) (*mcp.CallToolResult, any, error) {
	out, err := h.threads.Sync(ctx)
	if err != nil {
		return nil, nil, err
	}
	return textResult(out), nil, nil
}
