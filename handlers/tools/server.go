// Package tools exposes the mail operations as MCP tools served over stdio.
package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"mdmail/mailer"
)

const signatureNote = ". NEVER write an email signature, it will be automatically added after your content!"

// ThreadReader is the read side of the mail index
type ThreadReader interface {
	FindThreads(ctx context.Context, query string) (string, error)
	ViewThread(ctx context.Context, threadID string) (string, error)
	Sync(ctx context.Context) (string, error)
}

// Drafter composes and sends the single draft
type Drafter interface {
	Compose(ctx context.Context, req mailer.ComposeRequest) (string, error)
	Send(ctx context.Context) (string, error)
}

// Options controls which tools are offered and how they are described
type Options struct {
	Name         string
	Version      string
	HasSignature bool // A signature is appended automatically
	SyncEnabled  bool // Offer sync_emails
}

// ToolHandler implements the tools on top of the mail index and composer
type ToolHandler struct {
	threads ThreadReader
	drafts  Drafter
}

// NewToolHandler creates a new tool handler
func NewToolHandler(threads ThreadReader, drafts Drafter) *ToolHandler {
	return &ToolHandler{
		threads: threads,
		drafts:  drafts,
	}
}

// NewServer registers every tool on a new MCP server
func NewServer(h *ToolHandler, opts Options) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: opts.Name, Version: opts.Version}, nil)

	note := ""
	if opts.HasSignature {
		note = signatureNote
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_email_thread",
		Description: "Find email threads in the notmuch database",
	}, logged("find_email_thread", h.FindEmailThread))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "view_email_thread",
		Description: "View all messages for an email thread",
	}, logged("view_email_thread", h.ViewEmailThread))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "compose_new_email",
		Description: "Compose a new email draft from markdown" + note,
	}, logged("compose_new_email", h.ComposeNewEmail))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "compose_email_reply",
		Description: "Compose a reply to an existing email thread" + note,
	}, logged("compose_email_reply", h.ComposeEmailReply))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "send_email",
		Description: "Sends the composed email draft",
	}, logged("send_email", h.SendEmail))

	if opts.SyncEnabled {
		mcp.AddTool(server, &mcp.Tool{
			Name:        "sync_emails",
			Description: "Sync emails by running the configured script",
		}, logged("sync_emails", h.SyncEmails))
	}

	return server
}

// Serve runs the server on stdin/stdout until the client disconnects
func Serve(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
