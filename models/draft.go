package models

import "strings"

// Metadata is everything besides the markdown body needed to rebuild the
// message at send time. It is persisted verbatim as draft.json.
type Metadata struct {
	Subject    string      `json:"subject"`
	To         []string    `json:"to"`
	Cc         []string    `json:"cc"`
	Bcc        []string    `json:"bcc"`
	ThreadInfo *ThreadInfo `json:"thread_info,omitempty"`
}

// NewMetadata builds metadata with cc and bcc normalised to empty lists.
func NewMetadata(subject string, to, cc, bcc []string) *Metadata {
	m := &Metadata{
		Subject: subject,
		To:      to,
		Cc:      cc,
		Bcc:     bcc,
	}
	m.Normalize()
	return m
}

// Normalize replaces nil recipient lists so they serialise as [].
func (m *Metadata) Normalize() {
	if m.To == nil {
		m.To = []string{}
	}
	if m.Cc == nil {
		m.Cc = []string{}
	}
	if m.Bcc == nil {
		m.Bcc = []string{}
	}
}

// IsReply reports whether the draft continues an existing thread.
func (m *Metadata) IsReply() bool {
	return m.ThreadInfo != nil
}

// ThreadInfo is a snapshot of the newest message of a thread, taken when
// the reply was composed. It is never refreshed.
type ThreadInfo struct {
	MessageID  string `json:"message_id"`
	References string `json:"references"`
	InReplyTo  string `json:"in_reply_to"`
	Subject    string `json:"subject"`
	From       string `json:"from"`
	ReplyTo    string `json:"reply_to"`
}

// InlineImage binds a cid: reference in the HTML body to a local file.
type InlineImage struct {
	ContentID string `json:"content_id"`
	Path      string `json:"path"`
}

// DraftPaths are the three artifacts a draft is made of.
type DraftPaths struct {
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
	Metadata string `json:"metadata"`
}

// Draft is the result of writing a draft.
type Draft struct {
	Paths   DraftPaths    `json:"paths"`
	Images  []InlineImage `json:"images"`
	Skipped []string      `json:"skipped"` // Image sources whose file was not found
}

// Summary is the confirmation handed back to the agent.
func (d *Draft) Summary() string {
	var sb strings.Builder
	sb.WriteString("Created drafts:\n")
	sb.WriteString("- " + d.Paths.Markdown + " (edit this)\n")
	sb.WriteString("- " + d.Paths.HTML + " (preview)")
	for _, src := range d.Skipped {
		sb.WriteString("\nWarning: image not found, left as is: " + src)
	}
	return sb.String()
}
