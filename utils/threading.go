package utils

import (
	"strings"

	"mdmail/models"
)

// ThreadHeaders are the RFC 5322 reply-chain headers of an outgoing reply
type ThreadHeaders struct {
	References string
	InReplyTo  string
}

// ThreadingHeaders derives References and In-Reply-To from the snapshot of
// the message being replied to. A reply references its parent and extends
// the parent's own chain rather than replacing it.
func ThreadingHeaders(info *models.ThreadInfo) ThreadHeaders {
	var h ThreadHeaders
	if info == nil {
		return h
	}

	references := strings.TrimSpace(info.References)
	messageID := strings.TrimSpace(info.MessageID)

	switch {
	case references != "":
		h.References = references
		if messageID != "" {
			h.References += " " + messageID
		}
	case messageID != "":
		h.References = messageID
	}

	if messageID != "" {
		h.InReplyTo = messageID
	}

	return h
}

// HasReplyPrefix reports whether subject starts with "Re:" in any case
func HasReplyPrefix(subject string) bool {
	s := strings.TrimSpace(subject)
	return len(s) >= 3 && strings.EqualFold(s[:3], "re:")
}

// ReplySubject prepends "Re: " to subject when the thread's last subject
// carries the marker and subject does not. Nothing else is inferred: a
// thread whose last subject lacks the marker leaves subject untouched.
func ReplySubject(subject, threadSubject string) string {
	if HasReplyPrefix(subject) || !HasReplyPrefix(threadSubject) {
		return subject
	}
	return "Re: " + subject
}
