// Package mailbox models inbound customer mail and generated reply drafts,
// and runs the batch that drafts replies for every unread mail.
package mailbox

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrMailNotFound is returned when a mail id is unknown.
var ErrMailNotFound = errors.New("mailbox: mail not found")

// Mail is an inbound customer message.
type Mail struct {
	ID          string    `json:"id"`
	MessageID   string    `json:"message_id,omitempty"`
	Sender      string    `json:"sender"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	Unread      bool      `json:"unread"`
	ReceivedAt  time.Time `json:"received_at"`
	Attachments []string  `json:"attachments,omitempty"`
}

// ReplyMail is a generated reply draft awaiting sending.
type ReplyMail struct {
	ID          string    `json:"id"`
	MailID      string    `json:"mail_id"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	HTML        string    `json:"html,omitempty"`
	Attachments []string  `json:"attachments"`
	CreatedAt   time.Time `json:"created_at"`
}

// Inbox reads synchronized customer mail.
type Inbox interface {
	ListUnread(ctx context.Context) ([]Mail, error)
	ListRecent(ctx context.Context, limit int) ([]Mail, error)
	MarkRead(ctx context.Context, id string) error
}

// Outbox stores reply drafts.
type Outbox interface {
	SaveReply(ctx context.Context, r *ReplyMail) error
	ListReplies(ctx context.Context, mailID string) ([]ReplyMail, error)
}

// NewID returns a fresh mail or reply identifier.
func NewID() string {
	return uuid.New().String()
}

// ComposeInbound assembles the agent input text from mail parts.
// Empty parts are omitted.
func ComposeInbound(subject, body, sender string) string {
	var b strings.Builder
	if s := strings.TrimSpace(subject); s != "" {
		b.WriteString("제목: ")
		b.WriteString(s)
		b.WriteString("\n")
	}
	if s := strings.TrimSpace(sender); s != "" {
		b.WriteString("보낸 사람: ")
		b.WriteString(s)
		b.WriteString("\n")
	}
	if s := strings.TrimSpace(body); s != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(s)
	}
	return strings.TrimRight(b.String(), "\n")
}

// ReplySubject prefixes subject for a reply unless it already is one.
func ReplySubject(subject string) string {
	subject = strings.TrimSpace(subject)
	if strings.HasPrefix(strings.ToUpper(subject), "RE:") {
		return subject
	}
	if subject == "" {
		return "RE: 문의하신 내용에 대한 답변"
	}
	return "RE: " + subject
}
