package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/good-jinu/finance-operating-automation-sub000/mailbox"
)

const mailColumns = "id, message_id, sender, subject, body, unread, attachments, received_at"

func scanMail(row interface{ Scan(...any) error }) (mailbox.Mail, error) {
	var (
		m           mailbox.Mail
		unread      int64
		attachments string
		received    int64
	)
	if err := row.Scan(&m.ID, &m.MessageID, &m.Sender, &m.Subject, &m.Body, &unread, &attachments, &received); err != nil {
		return m, err
	}
	m.Unread = unread != 0
	m.ReceivedAt = fromMillis(received)
	if err := json.Unmarshal([]byte(attachments), &m.Attachments); err != nil {
		return m, fmt.Errorf("decode attachments of mail %s: %w", m.ID, err)
	}
	return m, nil
}

// InsertMail stores an inbound mail, assigning an id when empty.
func (s *Store) InsertMail(ctx context.Context, m *mailbox.Mail) error {
	if m.ID == "" {
		m.ID = mailbox.NewID()
	}
	if m.ReceivedAt.IsZero() {
		m.ReceivedAt = s.now()
	}
	attachments, err := encodeList(m.Attachments)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx,
		"INSERT INTO mails ("+mailColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		m.ID, m.MessageID, m.Sender, m.Subject, m.Body, boolToInt(m.Unread), attachments, millis(m.ReceivedAt))
	if err != nil {
		return fmt.Errorf("sqlstore: insert mail: %w", err)
	}
	return nil
}

// ListUnread returns unread mail, oldest first.
func (s *Store) ListUnread(ctx context.Context) ([]mailbox.Mail, error) {
	rows, err := s.query(ctx, "SELECT "+mailColumns+" FROM mails WHERE unread = 1 ORDER BY received_at, id")
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list unread: %w", err)
	}
	defer rows.Close()
	return collect(rows, scanMail)
}

// ListRecent returns the newest mail first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]mailbox.Mail, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.query(ctx, "SELECT "+mailColumns+" FROM mails ORDER BY received_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list recent: %w", err)
	}
	defer rows.Close()
	return collect(rows, scanMail)
}

// MarkRead clears the unread flag.
func (s *Store) MarkRead(ctx context.Context, id string) error {
	res, err := s.exec(ctx, "UPDATE mails SET unread = 0 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("sqlstore: mark read: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return mailbox.ErrMailNotFound
	}
	return nil
}

// SaveReply stores a reply draft.
func (s *Store) SaveReply(ctx context.Context, r *mailbox.ReplyMail) error {
	if r.ID == "" {
		r.ID = mailbox.NewID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	attachments, err := encodeList(r.Attachments)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx,
		"INSERT INTO reply_mails (id, mail_id, subject, body, html, attachments, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		r.ID, r.MailID, r.Subject, r.Body, r.HTML, attachments, millis(r.CreatedAt))
	if err != nil {
		return fmt.Errorf("sqlstore: save reply: %w", err)
	}
	return nil
}

// ListReplies returns the drafts of a mail, oldest first.
func (s *Store) ListReplies(ctx context.Context, mailID string) ([]mailbox.ReplyMail, error) {
	rows, err := s.query(ctx,
		"SELECT id, mail_id, subject, body, html, attachments, created_at FROM reply_mails WHERE mail_id = ? ORDER BY created_at, id",
		mailID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list replies: %w", err)
	}
	defer rows.Close()
	return collect(rows, func(row interface{ Scan(...any) error }) (mailbox.ReplyMail, error) {
		var (
			r           mailbox.ReplyMail
			attachments string
			created     int64
		)
		if err := row.Scan(&r.ID, &r.MailID, &r.Subject, &r.Body, &r.HTML, &attachments, &created); err != nil {
			return r, err
		}
		r.CreatedAt = fromMillis(created)
		if err := json.Unmarshal([]byte(attachments), &r.Attachments); err != nil {
			return r, fmt.Errorf("decode attachments of reply %s: %w", r.ID, err)
		}
		return r, nil
	})
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("sqlstore: encode list: %w", err)
	}
	return string(data), nil
}
