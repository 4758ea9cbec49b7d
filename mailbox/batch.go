package mailbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// ErrBatchRunning is returned when a batch is started while one runs.
var ErrBatchRunning = errors.New("mailbox: batch already running")

// Drafter produces a reply draft for one mail.
type Drafter interface {
	Draft(ctx context.Context, m Mail) (*ReplyMail, error)
}

// DrafterFunc adapts a function to Drafter.
type DrafterFunc func(ctx context.Context, m Mail) (*ReplyMail, error)

// Draft calls f.
func (f DrafterFunc) Draft(ctx context.Context, m Mail) (*ReplyMail, error) { return f(ctx, m) }

// Recorder receives one report per processed mail.
type Recorder interface {
	MailProcessed(ok bool)
}

// Progress is the cumulative state of a batch.
type Progress struct {
	Total           int       `json:"total"`
	ProcessedEmails int       `json:"processedEmails"`
	SuccessCount    int       `json:"successCount"`
	ErrorCount      int       `json:"errorCount"`
	Running         bool      `json:"isRunning"`
	CurrentMailID   string    `json:"currentMailId,omitempty"`
	LastError       string    `json:"lastError,omitempty"`
	StartedAt       time.Time `json:"startedAt,omitzero"`
	FinishedAt      time.Time `json:"finishedAt,omitzero"`
}

// BatchOption configures a Batch.
type BatchOption func(*Batch)

// WithBatchLogger sets the logger.
func WithBatchLogger(l *slog.Logger) BatchOption {
	return func(b *Batch) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithProgress registers a callback invoked after every mail.
func WithProgress(fn func(Progress)) BatchOption {
	return func(b *Batch) { b.onProgress = fn }
}

// WithRecorder reports per-mail outcomes.
func WithRecorder(r Recorder) BatchOption {
	return func(b *Batch) { b.recorder = r }
}

// Batch drafts replies for unread mail one at a time.
type Batch struct {
	inbox      Inbox
	outbox     Outbox
	drafter    Drafter
	logger     *slog.Logger
	onProgress func(Progress)
	recorder   Recorder

	mu       sync.Mutex
	progress Progress
	active   bool
	done     chan struct{}
}

// NewBatch creates a batch processor.
func NewBatch(inbox Inbox, outbox Outbox, drafter Drafter, opts ...BatchOption) *Batch {
	b := &Batch{
		inbox:   inbox,
		outbox:  outbox,
		drafter: drafter,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Progress returns a snapshot of the current or last batch.
func (b *Batch) Progress() Progress {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.progress
}

// Stop clears the running flag. Work already in flight is not cancelled;
// the loop finishes its current pass and Start keeps failing with
// ErrBatchRunning until it does.
func (b *Batch) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.progress.Running = false
}

// Start runs the batch in a new goroutine.
func (b *Batch) Start(ctx context.Context) error {
	if err := b.begin(); err != nil {
		return err
	}
	go func() {
		if _, err := b.process(ctx); err != nil {
			b.logger.Error("batch failed", "error", err)
		}
	}()
	return nil
}

// Run processes every unread mail and returns the final progress.
func (b *Batch) Run(ctx context.Context) (Progress, error) {
	if err := b.begin(); err != nil {
		return b.Progress(), err
	}
	return b.process(ctx)
}

// Wait blocks until the current loop, if any, has finished.
func (b *Batch) Wait(ctx context.Context) error {
	b.mu.Lock()
	done := b.done
	b.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Batch) begin() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active {
		return ErrBatchRunning
	}
	b.active = true
	b.done = make(chan struct{})
	b.progress = Progress{Running: true, StartedAt: time.Now()}
	return nil
}

func (b *Batch) process(ctx context.Context) (Progress, error) {
	mails, err := b.inbox.ListUnread(ctx)
	if err != nil {
		b.update(func(p *Progress) { p.LastError = err.Error() })
		return b.finish(), fmt.Errorf("mailbox: list unread: %w", err)
	}
	b.update(func(p *Progress) { p.Total = len(mails) })
	b.logger.Info("batch started", "total", len(mails))

	for _, m := range mails {
		b.update(func(p *Progress) { p.CurrentMailID = m.ID })

		err := b.handle(ctx, m)
		if err != nil {
			b.logger.Error("reply generation failed", "mail_id", m.ID, "error", err)
		}
		if b.recorder != nil {
			b.recorder.MailProcessed(err == nil)
		}
		b.update(func(p *Progress) {
			p.ProcessedEmails++
			if err != nil {
				p.ErrorCount++
				p.LastError = err.Error()
			} else {
				p.SuccessCount++
			}
		})
	}

	final := b.finish()
	b.logger.Info("batch finished",
		"processed", final.ProcessedEmails,
		"success", final.SuccessCount,
		"errors", final.ErrorCount,
	)
	return final, nil
}

func (b *Batch) handle(ctx context.Context, m Mail) error {
	reply, err := b.drafter.Draft(ctx, m)
	if err != nil {
		return err
	}
	if reply == nil {
		return errors.New("drafter returned no reply")
	}
	if reply.ID == "" {
		reply.ID = NewID()
	}
	reply.MailID = m.ID
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = time.Now()
	}
	if reply.HTML == "" {
		if html, err := Render(reply.Body); err == nil {
			reply.HTML = html
		}
	}
	if err := b.outbox.SaveReply(ctx, reply); err != nil {
		return fmt.Errorf("save reply: %w", err)
	}
	if err := b.inbox.MarkRead(ctx, m.ID); err != nil {
		b.logger.Warn("mark read failed", "mail_id", m.ID, "error", err)
	}
	return nil
}

func (b *Batch) update(fn func(*Progress)) Progress {
	b.mu.Lock()
	fn(&b.progress)
	snapshot := b.progress
	b.mu.Unlock()
	if b.onProgress != nil {
		b.onProgress(snapshot)
	}
	return snapshot
}

func (b *Batch) finish() Progress {
	var done chan struct{}
	final := b.update(func(p *Progress) {
		p.Running = false
		p.CurrentMailID = ""
		p.FinishedAt = time.Now()
		b.active = false
		done = b.done
	})
	close(done)
	return final
}
