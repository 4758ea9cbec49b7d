package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/good-jinu/finance-operating-automation-sub000/internal/config"
	"github.com/good-jinu/finance-operating-automation-sub000/mailbox"
	"github.com/good-jinu/finance-operating-automation-sub000/mcp"
	"github.com/good-jinu/finance-operating-automation-sub000/records/sqlstore"
)

// ServeCmd starts the HTTP API.
type ServeCmd struct {
	Addr string `short:"a" long:"addr" description:"listen address (overrides config)"`
}

func (s *ServeCmd) Execute(_ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := a.cfg.Server.Addr
	if s.Addr != "" {
		addr = s.Addr
	}
	batchCtx, cancelBatch := context.WithCancel(context.Background())
	defer cancelBatch()
	api := newServer(a)
	api.batchCtx = batchCtx

	srv := &http.Server{
		Addr:        addr,
		Handler:     api.routes(),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server starting", "addr", addr, "provider", a.cfg.LLM.Provider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	a.drainBatch(shutdownCtx, cancelBatch)
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.logger.Info("server stopped")
	return nil
}

// ReplyCmd drafts one reply. The message comes from --body or stdin.
type ReplyCmd struct {
	Subject string   `short:"s" long:"subject" description:"mail subject"`
	Body    string   `short:"b" long:"body" description:"mail body (default: read stdin)"`
	Sender  string   `long:"sender" description:"sender address"`
	Files   []string `short:"f" long:"file" description:"attached document path (repeatable)"`
}

func (r *ReplyCmd) Execute(_ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	body := r.Body
	if body == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		body = string(data)
	}
	inbound := mailbox.ComposeInbound(r.Subject, strings.TrimSpace(body), r.Sender)
	if inbound == "" {
		return errors.New("reply: empty message")
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return writeReply(os.Stdout, a.router.Reply(ctx, inbound, r.Files...))
}

func writeReply(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// MCPCmd serves the assistant tool registry over stdio.
type MCPCmd struct{}

func (m *MCPCmd) Execute(_ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	a.logger.Info("mcp server starting", "tools", a.tools.Len())
	return mcp.ServeStdio(ctx, a.tools,
		mcp.WithName("finops"),
		mcp.WithInstructions("금융 백오피스 데이터 조회 및 변경 도구입니다. 변경 전에 목록 조회 도구로 ID를 확인하세요."),
		mcp.WithLogger(a.logger),
	)
}

// MigrateCmd creates the database schema. It needs no model credentials.
type MigrateCmd struct{}

func (m *MigrateCmd) Execute(_ []string) error {
	ctx := context.Background()
	cfg, err := config.Read(opts.Config)
	if err != nil {
		return err
	}
	logger := cfg.Logger(os.Stderr)
	store, err := sqlstore.Open(cfg.Database.Driver, cfg.Database.DSN, sqlstore.WithLogger(logger))
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		return err
	}
	logger.Info("schema ready", "driver", cfg.Database.Driver)
	return nil
}
