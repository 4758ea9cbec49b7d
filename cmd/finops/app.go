package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	ai "github.com/good-jinu/finance-operating-automation-sub000"
	"github.com/good-jinu/finance-operating-automation-sub000/agent"
	"github.com/good-jinu/finance-operating-automation-sub000/agents/assistant"
	"github.com/good-jinu/finance-operating-automation-sub000/agents/filereader"
	"github.com/good-jinu/finance-operating-automation-sub000/agents/nodes"
	"github.com/good-jinu/finance-operating-automation-sub000/agents/router"
	"github.com/good-jinu/finance-operating-automation-sub000/client"
	"github.com/good-jinu/finance-operating-automation-sub000/internal/config"
	"github.com/good-jinu/finance-operating-automation-sub000/internal/metrics"
	"github.com/good-jinu/finance-operating-automation-sub000/mailbox"
	"github.com/good-jinu/finance-operating-automation-sub000/records/sqlstore"
	"github.com/good-jinu/finance-operating-automation-sub000/tool"
	"github.com/good-jinu/finance-operating-automation-sub000/workflow"
)

// app holds the wired process components.
type app struct {
	cfg       config.Config
	logger    *slog.Logger
	store     *sqlstore.Store
	metrics   *metrics.Recorder
	router    *router.Agent
	tools     *tool.Registry
	assistant *assistant.Assistant
	batch     *mailbox.Batch
}

// loadConfig reads the layered configuration and builds the logger.
// Logs go to stderr so stdout stays free for reply JSON and MCP frames.
func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger := cfg.Logger(os.Stderr)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// openStore opens and migrates the configured database.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*sqlstore.Store, error) {
	store, err := sqlstore.Open(cfg.Database.Driver, cfg.Database.DSN, sqlstore.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// openApp loads configuration and wires every component against the real
// model client and database.
func openApp(ctx context.Context) (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	rec := metrics.New()
	ccfg := cfg.Client(logger)
	ccfg.Recorder = rec
	c, err := client.New(ctx, ccfg)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return newApp(cfg, logger, c, store, rec), nil
}

// newApp wires the agents, tools and batch around provider and store.
func newApp(cfg config.Config, logger *slog.Logger, provider ai.ChatProvider, store *sqlstore.Store, rec *metrics.Recorder) *app {
	env := nodes.Env{Model: provider, Logger: logger, Recorder: rec}

	var fileOpts []filereader.Option
	if cfg.Agent.DocumentsRoot != "" {
		fileOpts = append(fileOpts, filereader.WithRoot(cfg.Agent.DocumentsRoot))
	}
	r := router.New(env, store,
		router.WithFileOptions(fileOpts...),
		router.WithGraphOptions(
			workflow.WithMaxHops(cfg.Agent.MaxHops),
			workflow.WithLogger(logger),
			workflow.WithObserver(rec),
		),
	)

	tools := assistant.Tools(store, store)
	tools.SetRecorder(rec)
	agentOpts := []agent.Option{agent.WithMaxSteps(cfg.Agent.ChatMaxSteps)}
	if cfg.Agent.ChatTimeout > 0 {
		agentOpts = append(agentOpts, agent.WithTimeout(cfg.Agent.ChatTimeout))
	}
	asst := assistant.New(provider, tools, store,
		assistant.WithAgentOptions(agentOpts...),
		assistant.WithLogger(logger),
	)

	batch := mailbox.NewBatch(store, store, r.Drafter(),
		mailbox.WithBatchLogger(logger),
		mailbox.WithRecorder(rec),
	)

	return &app{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		metrics:   rec,
		router:    r,
		tools:     tools,
		assistant: asst,
		batch:     batch,
	}
}

// drainBatch stops the batch and waits for its loop so the store is not
// closed under it. When ctx expires first, cancel aborts the remaining work.
func (a *app) drainBatch(ctx context.Context, cancel context.CancelFunc) {
	a.batch.Stop()
	if err := a.batch.Wait(ctx); err == nil {
		return
	}
	a.logger.Warn("batch still running at shutdown, cancelling")
	cancel()
	_ = a.batch.Wait(context.Background())
}

func (a *app) Close() error {
	return a.store.Close()
}
