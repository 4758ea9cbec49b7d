// Package config loads process configuration in layers: built-in defaults,
// an optional TOML file, a .env file, then environment variables. Later
// layers win.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	ai "github.com/good-jinu/finance-operating-automation-sub000"
	"github.com/good-jinu/finance-operating-automation-sub000/client"
)

// DefaultFile is read when no config path is given. It may be absent.
const DefaultFile = "finops.toml"

type Config struct {
	LLM      LLMConfig      `toml:"llm"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
	Agent    AgentConfig    `toml:"agent"`
}

type LLMConfig struct {
	Provider      string  `toml:"provider"`
	Model         string  `toml:"model"`
	APIKey        string  `toml:"api_key"`
	MaxTokens     int     `toml:"max_tokens"`
	Temperature   float64 `toml:"temperature"`
	RetryAttempts int     `toml:"retry_attempts"`
}

type DatabaseConfig struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type AgentConfig struct {
	MaxHops        int           `toml:"max_hops"`
	ChatMaxSteps   int           `toml:"chat_max_steps"`
	ChatTimeout    time.Duration `toml:"chat_timeout"`
	AttachmentsDir string        `toml:"attachments_dir"`
	DocumentsRoot  string        `toml:"documents_root"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		LLM:      LLMConfig{Provider: string(ai.ProviderOpenAI), MaxTokens: 2048, RetryAttempts: 5},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "finops.db"},
		Server:   ServerConfig{Addr: ":8000"},
		Log:      LogConfig{Level: "info", Format: "text"},
		Agent:    AgentConfig{MaxHops: 32, ChatMaxSteps: 10, ChatTimeout: 2 * time.Minute, AttachmentsDir: "attachments"},
	}
}

// Load reads and validates the configuration.
func Load(path string) (Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Read reads config: defaults -> TOML file -> .env -> env vars (env wins).
// An empty path reads DefaultFile if it exists; an explicit path must exist.
// The result is not validated.
func Read(path string) (Config, error) {
	cfg := Default()

	file := path
	if file == "" {
		file = DefaultFile
	}
	if _, err := toml.DecodeFile(file, &cfg); err != nil {
		if path != "" || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: read %s: %w", file, err)
		}
	}

	// .env only fills variables that are not already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: read .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.LLM.Provider, "FINOPS_PROVIDER")
	setString(&c.LLM.Model, "FINOPS_MODEL")
	setString(&c.LLM.APIKey, "FINOPS_API_KEY")
	setString(&c.Database.Driver, "FINOPS_DB_DRIVER")
	setString(&c.Database.DSN, "FINOPS_DB_DSN")
	setString(&c.Server.Addr, "FINOPS_ADDR")
	setString(&c.Log.Level, "FINOPS_LOG_LEVEL")
	setString(&c.Log.Format, "FINOPS_LOG_FORMAT")
	setString(&c.Agent.AttachmentsDir, "FINOPS_ATTACHMENTS_DIR")
	setString(&c.Agent.DocumentsRoot, "FINOPS_DOCUMENTS_ROOT")

	for key, dst := range map[string]*int{
		"FINOPS_MAX_TOKENS":     &c.LLM.MaxTokens,
		"FINOPS_RETRY_ATTEMPTS": &c.LLM.RetryAttempts,
		"FINOPS_MAX_HOPS":       &c.Agent.MaxHops,
		"FINOPS_CHAT_MAX_STEPS": &c.Agent.ChatMaxSteps,
	} {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("config: %s: %w", key, err)
			}
			*dst = n
		}
	}
	if v := os.Getenv("FINOPS_CHAT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: FINOPS_CHAT_TIMEOUT: %w", err)
		}
		c.Agent.ChatTimeout = d
	}

	// Fallback: the provider's conventional key variable.
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = os.Getenv(providerKeyEnv(c.LLM.Provider))
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func providerKeyEnv(provider string) string {
	switch ai.Provider(provider) {
	case ai.ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ai.ProviderGoogle:
		return "GOOGLE_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

// Validate checks that required configuration is present and consistent.
func (c Config) Validate() error {
	if _, err := ai.ParseProvider(c.LLM.Provider); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("config: %s or FINOPS_API_KEY is required for provider %s",
			providerKeyEnv(c.LLM.Provider), c.LLM.Provider)
	}
	switch c.Database.Driver {
	case "sqlite", "pgx":
	default:
		return fmt.Errorf("config: unknown database driver %q (must be sqlite or pgx)", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("config: database dsn is required")
	}
	if c.LLM.RetryAttempts < 1 {
		return errors.New("config: retry_attempts must be at least 1")
	}
	if c.Agent.MaxHops < 1 {
		return errors.New("config: max_hops must be at least 1")
	}
	if c.Agent.ChatMaxSteps < 1 {
		return errors.New("config: chat_max_steps must be at least 1")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q (must be text or json)", c.Log.Format)
	}
	return nil
}

// Client returns the chat client configuration.
func (c Config) Client(logger *slog.Logger) client.Config {
	retry := client.DefaultRetryConfig()
	retry.MaxAttempts = c.LLM.RetryAttempts
	cfg := client.Config{
		Provider:  ai.Provider(c.LLM.Provider),
		APIKey:    c.LLM.APIKey,
		Model:     c.LLM.Model,
		MaxTokens: c.LLM.MaxTokens,
		Retry:     &retry,
		Logger:    logger,
	}
	if c.LLM.Temperature > 0 {
		t := c.LLM.Temperature
		cfg.Temperature = &t
	}
	return cfg
}

// Logger builds the process logger writing to w.
func (c Config) Logger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Log.Level)
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("config: unknown log level %q (must be debug, info, warn or error)", s)
}
