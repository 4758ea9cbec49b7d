package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/good-jinu/finance-operating-automation-sub000"
)

// isolate runs the test in an empty directory with no provider variables.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, key := range []string{
		"FINOPS_PROVIDER", "FINOPS_MODEL", "FINOPS_API_KEY", "FINOPS_DB_DRIVER", "FINOPS_DB_DSN",
		"FINOPS_MAX_HOPS", "FINOPS_CHAT_TIMEOUT", "FINOPS_LOG_LEVEL",
		"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GOOGLE_API_KEY",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 32, cfg.Agent.MaxHops)
	assert.Equal(t, 10, cfg.Agent.ChatMaxSteps)
	assert.Equal(t, 5, cfg.LLM.RetryAttempts)
}

func TestLoadFromTOML(t *testing.T) {
	dir := isolate(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[llm]
provider = "anthropic"
model = "claude-test"

[agent]
max_hops = 12
chat_timeout = "30s"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "claude-test", cfg.LLM.Model)
	assert.Equal(t, "sk-ant", cfg.LLM.APIKey)
	assert.Equal(t, 12, cfg.Agent.MaxHops)
	assert.Equal(t, 30*time.Second, cfg.Agent.ChatTimeout)
	// Defaults preserved
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, 10, cfg.Agent.ChatMaxSteps)
}

func TestLoadMissingFile(t *testing.T) {
	isolate(t)
	t.Setenv("OPENAI_API_KEY", "sk-openai")

	_, err := Load("/nonexistent/finops.toml")
	assert.Error(t, err)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-openai", cfg.LLM.APIKey)
}

func TestEnvOverride(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte(`
[llm]
provider = "openai"
api_key = "from-file"
`), 0o644))
	t.Setenv("FINOPS_PROVIDER", "google")
	t.Setenv("FINOPS_API_KEY", "from-env")
	t.Setenv("FINOPS_MAX_HOPS", "8")
	t.Setenv("FINOPS_DB_DRIVER", "pgx")
	t.Setenv("FINOPS_DB_DSN", "postgres://localhost/finops")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "google", cfg.LLM.Provider)
	assert.Equal(t, "from-env", cfg.LLM.APIKey)
	assert.Equal(t, 8, cfg.Agent.MaxHops)
	assert.Equal(t, "pgx", cfg.Database.Driver)
}

func TestDotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GOOGLE_API_KEY=from-dotenv\nFINOPS_PROVIDER=google\n"), 0o644))

	// godotenv never overrides a variable that is present, even when empty.
	os.Unsetenv("GOOGLE_API_KEY")
	os.Unsetenv("FINOPS_PROVIDER")
	t.Cleanup(func() {
		os.Unsetenv("GOOGLE_API_KEY")
		os.Unsetenv("FINOPS_PROVIDER")
	})

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "google", cfg.LLM.Provider)
	assert.Equal(t, "from-dotenv", cfg.LLM.APIKey)
}

func TestLoadBadEnv(t *testing.T) {
	isolate(t)
	t.Setenv("OPENAI_API_KEY", "k")
	t.Setenv("FINOPS_MAX_HOPS", "many")

	_, err := Load("")
	assert.ErrorContains(t, err, "FINOPS_MAX_HOPS")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Default()
		cfg.LLM.APIKey = "k"
		return cfg
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown provider", func(c *Config) { c.LLM.Provider = "vertex" }, "vertex"},
		{"missing key", func(c *Config) { c.LLM.APIKey = "" }, "OPENAI_API_KEY"},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, "mysql"},
		{"empty dsn", func(c *Config) { c.Database.DSN = "" }, "dsn"},
		{"zero retries", func(c *Config) { c.LLM.RetryAttempts = 0 }, "retry_attempts"},
		{"zero hops", func(c *Config) { c.Agent.MaxHops = 0 }, "max_hops"},
		{"zero steps", func(c *Config) { c.Agent.ChatMaxSteps = 0 }, "chat_max_steps"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "loud"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestClient(t *testing.T) {
	cfg := Default()
	cfg.LLM.Provider = "anthropic"
	cfg.LLM.APIKey = "k"
	cfg.LLM.RetryAttempts = 2
	cfg.LLM.Temperature = 0.3

	cc := cfg.Client(nil)
	assert.Equal(t, ai.ProviderAnthropic, cc.Provider)
	require.NotNil(t, cc.Retry)
	assert.Equal(t, 2, cc.Retry.MaxAttempts)
	require.NotNil(t, cc.Temperature)
	assert.InDelta(t, 0.3, *cc.Temperature, 1e-9)
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.Log.Format = "json"
	cfg.Log.Level = "warn"

	logger := cfg.Logger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}

func TestReadSkipsValidation(t *testing.T) {
	isolate(t)

	cfg, err := Read("")
	require.NoError(t, err)
	assert.Empty(t, cfg.LLM.APIKey)

	_, err = Load("")
	assert.ErrorContains(t, err, "OPENAI_API_KEY")
}
