// Command finops runs the back-office mail automation: the reply agent
// behind an HTTP API, one-shot replies from the terminal, the chat tools
// over MCP, and schema migration.
//
// Configuration is layered: finops.toml (or --config), then .env, then
// environment variables:
//
//	FINOPS_PROVIDER   - anthropic, openai or google (default: openai)
//	FINOPS_MODEL      - model override (optional, uses provider default)
//	FINOPS_DB_DRIVER  - sqlite or pgx (default: sqlite)
//	FINOPS_DB_DSN     - database DSN (default: finops.db)
//	FINOPS_ADDR       - HTTP listen address (default: :8000)
//	FINOPS_LOG_LEVEL  - debug, info, warn or error
//	ANTHROPIC_API_KEY - Anthropic API key
//	OPENAI_API_KEY    - OpenAI API key
//	GOOGLE_API_KEY    - Google API key
//
// Usage:
//
//	finops migrate
//	finops serve --addr :8080
//	echo "결제 계좌 변경 방법을 알려주세요" | finops reply
//	finops mcp
package main

import (
	"errors"
	"os"

	"github.com/jessevdk/go-flags"
)

// Options is the root command. The struct tags are interpreted by
// github.com/jessevdk/go-flags.
type Options struct {
	Config string `short:"c" long:"config" description:"TOML config path (default: finops.toml if present)"`

	Serve   ServeCmd   `command:"serve" description:"Start the HTTP API"`
	Reply   ReplyCmd   `command:"reply" description:"Draft one reply and print it as JSON"`
	MCP     MCPCmd     `command:"mcp" description:"Serve the assistant tools over MCP stdio"`
	Migrate MigrateCmd `command:"migrate" description:"Create the database schema"`
}

var opts Options

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
