package mcp

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/good-jinu/finance-operating-automation-sub000"
	"github.com/good-jinu/finance-operating-automation-sub000/agents/assistant"
	"github.com/good-jinu/finance-operating-automation-sub000/mailbox"
	"github.com/good-jinu/finance-operating-automation-sub000/records"
	"github.com/good-jinu/finance-operating-automation-sub000/records/memstore"
	"github.com/good-jinu/finance-operating-automation-sub000/tool"
)

type emptyInbox struct{}

func (emptyInbox) ListUnread(ctx context.Context) ([]mailbox.Mail, error) { return nil, nil }
func (emptyInbox) ListRecent(ctx context.Context, limit int) ([]mailbox.Mail, error) {
	return nil, nil
}
func (emptyInbox) MarkRead(ctx context.Context, id string) error { return nil }

type callSpy struct {
	mu    sync.Mutex
	calls []string
}

func (s *callSpy) ToolCalled(name string, failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, name)
}

func connect(t *testing.T, registry *tool.Registry, opts ...ServerOption) *client.Client {
	t.Helper()
	c, err := client.NewInProcessClient(NewServer(registry, opts...))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	t.Cleanup(func() { c.Close() })

	_, err = c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo:      mcp.Implementation{Name: "test-client", Version: "1.0.0"},
		},
	})
	require.NoError(t, err)
	return c
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestToMCPTool(t *testing.T) {
	schema := json.RawMessage(`{"type":"object","properties":{"query":{"type":"string"}}}`)
	got := ToMCPTool(ai.Tool{Name: "search_companies", Description: "검색", Parameters: schema})

	assert.Equal(t, "search_companies", got.Name)
	assert.Equal(t, "검색", got.Description)
	assert.Equal(t, schema, got.RawInputSchema)
}

func TestToMCPCallToolResult(t *testing.T) {
	ok := ToMCPCallToolResult(ai.ToolResult{Content: "fine"})
	assert.False(t, ok.IsError)
	require.Len(t, ok.Content, 1)

	failed := ToMCPCallToolResult(ai.ToolResult{Content: "bad", IsError: true})
	assert.True(t, failed.IsError)
}

func TestServerExposesAssistantTools(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.CreateCompany(ctx, &records.Company{Name: "한국상사"}))

	registry := assistant.Tools(store, emptyInbox{})
	spy := &callSpy{}
	registry.SetRecorder(spy)

	c := connect(t, registry, WithName("finops-test"), WithInstructions("tools for tests"))

	listed, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	require.NoError(t, err)
	assert.Len(t, listed.Tools, registry.Len())

	res, err := c.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      "search_companies",
			Arguments: map[string]any{"query": "한국"},
		},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var envelope tool.Result
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &envelope))
	assert.True(t, envelope.Success)

	res, err = c.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      "list_official_seals",
			Arguments: map[string]any{"company_name": "없는회사"},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, textOf(t, res), `"success":false`)

	assert.Equal(t, []string{"search_companies", "list_official_seals"}, spy.calls)
}

func TestServerHandlerErrors(t *testing.T) {
	registry := tool.NewRegistry().Add(
		tool.Func("fail", "Always fails", func(ctx context.Context, args struct{}) (string, error) {
			return "", assert.AnError
		}),
	)
	c := connect(t, registry)

	res, err := c.CallTool(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: "fail", Arguments: map[string]any{}},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, assert.AnError.Error(), textOf(t, res))
}
