package anthropic

import (
	"net/http"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	ai "github.com/good-jinu/finance-operating-automation-sub000"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertMessages(t *testing.T) {
	msgs, system := convertMessages([]ai.Message{
		ai.SystemMessage("당신은 금융 고객지원 담당자입니다."),
		ai.SystemMessage(""),
		ai.UserMessage("계좌 변경"),
		{Role: ai.RoleAssistant, ToolCalls: []ai.ToolCall{{ID: "t1", Name: "search_companies", Arguments: `{"query":"ACME"}`}}},
		ai.NewToolResultMessage(ai.ToolResult{ToolCallID: "t1", Content: `{"success":true}`}),
		ai.AssistantMessage(""),
	})

	require.Len(t, system, 1)
	require.Len(t, msgs, 3)
	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[0].Role)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, msgs[1].Role)
	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[2].Role)
}

func TestBuildJSONTool(t *testing.T) {
	rs := &ai.ResponseSchema{
		Name:   "route",
		Schema: []byte(`{"type":"object","properties":{"next":{"type":"string"}},"required":["next"]}`),
	}
	tool, choice := buildJSONTool(rs)
	require.NotNil(t, tool.OfTool)
	assert.Equal(t, jsonResponseToolName, tool.OfTool.Name)
	assert.Equal(t, []string{"next"}, tool.OfTool.InputSchema.Required)
	require.NotNil(t, choice.OfTool)
	assert.Equal(t, jsonResponseToolName, choice.OfTool.Name)
}

func TestConvertToolChoice(t *testing.T) {
	assert.NotNil(t, convertToolChoice(ai.ToolChoiceNone).OfNone)
	assert.NotNil(t, convertToolChoice(ai.ToolChoiceRequired).OfAny)
	assert.NotNil(t, convertToolChoice(ai.ToolChoiceAuto).OfAuto)
}

func TestParseRetryAfter(t *testing.T) {
	resp := &http.Response{Header: http.Header{"Retry-After": []string{"7"}}}
	assert.Equal(t, 7*time.Second, parseRetryAfter(resp))
	assert.Zero(t, parseRetryAfter(nil))
}
