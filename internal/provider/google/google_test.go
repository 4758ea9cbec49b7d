package google

import (
	"encoding/json"
	"testing"

	ai "github.com/good-jinu/finance-operating-automation-sub000"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestConvertMessages(t *testing.T) {
	contents, system := convertMessages([]ai.Message{
		ai.SystemMessage("규칙"),
		ai.UserMessage("질문"),
		{Role: ai.RoleAssistant, ToolCalls: []ai.ToolCall{{ID: "c1", Name: "search_companies", Arguments: `{"query":"ACME"}`}}},
		ai.NewToolResultMessage(ai.ToolResult{ToolCallID: "c1", Content: `{"success":true}`}),
	})

	require.NotNil(t, system)
	assert.Equal(t, "규칙", system.Parts[0].Text)
	require.Len(t, contents, 3)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	require.NotNil(t, contents[2].Parts[0].FunctionResponse)
	assert.Equal(t, "search_companies", contents[2].Parts[0].FunctionResponse.Name)
	assert.Equal(t, true, contents[2].Parts[0].FunctionResponse.Response["success"])
}

func TestConvertJSONSchema(t *testing.T) {
	s := convertJSONSchema(json.RawMessage(`{
		"type":"object",
		"properties":{
			"topic":{"type":"string","enum":["payment_account_change"]},
			"email":{"type":"string","format":"email"},
			"ids":{"type":"array","items":{"type":"integer"}}
		},
		"required":["topic"]
	}`))
	require.NotNil(t, s)
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Equal(t, []string{"topic"}, s.Required)
	assert.Equal(t, []string{"payment_account_change"}, s.Properties["topic"].Enum)
	assert.Equal(t, "email", s.Properties["email"].Format)
	assert.Equal(t, genai.TypeInteger, s.Properties["ids"].Items.Type)

	assert.Nil(t, convertJSONSchema(nil))
	assert.Nil(t, convertJSONSchema(json.RawMessage(`not json`)))
}

func TestConvertToolChoice(t *testing.T) {
	assert.Equal(t, genai.FunctionCallingConfigModeAny, convertToolChoice(ai.ToolChoiceRequired).FunctionCallingConfig.Mode)
	assert.Equal(t, genai.FunctionCallingConfigModeNone, convertToolChoice(ai.ToolChoiceNone).FunctionCallingConfig.Mode)
	assert.Equal(t, genai.FunctionCallingConfigModeAuto, convertToolChoice("").FunctionCallingConfig.Mode)
}
