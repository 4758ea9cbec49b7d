package structured

import (
	"context"
	"errors"
	"testing"

	ai "github.com/good-jinu/finance-operating-automation-sub000"
	"github.com/good-jinu/finance-operating-automation-sub000/internal/llmtest"
	"github.com/good-jinu/finance-operating-automation-sub000/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type route struct {
	Next string `json:"next"`
}

var routeSchema = ai.ResponseSchema{
	Name: "route",
	Schema: schema.Object().
		Field("next", schema.String().Enum("change_guide", "end").Required()).
		MustBuild(),
}

func TestComplete(t *testing.T) {
	ctx := context.Background()
	msgs := []ai.Message{ai.UserMessage("계좌 변경 방법")}

	t.Run("decodes a valid document", func(t *testing.T) {
		p := llmtest.New().On("route", llmtest.Reply{Content: `{"next":"change_guide"}`})
		got, err := Complete[route](ctx, p, msgs, routeSchema)
		require.NoError(t, err)
		assert.Equal(t, "change_guide", got.Next)

		calls := p.Calls()
		require.Len(t, calls, 1)
		require.NotNil(t, calls[0].Options.ResponseSchema)
		assert.Equal(t, "route", calls[0].Options.ResponseSchema.Name)
	})

	t.Run("accepts fenced JSON", func(t *testing.T) {
		p := llmtest.New().On("route", llmtest.Reply{Content: "```json\n{\"next\":\"end\"}\n```"})
		got, err := Complete[route](ctx, p, msgs, routeSchema)
		require.NoError(t, err)
		assert.Equal(t, "end", got.Next)
	})

	t.Run("rejects values outside the enum", func(t *testing.T) {
		p := llmtest.New().On("route", llmtest.Reply{Content: `{"next":"elsewhere"}`})
		_, err := Complete[route](ctx, p, msgs, routeSchema)
		var ve *schema.ViolationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("rejects missing required fields", func(t *testing.T) {
		p := llmtest.New().On("route", llmtest.Reply{Content: `{}`})
		_, err := Complete[route](ctx, p, msgs, routeSchema)
		assert.Error(t, err)
	})

	t.Run("null optional members count as absent", func(t *testing.T) {
		type change struct {
			Company string  `json:"company_name"`
			Phone   *string `json:"phone_number"`
			Sign    *bool   `json:"can_sign"`
		}
		rs := ai.ResponseSchema{
			Name: "change",
			Schema: schema.Object().
				Field("company_name", schema.String().Required()).
				Field("phone_number", schema.String()).
				Field("can_sign", schema.Bool()).
				MustBuild(),
		}
		p := llmtest.New().On("change", llmtest.Reply{Content: `{"company_name":"한국상사","phone_number":null,"can_sign":null}`})
		got, err := Complete[change](ctx, p, msgs, rs)
		require.NoError(t, err)
		assert.Equal(t, "한국상사", got.Company)
		assert.Nil(t, got.Phone)
		assert.Nil(t, got.Sign)

		p = llmtest.New().On("change", llmtest.Reply{Content: `{"company_name":null}`})
		_, err = Complete[change](ctx, p, msgs, rs)
		var ve *schema.ViolationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("empty content", func(t *testing.T) {
		p := llmtest.New().On("route", llmtest.Reply{Content: "  "})
		_, err := Complete[route](ctx, p, msgs, routeSchema)
		assert.ErrorIs(t, err, ai.ErrEmptyResponse)
	})

	t.Run("provider errors propagate", func(t *testing.T) {
		boom := errors.New("boom")
		p := llmtest.New().Fail("route", boom)
		_, err := Complete[route](ctx, p, msgs, routeSchema)
		assert.ErrorIs(t, err, boom)
	})
}

func TestText(t *testing.T) {
	ctx := context.Background()

	p := llmtest.New().Text("  계좌 변경 안내를 제공한다.  ")
	got, err := Text(ctx, p, nil)
	require.NoError(t, err)
	assert.Equal(t, "계좌 변경 안내를 제공한다.", got)

	_, err = Text(ctx, llmtest.New().Text(""), nil)
	assert.ErrorIs(t, err, ai.ErrEmptyResponse)

	_, err = Text(ctx, llmtest.New(), nil)
	assert.ErrorIs(t, err, llmtest.ErrUnscripted)
}

func TestDropNulls(t *testing.T) {
	assert.JSONEq(t, `{"a":1,"b":{"d":[{"f":2}]}}`, dropNulls(`{"a":1,"b":{"c":null,"d":[{"e":null,"f":2}]}}`))
	assert.Equal(t, `{"n":12345678901234567890}`, dropNulls(`{"n":12345678901234567890,"x":null}`))
	assert.Equal(t, "not json", dropNulls("not json"))
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`  {"a":1} `))
}
