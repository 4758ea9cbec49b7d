package guide

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/good-jinu/finance-operating-automation-sub000/agents/nodes"
	"github.com/good-jinu/finance-operating-automation-sub000/internal/llmtest"
	"github.com/good-jinu/finance-operating-automation-sub000/workflow"
)

func TestDefaultCatalogue(t *testing.T) {
	c := DefaultCatalogue()
	assert.Equal(t, []Topic{TopicAuthorizedPerson, TopicPaymentAccount, TopicOfficialSeal}, c.Topics())

	e, err := c.Lookup(TopicPaymentAccount)
	require.NoError(t, err)
	assert.Equal(t, "payment_account_change.docx", e.Attachment)
	assert.Contains(t, e.Guidance, "결제 계좌 변경 신청서")

	_, err = c.Lookup(TopicUnknown)
	assert.ErrorIs(t, err, ErrUnknownTopic)
}

func TestParseCatalogue(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", "topics: []"},
		{"no guidance", "topics:\n  - topic: a\n"},
		{"reserved topic", "topics:\n  - topic: unknown\n    guidance: x\n"},
		{"duplicate", "topics:\n  - topic: a\n    guidance: x\n  - topic: a\n    guidance: y\n"},
		{"malformed", "topics: ["},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalogue([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestAgent(t *testing.T) {
	t.Run("maps topic to guidance and attachment", func(t *testing.T) {
		p := llmtest.New().JSON("guide_topic", map[string]string{"label": "payment_account_change"})
		a := New(nodes.Env{Model: p}, nil)

		s, err := a.Graph().Run(context.Background(), nodes.Seed("결제 계좌를 어떻게 바꾸나요?"))
		require.NoError(t, err)
		assert.Equal(t, TopicPaymentAccount, workflow.Get(s, TopicKey))
		assert.Equal(t, []string{"payment_account_change.docx"}, workflow.Get(s, nodes.Attachments))
		assert.Contains(t, workflow.Get(s, nodes.Description), "통장 사본")

		out := a.ProjectOutput(s)
		assert.Equal(t, []string{"payment_account_change.docx"}, out[nodes.Attachments.Name()])
	})

	t.Run("unknown topic is fatal", func(t *testing.T) {
		p := llmtest.New().JSON("guide_topic", map[string]string{"label": "unknown"})
		a := New(nodes.Env{Model: p}, nil)

		_, err := a.Provide(context.Background(), "점심 메뉴 추천해 주세요")
		assert.ErrorIs(t, err, ErrUnknownTopic)
	})

	t.Run("classifier failure falls to unknown and fails lookup", func(t *testing.T) {
		a := New(nodes.Env{Model: llmtest.New().Fail("guide_topic", errors.New("down"))}, nil)

		_, err := a.Provide(context.Background(), "인감 변경")
		require.ErrorIs(t, err, ErrUnknownTopic)
		var stepErr *workflow.StepError
		require.ErrorAs(t, err, &stepErr)
		assert.Equal(t, "lookup", stepErr.StepName)
	})

	t.Run("provide", func(t *testing.T) {
		p := llmtest.New().JSON("guide_topic", map[string]string{"label": "official_seal_change"})
		e, err := New(nodes.Env{Model: p}, nil).Provide(context.Background(), "인감을 바꾸려면?")
		require.NoError(t, err)
		assert.Equal(t, "official_seal_change.docx", e.Attachment)
	})
}
