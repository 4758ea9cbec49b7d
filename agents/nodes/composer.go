package nodes

import (
	"context"
	"strings"

	ai "github.com/good-jinu/finance-operating-automation-sub000"
	"github.com/good-jinu/finance-operating-automation-sub000/schema"
	"github.com/good-jinu/finance-operating-automation-sub000/structured"
	"github.com/good-jinu/finance-operating-automation-sub000/workflow"
)

type draft struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// ComposerSchema is the response schema of the composer.
var ComposerSchema = ai.ResponseSchema{
	Name:        "reply_email",
	Description: "A reply email with a subject and a body.",
	Schema: schema.Object().
		Field("title", schema.String().Desc("이메일 제목").Required()).
		Field("body", schema.String().Desc("이메일 본문").MinLength(1).Required()).
		MustBuild(),
}

// GuidanceFunc picks the text a composer builds the reply around.
type GuidanceFunc func(s *workflow.State) string

// Composer drafts the reply from the latest message, the guidance and the
// attachments collected so far. On model failure it falls back to the
// templated body.
func Composer(env Env, guidance GuidanceFunc) workflow.NodeFunc {
	if guidance == nil {
		guidance = Guidance
	}
	return func(ctx context.Context, s *workflow.State) (workflow.Update, error) {
		text := guidance(s)
		msgs := []ai.Message{
			ai.SystemMessage(composerPrompt),
			ai.UserMessage(composerInput(Latest(s), text, workflow.Get(s, Attachments))),
		}

		out, err := structured.Complete[draft](ctx, env.Model, msgs, ComposerSchema, env.ChatOptions...)
		if err != nil || strings.TrimSpace(out.Body) == "" {
			if err == nil {
				err = ai.ErrEmptyResponse
			}
			env.Fallback("composer", "composer", err)
			u := workflow.With(nil, MailTitle, fallbackTitle)
			return workflow.With(u, MailBody, FallbackBody(text)), nil
		}

		u := workflow.With(nil, MailTitle, strings.TrimSpace(out.Title))
		return workflow.With(u, MailBody, strings.TrimSpace(out.Body)), nil
	}
}
