package nodes

import (
	ai "github.com/good-jinu/finance-operating-automation-sub000"
	"github.com/good-jinu/finance-operating-automation-sub000/records"
	"github.com/good-jinu/finance-operating-automation-sub000/workflow"
)

// State fields shared by the agent graphs.
var (
	Messages       = workflow.AppendKey[ai.Message]("messages")
	Plan           = workflow.ReplaceKey("plan", "")
	MailTitle      = workflow.ReplaceKey("mail_title", "")
	MailBody       = workflow.ReplaceKey("mail_body", "")
	Attachments    = workflow.AppendKey[string]("attachments")
	UpdateType     = workflow.ReplaceKey[records.Kind]("update_type", "")
	SearchCriteria = workflow.ReplaceKey[records.Criteria]("search_criteria", nil)
	UpdateData     = workflow.ReplaceKey[records.Patch]("update_data", nil)
	Description    = workflow.ReplaceIfPresentKey("description", "")
	InputFilepaths = workflow.AppendKey[string]("input_filepaths")
	ResultMessage  = workflow.ReplaceKey("result_message", "")
)

// Latest returns the text of the most recent inbound message.
func Latest(s *workflow.State) string {
	return ai.LatestContent(workflow.Get(s, Messages))
}

// Guidance returns the text the composer should build the reply around:
// the executor or analyzer result when set, else the description.
func Guidance(s *workflow.State) string {
	if msg := workflow.Get(s, ResultMessage); msg != "" {
		return msg
	}
	return workflow.Get(s, Description)
}

// Fields returns every shared field, for building graph schemas.
func Fields() []workflow.Field {
	return []workflow.Field{
		Messages, Plan, MailTitle, MailBody, Attachments, UpdateType,
		SearchCriteria, UpdateData, Description, InputFilepaths, ResultMessage,
	}
}

// Seed returns the initial update for an inbound message.
func Seed(inbound string, filepaths ...string) workflow.Update {
	u := workflow.With(nil, Messages, []ai.Message{ai.UserMessage(inbound)})
	if len(filepaths) > 0 {
		workflow.With(u, InputFilepaths, filepaths)
	}
	return u
}
