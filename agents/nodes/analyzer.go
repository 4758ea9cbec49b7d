package nodes

import (
	"context"
	"fmt"

	ai "github.com/good-jinu/finance-operating-automation-sub000"
	"github.com/good-jinu/finance-operating-automation-sub000/records"
	"github.com/good-jinu/finance-operating-automation-sub000/schema"
	"github.com/good-jinu/finance-operating-automation-sub000/structured"
	"github.com/good-jinu/finance-operating-automation-sub000/workflow"
)

type extraction interface {
	split() (records.Criteria, records.Patch)
}

type personExtraction struct {
	CompanyName       string  `json:"company_name"`
	PersonName        string  `json:"person_name"`
	NewName           *string `json:"new_name"`
	Email             *string `json:"email"`
	PhoneNumber       *string `json:"phone_number"`
	Position          *string `json:"position"`
	CanSign           *bool   `json:"can_sign"`
	CanApprovePayment *bool   `json:"can_approve_payment"`
}

func (e personExtraction) split() (records.Criteria, records.Patch) {
	return records.PersonCriteria{Company: e.CompanyName, PersonName: e.PersonName},
		records.PersonPatch{
			Name:              e.NewName,
			Email:             e.Email,
			PhoneNumber:       e.PhoneNumber,
			Position:          e.Position,
			CanSign:           e.CanSign,
			CanApprovePayment: e.CanApprovePayment,
		}
}

type accountExtraction struct {
	CompanyName      string  `json:"company_name"`
	AccountNumber    string  `json:"account_number"`
	AccountHolder    string  `json:"account_holder"`
	BankName         string  `json:"bank_name"`
	NewBankName      *string `json:"new_bank_name"`
	NewAccountNumber *string `json:"new_account_number"`
	NewAccountHolder *string `json:"new_account_holder"`
	NewPurpose       *string `json:"new_purpose"`
}

func (e accountExtraction) split() (records.Criteria, records.Patch) {
	return records.AccountCriteria{
			Company:       e.CompanyName,
			AccountNumber: e.AccountNumber,
			AccountHolder: e.AccountHolder,
			BankName:      e.BankName,
		}, records.AccountPatch{
			BankName:      e.NewBankName,
			AccountNumber: e.NewAccountNumber,
			AccountHolder: e.NewAccountHolder,
			Purpose:       e.NewPurpose,
		}
}

type sealExtraction struct {
	CompanyName    string  `json:"company_name"`
	SealImagePath  *string `json:"seal_image_path"`
	NewDescription *string `json:"description"`
}

func (e sealExtraction) split() (records.Criteria, records.Patch) {
	return records.SealCriteria{Company: e.CompanyName},
		records.SealPatch{SealImagePath: e.SealImagePath, Description: e.NewDescription}
}

var (
	personSchema = ai.ResponseSchema{
		Name:        "authorized_person_update",
		Description: "Identify an authorized person and the fields to change.",
		Schema: schema.Object().
			Field("company_name", schema.String().Desc("회사명").Required()).
			Field("person_name", schema.String().Desc("변경 대상 수권자의 현재 이름")).
			Field("new_name", schema.String().Desc("새 이름")).
			Field("email", schema.String().Format("email").Desc("새 이메일 주소")).
			Field("phone_number", schema.String().Desc("새 전화번호")).
			Field("position", schema.String().Desc("새 직위")).
			Field("can_sign", schema.Bool().Desc("서명 권한 여부")).
			Field("can_approve_payment", schema.Bool().Desc("결제 승인 권한 여부")).
			MustBuild(),
	}

	accountSchema = ai.ResponseSchema{
		Name:        "payment_account_update",
		Description: "Identify a payment account and the fields to change.",
		Schema: schema.Object().
			Field("company_name", schema.String().Desc("회사명").Required()).
			Field("account_number", schema.String().Desc("변경 대상 계좌의 현재 계좌번호")).
			Field("account_holder", schema.String().Desc("변경 대상 계좌의 현재 예금주")).
			Field("bank_name", schema.String().Desc("변경 대상 계좌의 현재 은행명")).
			Field("new_bank_name", schema.String().Desc("새 은행명")).
			Field("new_account_number", schema.String().Desc("새 계좌번호")).
			Field("new_account_holder", schema.String().Desc("새 예금주")).
			Field("new_purpose", schema.String().Desc("새 용도")).
			MustBuild(),
	}

	sealSchema = ai.ResponseSchema{
		Name:        "official_seal_update",
		Description: "Identify the company whose latest seal changes and the new values.",
		Schema: schema.Object().
			Field("company_name", schema.String().Desc("회사명").Required()).
			Field("seal_image_path", schema.String().Desc("새 인감 이미지 경로")).
			Field("description", schema.String().Desc("새 인감 설명")).
			MustBuild(),
	}
)

// AnalyzerSchema returns the response schema used for kind.
func AnalyzerSchema(kind records.Kind) ai.ResponseSchema {
	switch kind {
	case records.KindPaymentAccount:
		return accountSchema
	case records.KindOfficialSeal:
		return sealSchema
	default:
		return personSchema
	}
}

// Analyzer extracts search criteria and update data for kind. On failure it
// records a diagnostic in result_message and leaves criteria unset.
func Analyzer(env Env, kind records.Kind) workflow.NodeFunc {
	node := "analyzer." + string(kind)
	return func(ctx context.Context, s *workflow.State) (workflow.Update, error) {
		msgs := []ai.Message{
			ai.SystemMessage(fmt.Sprintf(analyzerPrompt, kind.Label())),
			ai.UserMessage(analyzerInput(s)),
		}

		var (
			crit  records.Criteria
			patch records.Patch
			err   error
		)
		switch kind {
		case records.KindAuthorizedPerson:
			crit, patch, err = extract[personExtraction](ctx, env, msgs, personSchema)
		case records.KindPaymentAccount:
			crit, patch, err = extract[accountExtraction](ctx, env, msgs, accountSchema)
		case records.KindOfficialSeal:
			crit, patch, err = extract[sealExtraction](ctx, env, msgs, sealSchema)
		default:
			err = fmt.Errorf("unsupported kind %q", kind)
		}

		u := workflow.With(nil, UpdateType, kind)
		if err != nil {
			env.Fallback(node, "analyzer", err)
			return workflow.With(u, ResultMessage, analyzerDiagnostic(kind)), nil
		}
		workflow.With(u, SearchCriteria, crit)
		return workflow.With(u, UpdateData, patch), nil
	}
}

func extract[T extraction](ctx context.Context, env Env, msgs []ai.Message, rs ai.ResponseSchema) (records.Criteria, records.Patch, error) {
	out, err := structured.Complete[T](ctx, env.Model, msgs, rs, env.ChatOptions...)
	if err != nil {
		return nil, nil, err
	}
	crit, patch := out.split()
	return crit, patch, nil
}

func analyzerInput(s *workflow.State) string {
	if plan := workflow.Get(s, Plan); plan != "" {
		return "[처리 계획]\n" + plan + "\n\n[고객 메시지]\n" + Latest(s)
	}
	return Latest(s)
}

func analyzerDiagnostic(kind records.Kind) string {
	return fmt.Sprintf("요청 내용에서 %s 변경 정보를 확인하지 못했습니다. 회사명과 변경하실 내용을 다시 확인해 주시기 바랍니다.", kind.Label())
}
