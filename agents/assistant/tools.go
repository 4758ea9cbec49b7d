package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/good-jinu/finance-operating-automation-sub000/mailbox"
	"github.com/good-jinu/finance-operating-automation-sub000/records"
	"github.com/good-jinu/finance-operating-automation-sub000/tool"
)

// DefaultMailLimit bounds list_mails when no limit is given.
const DefaultMailLimit = 20

type searchArgs struct {
	Query string `json:"query" desc:"회사명의 일부 또는 전체" required:"true"`
}

type mailArgs struct {
	Limit      int  `json:"limit" desc:"가져올 최대 메일 수 (기본 20)"`
	UnreadOnly bool `json:"unread_only" desc:"읽지 않은 메일만 조회"`
}

type companyArgs struct {
	CompanyName string `json:"company_name" desc:"정확한 회사명" required:"true"`
}

type personUpdateArgs struct {
	PersonID          int64   `json:"person_id" desc:"list_authorized_persons로 조회한 수권자 ID" required:"true"`
	Name              *string `json:"name" desc:"새 이름"`
	Email             *string `json:"email" desc:"새 이메일" format:"email"`
	PhoneNumber       *string `json:"phone_number" desc:"새 전화번호"`
	Position          *string `json:"position" desc:"새 직위"`
	CanSign           *bool   `json:"can_sign" desc:"서명 권한"`
	CanApprovePayment *bool   `json:"can_approve_payment" desc:"결제 승인 권한"`
}

type accountUpdateArgs struct {
	AccountID     int64   `json:"account_id" desc:"list_payment_accounts로 조회한 계좌 ID" required:"true"`
	BankName      *string `json:"bank_name" desc:"새 은행명"`
	AccountNumber *string `json:"account_number" desc:"새 계좌번호"`
	AccountHolder *string `json:"account_holder" desc:"새 예금주"`
	Purpose       *string `json:"purpose" desc:"새 용도"`
}

type sealUpdateArgs struct {
	SealID        int64   `json:"seal_id" desc:"list_official_seals로 조회한 인감 ID" required:"true"`
	SealImagePath *string `json:"seal_image_path" desc:"새 인감 이미지 경로"`
	Description   *string `json:"description" desc:"새 설명"`
}

type updateResult struct {
	ID      int64 `json:"id"`
	Updated bool  `json:"updated"`
}

var errNothingToUpdate = errors.New("변경할 값이 없습니다")

// Tools builds the chat tool registry. Every tool answers with a
// {"success":...} envelope.
func Tools(repo records.Repository, inbox mailbox.Inbox) *tool.Registry {
	t := &toolset{repo: repo, inbox: inbox}
	return tool.NewRegistry().Add(
		tool.Envelope("search_companies", "회사명으로 회사를 검색합니다.", t.searchCompanies),
		tool.Envelope("list_mails", "최근 수신 메일 목록을 조회합니다.", t.listMails),
		tool.Envelope("list_authorized_persons", "회사의 수권자 목록을 조회합니다.", t.listPersons),
		tool.Envelope("update_authorized_person", "수권자 정보를 ID로 변경합니다. 전달한 값만 변경됩니다.", t.updatePerson),
		tool.Envelope("list_payment_accounts", "회사의 결제 계좌 목록을 조회합니다.", t.listAccounts),
		tool.Envelope("update_payment_account", "결제 계좌 정보를 ID로 변경합니다. 전달한 값만 변경됩니다.", t.updateAccount),
		tool.Envelope("list_official_seals", "회사의 인감 목록을 조회합니다.", t.listSeals),
		tool.Envelope("update_official_seal", "인감 정보를 ID로 변경합니다. 전달한 값만 변경됩니다.", t.updateSeal),
	)
}

type toolset struct {
	repo  records.Repository
	inbox mailbox.Inbox
}

func (t *toolset) searchCompanies(ctx context.Context, args searchArgs) ([]records.Company, error) {
	return t.repo.SearchCompanies(ctx, records.NormalizeName(args.Query))
}

func (t *toolset) listMails(ctx context.Context, args mailArgs) ([]mailbox.Mail, error) {
	if args.UnreadOnly {
		return t.inbox.ListUnread(ctx)
	}
	limit := args.Limit
	if limit <= 0 {
		limit = DefaultMailLimit
	}
	return t.inbox.ListRecent(ctx, limit)
}

func (t *toolset) company(ctx context.Context, name string) (*records.Company, error) {
	c, err := t.repo.FindCompanyByName(ctx, name)
	if errors.Is(err, records.ErrNotFound) {
		return nil, fmt.Errorf("'%s' 회사를 찾을 수 없습니다", records.NormalizeName(name))
	}
	return c, err
}

func (t *toolset) listPersons(ctx context.Context, args companyArgs) ([]records.AuthorizedPerson, error) {
	c, err := t.company(ctx, args.CompanyName)
	if err != nil {
		return nil, err
	}
	return t.repo.ListPersons(ctx, c.ID)
}

func (t *toolset) listAccounts(ctx context.Context, args companyArgs) ([]records.PaymentAccount, error) {
	c, err := t.company(ctx, args.CompanyName)
	if err != nil {
		return nil, err
	}
	return t.repo.ListAccounts(ctx, c.ID)
}

func (t *toolset) listSeals(ctx context.Context, args companyArgs) ([]records.OfficialSeal, error) {
	c, err := t.company(ctx, args.CompanyName)
	if err != nil {
		return nil, err
	}
	return t.repo.ListSeals(ctx, c.ID)
}

func (t *toolset) updatePerson(ctx context.Context, args personUpdateArgs) (updateResult, error) {
	patch := records.PersonPatch{
		Name:              args.Name,
		Email:             args.Email,
		PhoneNumber:       args.PhoneNumber,
		Position:          args.Position,
		CanSign:           args.CanSign,
		CanApprovePayment: args.CanApprovePayment,
	}
	if patch.Empty() {
		return updateResult{}, errNothingToUpdate
	}
	return checkUpdate(args.PersonID, "수권자")(t.repo.UpdatePerson(ctx, args.PersonID, patch))
}

func (t *toolset) updateAccount(ctx context.Context, args accountUpdateArgs) (updateResult, error) {
	patch := records.AccountPatch{
		BankName:      args.BankName,
		AccountNumber: args.AccountNumber,
		AccountHolder: args.AccountHolder,
		Purpose:       args.Purpose,
	}
	if patch.Empty() {
		return updateResult{}, errNothingToUpdate
	}
	return checkUpdate(args.AccountID, "결제 계좌")(t.repo.UpdateAccount(ctx, args.AccountID, patch))
}

func (t *toolset) updateSeal(ctx context.Context, args sealUpdateArgs) (updateResult, error) {
	patch := records.SealPatch{SealImagePath: args.SealImagePath, Description: args.Description}
	if patch.Empty() {
		return updateResult{}, errNothingToUpdate
	}
	return checkUpdate(args.SealID, "인감")(t.repo.UpdateSeal(ctx, args.SealID, patch))
}

// checkUpdate turns an update-by-id outcome into a tool result.
func checkUpdate(id int64, label string) func(bool, error) (updateResult, error) {
	return func(ok bool, err error) (updateResult, error) {
		if err != nil {
			return updateResult{}, err
		}
		if !ok {
			return updateResult{}, fmt.Errorf("ID %d에 해당하는 %s 정보가 없습니다", id, label)
		}
		return updateResult{ID: id, Updated: true}, nil
	}
}
