package nodes

import (
	"context"
	"errors"
	"fmt"

	"github.com/good-jinu/finance-operating-automation-sub000/records"
	"github.com/good-jinu/finance-operating-automation-sub000/workflow"
)

// errTargetNotFound marks a lookup miss inside the executor transaction.
var errTargetNotFound = errors.New("target not found")

// Executor applies the analyzed update to exactly one record and reports
// the outcome in result_message. The lookup and the update share one
// transaction.
func Executor(env Env, repo records.Repository) workflow.NodeFunc {
	return func(ctx context.Context, s *workflow.State) (workflow.Update, error) {
		kind := workflow.Get(s, UpdateType)
		crit := workflow.Get(s, SearchCriteria)
		patch := workflow.Get(s, UpdateData)

		if field := missingPrerequisite(kind, crit, patch); field != "" {
			if workflow.Get(s, ResultMessage) != "" {
				// Keep the analyzer diagnostic.
				return nil, nil
			}
			return workflow.With(nil, ResultMessage, missingMessage(kind, field)), nil
		}

		company := records.NormalizeName(crit.CompanyName())
		msg, err := execute(ctx, repo, company, crit, patch)
		if err != nil {
			env.Log().Warn("record update failed", "kind", kind, "company", company, "error", err)
			msg = fmt.Sprintf("%s 회사의 %s 정보를 변경하는 중 오류가 발생했습니다. 담당자가 확인 후 다시 안내드리겠습니다.", company, kind.Label())
		}
		return workflow.With(nil, ResultMessage, msg), nil
	}
}

// missingPrerequisite names the first absent input, or "" when the update
// can run.
func missingPrerequisite(kind records.Kind, crit records.Criteria, patch records.Patch) string {
	switch {
	case kind == "":
		return "update_type"
	case crit == nil || crit.Kind() != kind:
		return "search_criteria"
	case patch == nil || patch.Kind() != kind || patch.Empty():
		return "update_data"
	}
	return crit.Missing()
}

func missingMessage(kind records.Kind, field string) string {
	label := kind.Label()
	if kind == "" {
		label = "요청"
	}
	return fmt.Sprintf("%s 변경에 필요한 정보가 부족합니다 (%s). 회사명과 변경 대상, 변경하실 내용을 함께 알려주시기 바랍니다.", label, field)
}

func execute(ctx context.Context, repo records.Repository, company string, crit records.Criteria, patch records.Patch) (string, error) {
	kind := crit.Kind()
	var (
		msg     string
		updated bool
	)
	err := repo.InTx(ctx, func(ctx context.Context, tx records.Repository) error {
		c, err := tx.FindCompanyByName(ctx, company)
		if errors.Is(err, records.ErrNotFound) {
			msg = fmt.Sprintf("'%s' 회사를 찾을 수 없습니다. 회사명을 다시 확인해 주시기 바랍니다.", company)
			return nil
		}
		if err != nil {
			return err
		}

		updated, err = apply(ctx, tx, c.ID, crit, patch)
		if errors.Is(err, errTargetNotFound) || errors.Is(err, records.ErrNotFound) {
			msg = notFoundMessage(company, crit)
			return nil
		}
		return err
	})
	if err != nil {
		return "", err
	}
	if msg != "" {
		return msg, nil
	}
	if !updated {
		return fmt.Sprintf("%s 회사의 %s 정보 변경에 실패했습니다. 담당자가 확인 후 다시 안내드리겠습니다.", company, kind.Label()), nil
	}
	return fmt.Sprintf("%s 회사의 %s 정보가 성공적으로 변경되었습니다.", company, kind.Label()), nil
}

// apply resolves the single target record and updates it.
func apply(ctx context.Context, tx records.Repository, companyID int64, crit records.Criteria, patch records.Patch) (bool, error) {
	switch c := crit.(type) {
	case records.PersonCriteria:
		p, err := tx.FindPersonByName(ctx, companyID, records.NormalizeName(c.PersonName))
		if err != nil {
			return false, err
		}
		return tx.UpdatePerson(ctx, p.ID, patch.(records.PersonPatch))

	case records.AccountCriteria:
		a, err := resolveAccount(ctx, tx, companyID, c)
		if err != nil {
			return false, err
		}
		return tx.UpdateAccount(ctx, a.ID, patch.(records.AccountPatch))

	case records.SealCriteria:
		seal, err := tx.LatestSeal(ctx, companyID)
		if err != nil {
			return false, err
		}
		return tx.UpdateSeal(ctx, seal.ID, patch.(records.SealPatch))
	}
	return false, fmt.Errorf("unsupported criteria %T", crit)
}

// resolveAccount looks up by account number, else holder, else the newest
// account at the bank.
func resolveAccount(ctx context.Context, tx records.Repository, companyID int64, c records.AccountCriteria) (*records.PaymentAccount, error) {
	switch {
	case c.AccountNumber != "":
		return tx.FindAccountByNumber(ctx, companyID, c.AccountNumber)
	case c.AccountHolder != "":
		return tx.FindAccountByHolder(ctx, companyID, records.NormalizeName(c.AccountHolder))
	}
	accounts, err := tx.FindAccountsByBank(ctx, companyID, records.NormalizeName(c.BankName))
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, errTargetNotFound
	}
	return &accounts[0], nil
}

func notFoundMessage(company string, crit records.Criteria) string {
	switch c := crit.(type) {
	case records.PersonCriteria:
		return fmt.Sprintf("'%s' 회사에서 '%s' 수권자 정보를 찾을 수 없습니다.", company, c.PersonName)
	case records.AccountCriteria:
		target := fmt.Sprintf("'%s' 은행", c.BankName)
		switch {
		case c.AccountNumber != "":
			target = fmt.Sprintf("계좌번호 '%s'", c.AccountNumber)
		case c.AccountHolder != "":
			target = fmt.Sprintf("예금주 '%s'", c.AccountHolder)
		}
		return fmt.Sprintf("'%s' 회사에서 %s에 해당하는 결제 계좌 정보를 찾을 수 없습니다.", company, target)
	}
	return fmt.Sprintf("'%s' 회사에 등록된 %s 정보를 찾을 수 없습니다.", company, crit.Kind().Label())
}
