package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/good-jinu/finance-operating-automation-sub000/records"
)

const accountColumns = "id, company_id, bank_name, account_number, account_holder, purpose, created_at, updated_at"

func scanAccount(row interface{ Scan(...any) error }) (records.PaymentAccount, error) {
	var (
		a                records.PaymentAccount
		created, updated int64
	)
	err := row.Scan(&a.ID, &a.CompanyID, &a.BankName, &a.AccountNumber, &a.AccountHolder, &a.Purpose, &created, &updated)
	if err != nil {
		return a, err
	}
	a.CreatedAt = fromMillis(created)
	a.UpdatedAt = fromMillis(updated)
	return a, nil
}

func (s *Store) findAccount(ctx context.Context, companyID int64, column, value string) (*records.PaymentAccount, error) {
	row := s.queryRow(ctx,
		"SELECT "+accountColumns+" FROM payment_accounts WHERE company_id = ? AND "+column+" = ? ORDER BY id LIMIT 1",
		companyID, value)
	a, err := scanAccount(row)
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (s *Store) FindAccountByNumber(ctx context.Context, companyID int64, number string) (*records.PaymentAccount, error) {
	return s.findAccount(ctx, companyID, "account_number", strings.TrimSpace(number))
}

func (s *Store) FindAccountByHolder(ctx context.Context, companyID int64, holder string) (*records.PaymentAccount, error) {
	return s.findAccount(ctx, companyID, "account_holder", records.NormalizeName(holder))
}

func (s *Store) FindAccountsByBank(ctx context.Context, companyID int64, bank string) ([]records.PaymentAccount, error) {
	rows, err := s.query(ctx,
		"SELECT "+accountColumns+" FROM payment_accounts WHERE company_id = ? AND bank_name = ? ORDER BY created_at DESC, id DESC",
		companyID, records.NormalizeName(bank))
	if err != nil {
		return nil, fmt.Errorf("sqlstore: find accounts by bank: %w", err)
	}
	defer rows.Close()
	return collect(rows, scanAccount)
}

func (s *Store) ListAccounts(ctx context.Context, companyID int64) ([]records.PaymentAccount, error) {
	rows, err := s.query(ctx,
		"SELECT "+accountColumns+" FROM payment_accounts WHERE company_id = ? ORDER BY id", companyID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list accounts: %w", err)
	}
	defer rows.Close()
	return collect(rows, scanAccount)
}

func (s *Store) UpdateAccount(ctx context.Context, id int64, p records.AccountPatch) (bool, error) {
	var u setter
	if p.BankName != nil {
		bank := records.NormalizeName(*p.BankName)
		u.str("bank_name", &bank)
	}
	if p.AccountNumber != nil {
		number := strings.TrimSpace(*p.AccountNumber)
		u.str("account_number", &number)
	}
	if p.AccountHolder != nil {
		holder := records.NormalizeName(*p.AccountHolder)
		u.str("account_holder", &holder)
	}
	u.str("purpose", p.Purpose)
	return s.update(ctx, "payment_accounts", id, &u)
}

func (s *Store) CreateAccount(ctx context.Context, a *records.PaymentAccount) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	a.UpdatedAt = a.CreatedAt
	a.BankName = records.NormalizeName(a.BankName)
	a.AccountHolder = records.NormalizeName(a.AccountHolder)
	a.AccountNumber = strings.TrimSpace(a.AccountNumber)
	id, err := s.insert(ctx,
		`INSERT INTO payment_accounts (company_id, bank_name, account_number, account_holder, purpose, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.CompanyID, a.BankName, a.AccountNumber, a.AccountHolder, a.Purpose, millis(a.CreatedAt), millis(a.UpdatedAt))
	if err != nil {
		return fmt.Errorf("sqlstore: create account: %w", err)
	}
	a.ID = id
	return nil
}
