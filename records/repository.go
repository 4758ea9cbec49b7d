package records

import "context"

// Companies looks up customer companies.
type Companies interface {
	// FindCompanyByName matches the normalized name exactly.
	FindCompanyByName(ctx context.Context, name string) (*Company, error)
	// SearchCompanies matches names containing query, ordered by name.
	SearchCompanies(ctx context.Context, query string) ([]Company, error)
	CreateCompany(ctx context.Context, c *Company) error
}

// Persons manages authorized persons.
type Persons interface {
	FindPersonByName(ctx context.Context, companyID int64, name string) (*AuthorizedPerson, error)
	ListPersons(ctx context.Context, companyID int64) ([]AuthorizedPerson, error)
	UpdatePerson(ctx context.Context, id int64, p PersonPatch) (bool, error)
	CreatePerson(ctx context.Context, p *AuthorizedPerson) error
}

// Accounts manages payment accounts.
type Accounts interface {
	FindAccountByNumber(ctx context.Context, companyID int64, number string) (*PaymentAccount, error)
	FindAccountByHolder(ctx context.Context, companyID int64, holder string) (*PaymentAccount, error)
	// FindAccountsByBank returns matches newest first.
	FindAccountsByBank(ctx context.Context, companyID int64, bank string) ([]PaymentAccount, error)
	ListAccounts(ctx context.Context, companyID int64) ([]PaymentAccount, error)
	UpdateAccount(ctx context.Context, id int64, p AccountPatch) (bool, error)
	CreateAccount(ctx context.Context, a *PaymentAccount) error
}

// Seals manages official seals.
type Seals interface {
	LatestSeal(ctx context.Context, companyID int64) (*OfficialSeal, error)
	ListSeals(ctx context.Context, companyID int64) ([]OfficialSeal, error)
	UpdateSeal(ctx context.Context, id int64, p SealPatch) (bool, error)
	CreateSeal(ctx context.Context, s *OfficialSeal) error
}

// Repository is the full record store.
type Repository interface {
	Companies
	Persons
	Accounts
	Seals

	// InTx runs fn against a repository whose operations commit together.
	// An error from fn rolls everything back.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Repository) error) error
}
