// Package memstore is an in-memory records.Repository for tests and demos.
// It records every update call so tests can assert on mutations.
package memstore

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/good-jinu/finance-operating-automation-sub000/records"
)

// UpdateCall records one update-by-id invocation.
type UpdateCall struct {
	Kind records.Kind
	ID   int64
}

type dataset struct {
	companies []records.Company
	persons   []records.AuthorizedPerson
	accounts  []records.PaymentAccount
	seals     []records.OfficialSeal
	nextID    int64
}

func (d *dataset) clone() *dataset {
	return &dataset{
		companies: slices.Clone(d.companies),
		persons:   slices.Clone(d.persons),
		accounts:  slices.Clone(d.accounts),
		seals:     slices.Clone(d.seals),
		nextID:    d.nextID,
	}
}

// Store implements records.Repository in memory. It is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	txMu    sync.Mutex
	data    *dataset
	updates []UpdateCall
	now     func() time.Time
}

var _ records.Repository = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{data: &dataset{}, now: time.Now}
}

// Updates returns the update calls made so far.
func (s *Store) Updates() []UpdateCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.updates)
}

// InTx serializes fn against other transactions and restores the previous
// contents when fn fails.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx records.Repository) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	if err := fn(ctx, s); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) stamp(created *time.Time) (int64, time.Time) {
	s.data.nextID++
	now := s.now()
	if created.IsZero() {
		*created = now
	}
	return s.data.nextID, now
}

func (s *Store) FindCompanyByName(ctx context.Context, name string) (*records.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name = records.NormalizeName(name)
	for _, c := range s.data.companies {
		if records.NormalizeName(c.Name) == name {
			return &c, nil
		}
	}
	return nil, records.ErrNotFound
}

func (s *Store) SearchCompanies(ctx context.Context, query string) ([]records.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	query = records.NormalizeName(query)
	var out []records.Company
	for _, c := range s.data.companies {
		if strings.Contains(records.NormalizeName(c.Name), query) {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b records.Company) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

func (s *Store) CreateCompany(ctx context.Context, c *records.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID, _ = s.stamp(&c.CreatedAt)
	c.Name = records.NormalizeName(c.Name)
	s.data.companies = append(s.data.companies, *c)
	return nil
}

func (s *Store) FindPersonByName(ctx context.Context, companyID int64, name string) (*records.AuthorizedPerson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name = records.NormalizeName(name)
	for _, p := range s.data.persons {
		if p.CompanyID == companyID && records.NormalizeName(p.Name) == name {
			return &p, nil
		}
	}
	return nil, records.ErrNotFound
}

func (s *Store) ListPersons(ctx context.Context, companyID int64) ([]records.AuthorizedPerson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []records.AuthorizedPerson
	for _, p := range s.data.persons {
		if p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) UpdatePerson(ctx context.Context, id int64, patch records.PersonPatch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, UpdateCall{Kind: records.KindAuthorizedPerson, ID: id})
	for i := range s.data.persons {
		if s.data.persons[i].ID == id {
			patch.Apply(&s.data.persons[i])
			s.data.persons[i].UpdatedAt = s.now()
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CreatePerson(ctx context.Context, p *records.AuthorizedPerson) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID, p.UpdatedAt = s.stamp(&p.CreatedAt)
	p.Name = records.NormalizeName(p.Name)
	s.data.persons = append(s.data.persons, *p)
	return nil
}

func (s *Store) FindAccountByNumber(ctx context.Context, companyID int64, number string) (*records.PaymentAccount, error) {
	return s.findAccount(companyID, func(a records.PaymentAccount) bool {
		return a.AccountNumber == strings.TrimSpace(number)
	})
}

func (s *Store) FindAccountByHolder(ctx context.Context, companyID int64, holder string) (*records.PaymentAccount, error) {
	holder = records.NormalizeName(holder)
	return s.findAccount(companyID, func(a records.PaymentAccount) bool {
		return records.NormalizeName(a.AccountHolder) == holder
	})
}

func (s *Store) findAccount(companyID int64, match func(records.PaymentAccount) bool) (*records.PaymentAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.data.accounts {
		if a.CompanyID == companyID && match(a) {
			return &a, nil
		}
	}
	return nil, records.ErrNotFound
}

func (s *Store) FindAccountsByBank(ctx context.Context, companyID int64, bank string) ([]records.PaymentAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bank = records.NormalizeName(bank)
	var out []records.PaymentAccount
	for _, a := range s.data.accounts {
		if a.CompanyID == companyID && records.NormalizeName(a.BankName) == bank {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b records.PaymentAccount) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

func (s *Store) ListAccounts(ctx context.Context, companyID int64) ([]records.PaymentAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []records.PaymentAccount
	for _, a := range s.data.accounts {
		if a.CompanyID == companyID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) UpdateAccount(ctx context.Context, id int64, patch records.AccountPatch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, UpdateCall{Kind: records.KindPaymentAccount, ID: id})
	for i := range s.data.accounts {
		if s.data.accounts[i].ID == id {
			patch.Apply(&s.data.accounts[i])
			s.data.accounts[i].UpdatedAt = s.now()
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CreateAccount(ctx context.Context, a *records.PaymentAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID, a.UpdatedAt = s.stamp(&a.CreatedAt)
	s.data.accounts = append(s.data.accounts, *a)
	return nil
}

func (s *Store) LatestSeal(ctx context.Context, companyID int64) (*records.OfficialSeal, error) {
	seals, err := s.ListSeals(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if len(seals) == 0 {
		return nil, records.ErrNotFound
	}
	latest := slices.MaxFunc(seals, func(a, b records.OfficialSeal) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return &latest, nil
}

func (s *Store) ListSeals(ctx context.Context, companyID int64) ([]records.OfficialSeal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []records.OfficialSeal
	for _, seal := range s.data.seals {
		if seal.CompanyID == companyID {
			out = append(out, seal)
		}
	}
	return out, nil
}

func (s *Store) UpdateSeal(ctx context.Context, id int64, patch records.SealPatch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, UpdateCall{Kind: records.KindOfficialSeal, ID: id})
	for i := range s.data.seals {
		if s.data.seals[i].ID == id {
			patch.Apply(&s.data.seals[i])
			s.data.seals[i].UpdatedAt = s.now()
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CreateSeal(ctx context.Context, seal *records.OfficialSeal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seal.ID, seal.UpdatedAt = s.stamp(&seal.CreatedAt)
	s.data.seals = append(s.data.seals, *seal)
	return nil
}
