package sqlstore

import (
	"context"
	"fmt"

	"github.com/good-jinu/finance-operating-automation-sub000/records"
)

const personColumns = "id, company_id, name, email, phone_number, position, can_sign, can_approve_payment, created_at, updated_at"

func scanPerson(row interface{ Scan(...any) error }) (records.AuthorizedPerson, error) {
	var (
		p                records.AuthorizedPerson
		sign, approve    int64
		created, updated int64
	)
	err := row.Scan(&p.ID, &p.CompanyID, &p.Name, &p.Email, &p.PhoneNumber, &p.Position,
		&sign, &approve, &created, &updated)
	if err != nil {
		return p, err
	}
	p.CanSign = sign != 0
	p.CanApprovePayment = approve != 0
	p.CreatedAt = fromMillis(created)
	p.UpdatedAt = fromMillis(updated)
	return p, nil
}

func (s *Store) FindPersonByName(ctx context.Context, companyID int64, name string) (*records.AuthorizedPerson, error) {
	row := s.queryRow(ctx,
		"SELECT "+personColumns+" FROM authorized_persons WHERE company_id = ? AND name = ? ORDER BY id LIMIT 1",
		companyID, records.NormalizeName(name))
	p, err := scanPerson(row)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Store) ListPersons(ctx context.Context, companyID int64) ([]records.AuthorizedPerson, error) {
	rows, err := s.query(ctx,
		"SELECT "+personColumns+" FROM authorized_persons WHERE company_id = ? ORDER BY id", companyID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list persons: %w", err)
	}
	defer rows.Close()
	return collect(rows, scanPerson)
}

func (s *Store) UpdatePerson(ctx context.Context, id int64, p records.PersonPatch) (bool, error) {
	var u setter
	if p.Name != nil {
		name := records.NormalizeName(*p.Name)
		u.str("name", &name)
	}
	u.str("email", p.Email)
	u.str("phone_number", p.PhoneNumber)
	u.str("position", p.Position)
	u.boolean("can_sign", p.CanSign)
	u.boolean("can_approve_payment", p.CanApprovePayment)
	return s.update(ctx, "authorized_persons", id, &u)
}

func (s *Store) CreatePerson(ctx context.Context, p *records.AuthorizedPerson) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	p.UpdatedAt = p.CreatedAt
	p.Name = records.NormalizeName(p.Name)
	id, err := s.insert(ctx,
		`INSERT INTO authorized_persons (company_id, name, email, phone_number, position, can_sign, can_approve_payment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.CompanyID, p.Name, p.Email, p.PhoneNumber, p.Position,
		boolToInt(p.CanSign), boolToInt(p.CanApprovePayment), millis(p.CreatedAt), millis(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("sqlstore: create person: %w", err)
	}
	p.ID = id
	return nil
}
