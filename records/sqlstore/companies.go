package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/good-jinu/finance-operating-automation-sub000/records"
)

const companyColumns = "id, name, business_number, created_at"

func scanCompany(row interface{ Scan(...any) error }) (records.Company, error) {
	var (
		c       records.Company
		created int64
	)
	if err := row.Scan(&c.ID, &c.Name, &c.BusinessNumber, &created); err != nil {
		return c, err
	}
	c.CreatedAt = fromMillis(created)
	return c, nil
}

func (s *Store) FindCompanyByName(ctx context.Context, name string) (*records.Company, error) {
	row := s.queryRow(ctx, "SELECT "+companyColumns+" FROM companies WHERE name = ?", records.NormalizeName(name))
	c, err := scanCompany(row)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (s *Store) SearchCompanies(ctx context.Context, query string) ([]records.Company, error) {
	rows, err := s.query(ctx,
		"SELECT "+companyColumns+" FROM companies WHERE name LIKE ? ORDER BY name",
		"%"+records.NormalizeName(query)+"%")
	if err != nil {
		return nil, fmt.Errorf("sqlstore: search companies: %w", err)
	}
	defer rows.Close()
	return collect(rows, scanCompany)
}

func (s *Store) CreateCompany(ctx context.Context, c *records.Company) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	c.Name = records.NormalizeName(c.Name)
	id, err := s.insert(ctx,
		"INSERT INTO companies (name, business_number, created_at) VALUES (?, ?, ?)",
		c.Name, c.BusinessNumber, millis(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("sqlstore: create company: %w", err)
	}
	c.ID = id
	return nil
}

// collect scans every row with scan.
func collect[T any](rows *sql.Rows, scan func(interface{ Scan(...any) error }) (T, error)) ([]T, error) {
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
