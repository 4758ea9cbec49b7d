package sqlstore

import (
	"context"
	"fmt"

	"github.com/good-jinu/finance-operating-automation-sub000/records"
)

const sealColumns = "id, company_id, seal_image_path, description, created_at, updated_at"

func scanSeal(row interface{ Scan(...any) error }) (records.OfficialSeal, error) {
	var (
		seal             records.OfficialSeal
		created, updated int64
	)
	if err := row.Scan(&seal.ID, &seal.CompanyID, &seal.SealImagePath, &seal.Description, &created, &updated); err != nil {
		return seal, err
	}
	seal.CreatedAt = fromMillis(created)
	seal.UpdatedAt = fromMillis(updated)
	return seal, nil
}

func (s *Store) LatestSeal(ctx context.Context, companyID int64) (*records.OfficialSeal, error) {
	row := s.queryRow(ctx,
		"SELECT "+sealColumns+" FROM official_seals WHERE company_id = ? ORDER BY created_at DESC, id DESC LIMIT 1",
		companyID)
	seal, err := scanSeal(row)
	if err != nil {
		return nil, notFound(err)
	}
	return &seal, nil
}

func (s *Store) ListSeals(ctx context.Context, companyID int64) ([]records.OfficialSeal, error) {
	rows, err := s.query(ctx,
		"SELECT "+sealColumns+" FROM official_seals WHERE company_id = ? ORDER BY id", companyID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list seals: %w", err)
	}
	defer rows.Close()
	return collect(rows, scanSeal)
}

func (s *Store) UpdateSeal(ctx context.Context, id int64, p records.SealPatch) (bool, error) {
	var u setter
	u.str("seal_image_path", p.SealImagePath)
	u.str("description", p.Description)
	return s.update(ctx, "official_seals", id, &u)
}

func (s *Store) CreateSeal(ctx context.Context, seal *records.OfficialSeal) error {
	if seal.CreatedAt.IsZero() {
		seal.CreatedAt = s.now()
	}
	seal.UpdatedAt = seal.CreatedAt
	id, err := s.insert(ctx,
		"INSERT INTO official_seals (company_id, seal_image_path, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		seal.CompanyID, seal.SealImagePath, seal.Description, millis(seal.CreatedAt), millis(seal.UpdatedAt))
	if err != nil {
		return fmt.Errorf("sqlstore: create seal: %w", err)
	}
	seal.ID = id
	return nil
}
