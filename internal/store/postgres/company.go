package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/spendflow/spendflow/internal/company"
)

func (s *Store) CreateCompany(ctx context.Context, c *company.Company) error {
	query := `
		INSERT INTO companies (name, country, base_currency, address, contact_email, contact_phone, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		c.Name,
		c.Country,
		c.BaseCurrency,
		c.Address,
		c.ContactEmail,
		c.ContactPhone,
		c.IsActive,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating company: %w", err)
	}

	return nil
}

func (s *Store) GetCompany(ctx context.Context, id uuid.UUID) (*company.Company, error) {
	query := `
		SELECT id, name, country, base_currency, address, contact_email, contact_phone, is_active, created_at, updated_at
		FROM companies
		WHERE id = $1
	`

	var c company.Company

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Country, &c.BaseCurrency, &c.Address,
		&c.ContactEmail, &c.ContactPhone, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, company.ErrNotFound
		}

		return nil, fmt.Errorf("getting company: %w", err)
	}

	return &c, nil
}

func (s *Store) UpdateCompany(ctx context.Context, c *company.Company) error {
	query := `
		UPDATE companies
		SET name = $1, country = $2, base_currency = $3, address = $4,
			contact_email = $5, contact_phone = $6, is_active = $7, updated_at = NOW()
		WHERE id = $8
	`

	res, err := s.db.ExecContext(ctx, query,
		c.Name, c.Country, c.BaseCurrency, c.Address,
		c.ContactEmail, c.ContactPhone, c.IsActive, c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating company: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return company.ErrNotFound
	}

	return nil
}
