package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/spendflow/spendflow/internal/company"
	"github.com/spendflow/spendflow/internal/user"
)

const selectUserColumns = `
	u.id, u.email, u.password_hash, u.full_name, u.role, u.company_id, u.manager_id,
	u.is_active, u.avatar, u.created_at, u.updated_at,
	c.id, c.name, c.country, c.base_currency, c.address, c.contact_email, c.contact_phone,
	c.is_active, c.created_at, c.updated_at,
	m.id, m.full_name, m.email, m.avatar
`

const userJoins = `
	FROM users u
	JOIN companies c ON u.company_id = c.id
	LEFT JOIN users m ON u.manager_id = m.id AND m.is_active
`

// scanUser reads a user row with its company and optional manager summary.
func scanUser(sc scanner) (*user.User, error) {
	var (
		u         user.User
		c         company.Company
		managerID uuid.NullUUID
		mID       uuid.NullUUID
		mName     sql.NullString
		mEmail    sql.NullString
		mAvatar   sql.NullString
	)

	if err := sc.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.CompanyID, &managerID,
		&u.IsActive, &u.Avatar, &u.CreatedAt, &u.UpdatedAt,
		&c.ID, &c.Name, &c.Country, &c.BaseCurrency, &c.Address, &c.ContactEmail, &c.ContactPhone,
		&c.IsActive, &c.CreatedAt, &c.UpdatedAt,
		&mID, &mName, &mEmail, &mAvatar,
	); err != nil {
		return nil, err
	}

	if managerID.Valid {
		id := managerID.UUID
		u.ManagerID = &id
	}

	u.Company = &c

	if mID.Valid {
		u.Manager = &user.Summary{
			ID:       mID.UUID,
			FullName: mName.String,
			Email:    mEmail.String,
			Avatar:   mAvatar.String,
		}
	}

	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (email, password_hash, full_name, role, company_id, manager_id, is_active, avatar, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		u.Email,
		u.PasswordHash,
		u.FullName,
		u.Role,
		u.CompanyID,
		uuidOrNil(u.ManagerID),
		u.IsActive,
		u.Avatar,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}

	return nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	query := `SELECT ` + selectUserColumns + userJoins + ` WHERE u.id = $1 AND u.is_active`

	u, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, user.ErrNotFound
		}

		return nil, fmt.Errorf("getting user: %w", err)
	}

	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT ` + selectUserColumns + userJoins + ` WHERE LOWER(u.email) = LOWER($1) AND u.is_active`

	u, err := scanUser(s.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, user.ErrNotFound
		}

		return nil, fmt.Errorf("getting user by email: %w", err)
	}

	return u, nil
}

func (s *Store) ListUsers(ctx context.Context, filter user.ListFilter) ([]*user.User, error) {
	query := `SELECT ` + selectUserColumns + userJoins + ` WHERE u.is_active`

	var args []any

	argIdx := 1

	if filter.CompanyID != nil {
		query += fmt.Sprintf(" AND u.company_id = $%d", argIdx)

		args = append(args, *filter.CompanyID)
		argIdx++
	}

	if filter.Role != nil {
		query += fmt.Sprintf(" AND u.role = $%d", argIdx)

		args = append(args, *filter.Role)
		argIdx++
	}

	if filter.Search != "" {
		query += fmt.Sprintf(" AND (u.full_name ILIKE $%d OR u.email ILIKE $%d)", argIdx, argIdx)

		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}

	query += " ORDER BY u.created_at ASC, u.id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []*user.User

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}

		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}

	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *user.User) error {
	query := `
		UPDATE users
		SET email = $1, full_name = $2, role = $3, manager_id = $4, is_active = $5, avatar = $6, updated_at = NOW()
		WHERE id = $7
	`

	res, err := s.db.ExecContext(ctx, query,
		u.Email, u.FullName, u.Role, uuidOrNil(u.ManagerID), u.IsActive, u.Avatar, u.ID,
	)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.ErrNotFound
	}

	return nil
}

func (s *Store) DeactivateUser(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE users
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1
	`

	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivating user: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.ErrNotFound
	}

	return nil
}

func uuidOrNil(id *uuid.UUID) any {
	if id == nil {
		return nil
	}

	return *id
}
