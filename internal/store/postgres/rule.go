package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spendflow/spendflow/internal/rule"
)

const selectRuleColumns = `
	id, company_id, name, manager_first, sequential_approvers, conditional_type,
	conditional_value, amount_threshold, is_active, created_at, updated_at
`

// sequential_approvers lives in a jsonb column; order matters, so an array
// table would need an explicit position column for no gain.
func scanRule(sc scanner) (*rule.Rule, error) {
	var (
		r         rule.Rule
		approvers []byte
		condType  sql.NullString
		condValue decimal.NullDecimal
		threshold decimal.NullDecimal
	)

	if err := sc.Scan(
		&r.ID, &r.CompanyID, &r.Name, &r.ManagerFirst, &approvers, &condType,
		&condValue, &threshold, &r.IsActive, &r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if len(approvers) > 0 {
		if err := json.Unmarshal(approvers, &r.SequentialApprovers); err != nil {
			return nil, fmt.Errorf("decoding sequential approvers: %w", err)
		}
	}

	if condType.Valid {
		r.ConditionalType = rule.ConditionalType(condType.String)
	}

	if condValue.Valid {
		r.ConditionalValue = &condValue.Decimal
	}

	if threshold.Valid {
		r.AmountThreshold = &threshold.Decimal
	}

	return &r, nil
}

func encodeApprovers(ids []uuid.UUID) ([]byte, error) {
	if ids == nil {
		ids = []uuid.UUID{}
	}

	return json.Marshal(ids)
}

func (s *Store) CreateRule(ctx context.Context, r *rule.Rule) error {
	approvers, err := encodeApprovers(r.SequentialApprovers)
	if err != nil {
		return fmt.Errorf("encoding sequential approvers: %w", err)
	}

	query := `
		INSERT INTO approval_rules (
			company_id, name, manager_first, sequential_approvers, conditional_type,
			conditional_value, amount_threshold, is_active, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err = s.db.QueryRowContext(ctx, query,
		r.CompanyID,
		r.Name,
		r.ManagerFirst,
		approvers,
		stringOrNil(string(r.ConditionalType)),
		decimalOrNil(r.ConditionalValue),
		decimalOrNil(r.AmountThreshold),
		r.IsActive,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating rule: %w", err)
	}

	return nil
}

func (s *Store) GetRule(ctx context.Context, id uuid.UUID) (*rule.Rule, error) {
	query := `SELECT ` + selectRuleColumns + ` FROM approval_rules WHERE id = $1`

	r, err := scanRule(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, rule.ErrNotFound
		}

		return nil, fmt.Errorf("getting rule: %w", err)
	}

	return r, nil
}

func (s *Store) ListRules(ctx context.Context, companyID uuid.UUID) ([]*rule.Rule, error) {
	query := `SELECT ` + selectRuleColumns + `
		FROM approval_rules
		WHERE company_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("listing rules: %w", err)
	}
	defer rows.Close()

	var rules []*rule.Rule

	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning rule: %w", err)
		}

		rules = append(rules, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rule rows: %w", err)
	}

	return rules, nil
}

func (s *Store) UpdateRule(ctx context.Context, r *rule.Rule) error {
	approvers, err := encodeApprovers(r.SequentialApprovers)
	if err != nil {
		return fmt.Errorf("encoding sequential approvers: %w", err)
	}

	query := `
		UPDATE approval_rules
		SET name = $1, manager_first = $2, sequential_approvers = $3, conditional_type = $4,
			conditional_value = $5, amount_threshold = $6, is_active = $7, updated_at = NOW()
		WHERE id = $8
	`

	res, err := s.db.ExecContext(ctx, query,
		r.Name,
		r.ManagerFirst,
		approvers,
		stringOrNil(string(r.ConditionalType)),
		decimalOrNil(r.ConditionalValue),
		decimalOrNil(r.AmountThreshold),
		r.IsActive,
		r.ID,
	)
	if err != nil {
		return fmt.Errorf("updating rule: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return rule.ErrNotFound
	}

	return nil
}

func (s *Store) FirstActiveRule(ctx context.Context, companyID uuid.UUID) (*rule.Rule, error) {
	query := `SELECT ` + selectRuleColumns + `
		FROM approval_rules
		WHERE company_id = $1 AND is_active
		ORDER BY created_at ASC, id ASC
		LIMIT 1`

	r, err := scanRule(s.db.QueryRowContext(ctx, query, companyID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, rule.ErrNoActiveRule
		}

		return nil, fmt.Errorf("getting first active rule: %w", err)
	}

	return r, nil
}

func stringOrNil(s string) any {
	if s == "" {
		return nil
	}

	return s
}
