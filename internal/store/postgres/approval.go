package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/spendflow/spendflow/internal/expense"
)

const selectApprovalColumns = `
	a.id, a.expense_id, a.approver_id, a.status, a.comments, a.sequence,
	a.approved_at, a.created_at, a.updated_at,
	p.id, p.full_name, p.email, p.avatar
`

const approvalJoins = `
	FROM approvals a
	LEFT JOIN users p ON a.approver_id = p.id
`

func scanApproval(sc scanner) (*expense.Approval, error) {
	var (
		a          expense.Approval
		approvedAt sql.NullTime
		apID       uuid.NullUUID
		apName     sql.NullString
		apEmail    sql.NullString
		apAvatar   sql.NullString
	)

	if err := sc.Scan(
		&a.ID, &a.ExpenseID, &a.ApproverID, &a.Status, &a.Comments, &a.Sequence,
		&approvedAt, &a.CreatedAt, &a.UpdatedAt,
		&apID, &apName, &apEmail, &apAvatar,
	); err != nil {
		return nil, err
	}

	if approvedAt.Valid {
		a.ApprovedAt = &approvedAt.Time
	}

	if apID.Valid {
		a.Approver = &expense.UserSummary{
			ID:       apID.UUID,
			FullName: apName.String,
			Email:    apEmail.String,
			Avatar:   apAvatar.String,
		}
	}

	return &a, nil
}

func (s *Store) CreateApprovals(ctx context.Context, approvals []*expense.Approval) error {
	if len(approvals) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning approval insert: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO approvals (expense_id, approver_id, status, comments, sequence, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	for _, a := range approvals {
		err := tx.QueryRowContext(ctx, query,
			a.ExpenseID, a.ApproverID, a.Status, a.Comments, a.Sequence,
		).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return fmt.Errorf("creating approval: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing approvals: %w", err)
	}

	return nil
}

func (s *Store) GetApproval(ctx context.Context, id uuid.UUID) (*expense.Approval, error) {
	query := `SELECT ` + selectApprovalColumns + approvalJoins + ` WHERE a.id = $1`

	a, err := scanApproval(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, expense.ErrNotFound
		}

		return nil, fmt.Errorf("getting approval: %w", err)
	}

	return a, nil
}

func (s *Store) ListApprovalsForExpense(ctx context.Context, expenseID uuid.UUID) ([]*expense.Approval, error) {
	query := `SELECT ` + selectApprovalColumns + approvalJoins + `
		WHERE a.expense_id = $1
		ORDER BY a.sequence ASC`

	rows, err := s.db.QueryContext(ctx, query, expenseID)
	if err != nil {
		return nil, fmt.Errorf("listing approvals: %w", err)
	}
	defer rows.Close()

	var approvals []*expense.Approval

	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning approval: %w", err)
		}

		approvals = append(approvals, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating approval rows: %w", err)
	}

	return approvals, nil
}

func (s *Store) UpdateApproval(ctx context.Context, a *expense.Approval) error {
	query := `
		UPDATE approvals
		SET status = $1, comments = $2, approved_at = $3, updated_at = NOW()
		WHERE id = $4
	`

	res, err := s.db.ExecContext(ctx, query, a.Status, a.Comments, a.ApprovedAt, a.ID)
	if err != nil {
		return fmt.Errorf("updating approval: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return expense.ErrNotFound
	}

	return nil
}

func (s *Store) ListPendingForApprover(ctx context.Context, approverID uuid.UUID) ([]*expense.Approval, error) {
	query := `SELECT ` + selectApprovalColumns + approvalJoins + `
		JOIN expenses e ON a.expense_id = e.id
		WHERE a.approver_id = $1 AND a.status = 'PENDING'
		ORDER BY e.created_at DESC, e.id DESC`

	rows, err := s.db.QueryContext(ctx, query, approverID)
	if err != nil {
		return nil, fmt.Errorf("listing pending approvals: %w", err)
	}
	defer rows.Close()

	var approvals []*expense.Approval

	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning pending approval: %w", err)
		}

		approvals = append(approvals, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pending approval rows: %w", err)
	}

	for _, a := range approvals {
		e, err := s.GetExpense(ctx, a.ExpenseID)
		if err != nil {
			return nil, err
		}

		a.Expense = e
	}

	return approvals, nil
}
