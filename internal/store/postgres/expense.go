package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spendflow/spendflow/internal/expense"
)

const selectExpenseColumns = `
	e.id, e.amount, e.currency, e.converted_amount, e.base_currency, e.exchange_rate,
	e.category, e.description, e.vendor, e.expense_date, e.receipt_url,
	e.ocr_extracted, e.ocr_confidence, e.status, e.submitted_by, e.company_id,
	e.created_at, e.updated_at,
	s.id, s.full_name, s.email, s.avatar
`

const expenseJoins = `
	FROM expenses e
	LEFT JOIN users s ON e.submitted_by = s.id
`

// scanExpense reads an expense row with its submitter summary. The submitter
// join is LEFT so records survive user deactivation.
func scanExpense(sc scanner) (*expense.Expense, error) {
	var (
		e          expense.Expense
		converted  decimal.NullDecimal
		rate       decimal.NullDecimal
		confidence sql.NullFloat64
		subID      uuid.NullUUID
		subName    sql.NullString
		subEmail   sql.NullString
		subAvatar  sql.NullString
	)

	if err := sc.Scan(
		&e.ID, &e.Amount, &e.Currency, &converted, &e.BaseCurrency, &rate,
		&e.Category, &e.Description, &e.Vendor, &e.ExpenseDate, &e.ReceiptURL,
		&e.OCRExtracted, &confidence, &e.Status, &e.SubmittedByID, &e.CompanyID,
		&e.CreatedAt, &e.UpdatedAt,
		&subID, &subName, &subEmail, &subAvatar,
	); err != nil {
		return nil, err
	}

	if converted.Valid {
		e.ConvertedAmount = &converted.Decimal
	}

	if rate.Valid {
		e.ExchangeRate = &rate.Decimal
	}

	if confidence.Valid {
		e.OCRConfidence = &confidence.Float64
	}

	if subID.Valid {
		e.SubmittedBy = &expense.UserSummary{
			ID:       subID.UUID,
			FullName: subName.String,
			Email:    subEmail.String,
			Avatar:   subAvatar.String,
		}
	}

	return &e, nil
}

func (s *Store) CreateExpense(ctx context.Context, e *expense.Expense) error {
	query := `
		INSERT INTO expenses (
			amount, currency, converted_amount, base_currency, exchange_rate,
			category, description, vendor, expense_date, receipt_url,
			ocr_extracted, ocr_confidence, status, submitted_by, company_id,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		e.Amount,
		e.Currency,
		decimalOrNil(e.ConvertedAmount),
		e.BaseCurrency,
		decimalOrNil(e.ExchangeRate),
		e.Category,
		e.Description,
		e.Vendor,
		e.ExpenseDate,
		e.ReceiptURL,
		e.OCRExtracted,
		e.OCRConfidence,
		e.Status,
		e.SubmittedByID,
		e.CompanyID,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating expense: %w", err)
	}

	return nil
}

func (s *Store) GetExpense(ctx context.Context, id uuid.UUID) (*expense.Expense, error) {
	query := `SELECT ` + selectExpenseColumns + expenseJoins + ` WHERE e.id = $1`

	e, err := scanExpense(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, expense.ErrNotFound
		}

		return nil, fmt.Errorf("getting expense: %w", err)
	}

	approvals, err := s.ListApprovalsForExpense(ctx, e.ID)
	if err != nil {
		return nil, err
	}

	e.Approvals = approvals

	return e, nil
}

func (s *Store) ListExpenses(ctx context.Context, filter expense.ListFilter) ([]*expense.Expense, error) {
	query := `SELECT ` + selectExpenseColumns + expenseJoins + ` WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.CompanyID != nil {
		query += fmt.Sprintf(" AND e.company_id = $%d", argIdx)

		args = append(args, *filter.CompanyID)
		argIdx++
	}

	if filter.SubmittedByID != nil {
		query += fmt.Sprintf(" AND e.submitted_by = $%d", argIdx)

		args = append(args, *filter.SubmittedByID)
		argIdx++
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND e.status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	if filter.Category != nil {
		query += fmt.Sprintf(" AND e.category = $%d", argIdx)

		args = append(args, *filter.Category)
		argIdx++
	}

	if filter.DateFrom != nil {
		query += fmt.Sprintf(" AND e.expense_date >= $%d", argIdx)

		args = append(args, *filter.DateFrom)
		argIdx++
	}

	if filter.DateTo != nil {
		query += fmt.Sprintf(" AND e.expense_date <= $%d", argIdx)

		args = append(args, *filter.DateTo)
		argIdx++
	}

	if filter.Search != "" {
		query += fmt.Sprintf(" AND (e.description ILIKE $%d OR e.category ILIKE $%d)", argIdx, argIdx)

		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}

	query += " ORDER BY e.created_at DESC, e.id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*expense.Expense

	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning expense: %w", err)
		}

		expenses = append(expenses, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating expense rows: %w", err)
	}

	for _, e := range expenses {
		approvals, err := s.ListApprovalsForExpense(ctx, e.ID)
		if err != nil {
			return nil, err
		}

		e.Approvals = approvals
	}

	return expenses, nil
}

func (s *Store) UpdateExpense(ctx context.Context, e *expense.Expense) error {
	query := `
		UPDATE expenses
		SET amount = $1, currency = $2, converted_amount = $3, base_currency = $4,
			exchange_rate = $5, category = $6, description = $7, vendor = $8,
			expense_date = $9, receipt_url = $10, status = $11, updated_at = NOW()
		WHERE id = $12
	`

	res, err := s.db.ExecContext(ctx, query,
		e.Amount,
		e.Currency,
		decimalOrNil(e.ConvertedAmount),
		e.BaseCurrency,
		decimalOrNil(e.ExchangeRate),
		e.Category,
		e.Description,
		e.Vendor,
		e.ExpenseDate,
		e.ReceiptURL,
		e.Status,
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("updating expense: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return expense.ErrNotFound
	}

	return nil
}

func decimalOrNil(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}

	return *d
}
