package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/spendflow/spendflow/internal/expense"
)

func (s *Store) CreateExpense(_ context.Context, e *expense.Expense) error {
	if e.SubmittedByID == uuid.Nil || e.CompanyID == uuid.Nil {
		return ErrMissingField
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e.ID, _ = s.assign()
	e.CreatedAt = now()
	e.UpdatedAt = e.CreatedAt

	s.expenses[e.ID] = cloneExpense(e)

	return nil
}

// GetExpense resolves an expense in any status, with its submitter summary
// and approval rows (sequence-ascending, approver summaries attached).
func (s *Store) GetExpense(_ context.Context, id uuid.UUID) (*expense.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.expenses[id]
	if !ok {
		return nil, expense.ErrNotFound
	}

	return s.joinExpense(e), nil
}

// ListExpenses filters the expense set and returns it newest-first by
// creation time. Soft-deleted expenses are not excluded; callers filter by
// status when they want them gone.
func (s *Store) ListExpenses(_ context.Context, filter expense.ListFilter) ([]*expense.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var expenses []*expense.Expense

	for _, e := range s.expenses {
		if !matchExpense(e, filter) {
			continue
		}

		expenses = append(expenses, s.joinExpense(e))
	}

	sort.Slice(expenses, func(i, j int) bool {
		if !expenses[i].CreatedAt.Equal(expenses[j].CreatedAt) {
			return expenses[i].CreatedAt.After(expenses[j].CreatedAt)
		}

		return s.order[expenses[i].ID] > s.order[expenses[j].ID]
	})

	return expenses, nil
}

func (s *Store) UpdateExpense(_ context.Context, e *expense.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.expenses[e.ID]; !ok {
		return expense.ErrNotFound
	}

	e.UpdatedAt = now()
	s.expenses[e.ID] = cloneExpense(e)

	return nil
}

func matchExpense(e *expense.Expense, filter expense.ListFilter) bool {
	if filter.CompanyID != nil && e.CompanyID != *filter.CompanyID {
		return false
	}

	if filter.SubmittedByID != nil && e.SubmittedByID != *filter.SubmittedByID {
		return false
	}

	if filter.Status != nil && e.Status != *filter.Status {
		return false
	}

	if filter.Category != nil && e.Category != *filter.Category {
		return false
	}

	if filter.DateFrom != nil && e.ExpenseDate.Before(*filter.DateFrom) {
		return false
	}

	if filter.DateTo != nil && e.ExpenseDate.After(*filter.DateTo) {
		return false
	}

	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(e.Description), needle) &&
			!strings.Contains(strings.ToLower(e.Category), needle) {
			return false
		}
	}

	return true
}

// joinExpense attaches the submitter summary and the sequence-ascending
// approval rows. Callers hold mu.
func (s *Store) joinExpense(e *expense.Expense) *expense.Expense {
	joined := cloneExpense(e)
	joined.SubmittedBy = s.userSummary(e.SubmittedByID)
	joined.Approvals = s.approvalsForExpense(e.ID)

	return joined
}

// userSummary resolves a summary for submitter/approver attachments. Unlike
// manager summaries, it resolves deactivated users too: historical records
// keep showing who acted on them. Callers hold mu.
func (s *Store) userSummary(id uuid.UUID) *expense.UserSummary {
	u, ok := s.users[id]
	if !ok {
		return nil
	}

	return &expense.UserSummary{
		ID:       u.ID,
		FullName: u.FullName,
		Email:    u.Email,
		Avatar:   u.Avatar,
	}
}

func cloneExpense(e *expense.Expense) *expense.Expense {
	clone := *e
	clone.SubmittedBy = nil
	clone.Approvals = nil

	if e.ConvertedAmount != nil {
		v := *e.ConvertedAmount
		clone.ConvertedAmount = &v
	}

	if e.ExchangeRate != nil {
		v := *e.ExchangeRate
		clone.ExchangeRate = &v
	}

	if e.OCRConfidence != nil {
		v := *e.OCRConfidence
		clone.OCRConfidence = &v
	}

	return &clone
}
