package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/spendflow/spendflow/internal/expense"
)

func (s *Store) CreateApprovals(_ context.Context, approvals []*expense.Approval) error {
	for _, a := range approvals {
		if a.ExpenseID == uuid.Nil || a.ApproverID == uuid.Nil {
			return ErrMissingField
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range approvals {
		a.ID, _ = s.assign()
		a.CreatedAt = now()
		a.UpdatedAt = a.CreatedAt

		s.approvals[a.ID] = cloneApproval(a)
	}

	return nil
}

func (s *Store) GetApproval(_ context.Context, id uuid.UUID) (*expense.Approval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.approvals[id]
	if !ok {
		return nil, expense.ErrNotFound
	}

	joined := cloneApproval(a)
	joined.Approver = s.userSummary(a.ApproverID)

	return joined, nil
}

func (s *Store) ListApprovalsForExpense(_ context.Context, expenseID uuid.UUID) ([]*expense.Approval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.approvalsForExpense(expenseID), nil
}

func (s *Store) UpdateApproval(_ context.Context, a *expense.Approval) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.approvals[a.ID]; !ok {
		return expense.ErrNotFound
	}

	a.UpdatedAt = now()
	s.approvals[a.ID] = cloneApproval(a)

	return nil
}

// ListPendingForApprover returns the approver's open steps newest-expense
// first, each with approver summary and joined expense attached.
func (s *Store) ListPendingForApprover(_ context.Context, approverID uuid.UUID) ([]*expense.Approval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pending []*expense.Approval

	for _, a := range s.approvals {
		if a.ApproverID != approverID || a.Status != expense.ApprovalPending {
			continue
		}

		joined := cloneApproval(a)
		joined.Approver = s.userSummary(a.ApproverID)

		if e, ok := s.expenses[a.ExpenseID]; ok {
			joined.Expense = s.joinExpense(e)
		}

		pending = append(pending, joined)
	}

	sort.Slice(pending, func(i, j int) bool {
		ei, ej := pending[i].Expense, pending[j].Expense
		if ei != nil && ej != nil && !ei.CreatedAt.Equal(ej.CreatedAt) {
			return ei.CreatedAt.After(ej.CreatedAt)
		}

		return s.order[pending[i].ID] > s.order[pending[j].ID]
	})

	return pending, nil
}

// approvalsForExpense collects an expense's steps sequence-ascending with
// approver summaries attached. Callers hold mu.
func (s *Store) approvalsForExpense(expenseID uuid.UUID) []*expense.Approval {
	var approvals []*expense.Approval

	for _, a := range s.approvals {
		if a.ExpenseID != expenseID {
			continue
		}

		joined := cloneApproval(a)
		joined.Approver = s.userSummary(a.ApproverID)

		approvals = append(approvals, joined)
	}

	sort.Slice(approvals, func(i, j int) bool {
		return approvals[i].Sequence < approvals[j].Sequence
	})

	return approvals
}

func cloneApproval(a *expense.Approval) *expense.Approval {
	clone := *a
	clone.Approver = nil
	clone.Expense = nil

	if a.ApprovedAt != nil {
		t := *a.ApprovedAt
		clone.ApprovedAt = &t
	}

	return &clone
}
