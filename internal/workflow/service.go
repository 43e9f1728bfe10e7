// Package workflow implements the approval state machine: constructing the
// ordered approval chain for a new expense and deriving expense status from
// the per-step decisions.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spendflow/spendflow/internal/expense"
	"github.com/spendflow/spendflow/internal/rule"
	"github.com/spendflow/spendflow/internal/user"
)

var (
	ErrApprovalNotFound = errors.New("approval not found")
	ErrNotApprover      = errors.New("actor is not the assigned approver")
	ErrAlreadyProcessed = errors.New("approval already processed")
)

// Decision is the outcome an approver records for one step.
type Decision string

const (
	DecisionApprove Decision = "APPROVED"
	DecisionReject  Decision = "REJECTED"
)

type Service struct {
	expenses  expense.Repository
	approvals expense.ApprovalRepository
	users     user.Repository
	rules     rule.Repository

	// mu serializes the read-decide-recompute sequence. The stores are
	// individually safe for concurrent use, but expense status must be
	// derived from a consistent snapshot of the approval rows.
	mu sync.Mutex
}

func NewService(expenses expense.Repository, approvals expense.ApprovalRepository, users user.Repository, rules rule.Repository) *Service {
	return &Service{
		expenses:  expenses,
		approvals: approvals,
		users:     users,
		rules:     rules,
	}
}

// Build constructs the approval chain for a freshly created expense from the
// company's first active rule. Sequence numbers are contiguous from 1: the
// submitter's manager first when the rule asks for it and a manager exists,
// then each sequential approver in rule order. Conditional rule fields are
// deliberately not consulted here; they only affect simulation reporting.
//
// A company without an active rule gets no approval rows, leaving the
// expense PENDING until a rule exists and a new expense is submitted.
func (s *Service) Build(ctx context.Context, e *expense.Expense) error {
	r, err := s.rules.FirstActiveRule(ctx, e.CompanyID)
	if err != nil {
		if errors.Is(err, rule.ErrNoActiveRule) {
			return nil
		}

		return fmt.Errorf("selecting approval rule: %w", err)
	}

	sequence := 1

	var steps []*expense.Approval

	if r.ManagerFirst {
		submitter, err := s.users.GetUser(ctx, e.SubmittedByID)
		if err != nil {
			return fmt.Errorf("looking up submitter: %w", err)
		}

		if submitter.ManagerID != nil {
			steps = append(steps, &expense.Approval{
				ExpenseID:  e.ID,
				ApproverID: *submitter.ManagerID,
				Status:     expense.ApprovalPending,
				Sequence:   sequence,
			})
			sequence++
		}
	}

	for _, approverID := range r.SequentialApprovers {
		steps = append(steps, &expense.Approval{
			ExpenseID:  e.ID,
			ApproverID: approverID,
			Status:     expense.ApprovalPending,
			Sequence:   sequence,
		})
		sequence++
	}

	if len(steps) == 0 {
		return nil
	}

	if err := s.approvals.CreateApprovals(ctx, steps); err != nil {
		return fmt.Errorf("creating approval steps: %w", err)
	}

	return nil
}

// Decide records an approver's decision on one step and recomputes the owning
// expense's status. The caller distinguishes failures with errors.Is:
// ErrApprovalNotFound, ErrNotApprover, ErrAlreadyProcessed.
func (s *Service) Decide(ctx context.Context, approvalID, actorID uuid.UUID, decision Decision, comments string) (*expense.Approval, *expense.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.approvals.GetApproval(ctx, approvalID)
	if err != nil {
		if errors.Is(err, expense.ErrNotFound) {
			return nil, nil, ErrApprovalNotFound
		}

		return nil, nil, err
	}

	if a.ApproverID != actorID {
		return nil, nil, ErrNotApprover
	}

	if a.Status != expense.ApprovalPending {
		return nil, nil, ErrAlreadyProcessed
	}

	now := time.Now().UTC()
	a.Status = expense.ApprovalStatus(decision)
	a.Comments = comments
	a.ApprovedAt = &now

	if err := s.approvals.UpdateApproval(ctx, a); err != nil {
		return nil, nil, fmt.Errorf("updating approval: %w", err)
	}

	if err := s.refreshExpenseStatus(ctx, a.ExpenseID); err != nil {
		return nil, nil, err
	}

	e, err := s.expenses.GetExpense(ctx, a.ExpenseID)
	if err != nil {
		return nil, nil, err
	}

	return a, e, nil
}

// refreshExpenseStatus derives expense status from a full scan of its
// approval rows:
//
//   - any REJECTED row rejects the expense (remaining pending steps are left
//     as-is, not cancelled)
//   - otherwise, zero PENDING rows approves it
//   - otherwise it stays PENDING
//
// The scan is deliberately not incremental; re-running it with no
// intervening decision is a no-op. A DELETED expense is never resurrected.
func (s *Service) refreshExpenseStatus(ctx context.Context, expenseID uuid.UUID) error {
	e, err := s.expenses.GetExpense(ctx, expenseID)
	if err != nil {
		return err
	}

	if e.Status == expense.StatusDeleted {
		return nil
	}

	approvals, err := s.approvals.ListApprovalsForExpense(ctx, expenseID)
	if err != nil {
		return err
	}

	if len(approvals) == 0 {
		return nil
	}

	status := expense.StatusApproved

	for _, a := range approvals {
		switch a.Status {
		case expense.ApprovalRejected:
			status = expense.StatusRejected
		case expense.ApprovalPending:
			if status != expense.StatusRejected {
				status = expense.StatusPending
			}
		}
	}

	if status == e.Status {
		return nil
	}

	e.Status = status

	if err := s.expenses.UpdateExpense(ctx, e); err != nil {
		return fmt.Errorf("updating expense status: %w", err)
	}

	return nil
}

// Per-item error strings surfaced by bulk decisions.
const (
	bulkErrNotFound    = "Approval not found"
	bulkErrNotApprover = "Not authorized"
	bulkErrAlreadyDone = "Already processed"
)

type BulkOutcome struct {
	ID       uuid.UUID
	Approval *expense.Approval
}

type BulkError struct {
	ID    uuid.UUID
	Error string
}

type BulkResult struct {
	Results []BulkOutcome
	Errors  []BulkError
}

// BulkDecide applies Decide to each id independently. A failing id is
// reported in Errors and does not abort the remaining ids; partial success
// is the contract.
func (s *Service) BulkDecide(ctx context.Context, approvalIDs []uuid.UUID, actorID uuid.UUID, decision Decision, comments string) (*BulkResult, error) {
	result := &BulkResult{}

	for _, id := range approvalIDs {
		a, _, err := s.Decide(ctx, id, actorID, decision, comments)
		if err != nil {
			result.Errors = append(result.Errors, BulkError{ID: id, Error: bulkErrorString(err)})
			continue
		}

		result.Results = append(result.Results, BulkOutcome{ID: id, Approval: a})
	}

	return result, nil
}

func bulkErrorString(err error) string {
	switch {
	case errors.Is(err, ErrApprovalNotFound):
		return bulkErrNotFound
	case errors.Is(err, ErrNotApprover):
		return bulkErrNotApprover
	case errors.Is(err, ErrAlreadyProcessed):
		return bulkErrAlreadyDone
	default:
		return err.Error()
	}
}

// PendingForApprover returns the approver's open steps, each with its
// expense attached. Steps whose expense can no longer be resolved are
// filtered out.
func (s *Service) PendingForApprover(ctx context.Context, approverID uuid.UUID) ([]*expense.Approval, error) {
	approvals, err := s.approvals.ListPendingForApprover(ctx, approverID)
	if err != nil {
		return nil, err
	}

	pending := approvals[:0]

	for _, a := range approvals {
		if a.Expense == nil {
			continue
		}

		pending = append(pending, a)
	}

	return pending, nil
}
