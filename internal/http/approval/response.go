package approval

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spendflow/spendflow/internal/expense"
	"github.com/spendflow/spendflow/internal/workflow"
)

type approvalResponse struct {
	ID         uuid.UUID              `json:"id"`
	ExpenseID  uuid.UUID              `json:"expenseId"`
	ApproverID uuid.UUID              `json:"approverId"`
	Approver   *summaryResponse       `json:"approver,omitempty"`
	Status     expense.ApprovalStatus `json:"status"`
	Comments   string                 `json:"comments,omitempty"`
	Sequence   int                    `json:"sequence"`
	ApprovedAt *time.Time             `json:"approvedAt,omitempty"`
	Expense    *expenseResponse       `json:"expense,omitempty"`
}

type expenseResponse struct {
	ID          uuid.UUID        `json:"id"`
	Amount      decimal.Decimal  `json:"amount"`
	Currency    string           `json:"currency"`
	Category    string           `json:"category"`
	Description string           `json:"description"`
	ExpenseDate time.Time        `json:"expenseDate"`
	Status      expense.Status   `json:"status"`
	SubmittedBy *summaryResponse `json:"submittedBy,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

type summaryResponse struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"fullName"`
	Email    string    `json:"email"`
	Avatar   string    `json:"avatar,omitempty"`
}

func toResponse(a *expense.Approval) approvalResponse {
	resp := approvalResponse{
		ID:         a.ID,
		ExpenseID:  a.ExpenseID,
		ApproverID: a.ApproverID,
		Approver:   toSummary(a.Approver),
		Status:     a.Status,
		Comments:   a.Comments,
		Sequence:   a.Sequence,
		ApprovedAt: a.ApprovedAt,
	}

	if a.Expense != nil {
		resp.Expense = toExpense(a.Expense)
	}

	return resp
}

func toResponseList(approvals []*expense.Approval) []approvalResponse {
	resp := make([]approvalResponse, len(approvals))
	for i, a := range approvals {
		resp[i] = toResponse(a)
	}

	return resp
}

func toExpense(e *expense.Expense) *expenseResponse {
	return &expenseResponse{
		ID:          e.ID,
		Amount:      e.Amount,
		Currency:    e.Currency,
		Category:    e.Category,
		Description: e.Description,
		ExpenseDate: e.ExpenseDate,
		Status:      e.Status,
		SubmittedBy: toSummary(e.SubmittedBy),
		CreatedAt:   e.CreatedAt,
	}
}

func toSummary(s *expense.UserSummary) *summaryResponse {
	if s == nil {
		return nil
	}

	return &summaryResponse{
		ID:       s.ID,
		FullName: s.FullName,
		Email:    s.Email,
		Avatar:   s.Avatar,
	}
}

type decisionResponse struct {
	Approval      approvalResponse `json:"approval"`
	ExpenseStatus expense.Status   `json:"expenseStatus"`
}

func toDecisionResponse(a *expense.Approval, e *expense.Expense) decisionResponse {
	return decisionResponse{
		Approval:      toResponse(a),
		ExpenseStatus: e.Status,
	}
}

type bulkResponse struct {
	Results []bulkOutcome `json:"results"`
	Errors  []bulkError   `json:"errors"`
}

type bulkOutcome struct {
	ID       uuid.UUID        `json:"id"`
	Approval approvalResponse `json:"approval"`
}

type bulkError struct {
	ID    uuid.UUID `json:"id"`
	Error string    `json:"error"`
}

func toBulkResponse(result *workflow.BulkResult) bulkResponse {
	resp := bulkResponse{
		Results: make([]bulkOutcome, len(result.Results)),
		Errors:  make([]bulkError, len(result.Errors)),
	}

	for i, r := range result.Results {
		resp.Results[i] = bulkOutcome{ID: r.ID, Approval: toResponse(r.Approval)}
	}

	for i, e := range result.Errors {
		resp.Errors[i] = bulkError{ID: e.ID, Error: e.Error}
	}

	return resp
}

type statsResponse struct {
	PendingApprovals      int             `json:"pendingApprovals"`
	TeamExpenses          int             `json:"teamExpenses"`
	TeamExpensesThisMonth int             `json:"teamExpensesThisMonth"`
	TotalTeamAmount       decimal.Decimal `json:"totalTeamAmount"`
	ApprovedThisWeek      int             `json:"approvedThisWeek"`
}

func toStatsResponse(s *workflow.ApproverStats) statsResponse {
	return statsResponse{
		PendingApprovals:      s.PendingApprovals,
		TeamExpenses:          s.TeamExpenses,
		TeamExpensesThisMonth: s.TeamExpensesThisMonth,
		TotalTeamAmount:       s.TotalTeamAmount,
		ApprovedThisWeek:      s.ApprovedThisWeek,
	}
}
