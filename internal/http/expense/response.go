package expense

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spendflow/spendflow/internal/expense"
)

type expenseResponse struct {
	ID              uuid.UUID          `json:"id"`
	Amount          decimal.Decimal    `json:"amount"`
	Currency        string             `json:"currency"`
	ConvertedAmount *decimal.Decimal   `json:"convertedAmount,omitempty"`
	BaseCurrency    string             `json:"baseCurrency,omitempty"`
	ExchangeRate    *decimal.Decimal   `json:"exchangeRate,omitempty"`
	Category        string             `json:"category"`
	Description     string             `json:"description"`
	Vendor          string             `json:"vendor,omitempty"`
	ExpenseDate     time.Time          `json:"expenseDate"`
	ReceiptURL      string             `json:"receiptUrl,omitempty"`
	OCRExtracted    bool               `json:"ocrExtracted"`
	OCRConfidence   *float64           `json:"ocrConfidence,omitempty"`
	Status          expense.Status     `json:"status"`
	SubmittedByID   uuid.UUID          `json:"submittedById"`
	SubmittedBy     *summaryResponse   `json:"submittedBy,omitempty"`
	Approvals       []approvalResponse `json:"approvals,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

type approvalResponse struct {
	ID         uuid.UUID              `json:"id"`
	ApproverID uuid.UUID              `json:"approverId"`
	Approver   *summaryResponse       `json:"approver,omitempty"`
	Status     expense.ApprovalStatus `json:"status"`
	Comments   string                 `json:"comments,omitempty"`
	Sequence   int                    `json:"sequence"`
	ApprovedAt *time.Time             `json:"approvedAt,omitempty"`
}

type summaryResponse struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"fullName"`
	Email    string    `json:"email"`
	Avatar   string    `json:"avatar,omitempty"`
}

func toResponse(e *expense.Expense) expenseResponse {
	resp := expenseResponse{
		ID:              e.ID,
		Amount:          e.Amount,
		Currency:        e.Currency,
		ConvertedAmount: e.ConvertedAmount,
		BaseCurrency:    e.BaseCurrency,
		ExchangeRate:    e.ExchangeRate,
		Category:        e.Category,
		Description:     e.Description,
		Vendor:          e.Vendor,
		ExpenseDate:     e.ExpenseDate,
		ReceiptURL:      e.ReceiptURL,
		OCRExtracted:    e.OCRExtracted,
		OCRConfidence:   e.OCRConfidence,
		Status:          e.Status,
		SubmittedByID:   e.SubmittedByID,
		SubmittedBy:     toSummary(e.SubmittedBy),
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}

	for _, a := range e.Approvals {
		resp.Approvals = append(resp.Approvals, approvalResponse{
			ID:         a.ID,
			ApproverID: a.ApproverID,
			Approver:   toSummary(a.Approver),
			Status:     a.Status,
			Comments:   a.Comments,
			Sequence:   a.Sequence,
			ApprovedAt: a.ApprovedAt,
		})
	}

	return resp
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

type pageResponse struct {
	Expenses   []expenseResponse `json:"expenses"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	Total      int               `json:"total"`
	TotalPages int               `json:"totalPages"`
}

func toPageResponse(expenses []*expense.Expense, page, limit, total int) pageResponse {
	resp := pageResponse{
		Expenses:   make([]expenseResponse, len(expenses)),
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
	}

	for i, e := range expenses {
		resp.Expenses[i] = toResponse(e)
	}

	return resp
}
