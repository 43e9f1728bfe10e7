package expense

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

var (
	ErrNotFound        = errors.New("expense not found")
	ErrNotOwner        = errors.New("expense belongs to another user")
	ErrNotPending      = errors.New("expense is no longer pending")
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrInvalidCurrency = errors.New("currency must be a valid 3-letter code")
	ErrFutureDate      = errors.New("expense date cannot be in the future")
	ErrMissingField    = errors.New("required field missing")
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=expense
type Repository interface {
	CreateExpense(ctx context.Context, e *Expense) error
	GetExpense(ctx context.Context, id uuid.UUID) (*Expense, error)
	ListExpenses(ctx context.Context, filter ListFilter) ([]*Expense, error)
	UpdateExpense(ctx context.Context, e *Expense) error
}

// ApprovalRepository holds the workflow step rows owned by expenses. The
// workflow engine is its only mutating caller.
type ApprovalRepository interface {
	CreateApprovals(ctx context.Context, approvals []*Approval) error
	GetApproval(ctx context.Context, id uuid.UUID) (*Approval, error)
	ListApprovalsForExpense(ctx context.Context, expenseID uuid.UUID) ([]*Approval, error)
	UpdateApproval(ctx context.Context, a *Approval) error
	ListPendingForApprover(ctx context.Context, approverID uuid.UUID) ([]*Approval, error)
}

// ListFilter narrows ListExpenses. The date range is inclusive over
// ExpenseDate; Search matches description or category, case-insensitive.
type ListFilter struct {
	CompanyID     *uuid.UUID
	SubmittedByID *uuid.UUID
	Status        *Status
	Category      *string
	DateFrom      *time.Time
	DateTo        *time.Time
	Search        string
}

// WorkflowBuilder constructs the approval chain for a freshly created
// expense. Implemented by the workflow engine; injected to keep the
// dependency pointing one way.
type WorkflowBuilder interface {
	Build(ctx context.Context, e *Expense) error
}

type Service struct {
	repo     Repository
	workflow WorkflowBuilder
}

func NewService(repo Repository, workflow WorkflowBuilder) *Service {
	return &Service{repo: repo, workflow: workflow}
}

type CreateParams struct {
	Amount          decimal.Decimal
	Currency        string
	ConvertedAmount *decimal.Decimal
	BaseCurrency    string
	ExchangeRate    *decimal.Decimal
	Category        string
	Description     string
	Vendor          string
	ExpenseDate     time.Time
	ReceiptURL      string
	OCRExtracted    bool
	OCRConfidence   *float64
}

// Create stores a new PENDING expense for the submitter and builds its
// approval chain. The returned expense has submitter and approval rows
// attached.
func (s *Service) Create(ctx context.Context, params CreateParams, submitterID, companyID uuid.UUID) (*Expense, error) {
	if err := validateCreate(params); err != nil {
		return nil, err
	}

	e := &Expense{
		Amount:          params.Amount,
		Currency:        params.Currency,
		ConvertedAmount: params.ConvertedAmount,
		BaseCurrency:    params.BaseCurrency,
		ExchangeRate:    params.ExchangeRate,
		Category:        params.Category,
		Description:     params.Description,
		Vendor:          params.Vendor,
		ExpenseDate:     params.ExpenseDate,
		ReceiptURL:      params.ReceiptURL,
		OCRExtracted:    params.OCRExtracted,
		OCRConfidence:   params.OCRConfidence,
		Status:          StatusPending,
		SubmittedByID:   submitterID,
		CompanyID:       companyID,
	}
	if err := s.repo.CreateExpense(ctx, e); err != nil {
		return nil, err
	}

	if err := s.workflow.Build(ctx, e); err != nil {
		return nil, fmt.Errorf("building approval workflow: %w", err)
	}

	return s.repo.GetExpense(ctx, e.ID)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Expense, error) {
	return s.repo.GetExpense(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Expense, error) {
	return s.repo.ListExpenses(ctx, filter)
}

type UpdateParams struct {
	Amount      *decimal.Decimal
	Currency    *string
	Category    *string
	Description *string
	Vendor      *string
	ExpenseDate *time.Time
	ReceiptURL  *string
}

// Update applies a partial update. Only the submitter may edit, and only
// while the expense is still PENDING.
func (s *Service) Update(ctx context.Context, id, actorID uuid.UUID, params UpdateParams) (*Expense, error) {
	e, err := s.repo.GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}

	if e.SubmittedByID != actorID {
		return nil, ErrNotOwner
	}

	if e.Status != StatusPending {
		return nil, ErrNotPending
	}

	if params.Amount != nil {
		if !params.Amount.IsPositive() {
			return nil, ErrInvalidAmount
		}

		e.Amount = *params.Amount
	}

	if params.Currency != nil {
		if !validCurrency(*params.Currency) {
			return nil, ErrInvalidCurrency
		}

		e.Currency = *params.Currency
	}

	if params.Category != nil {
		e.Category = *params.Category
	}

	if params.Description != nil {
		e.Description = *params.Description
	}

	if params.Vendor != nil {
		e.Vendor = *params.Vendor
	}

	if params.ExpenseDate != nil {
		if futureDate(*params.ExpenseDate) {
			return nil, ErrFutureDate
		}

		e.ExpenseDate = *params.ExpenseDate
	}

	if params.ReceiptURL != nil {
		e.ReceiptURL = *params.ReceiptURL
	}

	if err := s.repo.UpdateExpense(ctx, e); err != nil {
		return nil, err
	}

	return s.repo.GetExpense(ctx, id)
}

// Delete soft-deletes the expense by marking it DELETED. Only the submitter
// may delete, and only while the expense is still PENDING. Approval rows are
// left in place.
func (s *Service) Delete(ctx context.Context, id, actorID uuid.UUID) error {
	e, err := s.repo.GetExpense(ctx, id)
	if err != nil {
		return err
	}

	if e.SubmittedByID != actorID {
		return ErrNotOwner
	}

	if e.Status != StatusPending {
		return ErrNotPending
	}

	e.Status = StatusDeleted

	return s.repo.UpdateExpense(ctx, e)
}

func validateCreate(params CreateParams) error {
	if !params.Amount.IsPositive() {
		return ErrInvalidAmount
	}

	if !validCurrency(params.Currency) {
		return ErrInvalidCurrency
	}

	if params.Category == "" || params.Description == "" {
		return ErrMissingField
	}

	if params.ExpenseDate.IsZero() {
		return ErrMissingField
	}

	if futureDate(params.ExpenseDate) {
		return ErrFutureDate
	}

	if params.ExchangeRate != nil && !params.ExchangeRate.IsPositive() {
		return ErrInvalidAmount
	}

	if params.OCRConfidence != nil && (*params.OCRConfidence < 0 || *params.OCRConfidence > 1) {
		return ErrMissingField
	}

	return nil
}

func validCurrency(code string) bool {
	_, err := currency.ParseISO(code)
	return err == nil
}

// futureDate reports whether d falls after the end of the current UTC day.
func futureDate(d time.Time) bool {
	now := time.Now().UTC()
	endOfToday := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)

	return d.After(endOfToday)
}
