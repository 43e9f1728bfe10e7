package expense

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an expense. PENDING is the only
// non-terminal state: the workflow engine moves an expense to APPROVED or
// REJECTED, and the submitter may move a still-pending expense to DELETED.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
	StatusDeleted  Status = "DELETED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusDeleted:
		return true
	}

	return false
}

// Terminal reports whether no further transition may leave the state.
func (s Status) Terminal() bool {
	return s != StatusPending
}

// Expense is a single submitted expense claim. Amount is in the submitted
// Currency; ConvertedAmount/BaseCurrency/ExchangeRate are optional values the
// caller computed elsewhere (conversion itself is not this service's concern).
type Expense struct {
	ID              uuid.UUID
	Amount          decimal.Decimal
	Currency        string // 3-letter ISO code
	ConvertedAmount *decimal.Decimal
	BaseCurrency    string
	ExchangeRate    *decimal.Decimal
	Category        string
	Description     string
	Vendor          string
	ExpenseDate     time.Time
	ReceiptURL      string
	OCRExtracted    bool
	OCRConfidence   *float64 // 0..1
	Status          Status
	SubmittedByID   uuid.UUID
	CompanyID       uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time

	SubmittedBy *UserSummary // Loaded via JOIN
	Approvals   []*Approval  // Loaded via JOIN, ascending by Sequence
}

// ApprovalStatus is the state of one workflow step.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// Approval is one workflow step: a decision required from one approver for one
// expense. Sequence values are contiguous starting at 1 per expense.
type Approval struct {
	ID         uuid.UUID
	ExpenseID  uuid.UUID
	ApproverID uuid.UUID
	Status     ApprovalStatus
	Comments   string
	Sequence   int
	ApprovedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Approver *UserSummary // Loaded via JOIN
	Expense  *Expense     // Loaded via JOIN in pending-approval views
}

// UserSummary is the submitter/approver projection attached to records.
type UserSummary struct {
	ID       uuid.UUID
	FullName string
	Email    string
	Avatar   string
}

// Categories is the suggested category list. Category remains free-form;
// this is a UI hint, not an enum.
var Categories = []string{
	"Travel",
	"Food & Dining",
	"Accommodation",
	"Transportation",
	"Office Supplies",
	"Entertainment",
	"Software & Subscriptions",
	"Training & Education",
	"Marketing",
	"Other",
}
