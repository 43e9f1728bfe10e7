// Package analytics rolls filtered expense sets up into totals and
// breakdowns. It is a pure reduction over the query layer's output.
package analytics

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spendflow/spendflow/internal/expense"
)

type Service struct {
	expenses expense.Repository
}

func NewService(expenses expense.Repository) *Service {
	return &Service{expenses: expenses}
}

// Summary aggregates a filtered expense set. Breakdown keys follow the
// expenses' own values; months are keyed YYYY-MM from ExpenseDate.
type Summary struct {
	TotalExpenses     int
	TotalAmount       decimal.Decimal
	ApprovedCount     int
	ApprovedAmount    decimal.Decimal
	PendingCount      int
	PendingAmount     decimal.Decimal
	RejectedCount     int
	RejectedAmount    decimal.Decimal
	CategoryBreakdown map[string]decimal.Decimal
	MonthlyTrends     map[string]decimal.Decimal
}

// Summarize reduces the company's expenses matching filter. The companyID
// argument overrides any company filter supplied by the caller.
func (s *Service) Summarize(ctx context.Context, companyID uuid.UUID, filter expense.ListFilter) (*Summary, error) {
	filter.CompanyID = &companyID

	expenses, err := s.expenses.ListExpenses(ctx, filter)
	if err != nil {
		return nil, err
	}

	return Reduce(expenses), nil
}

// Reduce folds an expense list into a Summary. Deterministic for a given
// input list; no side effects.
func Reduce(expenses []*expense.Expense) *Summary {
	summary := &Summary{
		TotalExpenses:     len(expenses),
		TotalAmount:       decimal.Zero,
		ApprovedAmount:    decimal.Zero,
		PendingAmount:     decimal.Zero,
		RejectedAmount:    decimal.Zero,
		CategoryBreakdown: make(map[string]decimal.Decimal),
		MonthlyTrends:     make(map[string]decimal.Decimal),
	}

	for _, e := range expenses {
		summary.TotalAmount = summary.TotalAmount.Add(e.Amount)

		switch e.Status {
		case expense.StatusApproved:
			summary.ApprovedCount++
			summary.ApprovedAmount = summary.ApprovedAmount.Add(e.Amount)
		case expense.StatusPending:
			summary.PendingCount++
			summary.PendingAmount = summary.PendingAmount.Add(e.Amount)
		case expense.StatusRejected:
			summary.RejectedCount++
			summary.RejectedAmount = summary.RejectedAmount.Add(e.Amount)
		}

		summary.CategoryBreakdown[e.Category] = summary.CategoryBreakdown[e.Category].Add(e.Amount)

		month := e.ExpenseDate.UTC().Format("2006-01")
		summary.MonthlyTrends[month] = summary.MonthlyTrends[month].Add(e.Amount)
	}

	return summary
}
