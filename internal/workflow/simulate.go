package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spendflow/spendflow/internal/expense"
	"github.com/spendflow/spendflow/internal/rule"
	"github.com/spendflow/spendflow/internal/user"
)

var ErrRuleNotFound = errors.New("approval rule not found")

// SimStep is one step of a simulated chain.
type SimStep struct {
	Sequence int
	Approver user.Summary
	Role     user.Role
	Reason   string
}

// Conditional reports whether a rule's conditional fields would apply to the
// simulated amount. Only AMOUNT_THRESHOLD is evaluated; the other types are
// echoed back unevaluated, matching how little construction itself uses them.
type Conditional struct {
	Type      rule.ConditionalType
	Value     *decimal.Decimal
	Threshold *decimal.Decimal
	Applies   bool
}

type Simulation struct {
	RuleName           string
	ExpenseAmount      decimal.Decimal
	Employee           user.Summary
	Steps              []SimStep
	Conditional        Conditional
	EstimatedApprovers int
}

// Simulate previews the chain a rule would build for a hypothetical expense
// without creating anything. This is the only place conditional rule fields
// are evaluated at all.
func (s *Service) Simulate(ctx context.Context, ruleID, companyID, employeeID uuid.UUID, amount decimal.Decimal) (*Simulation, error) {
	r, err := s.rules.GetRule(ctx, ruleID)
	if err != nil {
		if errors.Is(err, rule.ErrNotFound) {
			return nil, ErrRuleNotFound
		}

		return nil, err
	}

	if r.CompanyID != companyID {
		return nil, ErrRuleNotFound
	}

	employee, err := s.users.GetUser(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("looking up employee: %w", err)
	}

	if employee.CompanyID != companyID {
		return nil, user.ErrNotFound
	}

	sim := &Simulation{
		RuleName:      r.Name,
		ExpenseAmount: amount,
		Employee:      *employee.Summary(),
	}

	sequence := 1

	if r.ManagerFirst && employee.ManagerID != nil {
		manager, err := s.users.GetUser(ctx, *employee.ManagerID)
		if err == nil {
			sim.Steps = append(sim.Steps, SimStep{
				Sequence: sequence,
				Approver: *manager.Summary(),
				Role:     manager.Role,
				Reason:   "Direct manager approval",
			})
			sequence++
		}
	}

	for _, approverID := range r.SequentialApprovers {
		approver, err := s.users.GetUser(ctx, approverID)
		if err != nil {
			continue
		}

		sim.Steps = append(sim.Steps, SimStep{
			Sequence: sequence,
			Approver: *approver.Summary(),
			Role:     approver.Role,
			Reason:   "Sequential approver",
		})
		sequence++
	}

	sim.Conditional = Conditional{
		Type:      r.ConditionalType,
		Value:     r.ConditionalValue,
		Threshold: r.AmountThreshold,
	}
	if r.ConditionalType == rule.ConditionalAmountThreshold && r.AmountThreshold != nil {
		sim.Conditional.Applies = amount.GreaterThanOrEqual(*r.AmountThreshold)
	}

	sim.EstimatedApprovers = len(sim.Steps)

	return sim, nil
}

// ApproverStats summarizes a manager's approval queue and their direct
// reports' spending.
type ApproverStats struct {
	PendingApprovals      int
	TeamExpenses          int
	TeamExpensesThisMonth int
	TotalTeamAmount       decimal.Decimal
	ApprovedThisWeek      int
}

func (s *Service) StatsForApprover(ctx context.Context, approverID, companyID uuid.UUID) (*ApproverStats, error) {
	pending, err := s.PendingForApprover(ctx, approverID)
	if err != nil {
		return nil, err
	}

	team, err := s.users.ListUsers(ctx, user.ListFilter{CompanyID: &companyID})
	if err != nil {
		return nil, err
	}

	reports := make(map[uuid.UUID]struct{})

	for _, member := range team {
		if member.ManagerID != nil && *member.ManagerID == approverID {
			reports[member.ID] = struct{}{}
		}
	}

	expenses, err := s.expenses.ListExpenses(ctx, expense.ListFilter{CompanyID: &companyID})
	if err != nil {
		return nil, err
	}

	stats := &ApproverStats{
		PendingApprovals: len(pending),
		TotalTeamAmount:  decimal.Zero,
	}

	now := time.Now().UTC()
	weekAgo := now.AddDate(0, 0, -7)

	for _, e := range expenses {
		if _, ok := reports[e.SubmittedByID]; !ok {
			continue
		}

		stats.TeamExpenses++
		stats.TotalTeamAmount = stats.TotalTeamAmount.Add(e.Amount)

		if e.CreatedAt.Year() == now.Year() && e.CreatedAt.Month() == now.Month() {
			stats.TeamExpensesThisMonth++
		}

		if e.Status == expense.StatusApproved && e.UpdatedAt.After(weekAgo) {
			stats.ApprovedThisWeek++
		}
	}

	return stats, nil
}
