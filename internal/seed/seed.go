// Package seed provisions a small demo tenant through the real services so
// every invariant (workflow construction included) holds for the seeded data.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spendflow/spendflow/internal/auth"
	"github.com/spendflow/spendflow/internal/expense"
	"github.com/spendflow/spendflow/internal/rule"
	"github.com/spendflow/spendflow/internal/user"
)

const (
	adminEmail    = "admin@demo.spendflow.dev"
	managerEmail  = "manager@demo.spendflow.dev"
	employeeEmail = "employee@demo.spendflow.dev"
	demoPassword  = "demo-password-123"
)

type Seeder struct {
	auth     *auth.Service
	users    *user.Service
	rules    *rule.Service
	expenses *expense.Service
}

func New(authSvc *auth.Service, users *user.Service, rules *rule.Service, expenses *expense.Service) *Seeder {
	return &Seeder{auth: authSvc, users: users, rules: rules, expenses: expenses}
}

// Run creates the demo company, three users, an approval rule and a handful
// of expenses. It is a no-op when the demo admin already exists.
func (s *Seeder) Run(ctx context.Context) error {
	if _, err := s.users.GetByEmail(ctx, adminEmail); err == nil {
		return nil
	} else if !errors.Is(err, user.ErrNotFound) {
		return fmt.Errorf("checking demo admin: %w", err)
	}

	admin, _, err := s.auth.Signup(ctx, auth.SignupParams{
		Email:       adminEmail,
		Password:    demoPassword,
		FullName:    "Dana Admin",
		CompanyName: "Demo Co",
		Country:     "United States",
	})
	if err != nil {
		return fmt.Errorf("creating demo company: %w", err)
	}

	managerHash, err := auth.HashPassword(demoPassword)
	if err != nil {
		return err
	}

	manager, err := s.users.Create(ctx, user.CreateParams{
		Email:        managerEmail,
		PasswordHash: managerHash,
		FullName:     "Morgan Manager",
		Role:         user.RoleManager,
		CompanyID:    admin.CompanyID,
	})
	if err != nil {
		return fmt.Errorf("creating demo manager: %w", err)
	}

	employee, err := s.users.Create(ctx, user.CreateParams{
		Email:        employeeEmail,
		PasswordHash: managerHash,
		FullName:     "Evan Employee",
		Role:         user.RoleEmployee,
		CompanyID:    admin.CompanyID,
		ManagerID:    &manager.ID,
	})
	if err != nil {
		return fmt.Errorf("creating demo employee: %w", err)
	}

	threshold := decimal.NewFromInt(500)

	if _, err := s.rules.Create(ctx, admin.CompanyID, rule.CreateParams{
		Name:            "Standard Approval",
		ManagerFirst:    true,
		ConditionalType: rule.ConditionalAmountThreshold,
		AmountThreshold: &threshold,
	}); err != nil {
		return fmt.Errorf("creating demo rule: %w", err)
	}

	demo := []expense.CreateParams{
		{
			Amount:      decimal.NewFromFloat(42.50),
			Currency:    "USD",
			Category:    "Food & Dining",
			Description: "Team lunch",
			Vendor:      "Corner Bistro",
			ExpenseDate: time.Now().UTC().AddDate(0, 0, -3),
		},
		{
			Amount:      decimal.NewFromFloat(380.00),
			Currency:    "USD",
			Category:    "Travel",
			Description: "Train tickets for client visit",
			ExpenseDate: time.Now().UTC().AddDate(0, 0, -10),
		},
		{
			Amount:      decimal.NewFromFloat(129.99),
			Currency:    "USD",
			Category:    "Software & Subscriptions",
			Description: "Design tool annual license",
			ExpenseDate: time.Now().UTC().AddDate(0, 0, -1),
		},
	}

	for _, params := range demo {
		if _, err := s.expenses.Create(ctx, params, employee.ID, admin.CompanyID); err != nil {
			return fmt.Errorf("creating demo expense: %w", err)
		}
	}

	slog.Info("seeded demo tenant", "company", admin.CompanyID, "admin", adminEmail)

	return nil
}
