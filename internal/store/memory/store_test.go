package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendflow/spendflow/internal/company"
	"github.com/spendflow/spendflow/internal/expense"
	"github.com/spendflow/spendflow/internal/rule"
	"github.com/spendflow/spendflow/internal/store/memory"
	"github.com/spendflow/spendflow/internal/user"
)

func newCompany(t *testing.T, s *memory.Store) *company.Company {
	t.Helper()

	c := &company.Company{Name: "Acme", BaseCurrency: "USD", IsActive: true}
	require.NoError(t, s.CreateCompany(context.Background(), c))

	return c
}

func newUser(t *testing.T, s *memory.Store, companyID uuid.UUID, email string, role user.Role) *user.User {
	t.Helper()

	u := &user.User{
		Email: email, PasswordHash: "x", FullName: email,
		Role: role, CompanyID: companyID, IsActive: true,
	}
	require.NoError(t, s.CreateUser(context.Background(), u))

	return u
}

func TestGetUser_JoinsCompanyAndManager(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	c := newCompany(t, s)

	manager := newUser(t, s, c.ID, "mgr@acme.test", user.RoleManager)

	u := &user.User{
		Email: "emp@acme.test", PasswordHash: "x", FullName: "Emp",
		Role: user.RoleEmployee, CompanyID: c.ID, ManagerID: &manager.ID, IsActive: true,
	}
	require.NoError(t, s.CreateUser(ctx, u))

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)

	require.NotNil(t, got.Company)
	assert.Equal(t, c.ID, got.Company.ID)
	require.NotNil(t, got.Manager)
	assert.Equal(t, manager.ID, got.Manager.ID)
}

func TestDeactivateUser_HiddenFromQueries(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	c := newCompany(t, s)
	u := newUser(t, s, c.ID, "gone@acme.test", user.RoleEmployee)

	require.NoError(t, s.DeactivateUser(ctx, u.ID))

	_, err := s.GetUser(ctx, u.ID)
	assert.ErrorIs(t, err, user.ErrNotFound)

	_, err = s.GetUserByEmail(ctx, "gone@acme.test")
	assert.ErrorIs(t, err, user.ErrNotFound)

	users, err := s.ListUsers(ctx, user.ListFilter{CompanyID: &c.ID})
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestGetUserByEmail_CaseInsensitive(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	c := newCompany(t, s)
	u := newUser(t, s, c.ID, "Mixed@Acme.Test", user.RoleEmployee)

	got, err := s.GetUserByEmail(ctx, "mixed@acme.test")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestGetUser_DeactivatedManagerNotJoined(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	c := newCompany(t, s)
	manager := newUser(t, s, c.ID, "mgr@acme.test", user.RoleManager)

	u := &user.User{
		Email: "emp@acme.test", PasswordHash: "x", FullName: "Emp",
		Role: user.RoleEmployee, CompanyID: c.ID, ManagerID: &manager.ID, IsActive: true,
	}
	require.NoError(t, s.CreateUser(ctx, u))
	require.NoError(t, s.DeactivateUser(ctx, manager.ID))

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)

	// The dangling pointer id survives, the joined summary does not.
	assert.NotNil(t, got.ManagerID)
	assert.Nil(t, got.Manager)
}

func TestListUsers_Filters(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	c := newCompany(t, s)

	newUser(t, s, c.ID, "ada@acme.test", user.RoleAdmin)
	newUser(t, s, c.ID, "mgr@acme.test", user.RoleManager)
	newUser(t, s, c.ID, "eve@acme.test", user.RoleEmployee)

	role := user.RoleManager
	users, err := s.ListUsers(ctx, user.ListFilter{CompanyID: &c.ID, Role: &role})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "mgr@acme.test", users[0].Email)

	users, err = s.ListUsers(ctx, user.ListFilter{CompanyID: &c.ID, Search: "ADA"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "ada@acme.test", users[0].Email)
}

func newExpense(t *testing.T, s *memory.Store, companyID, submitterID uuid.UUID, amount int64, category string) *expense.Expense {
	t.Helper()

	e := &expense.Expense{
		Amount:        decimal.NewFromInt(amount),
		Currency:      "USD",
		Category:      category,
		Description:   category + " expense",
		ExpenseDate:   time.Now().UTC(),
		Status:        expense.StatusPending,
		SubmittedByID: submitterID,
		CompanyID:     companyID,
	}
	require.NoError(t, s.CreateExpense(context.Background(), e))

	return e
}

func TestListExpenses_NewestFirst(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	c := newCompany(t, s)
	u := newUser(t, s, c.ID, "emp@acme.test", user.RoleEmployee)

	first := newExpense(t, s, c.ID, u.ID, 10, "Travel")
	second := newExpense(t, s, c.ID, u.ID, 20, "Travel")
	third := newExpense(t, s, c.ID, u.ID, 30, "Travel")

	expenses, err := s.ListExpenses(ctx, expense.ListFilter{CompanyID: &c.ID})
	require.NoError(t, err)
	require.Len(t, expenses, 3)

	assert.Equal(t, third.ID, expenses[0].ID)
	assert.Equal(t, second.ID, expenses[1].ID)
	assert.Equal(t, first.ID, expenses[2].ID)
}

func TestListExpenses_DeletedNotExcluded(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	c := newCompany(t, s)
	u := newUser(t, s, c.ID, "emp@acme.test", user.RoleEmployee)

	e := newExpense(t, s, c.ID, u.ID, 10, "Travel")
	e.Status = expense.StatusDeleted
	require.NoError(t, s.UpdateExpense(ctx, e))

	expenses, err := s.ListExpenses(ctx, expense.ListFilter{CompanyID: &c.ID})
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, expense.StatusDeleted, expenses[0].Status)

	status := expense.StatusPending
	expenses, err = s.ListExpenses(ctx, expense.ListFilter{CompanyID: &c.ID, Status: &status})
	require.NoError(t, err)
	assert.Empty(t, expenses)
}

func TestListExpenses_SearchAndDateRange(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	c := newCompany(t, s)
	u := newUser(t, s, c.ID, "emp@acme.test", user.RoleEmployee)

	old := newExpense(t, s, c.ID, u.ID, 10, "Travel")
	old.ExpenseDate = time.Now().UTC().AddDate(0, -2, 0)
	require.NoError(t, s.UpdateExpense(ctx, old))

	newExpense(t, s, c.ID, u.ID, 20, "Marketing")

	expenses, err := s.ListExpenses(ctx, expense.ListFilter{CompanyID: &c.ID, Search: "market"})
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, "Marketing", expenses[0].Category)

	from := time.Now().UTC().AddDate(0, -1, 0)
	expenses, err = s.ListExpenses(ctx, expense.ListFilter{CompanyID: &c.ID, DateFrom: &from})
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, "Marketing", expenses[0].Category)
}

func TestGetExpense_SubmitterSurvivesDeactivation(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	c := newCompany(t, s)
	u := newUser(t, s, c.ID, "emp@acme.test", user.RoleEmployee)
	e := newExpense(t, s, c.ID, u.ID, 10, "Travel")

	require.NoError(t, s.DeactivateUser(ctx, u.ID))

	got, err := s.GetExpense(ctx, e.ID)
	require.NoError(t, err)
	require.NotNil(t, got.SubmittedBy)
	assert.Equal(t, u.ID, got.SubmittedBy.ID)
}

func TestApprovals_SequenceAscending(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	c := newCompany(t, s)
	emp := newUser(t, s, c.ID, "emp@acme.test", user.RoleEmployee)
	mgr := newUser(t, s, c.ID, "mgr@acme.test", user.RoleManager)
	fin := newUser(t, s, c.ID, "fin@acme.test", user.RoleAdmin)

	e := newExpense(t, s, c.ID, emp.ID, 10, "Travel")

	require.NoError(t, s.CreateApprovals(ctx, []*expense.Approval{
		{ExpenseID: e.ID, ApproverID: fin.ID, Status: expense.ApprovalPending, Sequence: 2},
		{ExpenseID: e.ID, ApproverID: mgr.ID, Status: expense.ApprovalPending, Sequence: 1},
	}))

	approvals, err := s.ListApprovalsForExpense(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, approvals, 2)
	assert.Equal(t, 1, approvals[0].Sequence)
	assert.Equal(t, mgr.ID, approvals[0].ApproverID)
	assert.Equal(t, 2, approvals[1].Sequence)
}

func TestListPendingForApprover_AttachesExpense(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	c := newCompany(t, s)
	emp := newUser(t, s, c.ID, "emp@acme.test", user.RoleEmployee)
	mgr := newUser(t, s, c.ID, "mgr@acme.test", user.RoleManager)

	e := newExpense(t, s, c.ID, emp.ID, 10, "Travel")
	require.NoError(t, s.CreateApprovals(ctx, []*expense.Approval{
		{ExpenseID: e.ID, ApproverID: mgr.ID, Status: expense.ApprovalPending, Sequence: 1},
	}))

	pending, err := s.ListPendingForApprover(ctx, mgr.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.NotNil(t, pending[0].Expense)
	assert.Equal(t, e.ID, pending[0].Expense.ID)

	pending[0].Status = expense.ApprovalApproved
	require.NoError(t, s.UpdateApproval(ctx, pending[0]))

	pending, err = s.ListPendingForApprover(ctx, mgr.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestFirstActiveRule_CreationOrderTieBreak(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	c := newCompany(t, s)

	first := &rule.Rule{CompanyID: c.ID, Name: "First", IsActive: true}
	require.NoError(t, s.CreateRule(ctx, first))

	second := &rule.Rule{CompanyID: c.ID, Name: "Second", IsActive: true}
	require.NoError(t, s.CreateRule(ctx, second))

	got, err := s.FirstActiveRule(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	first.IsActive = false
	require.NoError(t, s.UpdateRule(ctx, first))

	got, err = s.FirstActiveRule(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
}

func TestFirstActiveRule_NoneActive(t *testing.T) {
	s := memory.New()
	c := newCompany(t, s)

	_, err := s.FirstActiveRule(context.Background(), c.ID)
	assert.ErrorIs(t, err, rule.ErrNoActiveRule)
}

func TestCloneOnRead(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	c := newCompany(t, s)
	u := newUser(t, s, c.ID, "emp@acme.test", user.RoleEmployee)
	e := newExpense(t, s, c.ID, u.ID, 10, "Travel")

	got, err := s.GetExpense(ctx, e.ID)
	require.NoError(t, err)

	// Mutating a returned record must not leak into the store.
	got.Description = "tampered"

	again, err := s.GetExpense(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Travel expense", again.Description)
}
