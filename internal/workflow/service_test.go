package workflow_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendflow/spendflow/internal/company"
	"github.com/spendflow/spendflow/internal/expense"
	"github.com/spendflow/spendflow/internal/rule"
	"github.com/spendflow/spendflow/internal/store/memory"
	"github.com/spendflow/spendflow/internal/user"
	"github.com/spendflow/spendflow/internal/workflow"
)

// fixture wires the engine against the in-memory store with one company,
// a manager, a finance approver and an employee reporting to the manager.
type fixture struct {
	store    *memory.Store
	svc      *workflow.Service
	company  *company.Company
	manager  *user.User
	finance  *user.User
	employee *user.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()
	store := memory.New()

	c := &company.Company{Name: "Acme", BaseCurrency: "USD", IsActive: true}
	require.NoError(t, store.CreateCompany(ctx, c))

	manager := &user.User{
		Email: "manager@acme.test", PasswordHash: "x", FullName: "Mae Manager",
		Role: user.RoleManager, CompanyID: c.ID, IsActive: true,
	}
	require.NoError(t, store.CreateUser(ctx, manager))

	finance := &user.User{
		Email: "finance@acme.test", PasswordHash: "x", FullName: "Fin Ops",
		Role: user.RoleAdmin, CompanyID: c.ID, IsActive: true,
	}
	require.NoError(t, store.CreateUser(ctx, finance))

	employee := &user.User{
		Email: "employee@acme.test", PasswordHash: "x", FullName: "Eve Employee",
		Role: user.RoleEmployee, CompanyID: c.ID, ManagerID: &manager.ID, IsActive: true,
	}
	require.NoError(t, store.CreateUser(ctx, employee))

	return &fixture{
		store:    store,
		svc:      workflow.NewService(store, store, store, store),
		company:  c,
		manager:  manager,
		finance:  finance,
		employee: employee,
	}
}

func (f *fixture) addRule(t *testing.T, r *rule.Rule) *rule.Rule {
	t.Helper()

	r.CompanyID = f.company.ID
	r.IsActive = true
	require.NoError(t, f.store.CreateRule(context.Background(), r))

	return r
}

func (f *fixture) submitExpense(t *testing.T, submitterID uuid.UUID) *expense.Expense {
	t.Helper()

	ctx := context.Background()
	e := &expense.Expense{
		Amount:        decimal.NewFromInt(100),
		Currency:      "USD",
		Category:      "Travel",
		Description:   "Taxi",
		Status:        expense.StatusPending,
		SubmittedByID: submitterID,
		CompanyID:     f.company.ID,
	}
	require.NoError(t, f.store.CreateExpense(ctx, e))
	require.NoError(t, f.svc.Build(ctx, e))

	loaded, err := f.store.GetExpense(ctx, e.ID)
	require.NoError(t, err)

	return loaded
}

func TestBuild_ManagerFirst(t *testing.T) {
	f := newFixture(t)
	f.addRule(t, &rule.Rule{Name: "Manager only", ManagerFirst: true})

	e := f.submitExpense(t, f.employee.ID)

	require.Len(t, e.Approvals, 1)
	assert.Equal(t, f.manager.ID, e.Approvals[0].ApproverID)
	assert.Equal(t, 1, e.Approvals[0].Sequence)
	assert.Equal(t, expense.ApprovalPending, e.Approvals[0].Status)
}

func TestBuild_ManagerFirstWithoutManager(t *testing.T) {
	f := newFixture(t)
	f.addRule(t, &rule.Rule{
		Name:                "Manager then finance",
		ManagerFirst:        true,
		SequentialApprovers: []uuid.UUID{f.finance.ID},
	})

	// The manager has no manager of their own, so only the sequential
	// approver step is created.
	e := f.submitExpense(t, f.manager.ID)

	require.Len(t, e.Approvals, 1)
	assert.Equal(t, f.finance.ID, e.Approvals[0].ApproverID)
	assert.Equal(t, 1, e.Approvals[0].Sequence)
}

func TestBuild_ManagerThenSequential(t *testing.T) {
	f := newFixture(t)
	f.addRule(t, &rule.Rule{
		Name:                "Two step",
		ManagerFirst:        true,
		SequentialApprovers: []uuid.UUID{f.finance.ID},
	})

	e := f.submitExpense(t, f.employee.ID)

	require.Len(t, e.Approvals, 2)
	assert.Equal(t, f.manager.ID, e.Approvals[0].ApproverID)
	assert.Equal(t, 1, e.Approvals[0].Sequence)
	assert.Equal(t, f.finance.ID, e.Approvals[1].ApproverID)
	assert.Equal(t, 2, e.Approvals[1].Sequence)
}

func TestBuild_NoActiveRule(t *testing.T) {
	f := newFixture(t)

	e := f.submitExpense(t, f.employee.ID)

	assert.Empty(t, e.Approvals)
	assert.Equal(t, expense.StatusPending, e.Status)
}

func TestBuild_FirstActiveRuleWins(t *testing.T) {
	f := newFixture(t)
	f.addRule(t, &rule.Rule{Name: "First", ManagerFirst: true})
	f.addRule(t, &rule.Rule{Name: "Second", SequentialApprovers: []uuid.UUID{f.finance.ID}})

	e := f.submitExpense(t, f.employee.ID)

	// The earliest-created active rule builds the chain.
	require.Len(t, e.Approvals, 1)
	assert.Equal(t, f.manager.ID, e.Approvals[0].ApproverID)
}

func TestDecide_PartialApprovalKeepsPending(t *testing.T) {
	f := newFixture(t)
	f.addRule(t, &rule.Rule{
		Name:                "Two step",
		ManagerFirst:        true,
		SequentialApprovers: []uuid.UUID{f.finance.ID},
	})

	e := f.submitExpense(t, f.employee.ID)

	a, updated, err := f.svc.Decide(context.Background(), e.Approvals[0].ID, f.manager.ID, workflow.DecisionApprove, "looks fine")
	require.NoError(t, err)

	assert.Equal(t, expense.ApprovalApproved, a.Status)
	assert.Equal(t, "looks fine", a.Comments)
	assert.NotNil(t, a.ApprovedAt)
	assert.Equal(t, expense.StatusPending, updated.Status)
}

func TestDecide_AllApproved(t *testing.T) {
	f := newFixture(t)
	f.addRule(t, &rule.Rule{
		Name:                "Two step",
		ManagerFirst:        true,
		SequentialApprovers: []uuid.UUID{f.finance.ID},
	})

	e := f.submitExpense(t, f.employee.ID)
	ctx := context.Background()

	_, updated, err := f.svc.Decide(ctx, e.Approvals[0].ID, f.manager.ID, workflow.DecisionApprove, "")
	require.NoError(t, err)
	require.Equal(t, expense.StatusPending, updated.Status)

	_, updated, err = f.svc.Decide(ctx, e.Approvals[1].ID, f.finance.ID, workflow.DecisionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, expense.StatusApproved, updated.Status)
}

func TestDecide_RejectionShortCircuits(t *testing.T) {
	f := newFixture(t)
	f.addRule(t, &rule.Rule{
		Name:                "Two step",
		ManagerFirst:        true,
		SequentialApprovers: []uuid.UUID{f.finance.ID},
	})

	e := f.submitExpense(t, f.employee.ID)

	_, updated, err := f.svc.Decide(context.Background(), e.Approvals[0].ID, f.manager.ID, workflow.DecisionReject, "no receipt")
	require.NoError(t, err)

	assert.Equal(t, expense.StatusRejected, updated.Status)

	// The remaining step stays PENDING rather than being cancelled.
	remaining, err := f.store.GetApproval(context.Background(), e.Approvals[1].ID)
	require.NoError(t, err)
	assert.Equal(t, expense.ApprovalPending, remaining.Status)
}

func TestDecide_WrongApprover(t *testing.T) {
	f := newFixture(t)
	f.addRule(t, &rule.Rule{Name: "Manager only", ManagerFirst: true})

	e := f.submitExpense(t, f.employee.ID)

	_, _, err := f.svc.Decide(context.Background(), e.Approvals[0].ID, f.finance.ID, workflow.DecisionApprove, "")
	assert.ErrorIs(t, err, workflow.ErrNotApprover)
}

func TestDecide_AlreadyProcessed(t *testing.T) {
	f := newFixture(t)
	f.addRule(t, &rule.Rule{Name: "Manager only", ManagerFirst: true})

	e := f.submitExpense(t, f.employee.ID)
	ctx := context.Background()

	_, _, err := f.svc.Decide(ctx, e.Approvals[0].ID, f.manager.ID, workflow.DecisionApprove, "")
	require.NoError(t, err)

	_, _, err = f.svc.Decide(ctx, e.Approvals[0].ID, f.manager.ID, workflow.DecisionReject, "")
	assert.ErrorIs(t, err, workflow.ErrAlreadyProcessed)
}

func TestDecide_UnknownApproval(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.Decide(context.Background(), uuid.New(), f.manager.ID, workflow.DecisionApprove, "")
	assert.ErrorIs(t, err, workflow.ErrApprovalNotFound)
}

func TestDecide_DeletedExpenseStaysDeleted(t *testing.T) {
	f := newFixture(t)
	f.addRule(t, &rule.Rule{Name: "Manager only", ManagerFirst: true})

	e := f.submitExpense(t, f.employee.ID)
	ctx := context.Background()

	e.Status = expense.StatusDeleted
	require.NoError(t, f.store.UpdateExpense(ctx, e))

	_, updated, err := f.svc.Decide(ctx, e.Approvals[0].ID, f.manager.ID, workflow.DecisionApprove, "")
	require.NoError(t, err)

	assert.Equal(t, expense.StatusDeleted, updated.Status)
}

func TestBulkDecide_PartialFailure(t *testing.T) {
	f := newFixture(t)
	f.addRule(t, &rule.Rule{Name: "Manager only", ManagerFirst: true})

	first := f.submitExpense(t, f.employee.ID)
	second := f.submitExpense(t, f.employee.ID)
	missing := uuid.New()

	ids := []uuid.UUID{first.Approvals[0].ID, missing, second.Approvals[0].ID}

	result, err := f.svc.BulkDecide(context.Background(), ids, f.manager.ID, workflow.DecisionApprove, "batch")
	require.NoError(t, err)

	assert.Len(t, result.Results, 2)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, missing, result.Errors[0].ID)
	assert.Equal(t, "Approval not found", result.Errors[0].Error)
}

func TestBulkDecide_NotAuthorized(t *testing.T) {
	f := newFixture(t)
	f.addRule(t, &rule.Rule{Name: "Manager only", ManagerFirst: true})

	e := f.submitExpense(t, f.employee.ID)

	result, err := f.svc.BulkDecide(context.Background(), []uuid.UUID{e.Approvals[0].ID}, f.finance.ID, workflow.DecisionApprove, "")
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Not authorized", result.Errors[0].Error)
	assert.Empty(t, result.Results)
}

func TestPendingForApprover(t *testing.T) {
	f := newFixture(t)
	f.addRule(t, &rule.Rule{Name: "Manager only", ManagerFirst: true})

	first := f.submitExpense(t, f.employee.ID)
	second := f.submitExpense(t, f.employee.ID)
	ctx := context.Background()

	pending, err := f.svc.PendingForApprover(ctx, f.manager.ID)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	for _, a := range pending {
		require.NotNil(t, a.Expense)
	}

	_, _, err = f.svc.Decide(ctx, first.Approvals[0].ID, f.manager.ID, workflow.DecisionApprove, "")
	require.NoError(t, err)

	pending, err = f.svc.PendingForApprover(ctx, f.manager.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ExpenseID)
}

func TestSimulate_AmountThreshold(t *testing.T) {
	f := newFixture(t)
	threshold := decimal.NewFromInt(500)
	r := f.addRule(t, &rule.Rule{
		Name:                "Thresholded",
		ManagerFirst:        true,
		SequentialApprovers: []uuid.UUID{f.finance.ID},
		ConditionalType:     rule.ConditionalAmountThreshold,
		AmountThreshold:     &threshold,
	})

	ctx := context.Background()

	sim, err := f.svc.Simulate(ctx, r.ID, f.company.ID, f.employee.ID, decimal.NewFromInt(750))
	require.NoError(t, err)

	assert.Equal(t, "Thresholded", sim.RuleName)
	require.Len(t, sim.Steps, 2)
	assert.Equal(t, "Direct manager approval", sim.Steps[0].Reason)
	assert.Equal(t, "Sequential approver", sim.Steps[1].Reason)
	assert.Equal(t, 2, sim.EstimatedApprovers)
	assert.True(t, sim.Conditional.Applies)

	sim, err = f.svc.Simulate(ctx, r.ID, f.company.ID, f.employee.ID, decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.False(t, sim.Conditional.Applies)
}

func TestSimulate_UnknownRule(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Simulate(context.Background(), uuid.New(), f.company.ID, f.employee.ID, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, workflow.ErrRuleNotFound)
}

func TestStatsForApprover(t *testing.T) {
	f := newFixture(t)
	f.addRule(t, &rule.Rule{Name: "Manager only", ManagerFirst: true})

	f.submitExpense(t, f.employee.ID)
	e := f.submitExpense(t, f.employee.ID)
	ctx := context.Background()

	_, _, err := f.svc.Decide(ctx, e.Approvals[0].ID, f.manager.ID, workflow.DecisionApprove, "")
	require.NoError(t, err)

	stats, err := f.svc.StatsForApprover(ctx, f.manager.ID, f.company.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.PendingApprovals)
	assert.Equal(t, 2, stats.TeamExpenses)
	assert.Equal(t, 1, stats.ApprovedThisWeek)
	assert.True(t, stats.TotalTeamAmount.Equal(decimal.NewFromInt(200)))
}
