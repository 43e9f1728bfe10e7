package rule

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spendflow/spendflow/internal/user"
)

var (
	ErrNotFound           = errors.New("approval rule not found")
	ErrNoActiveRule       = errors.New("no active approval rule for company")
	ErrInvalidApprover    = errors.New("sequential approvers must be active managers or admins in the company")
	ErrInvalidConditional = errors.New("invalid conditional type")
	ErrMissingName        = errors.New("rule name is required")
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=rule
type Repository interface {
	CreateRule(ctx context.Context, r *Rule) error
	GetRule(ctx context.Context, id uuid.UUID) (*Rule, error)
	ListRules(ctx context.Context, companyID uuid.UUID) ([]*Rule, error)
	UpdateRule(ctx context.Context, r *Rule) error

	// FirstActiveRule returns the company's active rule with the lowest
	// creation time (id as tie-break), or ErrNoActiveRule.
	FirstActiveRule(ctx context.Context, companyID uuid.UUID) (*Rule, error)
}

type Service struct {
	repo  Repository
	users user.Repository
}

func NewService(repo Repository, users user.Repository) *Service {
	return &Service{repo: repo, users: users}
}

type CreateParams struct {
	Name                string
	ManagerFirst        bool
	SequentialApprovers []uuid.UUID
	ConditionalType     ConditionalType
	ConditionalValue    *decimal.Decimal
	AmountThreshold     *decimal.Decimal
}

func (s *Service) Create(ctx context.Context, companyID uuid.UUID, params CreateParams) (*Rule, error) {
	if params.Name == "" {
		return nil, ErrMissingName
	}

	if params.ConditionalType != "" && !params.ConditionalType.Valid() {
		return nil, ErrInvalidConditional
	}

	if err := s.validateApprovers(ctx, companyID, params.SequentialApprovers); err != nil {
		return nil, err
	}

	r := &Rule{
		CompanyID:           companyID,
		Name:                params.Name,
		ManagerFirst:        params.ManagerFirst,
		SequentialApprovers: params.SequentialApprovers,
		ConditionalType:     params.ConditionalType,
		ConditionalValue:    params.ConditionalValue,
		AmountThreshold:     params.AmountThreshold,
		IsActive:            true,
	}
	if err := s.repo.CreateRule(ctx, r); err != nil {
		return nil, err
	}

	return r, nil
}

type UpdateParams struct {
	Name                *string
	ManagerFirst        *bool
	SequentialApprovers []uuid.UUID
	ConditionalType     *ConditionalType
	ConditionalValue    *decimal.Decimal
	AmountThreshold     *decimal.Decimal
	IsActive            *bool
}

// Update applies a partial update scoped to companyID. Passing a non-nil
// SequentialApprovers slice replaces the whole list.
func (s *Service) Update(ctx context.Context, id, companyID uuid.UUID, params UpdateParams) (*Rule, error) {
	r, err := s.repo.GetRule(ctx, id)
	if err != nil {
		return nil, err
	}

	if r.CompanyID != companyID {
		return nil, ErrNotFound
	}

	if params.Name != nil {
		if *params.Name == "" {
			return nil, ErrMissingName
		}

		r.Name = *params.Name
	}

	if params.ManagerFirst != nil {
		r.ManagerFirst = *params.ManagerFirst
	}

	if params.SequentialApprovers != nil {
		if err := s.validateApprovers(ctx, companyID, params.SequentialApprovers); err != nil {
			return nil, err
		}

		r.SequentialApprovers = params.SequentialApprovers
	}

	if params.ConditionalType != nil {
		if *params.ConditionalType != "" && !params.ConditionalType.Valid() {
			return nil, ErrInvalidConditional
		}

		r.ConditionalType = *params.ConditionalType
	}

	if params.ConditionalValue != nil {
		r.ConditionalValue = params.ConditionalValue
	}

	if params.AmountThreshold != nil {
		r.AmountThreshold = params.AmountThreshold
	}

	if params.IsActive != nil {
		r.IsActive = *params.IsActive
	}

	if err := s.repo.UpdateRule(ctx, r); err != nil {
		return nil, err
	}

	return r, nil
}

// Deactivate soft-deletes the rule by flipping IsActive off. Workflows already
// built from it are unaffected.
func (s *Service) Deactivate(ctx context.Context, id, companyID uuid.UUID) error {
	r, err := s.repo.GetRule(ctx, id)
	if err != nil {
		return err
	}

	if r.CompanyID != companyID {
		return ErrNotFound
	}

	r.IsActive = false

	return s.repo.UpdateRule(ctx, r)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Rule, error) {
	return s.repo.GetRule(ctx, id)
}

func (s *Service) List(ctx context.Context, companyID uuid.UUID) ([]*Rule, error) {
	return s.repo.ListRules(ctx, companyID)
}

func (s *Service) validateApprovers(ctx context.Context, companyID uuid.UUID, approverIDs []uuid.UUID) error {
	for _, id := range approverIDs {
		approver, err := s.users.GetUser(ctx, id)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				return ErrInvalidApprover
			}

			return fmt.Errorf("looking up approver %s: %w", id, err)
		}

		if approver.CompanyID != companyID || !approver.Role.CanApprove() {
			return ErrInvalidApprover
		}
	}

	return nil
}

// Template is a canned rule configuration offered to admins.
type Template struct {
	ID          string
	Name        string
	Description string
	Config      CreateParams
}

func Templates() []Template {
	threshold500 := decimal.NewFromInt(500)
	threshold1000 := decimal.NewFromInt(1000)
	percent60 := decimal.NewFromInt(60)

	return []Template{
		{
			ID:          "basic",
			Name:        "Basic Approval",
			Description: "Manager approval only",
			Config:      CreateParams{ManagerFirst: true},
		},
		{
			ID:          "standard",
			Name:        "Standard Approval",
			Description: "Manager first, then Finance for amounts over $500",
			Config: CreateParams{
				ManagerFirst:    true,
				ConditionalType: ConditionalAmountThreshold,
				AmountThreshold: &threshold500,
			},
		},
		{
			ID:          "advanced",
			Name:        "Advanced Multi-Level",
			Description: "Manager, then Finance, then Director for high amounts",
			Config: CreateParams{
				ManagerFirst:    true,
				ConditionalType: ConditionalAmountThreshold,
				AmountThreshold: &threshold1000,
			},
		},
		{
			ID:          "percentage",
			Name:        "Percentage Based",
			Description: "Approve when 60% of approvers agree",
			Config: CreateParams{
				ConditionalType:  ConditionalPercentage,
				ConditionalValue: &percent60,
			},
		},
	}
}
