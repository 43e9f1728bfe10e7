package company

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("company not found")

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=company
type Repository interface {
	CreateCompany(ctx context.Context, c *Company) error
	GetCompany(ctx context.Context, id uuid.UUID) (*Company, error)
	UpdateCompany(ctx context.Context, c *Company) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	Name         string
	Country      string
	BaseCurrency string
	Address      string
	ContactEmail string
	ContactPhone string
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Company, error) {
	c := &Company{
		Name:         params.Name,
		Country:      params.Country,
		BaseCurrency: params.BaseCurrency,
		Address:      params.Address,
		ContactEmail: params.ContactEmail,
		ContactPhone: params.ContactPhone,
		IsActive:     true,
	}
	if err := s.repo.CreateCompany(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Company, error) {
	return s.repo.GetCompany(ctx, id)
}

func (s *Service) Update(ctx context.Context, c *Company) error {
	return s.repo.UpdateCompany(ctx, c)
}
