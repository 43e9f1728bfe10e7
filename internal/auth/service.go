package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/spendflow/spendflow/internal/company"
	"github.com/spendflow/spendflow/internal/country"
	"github.com/spendflow/spendflow/internal/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already in use")
)

type Service struct {
	users     *user.Service
	companies *company.Service
	tokens    *TokenManager
}

func NewService(users *user.Service, companies *company.Service, tokens *TokenManager) *Service {
	return &Service{users: users, companies: companies, tokens: tokens}
}

type SignupParams struct {
	Email       string
	Password    string
	FullName    string
	CompanyName string
	Country     string
}

// Signup provisions a new tenant: a company with its base currency derived
// from the chosen country, and the signing-up user as its admin. The two
// creates run as a best-effort sequence; there is no rollback if the user
// create fails after the company create succeeded.
func (s *Service) Signup(ctx context.Context, params SignupParams) (*user.User, string, error) {
	if existing, err := s.users.GetByEmail(ctx, params.Email); err != nil && !errors.Is(err, user.ErrNotFound) {
		return nil, "", fmt.Errorf("checking email: %w", err)
	} else if existing != nil {
		return nil, "", ErrEmailTaken
	}

	hash, err := HashPassword(params.Password)
	if err != nil {
		return nil, "", err
	}

	c, err := s.companies.Create(ctx, company.CreateParams{
		Name:         params.CompanyName,
		Country:      params.Country,
		BaseCurrency: country.CurrencyFor(params.Country),
	})
	if err != nil {
		return nil, "", fmt.Errorf("creating company: %w", err)
	}

	u, err := s.users.Create(ctx, user.CreateParams{
		Email:        params.Email,
		PasswordHash: hash,
		FullName:     params.FullName,
		Role:         user.RoleAdmin,
		CompanyID:    c.ID,
	})
	if err != nil {
		return nil, "", fmt.Errorf("creating admin user: %w", err)
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, "", err
	}

	return u, token, nil
}

// Login verifies credentials and issues a token. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, string, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}

		return nil, "", err
	}

	if !CheckPassword(u.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, "", err
	}

	return u, token, nil
}
