package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/spendflow/spendflow/internal/company"
)

func (s *Store) CreateCompany(_ context.Context, c *company.Company) error {
	if c.Name == "" {
		return ErrMissingField
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID, _ = s.assign()
	c.CreatedAt = now()
	c.UpdatedAt = c.CreatedAt

	s.companies[c.ID] = cloneCompany(c)

	return nil
}

func (s *Store) GetCompany(_ context.Context, id uuid.UUID) (*company.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.companies[id]
	if !ok {
		return nil, company.ErrNotFound
	}

	return cloneCompany(c), nil
}

func (s *Store) UpdateCompany(_ context.Context, c *company.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.companies[c.ID]; !ok {
		return company.ErrNotFound
	}

	c.UpdatedAt = now()
	s.companies[c.ID] = cloneCompany(c)

	return nil
}

func cloneCompany(c *company.Company) *company.Company {
	clone := *c
	return &clone
}
