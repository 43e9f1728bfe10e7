package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/spendflow/spendflow/internal/user"
)

func (s *Store) CreateUser(_ context.Context, u *user.User) error {
	if u.Email == "" || u.CompanyID == uuid.Nil {
		return ErrMissingField
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u.ID, _ = s.assign()
	u.CreatedAt = now()
	u.UpdatedAt = u.CreatedAt

	s.users[u.ID] = cloneUser(u)

	return nil
}

// GetUser resolves an active user with its company and manager summary
// attached. Deactivated users are indistinguishable from missing ones.
func (s *Store) GetUser(_ context.Context, id uuid.UUID) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok || !u.IsActive {
		return nil, user.ErrNotFound
	}

	return s.joinUser(u), nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.IsActive && strings.EqualFold(u.Email, email) {
			return s.joinUser(u), nil
		}
	}

	return nil, user.ErrNotFound
}

func (s *Store) ListUsers(_ context.Context, filter user.ListFilter) ([]*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var users []*user.User

	for _, u := range s.users {
		if !u.IsActive {
			continue
		}

		if filter.CompanyID != nil && u.CompanyID != *filter.CompanyID {
			continue
		}

		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}

		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(u.FullName), needle) &&
				!strings.Contains(strings.ToLower(u.Email), needle) {
				continue
			}
		}

		users = append(users, s.joinUser(u))
	}

	sort.Slice(users, func(i, j int) bool {
		return s.order[users[i].ID] < s.order[users[j].ID]
	})

	return users, nil
}

func (s *Store) UpdateUser(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.ID]; !ok {
		return user.ErrNotFound
	}

	u.UpdatedAt = now()
	s.users[u.ID] = cloneUser(u)

	return nil
}

func (s *Store) DeactivateUser(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return user.ErrNotFound
	}

	u.IsActive = false
	u.UpdatedAt = now()

	return nil
}

// joinUser attaches the company record and, when the manager is still
// active, a manager summary. Callers hold mu.
func (s *Store) joinUser(u *user.User) *user.User {
	joined := cloneUser(u)

	if c, ok := s.companies[u.CompanyID]; ok {
		joined.Company = cloneCompany(c)
	}

	if u.ManagerID != nil {
		if m, ok := s.users[*u.ManagerID]; ok && m.IsActive {
			joined.Manager = m.Summary()
		}
	}

	return joined
}

func cloneUser(u *user.User) *user.User {
	clone := *u
	clone.Company = nil
	clone.Manager = nil

	if u.ManagerID != nil {
		id := *u.ManagerID
		clone.ManagerID = &id
	}

	return &clone
}
