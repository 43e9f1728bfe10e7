package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrEmailTaken     = errors.New("email already in use")
	ErrInvalidRole    = errors.New("invalid role")
	ErrInvalidManager = errors.New("manager must be an active manager or admin in the same company")
	ErrManagerCycle   = errors.New("manager assignment would create a cycle")
)

// maxManagerDepth bounds the ancestor walk so a corrupted chain cannot spin.
const maxManagerDepth = 100

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=user
type Repository interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context, filter ListFilter) ([]*User, error)
	UpdateUser(ctx context.Context, u *User) error
	DeactivateUser(ctx context.Context, id uuid.UUID) error
}

// ListFilter narrows ListUsers. Search matches fullName or email,
// case-insensitive substring.
type ListFilter struct {
	CompanyID *uuid.UUID
	Role      *Role
	Search    string
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	Email        string
	PasswordHash string
	FullName     string
	Role         Role
	CompanyID    uuid.UUID
	ManagerID    *uuid.UUID
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*User, error) {
	if !params.Role.Valid() {
		return nil, ErrInvalidRole
	}

	// Uniqueness is checked against active users only; a deactivated
	// user's email may be reused.
	if existing, err := s.repo.GetUserByEmail(ctx, params.Email); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("checking email: %w", err)
	} else if existing != nil {
		return nil, ErrEmailTaken
	}

	if params.ManagerID != nil {
		if err := s.validateManager(ctx, params.CompanyID, *params.ManagerID); err != nil {
			return nil, err
		}
	}

	u := &User{
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		FullName:     params.FullName,
		Role:         params.Role,
		CompanyID:    params.CompanyID,
		ManagerID:    params.ManagerID,
		IsActive:     true,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	return s.repo.GetUser(ctx, u.ID)
}

type UpdateParams struct {
	FullName  *string
	Role      *Role
	ManagerID *uuid.UUID
	ClearMgr  bool
	Avatar    *string
}

// Update applies a partial update scoped to companyID.
func (s *Service) Update(ctx context.Context, id, companyID uuid.UUID, params UpdateParams) (*User, error) {
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if u.CompanyID != companyID {
		return nil, ErrNotFound
	}

	if params.FullName != nil {
		u.FullName = *params.FullName
	}

	if params.Role != nil {
		if !params.Role.Valid() {
			return nil, ErrInvalidRole
		}

		u.Role = *params.Role
	}

	if params.ClearMgr {
		u.ManagerID = nil
	} else if params.ManagerID != nil {
		if err := s.validateManager(ctx, u.CompanyID, *params.ManagerID); err != nil {
			return nil, err
		}

		if err := s.checkCycle(ctx, u.ID, *params.ManagerID); err != nil {
			return nil, err
		}

		u.ManagerID = params.ManagerID
	}

	if params.Avatar != nil {
		u.Avatar = *params.Avatar
	}

	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return nil, err
	}

	return s.repo.GetUser(ctx, id)
}

// Deactivate soft-deletes the user. Existing expense and approval rows keep
// referencing the id; queries simply stop returning the user.
func (s *Service) Deactivate(ctx context.Context, id, companyID uuid.UUID) error {
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return err
	}

	if u.CompanyID != companyID {
		return ErrNotFound
	}

	return s.repo.DeactivateUser(ctx, id)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetUser(ctx, id)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetUserByEmail(ctx, email)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*User, error) {
	return s.repo.ListUsers(ctx, filter)
}

type Stats struct {
	Total     int
	Admins    int
	Managers  int
	Employees int
}

func (s *Service) CompanyStats(ctx context.Context, companyID uuid.UUID) (*Stats, error) {
	users, err := s.repo.ListUsers(ctx, ListFilter{CompanyID: &companyID})
	if err != nil {
		return nil, err
	}

	stats := &Stats{Total: len(users)}

	for _, u := range users {
		switch u.Role {
		case RoleAdmin:
			stats.Admins++
		case RoleManager:
			stats.Managers++
		case RoleEmployee:
			stats.Employees++
		}
	}

	return stats, nil
}

func (s *Service) validateManager(ctx context.Context, companyID, managerID uuid.UUID) error {
	manager, err := s.repo.GetUser(ctx, managerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidManager
		}

		return err
	}

	if manager.CompanyID != companyID || !manager.Role.CanApprove() {
		return ErrInvalidManager
	}

	return nil
}

// checkCycle walks the manager chain upward from the proposed manager and
// rejects the assignment if it revisits the user being updated. The data model
// itself does not prevent cycles.
func (s *Service) checkCycle(ctx context.Context, userID, managerID uuid.UUID) error {
	current := managerID

	for i := 0; i < maxManagerDepth; i++ {
		if current == userID {
			return ErrManagerCycle
		}

		ancestor, err := s.repo.GetUser(ctx, current)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				// Chain ends at a deactivated or missing user.
				return nil
			}

			return err
		}

		if ancestor.ManagerID == nil {
			return nil
		}

		current = *ancestor.ManagerID
	}

	return ErrManagerCycle
}
