package user

import (
	"time"

	"github.com/google/uuid"

	"github.com/spendflow/spendflow/internal/company"
)

// Role determines what a user may do within their company.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleManager  Role = "MANAGER"
	RoleEmployee Role = "EMPLOYEE"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	}

	return false
}

// CanApprove reports whether the role may act on approval steps.
func (r Role) CanApprove() bool {
	return r == RoleAdmin || r == RoleManager
}

// User is a member of a company. ManagerID points at another user in the same
// company and forms the reporting tree used by manager-first approval rules.
// Deactivated users (IsActive=false) are kept for referential integrity but are
// excluded from all queries.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FullName     string
	Role         Role
	CompanyID    uuid.UUID
	ManagerID    *uuid.UUID
	IsActive     bool
	Avatar       string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Company *company.Company // Loaded via JOIN
	Manager *Summary         // Loaded via JOIN when ManagerID resolves
}

// Summary is the minimal projection attached to related records.
type Summary struct {
	ID       uuid.UUID
	FullName string
	Email    string
	Avatar   string
}

func (u *User) Summary() *Summary {
	return &Summary{
		ID:       u.ID,
		FullName: u.FullName,
		Email:    u.Email,
		Avatar:   u.Avatar,
	}
}
