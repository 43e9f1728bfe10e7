package company

import (
	"time"

	"github.com/google/uuid"
)

// Company is a tenant. Every user and expense belongs to exactly one company.
// Companies are never hard-deleted; IsActive gates new activity.
type Company struct {
	ID           uuid.UUID
	Name         string
	Country      string
	BaseCurrency string // 3-letter ISO code
	Address      string
	ContactEmail string
	ContactPhone string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
