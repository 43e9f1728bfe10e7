package rule

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConditionalType classifies the conditional fields a rule may carry. These
// fields are reported by rule simulation but do not alter which approval
// steps get created; see the workflow engine.
type ConditionalType string

const (
	ConditionalPercentage       ConditionalType = "PERCENTAGE"
	ConditionalSpecificApprover ConditionalType = "SPECIFIC_APPROVER"
	ConditionalHybrid           ConditionalType = "HYBRID"
	ConditionalAmountThreshold  ConditionalType = "AMOUNT_THRESHOLD"
)

func (t ConditionalType) Valid() bool {
	switch t {
	case ConditionalPercentage, ConditionalSpecificApprover, ConditionalHybrid, ConditionalAmountThreshold:
		return true
	}

	return false
}

// Rule configures the approval chain for a company's expenses. Only the
// first active rule per company is applied; selection order is creation
// time, then id.
type Rule struct {
	ID                  uuid.UUID
	CompanyID           uuid.UUID
	Name                string
	ManagerFirst        bool
	SequentialApprovers []uuid.UUID
	ConditionalType     ConditionalType // empty when unconditional
	ConditionalValue    *decimal.Decimal
	AmountThreshold     *decimal.Decimal
	IsActive            bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
