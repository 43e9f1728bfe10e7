package rule

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spendflow/spendflow/internal/rule"
	"github.com/spendflow/spendflow/internal/user"
	"github.com/spendflow/spendflow/internal/workflow"
)

type ruleResponse struct {
	ID                  uuid.UUID            `json:"id"`
	CompanyID           uuid.UUID            `json:"companyId"`
	Name                string               `json:"name"`
	ManagerFirst        bool                 `json:"managerFirst"`
	SequentialApprovers []uuid.UUID          `json:"sequentialApprovers"`
	ConditionalType     rule.ConditionalType `json:"conditionalType,omitempty"`
	ConditionalValue    *decimal.Decimal     `json:"conditionalValue,omitempty"`
	AmountThreshold     *decimal.Decimal     `json:"amountThreshold,omitempty"`
	IsActive            bool                 `json:"isActive"`
	CreatedAt           time.Time            `json:"createdAt"`
	UpdatedAt           time.Time            `json:"updatedAt"`
}

func toResponse(r *rule.Rule) ruleResponse {
	approvers := r.SequentialApprovers
	if approvers == nil {
		approvers = []uuid.UUID{}
	}

	return ruleResponse{
		ID:                  r.ID,
		CompanyID:           r.CompanyID,
		Name:                r.Name,
		ManagerFirst:        r.ManagerFirst,
		SequentialApprovers: approvers,
		ConditionalType:     r.ConditionalType,
		ConditionalValue:    r.ConditionalValue,
		AmountThreshold:     r.AmountThreshold,
		IsActive:            r.IsActive,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

func toResponseList(rules []*rule.Rule) []ruleResponse {
	resp := make([]ruleResponse, len(rules))
	for i, r := range rules {
		resp[i] = toResponse(r)
	}

	return resp
}

type templateResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Config      templateConfig `json:"config"`
}

type templateConfig struct {
	Name             string               `json:"name,omitempty"`
	ManagerFirst     bool                 `json:"managerFirst"`
	ConditionalType  rule.ConditionalType `json:"conditionalType,omitempty"`
	ConditionalValue *decimal.Decimal     `json:"conditionalValue,omitempty"`
	AmountThreshold  *decimal.Decimal     `json:"amountThreshold,omitempty"`
}

func toTemplateList(templates []rule.Template) []templateResponse {
	resp := make([]templateResponse, len(templates))
	for i, t := range templates {
		resp[i] = templateResponse{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			Config: templateConfig{
				Name:             t.Config.Name,
				ManagerFirst:     t.Config.ManagerFirst,
				ConditionalType:  t.Config.ConditionalType,
				ConditionalValue: t.Config.ConditionalValue,
				AmountThreshold:  t.Config.AmountThreshold,
			},
		}
	}

	return resp
}

type simStepResponse struct {
	Sequence int             `json:"sequence"`
	Approver summaryResponse `json:"approver"`
	Role     user.Role       `json:"role"`
	Reason   string          `json:"reason"`
}

type summaryResponse struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"fullName"`
	Email    string    `json:"email"`
	Avatar   string    `json:"avatar,omitempty"`
}

type conditionalResponse struct {
	Type      rule.ConditionalType `json:"type,omitempty"`
	Value     *decimal.Decimal     `json:"value,omitempty"`
	Threshold *decimal.Decimal     `json:"threshold,omitempty"`
	Applies   bool                 `json:"applies"`
}

type simulationResponse struct {
	RuleName           string              `json:"ruleName"`
	ExpenseAmount      decimal.Decimal     `json:"expenseAmount"`
	Employee           summaryResponse     `json:"employee"`
	Steps              []simStepResponse   `json:"steps"`
	Conditional        conditionalResponse `json:"conditional"`
	EstimatedApprovers int                 `json:"estimatedApprovers"`
}

func toSimulationResponse(sim *workflow.Simulation) simulationResponse {
	resp := simulationResponse{
		RuleName:      sim.RuleName,
		ExpenseAmount: sim.ExpenseAmount,
		Employee:      toSummary(sim.Employee),
		Steps:         make([]simStepResponse, len(sim.Steps)),
		Conditional: conditionalResponse{
			Type:      sim.Conditional.Type,
			Value:     sim.Conditional.Value,
			Threshold: sim.Conditional.Threshold,
			Applies:   sim.Conditional.Applies,
		},
		EstimatedApprovers: sim.EstimatedApprovers,
	}

	for i, step := range sim.Steps {
		resp.Steps[i] = simStepResponse{
			Sequence: step.Sequence,
			Approver: toSummary(step.Approver),
			Role:     step.Role,
			Reason:   step.Reason,
		}
	}

	return resp
}

func toSummary(s user.Summary) summaryResponse {
	return summaryResponse{
		ID:       s.ID,
		FullName: s.FullName,
		Email:    s.Email,
		Avatar:   s.Avatar,
	}
}
