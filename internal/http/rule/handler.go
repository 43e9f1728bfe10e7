package rule

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spendflow/spendflow/internal/http/authn"
	"github.com/spendflow/spendflow/internal/rule"
	"github.com/spendflow/spendflow/internal/user"
	"github.com/spendflow/spendflow/internal/workflow"
)

type Handler struct {
	svc      *rule.Service
	workflow *workflow.Service
}

func NewHandler(svc *rule.Service, wf *workflow.Service) *Handler {
	return &Handler{svc: svc, workflow: wf}
}

// Routes are admin-only; rules shape every workflow built for the company.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/templates", h.templates)
	r.Get("/{id}", h.get)
	r.Post("/", h.create)
	r.Post("/{id}/simulate", h.simulate)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.deactivate)
}

type ruleRequest struct {
	Name                *string               `json:"name,omitempty"`
	ManagerFirst        *bool                 `json:"managerFirst,omitempty"`
	SequentialApprovers []uuid.UUID           `json:"sequentialApprovers,omitempty"`
	ConditionalType     *rule.ConditionalType `json:"conditionalType,omitempty"`
	ConditionalValue    *decimal.Decimal      `json:"conditionalValue,omitempty"`
	AmountThreshold     *decimal.Decimal      `json:"amountThreshold,omitempty"`
	IsActive            *bool                 `json:"isActive,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, _ := authn.UserFromContext(r.Context())

	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	params := rule.CreateParams{
		SequentialApprovers: req.SequentialApprovers,
		ConditionalValue:    req.ConditionalValue,
		AmountThreshold:     req.AmountThreshold,
	}

	if req.Name != nil {
		params.Name = *req.Name
	}

	if req.ManagerFirst != nil {
		params.ManagerFirst = *req.ManagerFirst
	}

	if req.ConditionalType != nil {
		params.ConditionalType = *req.ConditionalType
	}

	created, err := h.svc.Create(r.Context(), actor.CompanyID, params)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toResponse(created)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, _ := authn.UserFromContext(r.Context())

	rules, err := h.svc.List(r.Context(), actor.CompanyID)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponseList(rules)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	actor, _ := authn.UserFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	found, err := h.svc.Get(r.Context(), id)
	if err != nil || found.CompanyID != actor.CompanyID {
		http.Error(w, "rule not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(found)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor, _ := authn.UserFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.svc.Update(r.Context(), id, actor.CompanyID, rule.UpdateParams{
		Name:                req.Name,
		ManagerFirst:        req.ManagerFirst,
		SequentialApprovers: req.SequentialApprovers,
		ConditionalType:     req.ConditionalType,
		ConditionalValue:    req.ConditionalValue,
		AmountThreshold:     req.AmountThreshold,
		IsActive:            req.IsActive,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(updated)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	actor, _ := authn.UserFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.svc.Deactivate(r.Context(), id, actor.CompanyID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) templates(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toTemplateList(rule.Templates())); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type simulateRequest struct {
	EmployeeID uuid.UUID       `json:"employeeId"`
	Amount     decimal.Decimal `json:"amount"`
}

func (h *Handler) simulate(w http.ResponseWriter, r *http.Request) {
	actor, _ := authn.UserFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sim, err := h.workflow.Simulate(r.Context(), id, actor.CompanyID, req.EmployeeID, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, workflow.ErrRuleNotFound):
			http.Error(w, "rule not found", http.StatusNotFound)
		case errors.Is(err, user.ErrNotFound):
			http.Error(w, "employee not found", http.StatusNotFound)
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toSimulationResponse(sim)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rule.ErrNotFound):
		http.Error(w, "rule not found", http.StatusNotFound)
	case errors.Is(err, rule.ErrMissingName),
		errors.Is(err, rule.ErrInvalidConditional),
		errors.Is(err, rule.ErrInvalidApprover):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
