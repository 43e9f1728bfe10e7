package approval

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/spendflow/spendflow/internal/http/authn"
	"github.com/spendflow/spendflow/internal/workflow"
)

type Handler struct {
	svc *workflow.Service
}

func NewHandler(svc *workflow.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/pending", h.pending)
	r.Get("/stats", h.stats)
	r.Post("/bulk", h.bulkDecide)
	r.Post("/{id}/decision", h.decide)
}

func (h *Handler) pending(w http.ResponseWriter, r *http.Request) {
	actor, _ := authn.UserFromContext(r.Context())

	approvals, err := h.svc.PendingForApprover(r.Context(), actor.ID)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponseList(approvals)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type decisionRequest struct {
	Decision workflow.Decision `json:"decision"`
	Comments string            `json:"comments,omitempty"`
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request) {
	actor, _ := authn.UserFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Decision != workflow.DecisionApprove && req.Decision != workflow.DecisionReject {
		http.Error(w, "decision must be APPROVED or REJECTED", http.StatusBadRequest)
		return
	}

	a, e, err := h.svc.Decide(r.Context(), id, actor.ID, req.Decision, req.Comments)
	if err != nil {
		switch {
		case errors.Is(err, workflow.ErrApprovalNotFound):
			http.Error(w, "approval not found", http.StatusNotFound)
		case errors.Is(err, workflow.ErrNotApprover):
			http.Error(w, "not authorized to decide this approval", http.StatusForbidden)
		case errors.Is(err, workflow.ErrAlreadyProcessed):
			http.Error(w, "approval already processed", http.StatusConflict)
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toDecisionResponse(a, e)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type bulkRequest struct {
	ApprovalIDs []uuid.UUID       `json:"approvalIds"`
	Decision    workflow.Decision `json:"decision"`
	Comments    string            `json:"comments,omitempty"`
}

func (h *Handler) bulkDecide(w http.ResponseWriter, r *http.Request) {
	actor, _ := authn.UserFromContext(r.Context())

	var req bulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if len(req.ApprovalIDs) == 0 {
		http.Error(w, "approvalIds is required", http.StatusBadRequest)
		return
	}

	if req.Decision != workflow.DecisionApprove && req.Decision != workflow.DecisionReject {
		http.Error(w, "decision must be APPROVED or REJECTED", http.StatusBadRequest)
		return
	}

	result, err := h.svc.BulkDecide(r.Context(), req.ApprovalIDs, actor.ID, req.Decision, req.Comments)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toBulkResponse(result)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	actor, _ := authn.UserFromContext(r.Context())

	stats, err := h.svc.StatsForApprover(r.Context(), actor.ID, actor.CompanyID)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toStatsResponse(stats)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
