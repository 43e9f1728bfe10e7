package analytics

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/spendflow/spendflow/internal/analytics"
	"github.com/spendflow/spendflow/internal/expense"
	"github.com/spendflow/spendflow/internal/http/authn"
)

type Handler struct {
	svc *analytics.Service
}

func NewHandler(svc *analytics.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/summary", h.summary)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	actor, _ := authn.UserFromContext(r.Context())

	filter := expense.ListFilter{}

	// Employees get analytics over their own submissions only.
	if !actor.Role.CanApprove() {
		filter.SubmittedByID = &actor.ID
	}

	if s := r.URL.Query().Get("status"); s != "" {
		st := expense.Status(s)
		filter.Status = &st
	}

	if s := r.URL.Query().Get("category"); s != "" {
		c := s
		filter.Category = &c
	}

	if s := r.URL.Query().Get("startDate"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			from := t
			filter.DateFrom = &from
		}
	}

	if s := r.URL.Query().Get("endDate"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			to := t
			filter.DateTo = &to
		}
	}

	summary, err := h.svc.Summarize(r.Context(), actor.CompanyID, filter)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(summary)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type summaryResponse struct {
	TotalExpenses     int                        `json:"totalExpenses"`
	TotalAmount       decimal.Decimal            `json:"totalAmount"`
	ApprovedCount     int                        `json:"approvedCount"`
	ApprovedAmount    decimal.Decimal            `json:"approvedAmount"`
	PendingCount      int                        `json:"pendingCount"`
	PendingAmount     decimal.Decimal            `json:"pendingAmount"`
	RejectedCount     int                        `json:"rejectedCount"`
	RejectedAmount    decimal.Decimal            `json:"rejectedAmount"`
	CategoryBreakdown map[string]decimal.Decimal `json:"categoryBreakdown"`
	MonthlyTrends     map[string]decimal.Decimal `json:"monthlyTrends"`
}

func toResponse(s *analytics.Summary) summaryResponse {
	return summaryResponse{
		TotalExpenses:     s.TotalExpenses,
		TotalAmount:       s.TotalAmount,
		ApprovedCount:     s.ApprovedCount,
		ApprovedAmount:    s.ApprovedAmount,
		PendingCount:      s.PendingCount,
		PendingAmount:     s.PendingAmount,
		RejectedCount:     s.RejectedCount,
		RejectedAmount:    s.RejectedAmount,
		CategoryBreakdown: s.CategoryBreakdown,
		MonthlyTrends:     s.MonthlyTrends,
	}
}
