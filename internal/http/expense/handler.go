package expense

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spendflow/spendflow/internal/expense"
	"github.com/spendflow/spendflow/internal/http/authn"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Handler struct {
	svc *expense.Service
}

func NewHandler(svc *expense.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/categories", h.categories)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type createExpenseRequest struct {
	Amount          decimal.Decimal  `json:"amount"`
	Currency        string           `json:"currency"`
	ConvertedAmount *decimal.Decimal `json:"convertedAmount,omitempty"`
	BaseCurrency    string           `json:"baseCurrency,omitempty"`
	ExchangeRate    *decimal.Decimal `json:"exchangeRate,omitempty"`
	Category        string           `json:"category"`
	Description     string           `json:"description"`
	Vendor          string           `json:"vendor,omitempty"`
	ExpenseDate     time.Time        `json:"expenseDate"`
	ReceiptURL      string           `json:"receiptUrl,omitempty"`
	OCRExtracted    bool             `json:"ocrExtracted,omitempty"`
	OCRConfidence   *float64         `json:"ocrConfidence,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, _ := authn.UserFromContext(r.Context())

	var req createExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	e, err := h.svc.Create(r.Context(), expense.CreateParams{
		Amount:          req.Amount,
		Currency:        req.Currency,
		ConvertedAmount: req.ConvertedAmount,
		BaseCurrency:    req.BaseCurrency,
		ExchangeRate:    req.ExchangeRate,
		Category:        req.Category,
		Description:     req.Description,
		Vendor:          req.Vendor,
		ExpenseDate:     req.ExpenseDate,
		ReceiptURL:      req.ReceiptURL,
		OCRExtracted:    req.OCRExtracted,
		OCRConfidence:   req.OCRConfidence,
	}, actor.ID, actor.CompanyID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toResponse(e)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, _ := authn.UserFromContext(r.Context())

	filter := expense.ListFilter{CompanyID: &actor.CompanyID}

	// Employees only ever see their own submissions.
	if !actor.Role.CanApprove() {
		filter.SubmittedByID = &actor.ID
	} else if r.URL.Query().Get("mine") == "true" {
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

	filter.Search = r.URL.Query().Get("search")

	expenses, err := h.svc.List(r.Context(), filter)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	page, limit := pageParams(r)
	total := len(expenses)
	expenses = paginate(expenses, page, limit)

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toPageResponse(expenses, page, limit, total)); err != nil {
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

	e, err := h.svc.Get(r.Context(), id)
	if err != nil || e.CompanyID != actor.CompanyID {
		http.Error(w, "expense not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(e)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type updateExpenseRequest struct {
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Currency    *string          `json:"currency,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Description *string          `json:"description,omitempty"`
	Vendor      *string          `json:"vendor,omitempty"`
	ExpenseDate *time.Time       `json:"expenseDate,omitempty"`
	ReceiptURL  *string          `json:"receiptUrl,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor, _ := authn.UserFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req updateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	e, err := h.svc.Update(r.Context(), id, actor.ID, expense.UpdateParams{
		Amount:      req.Amount,
		Currency:    req.Currency,
		Category:    req.Category,
		Description: req.Description,
		Vendor:      req.Vendor,
		ExpenseDate: req.ExpenseDate,
		ReceiptURL:  req.ReceiptURL,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(e)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := authn.UserFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.svc.Delete(r.Context(), id, actor.ID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(expense.Categories); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, expense.ErrNotFound):
		http.Error(w, "expense not found", http.StatusNotFound)
	case errors.Is(err, expense.ErrNotOwner):
		http.Error(w, "expense belongs to another user", http.StatusForbidden)
	case errors.Is(err, expense.ErrNotPending):
		http.Error(w, "expense is no longer pending", http.StatusConflict)
	case errors.Is(err, expense.ErrInvalidAmount),
		errors.Is(err, expense.ErrInvalidCurrency),
		errors.Is(err, expense.ErrFutureDate),
		errors.Is(err, expense.ErrMissingField):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func pageParams(r *http.Request) (page, limit int) {
	page = 1
	limit = defaultPageSize

	if n, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && n > 0 {
		page = n
	}

	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
		limit = min(n, maxPageSize)
	}

	return page, limit
}

func paginate(expenses []*expense.Expense, page, limit int) []*expense.Expense {
	start := (page - 1) * limit
	if start >= len(expenses) {
		return nil
	}

	return expenses[start:min(start+limit, len(expenses))]
}
