package user

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/spendflow/spendflow/internal/auth"
	"github.com/spendflow/spendflow/internal/http/authn"
	"github.com/spendflow/spendflow/internal/user"
)

type Handler struct {
	svc *user.Service
}

func NewHandler(svc *user.Service) *Handler {
	return &Handler{svc: svc}
}

// Routes are mounted behind authentication; mutations additionally require
// the admin role.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/stats", h.stats)
	r.Get("/{id}", h.get)

	r.Group(func(r chi.Router) {
		r.Use(authn.RequireRole(user.RoleAdmin))
		r.Post("/", h.create)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.deactivate)
	})
}

type createUserRequest struct {
	Email     string     `json:"email"`
	Password  string     `json:"password"`
	FullName  string     `json:"fullName"`
	Role      user.Role  `json:"role"`
	ManagerID *uuid.UUID `json:"managerId,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, _ := authn.UserFromContext(r.Context())

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" || req.FullName == "" {
		http.Error(w, "email, password and fullName are required", http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	u, err := h.svc.Create(r.Context(), user.CreateParams{
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     req.FullName,
		Role:         req.Role,
		CompanyID:    actor.CompanyID,
		ManagerID:    req.ManagerID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toResponse(u)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, _ := authn.UserFromContext(r.Context())

	filter := user.ListFilter{CompanyID: &actor.CompanyID}

	if s := r.URL.Query().Get("role"); s != "" {
		role := user.Role(s)
		filter.Role = &role
	}

	filter.Search = r.URL.Query().Get("search")

	users, err := h.svc.List(r.Context(), filter)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponseList(users)); err != nil {
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

	u, err := h.svc.Get(r.Context(), id)
	if err != nil || u.CompanyID != actor.CompanyID {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(u)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type updateUserRequest struct {
	FullName  *string    `json:"fullName,omitempty"`
	Role      *user.Role `json:"role,omitempty"`
	ManagerID *uuid.UUID `json:"managerId,omitempty"`
	ClearMgr  bool       `json:"clearManager,omitempty"`
	Avatar    *string    `json:"avatar,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor, _ := authn.UserFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	u, err := h.svc.Update(r.Context(), id, actor.CompanyID, user.UpdateParams{
		FullName:  req.FullName,
		Role:      req.Role,
		ManagerID: req.ManagerID,
		ClearMgr:  req.ClearMgr,
		Avatar:    req.Avatar,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(u)); err != nil {
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

	if id == actor.ID {
		http.Error(w, "cannot deactivate yourself", http.StatusBadRequest)
		return
	}

	if err := h.svc.Deactivate(r.Context(), id, actor.CompanyID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	actor, _ := authn.UserFromContext(r.Context())

	stats, err := h.svc.CompanyStats(r.Context(), actor.CompanyID)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toStatsResponse(stats)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrNotFound):
		http.Error(w, "user not found", http.StatusNotFound)
	case errors.Is(err, user.ErrEmailTaken):
		http.Error(w, "email already in use", http.StatusConflict)
	case errors.Is(err, user.ErrInvalidRole),
		errors.Is(err, user.ErrInvalidManager),
		errors.Is(err, user.ErrManagerCycle):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
