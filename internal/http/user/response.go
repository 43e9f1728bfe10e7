package user

import (
	"time"

	"github.com/google/uuid"

	"github.com/spendflow/spendflow/internal/user"
)

type userResponse struct {
	ID        uuid.UUID        `json:"id"`
	Email     string           `json:"email"`
	FullName  string           `json:"fullName"`
	Role      user.Role        `json:"role"`
	CompanyID uuid.UUID        `json:"companyId"`
	ManagerID *uuid.UUID       `json:"managerId,omitempty"`
	Manager   *summaryResponse `json:"manager,omitempty"`
	Avatar    string           `json:"avatar,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

type summaryResponse struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"fullName"`
	Email    string    `json:"email"`
	Avatar   string    `json:"avatar,omitempty"`
}

func toResponse(u *user.User) userResponse {
	resp := userResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		CompanyID: u.CompanyID,
		ManagerID: u.ManagerID,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}

	if u.Manager != nil {
		resp.Manager = &summaryResponse{
			ID:       u.Manager.ID,
			FullName: u.Manager.FullName,
			Email:    u.Manager.Email,
			Avatar:   u.Manager.Avatar,
		}
	}

	return resp
}

func toResponseList(users []*user.User) []userResponse {
	resp := make([]userResponse, len(users))
	for i, u := range users {
		resp[i] = toResponse(u)
	}

	return resp
}

type statsResponse struct {
	Total     int `json:"total"`
	Admins    int `json:"admins"`
	Managers  int `json:"managers"`
	Employees int `json:"employees"`
}

func toStatsResponse(s *user.Stats) statsResponse {
	return statsResponse{
		Total:     s.Total,
		Admins:    s.Admins,
		Managers:  s.Managers,
		Employees: s.Employees,
	}
}
