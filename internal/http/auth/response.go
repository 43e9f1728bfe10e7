package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/spendflow/spendflow/internal/user"
)

type sessionResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type userResponse struct {
	ID        uuid.UUID        `json:"id"`
	Email     string           `json:"email"`
	FullName  string           `json:"fullName"`
	Role      user.Role        `json:"role"`
	CompanyID uuid.UUID        `json:"companyId"`
	ManagerID *uuid.UUID       `json:"managerId,omitempty"`
	Avatar    string           `json:"avatar,omitempty"`
	Company   *companyResponse `json:"company,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

type companyResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Country      string    `json:"country,omitempty"`
	BaseCurrency string    `json:"baseCurrency"`
}

func toSessionResponse(u *user.User, token string) sessionResponse {
	return sessionResponse{Token: token, User: toUserResponse(u)}
}

func toUserResponse(u *user.User) userResponse {
	resp := userResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		CompanyID: u.CompanyID,
		ManagerID: u.ManagerID,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
	}

	if u.Company != nil {
		resp.Company = &companyResponse{
			ID:           u.Company.ID,
			Name:         u.Company.Name,
			Country:      u.Company.Country,
			BaseCurrency: u.Company.BaseCurrency,
		}
	}

	return resp
}
