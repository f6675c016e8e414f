package handlers

import (
	"time"

	"github.com/oba/server/models"
)

// SignUpRequest is the body of POST /api/auth/signup.
// The password byte limit is enforced by credentials.Verifier.
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
	Nickname string `json:"nickname,omitempty" validate:"omitempty,max=100"`
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ReissueRequest is the body of POST /api/auth/reissue
type ReissueRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// UserResponse is the public view of an identity record
type UserResponse struct {
	ID        string          `json:"id"`
	Email     string          `json:"email"`
	Nickname  string          `json:"nickname"`
	AvatarURL string          `json:"avatar_url,omitempty"`
	Role      models.UserRole `json:"role"`
	Provider  models.Provider `json:"provider"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewUserResponse builds the public view of u
func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		Nickname:  u.Nickname,
		AvatarURL: u.AvatarURL,
		Role:      u.Role,
		Provider:  u.Provider,
		CreatedAt: u.CreatedAt,
	}
}
