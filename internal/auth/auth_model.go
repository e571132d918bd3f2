package auth

import (
	"time"

	"github.com/spikeup/spikeup-api/internal/user"
)

// RegisterRequest defines the payload for creating an account.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=50"`
	Username string `json:"username" binding:"required,alphanum,min=3,max=30"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Phone    string `json:"phone,omitempty" binding:"omitempty,e164"`
}

// LoginRequest defines the payload for logging in.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest carries a refresh token to exchange for a new pair.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UserResponse is the public projection of a user record.
type UserResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone,omitempty"`
	Role      string    `json:"role"`
	TeamID    *uint     `json:"team_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResponse bundles the token pair with the user it belongs to.
type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

// FilterUserRecord strips credentials off a user record.
func FilterUserRecord(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Username:  u.Username,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
		TeamID:    u.TeamID,
		CreatedAt: u.CreatedAt,
	}
}
