package dto

import (
	"time"

	"github.com/Payphone-Digital/locatory/internal/model"
	"github.com/Payphone-Digital/locatory/pkg/geo"
)

type RegisterRequest struct {
	Name       string   `json:"name" binding:"required,max=50"`
	Email      string   `json:"email" binding:"required,email,max=255"`
	Password   string   `json:"password" binding:"required,min=6,max=100"`
	Address    string   `json:"address" binding:"omitempty,max=255"`
	Photo      string   `json:"photo" binding:"omitempty,url"`
	Preference []string `json:"preference" binding:"omitempty,dive,required,max=50"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateDetailsRequest struct {
	Name       string   `json:"name" binding:"omitempty,max=50"`
	Email      string   `json:"email" binding:"omitempty,email,max=255"`
	Address    string   `json:"address" binding:"omitempty,max=255"`
	Photo      string   `json:"photo" binding:"omitempty,url"`
	Preference []string `json:"preference" binding:"omitempty,dive,required,max=50"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6,max=100"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=6,max=100"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type UserResponse struct {
	ID                uint       `json:"_id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Role              string     `json:"role"`
	Address           string     `json:"address,omitempty"`
	Photo             string     `json:"photo"`
	PreferredCategory []string   `json:"preferredCategory"`
	Location          *geo.Point `json:"location,omitempty"`
	LastLogin         *time.Time `json:"lastLogin,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// NewUserResponse strips credentials and notifications from a user.
func NewUserResponse(u *model.User) UserResponse {
	resp := UserResponse{
		ID:                u.ID,
		Name:              u.Name,
		Email:             u.Email,
		Role:              u.Role,
		Address:           u.Address,
		Photo:             u.Photo,
		PreferredCategory: []string(u.PreferredCategory),
		LastLogin:         u.LastLogin,
		CreatedAt:         u.CreatedAt,
	}
	if resp.PreferredCategory == nil {
		resp.PreferredCategory = []string{}
	}
	if loc := u.Location.Data(); loc.Type != "" {
		resp.Location = &loc
	}
	return resp
}

type AuthResponse struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"`
	User         UserResponse `json:"user"`
}

// ForgotPasswordResponse carries the raw reset token; delivering it to the
// user is left to an external mailer.
type ForgotPasswordResponse struct {
	ResetToken string    `json:"resetToken"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

type NotificationAlertResponse struct {
	Unread int `json:"unread"`
}
