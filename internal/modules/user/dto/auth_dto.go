package dto

import (
	"time"

	"github.com/google/uuid"
)

type RegisterInput struct {
	Username        string `json:"username" binding:"required,min=3,max=50"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" binding:"omitempty,eqfield=Password"`
	FirstName       string `json:"first_name" binding:"max=100"`
	LastName        string `json:"last_name" binding:"max=100"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=NewPassword"`
}

// UpdateUserInput is a shallow merge; nil fields are left alone.
type UpdateUserInput struct {
	Username  *string `json:"username" binding:"omitempty,min=3,max=50"`
	Email     *string `json:"email" binding:"omitempty,email"`
	FirstName *string `json:"first_name" binding:"omitempty,max=100"`
	LastName  *string `json:"last_name" binding:"omitempty,max=100"`
	Bio       *string `json:"bio" binding:"omitempty,max=500"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,url"`
}

type CommunityMembershipInput struct {
	CommunityID uuid.UUID `json:"community_id" binding:"required"`
}

type UserResponse struct {
	ID          uuid.UUID   `json:"id"`
	Username    string      `json:"username"`
	Email       string      `json:"email,omitempty"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	Name        string      `json:"name"`
	Bio         string      `json:"bio"`
	AvatarURL   *string     `json:"avatar_url"`
	Communities []uuid.UUID `json:"communities"`
	CreatedAt   time.Time   `json:"created_at"`
}

type AuthResponse struct {
	AccessToken string        `json:"token"`
	TokenType   string        `json:"token_type"`
	ExpiresIn   int64         `json:"expires_in"`
	User        *UserResponse `json:"user"`
}
