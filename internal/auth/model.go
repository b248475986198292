package auth

import "driver-review-service/internal/models"

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,password"`
	Username *string `json:"username" validate:"omitempty,username"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned on register / login.
type AuthResponse struct {
	Token   string          `json:"token"`
	Profile *models.Profile `json:"profile,omitempty"`
}
