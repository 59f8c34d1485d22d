package dto

import "time"

type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

type SignupRequest struct {
	FullName          string `json:"full_name"`
	Email             string `json:"email"`
	Password          string `json:"password"`
	PreferredLanguage string `json:"preferred_language"`
	Timezone          string `json:"timezone"`
}

type UpdateProfileRequest struct {
	FullName          *string `json:"full_name"`
	PreferredLanguage *string `json:"preferred_language"`
	Timezone          *string `json:"timezone"`
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type SessionResponse struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	FullName          string    `json:"full_name"`
	PreferredLanguage string    `json:"preferred_language"`
	Timezone          string    `json:"timezone"`
	RememberMe        bool      `json:"remember_me"`
	LoginTime         time.Time `json:"login_time"`
}

type AuthResponse struct {
	Token string          `json:"token"`
	User  SessionResponse `json:"user"`
}

type AnonymousResponse struct {
	AnonymousID string `json:"anonymous_id"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
