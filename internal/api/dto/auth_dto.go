package dto

import "time"

// RegisterCustomerRequest payload for customer signup.
type RegisterCustomerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterProfessionalRequest payload for professional signup. The
// profile fields are collected up front and held pending approval.
type RegisterProfessionalRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ServiceID       string `json:"service_id"`
	Description     string `json:"description"`
	ExperienceYears int    `json:"experience_years"`
	ServicePincodes string `json:"service_pincodes"`
}

// LoginRequest payload for login, any role.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
