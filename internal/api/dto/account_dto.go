package dto

import "github.com/spec-kit/marketplace-service/internal/domain"

// ApprovalBody payload for vetting a professional profile.
type ApprovalBody struct {
	Status domain.ApprovalStatus `json:"status"`
}

// ProfileUpdateBody payload for editing a professional profile.
type ProfileUpdateBody struct {
	Description     string `json:"description"`
	ExperienceYears int    `json:"experience_years"`
	ServicePincodes string `json:"service_pincodes"`
}

// ProfileResponse is the wire shape of a professional profile.
type ProfileResponse struct {
	ID              string                `json:"id"`
	UserID          string                `json:"user_id"`
	ServiceID       string                `json:"service_id"`
	Description     string                `json:"description"`
	ExperienceYears int                   `json:"experience_years"`
	ServicePincodes string                `json:"service_pincodes"`
	Status          domain.ApprovalStatus `json:"status"`
}
