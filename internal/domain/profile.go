package domain

import "time"

// ApprovalStatus tracks admin vetting of a professional profile.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// ProfessionalProfile is the single profile owned by a professional
// user. It binds the professional to one service category and carries
// the vetting status that gates assignment visibility.
type ProfessionalProfile struct {
	ID              string
	UserID          string
	ServiceID       string
	Description     string
	ExperienceYears int
	ServicePincodes string
	Status          ApprovalStatus
	CreatedAt       time.Time
}
