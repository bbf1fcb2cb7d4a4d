package dto

import (
	"time"

	"github.com/spec-kit/marketplace-service/internal/domain"
)

// CreateRequestBody payload for opening a service request.
type CreateRequestBody struct {
	ServiceID      string `json:"service_id"`
	ProfessionalID string `json:"professional_id"`
	Address        string `json:"address"`
	ContactNumber  string `json:"contact_number"`
	Remarks        string `json:"remarks"`
}

// TransitionBody names the target status for a lifecycle transition.
type TransitionBody struct {
	Status domain.RequestStatus `json:"status"`
}

// ServiceRequestResponse is the wire shape of a request.
type ServiceRequestResponse struct {
	ID               string               `json:"id"`
	ServiceID        string               `json:"service_id"`
	CustomerID       string               `json:"customer_id"`
	ProfessionalID   string               `json:"professional_id"`
	Address          string               `json:"address"`
	ContactNumber    string               `json:"contact_number"`
	Remarks          string               `json:"remarks"`
	Status           domain.RequestStatus `json:"status"`
	DateOfRequest    time.Time            `json:"date_of_request"`
	DateOfCompletion *time.Time           `json:"date_of_completion"`
}

// FileReviewBody payload for the review that closes a request.
type FileReviewBody struct {
	Rating int    `json:"rating"`
	Text   string `json:"text"`
}

// ReviewResponse is the wire shape of a review.
type ReviewResponse struct {
	ID               string `json:"id"`
	ServiceRequestID string `json:"service_request_id"`
	CustomerID       string `json:"customer_id"`
	ProfessionalID   string `json:"professional_id"`
	Rating           int    `json:"rating"`
	Text             string `json:"text"`
}
