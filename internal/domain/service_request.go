package domain

import "time"

// RequestStatus enumerates lifecycle states for service requests.
type RequestStatus string

const (
	RequestStatusRequested RequestStatus = "requested"
	RequestStatusAccepted  RequestStatus = "accepted"
	RequestStatusRejected  RequestStatus = "rejected"
	RequestStatusCompleted RequestStatus = "completed"
	RequestStatusClosed    RequestStatus = "closed"
)

// ServiceRequest is the central work unit connecting a customer, a
// professional and a catalog service.
//
// DateOfCompletion is set if and only if the status is completed or
// closed.
type ServiceRequest struct {
	ID               string
	ServiceID        string
	CustomerID       string
	ProfessionalID   string
	Address          string
	ContactNumber    string
	Remarks          string
	Status           RequestStatus
	DateOfRequest    time.Time
	DateOfCompletion *time.Time
}
