package domain

// Review is the customer-authored rating attached 1:1 to a closed
// service request. Filing a review is what forces the request closed.
type Review struct {
	ID               string
	ServiceRequestID string
	CustomerID       string
	ProfessionalID   string
	Rating           int // 1..5
	Text             string
}
