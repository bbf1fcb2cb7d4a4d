package domain

// Service is a catalog entry managed by admins.
type Service struct {
	ID           string
	Name         string
	BasePrice    float64
	TimeRequired int // estimated duration in minutes
	Description  string
}
