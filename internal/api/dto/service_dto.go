package dto

// ServiceRequestBody payload for creating or updating a catalog entry.
type ServiceRequestBody struct {
	Name         string  `json:"name"`
	BasePrice    float64 `json:"base_price"`
	TimeRequired int     `json:"time_required"`
	Description  string  `json:"description"`
}

// ServiceResponse is a catalog entry.
type ServiceResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	BasePrice    float64 `json:"base_price"`
	TimeRequired int     `json:"time_required"`
	Description  string  `json:"description"`
}
