package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/marketplace-service/internal/api/dto"
	"github.com/spec-kit/marketplace-service/internal/domain"
	"github.com/spec-kit/marketplace-service/internal/service"
	apperrors "github.com/spec-kit/marketplace-service/pkg/util"
)

// RequestsHandler exposes the service request lifecycle and the reviews
// that close requests.
type RequestsHandler struct {
	requests *service.RequestService
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(requestService *service.RequestService) *RequestsHandler {
	return &RequestsHandler{requests: requestService}
}

// CreateRequest POST /service-requests.
func (h *RequestsHandler) CreateRequest(c *fiber.Ctx) error {
	actor, err := actorFromRequest(c)
	if err != nil {
		return err
	}
	var req dto.CreateRequestBody
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ServiceID == "" || req.ProfessionalID == "" {
		return apperrors.NewValidationError("service_id and professional_id required", nil)
	}

	request, err := h.requests.CreateRequest(c.UserContext(), actor, service.RequestInput{
		ServiceID:      req.ServiceID,
		ProfessionalID: req.ProfessionalID,
		Address:        req.Address,
		ContactNumber:  req.ContactNumber,
		Remarks:        req.Remarks,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": requestResponse(request)})
}

// ListRequests GET /service-requests. Admins see everything, customers
// and professionals their own.
func (h *RequestsHandler) ListRequests(c *fiber.Ctx) error {
	actor, err := actorFromRequest(c)
	if err != nil {
		return err
	}
	requests, err := h.requests.ListRequests(c.UserContext(), actor)
	if err != nil {
		return err
	}
	items := make([]dto.ServiceRequestResponse, 0, len(requests))
	for i := range requests {
		items = append(items, requestResponse(&requests[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetRequest GET /service-requests/:id.
func (h *RequestsHandler) GetRequest(c *fiber.Ctx) error {
	actor, err := actorFromRequest(c)
	if err != nil {
		return err
	}
	request, err := h.requests.GetRequest(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestResponse(request)})
}

// Transition POST /service-requests/:id/transition.
func (h *RequestsHandler) Transition(c *fiber.Ctx) error {
	actor, err := actorFromRequest(c)
	if err != nil {
		return err
	}
	var req dto.TransitionBody
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}

	request, err := h.requests.Transition(c.UserContext(), actor, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestResponse(request)})
}

// FileReview POST /service-requests/:id/review.
func (h *RequestsHandler) FileReview(c *fiber.Ctx) error {
	actor, err := actorFromRequest(c)
	if err != nil {
		return err
	}
	var req dto.FileReviewBody
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	review, err := h.requests.FileReview(c.UserContext(), actor, c.Params("id"), service.ReviewInput{
		Rating: req.Rating,
		Text:   req.Text,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": reviewResponse(review)})
}

// ListReviews GET /reviews.
func (h *RequestsHandler) ListReviews(c *fiber.Ctx) error {
	reviews, err := h.requests.ListReviews(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.ReviewResponse, 0, len(reviews))
	for i := range reviews {
		items = append(items, reviewResponse(&reviews[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetReview GET /reviews/:id.
func (h *RequestsHandler) GetReview(c *fiber.Ctx) error {
	review, err := h.requests.GetReview(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reviewResponse(review)})
}

func requestResponse(request *domain.ServiceRequest) dto.ServiceRequestResponse {
	return dto.ServiceRequestResponse{
		ID:               request.ID,
		ServiceID:        request.ServiceID,
		CustomerID:       request.CustomerID,
		ProfessionalID:   request.ProfessionalID,
		Address:          request.Address,
		ContactNumber:    request.ContactNumber,
		Remarks:          request.Remarks,
		Status:           request.Status,
		DateOfRequest:    request.DateOfRequest,
		DateOfCompletion: request.DateOfCompletion,
	}
}

func reviewResponse(review *domain.Review) dto.ReviewResponse {
	return dto.ReviewResponse{
		ID:               review.ID,
		ServiceRequestID: review.ServiceRequestID,
		CustomerID:       review.CustomerID,
		ProfessionalID:   review.ProfessionalID,
		Rating:           review.Rating,
		Text:             review.Text,
	}
}
