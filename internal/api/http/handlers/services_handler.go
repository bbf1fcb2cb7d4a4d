package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/marketplace-service/internal/api/dto"
	"github.com/spec-kit/marketplace-service/internal/auth"
	"github.com/spec-kit/marketplace-service/internal/authz"
	"github.com/spec-kit/marketplace-service/internal/domain"
	"github.com/spec-kit/marketplace-service/internal/service"
	apperrors "github.com/spec-kit/marketplace-service/pkg/util"
)

// ServicesHandler manages the admin-owned catalog endpoints. Reads are
// open to any authenticated caller; writes are admin only.
type ServicesHandler struct {
	catalog *service.CatalogService
}

// NewServicesHandler constructs handler.
func NewServicesHandler(catalogService *service.CatalogService) *ServicesHandler {
	return &ServicesHandler{catalog: catalogService}
}

// ListServices GET /services.
func (h *ServicesHandler) ListServices(c *fiber.Ctx) error {
	services, err := h.catalog.ListServices(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.ServiceResponse, 0, len(services))
	for i := range services {
		items = append(items, serviceResponse(&services[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetService GET /services/:id.
func (h *ServicesHandler) GetService(c *fiber.Ctx) error {
	svc, err := h.catalog.GetService(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": serviceResponse(svc)})
}

// CreateService POST /services.
func (h *ServicesHandler) CreateService(c *fiber.Ctx) error {
	actor, err := actorFromRequest(c)
	if err != nil {
		return err
	}
	input, err := parseServiceBody(c)
	if err != nil {
		return err
	}
	svc, err := h.catalog.CreateService(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": serviceResponse(svc)})
}

// UpdateService PUT /services/:id.
func (h *ServicesHandler) UpdateService(c *fiber.Ctx) error {
	actor, err := actorFromRequest(c)
	if err != nil {
		return err
	}
	input, err := parseServiceBody(c)
	if err != nil {
		return err
	}
	svc, err := h.catalog.UpdateService(c.UserContext(), actor, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": serviceResponse(svc)})
}

// DeleteService DELETE /services/:id.
func (h *ServicesHandler) DeleteService(c *fiber.Ctx) error {
	actor, err := actorFromRequest(c)
	if err != nil {
		return err
	}
	if err := h.catalog.DeleteService(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func parseServiceBody(c *fiber.Ctx) (service.ServiceInput, error) {
	var req dto.ServiceRequestBody
	if err := c.BodyParser(&req); err != nil {
		return service.ServiceInput{}, apperrors.NewValidationError("invalid payload", nil)
	}
	return service.ServiceInput{
		Name:         req.Name,
		BasePrice:    req.BasePrice,
		TimeRequired: req.TimeRequired,
		Description:  req.Description,
	}, nil
}

func serviceResponse(svc *domain.Service) dto.ServiceResponse {
	return dto.ServiceResponse{
		ID:           svc.ID,
		Name:         svc.Name,
		BasePrice:    svc.BasePrice,
		TimeRequired: svc.TimeRequired,
		Description:  svc.Description,
	}
}

// actorFromRequest maps the authenticated principal to an authorization
// actor. Shared by the handlers that call role-guarded operations.
func actorFromRequest(c *fiber.Ctx) (authz.Actor, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return authz.Actor{}, apperrors.NewUnauthorized("authentication required")
	}
	return authz.ActorFromUser(principal.User), nil
}
