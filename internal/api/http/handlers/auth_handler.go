package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/marketplace-service/internal/api/dto"
	"github.com/spec-kit/marketplace-service/internal/domain"
	"github.com/spec-kit/marketplace-service/internal/service"
	apperrors "github.com/spec-kit/marketplace-service/pkg/util"
)

// AuthHandler exposes registration and login endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// RegisterCustomer handles POST /auth/customers/register.
func (h *AuthHandler) RegisterCustomer(c *fiber.Ctx) error {
	var req dto.RegisterCustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("name, email, password required", nil)
	}

	user, token, exp, err := h.auth.RegisterCustomer(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": authData(user, token, exp)})
}

// RegisterProfessional handles POST /auth/professionals/register.
func (h *AuthHandler) RegisterProfessional(c *fiber.Ctx) error {
	var req dto.RegisterProfessionalRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" || req.Email == "" || req.Password == "" || req.ServiceID == "" {
		return apperrors.NewValidationError("name, email, password, service_id required", nil)
	}

	user, token, exp, err := h.auth.RegisterProfessional(c.UserContext(), req.Name, req.Email, req.Password,
		service.ProfessionalProfileInput{
			ServiceID:       req.ServiceID,
			Description:     req.Description,
			ExperienceYears: req.ExperienceYears,
			ServicePincodes: req.ServicePincodes,
		})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": authData(user, token, exp)})
}

// Login handles POST /auth/login for every role.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	user, token, exp, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": authData(user, token, exp)})
}

func authData(user *domain.User, token string, exp time.Time) fiber.Map {
	return fiber.Map{
		"user": fiber.Map{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"roles": user.Roles,
		},
		"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
	}
}
