package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/marketplace-service/internal/api/dto"
	"github.com/spec-kit/marketplace-service/internal/domain"
	"github.com/spec-kit/marketplace-service/internal/service"
	apperrors "github.com/spec-kit/marketplace-service/pkg/util"
)

// AccountsHandler covers admin account management and professional
// profile vetting.
type AccountsHandler struct {
	accounts *service.AccountService
}

// NewAccountsHandler constructs handler.
func NewAccountsHandler(accountService *service.AccountService) *AccountsHandler {
	return &AccountsHandler{accounts: accountService}
}

// ListCustomers GET /admin/customers.
func (h *AccountsHandler) ListCustomers(c *fiber.Ctx) error {
	actor, err := actorFromRequest(c)
	if err != nil {
		return err
	}
	customers, err := h.accounts.ListCustomers(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": customers})
}

// ListProfessionals GET /admin/professionals.
func (h *AccountsHandler) ListProfessionals(c *fiber.Ctx) error {
	actor, err := actorFromRequest(c)
	if err != nil {
		return err
	}
	professionals, err := h.accounts.ListProfessionals(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": professionals})
}

// SetApproval POST /admin/professionals/:profileID/approval.
func (h *AccountsHandler) SetApproval(c *fiber.Ctx) error {
	actor, err := actorFromRequest(c)
	if err != nil {
		return err
	}
	var req dto.ApprovalBody
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status != domain.ApprovalApproved && req.Status != domain.ApprovalRejected {
		return apperrors.NewValidationError("status must be approved or rejected", nil)
	}

	profile, err := h.accounts.SetProfileApproval(c.UserContext(), actor, c.Params("profileID"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": profileResponse(profile)})
}

// UpdateProfile PUT /profiles/:profileID. Owner or admin.
func (h *AccountsHandler) UpdateProfile(c *fiber.Ctx) error {
	actor, err := actorFromRequest(c)
	if err != nil {
		return err
	}
	var req dto.ProfileUpdateBody
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	profile, err := h.accounts.UpdateProfile(c.UserContext(), actor, c.Params("profileID"),
		req.Description, req.ServicePincodes, req.ExperienceYears)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": profileResponse(profile)})
}

// DeactivateUser POST /admin/users/:id/deactivate.
func (h *AccountsHandler) DeactivateUser(c *fiber.Ctx) error {
	actor, err := actorFromRequest(c)
	if err != nil {
		return err
	}
	if err := h.accounts.DeactivateUser(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// DeleteUser DELETE /admin/users/:id.
func (h *AccountsHandler) DeleteUser(c *fiber.Ctx) error {
	actor, err := actorFromRequest(c)
	if err != nil {
		return err
	}
	if err := h.accounts.DeleteUser(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func profileResponse(profile *domain.ProfessionalProfile) dto.ProfileResponse {
	return dto.ProfileResponse{
		ID:              profile.ID,
		UserID:          profile.UserID,
		ServiceID:       profile.ServiceID,
		Description:     profile.Description,
		ExperienceYears: profile.ExperienceYears,
		ServicePincodes: profile.ServicePincodes,
		Status:          profile.Status,
	}
}
