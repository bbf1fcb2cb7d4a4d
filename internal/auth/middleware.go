package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/marketplace-service/internal/domain"
	"github.com/spec-kit/marketplace-service/internal/repository"
	apperrors "github.com/spec-kit/marketplace-service/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	User *domain.User
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens *TokenManager
	users  repository.UserRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	user, err := m.users.GetByID(c.Context(), claims.UserID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewUnauthorized("user not found")
		}
		return apperrors.NewStoreError(err)
	}
	if !user.Active {
		return apperrors.NewUnauthorized("account deactivated")
	}

	c.Locals(principalKey, &Principal{User: user})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// RequireRole ensures the principal carries one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		for _, role := range allowed {
			if principal.User.HasRole(role) {
				return c.Next()
			}
		}
		return apperrors.NewForbidden("insufficient role")
	}
}
