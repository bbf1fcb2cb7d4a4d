package service

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/marketplace-service/internal/auth"
	"github.com/spec-kit/marketplace-service/internal/cache"
	"github.com/spec-kit/marketplace-service/internal/config"
	"github.com/spec-kit/marketplace-service/internal/domain"
	"github.com/spec-kit/marketplace-service/internal/repository"
	apperrors "github.com/spec-kit/marketplace-service/pkg/util"
)

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	profiles   repository.ProfileRepository
	cache      cache.Cache
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo    repository.UserRepository
	ProfileRepo repository.ProfileRepository
	Cache       cache.Cache
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		profiles:   deps.ProfileRepo,
		cache:      deps.Cache,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// TokenManager exposes the manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// ProfessionalProfileInput carries the profile fields collected at
// professional registration.
type ProfessionalProfileInput struct {
	ServiceID       string
	Description     string
	ExperienceYears int
	ServicePincodes string
}

// RegisterCustomer creates a customer account.
func (s *AuthService) RegisterCustomer(ctx context.Context, name, email, password string) (*domain.User, string, time.Time, error) {
	return s.register(ctx, name, email, password, domain.RoleCustomer, nil)
}

// RegisterProfessional creates a professional account together with its
// pending profile. The profile stays pending until an admin approves it.
func (s *AuthService) RegisterProfessional(ctx context.Context, name, email, password string, profile ProfessionalProfileInput) (*domain.User, string, time.Time, error) {
	if profile.ServiceID == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("service is required for professionals", nil)
	}
	return s.register(ctx, name, email, password, domain.RoleProfessional, &profile)
}

func (s *AuthService) register(ctx context.Context, name, email, password string, role domain.Role, profile *ProfessionalProfileInput) (*domain.User, string, time.Time, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	if name == "" || email == "" || password == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("name, email and password are required", nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if err != pgx.ErrNoRows {
		return nil, "", time.Time{}, apperrors.NewStoreError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Active:       true,
		Roles:        []domain.Role{role},
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", time.Time{}, apperrors.NewStoreError(err)
	}

	if profile != nil {
		record := &domain.ProfessionalProfile{
			UserID:          user.ID,
			ServiceID:       profile.ServiceID,
			Description:     profile.Description,
			ExperienceYears: profile.ExperienceYears,
			ServicePincodes: profile.ServicePincodes,
			Status:          domain.ApprovalPending,
		}
		if err := s.profiles.Create(ctx, record); err != nil {
			return nil, "", time.Time{}, apperrors.NewStoreError(err)
		}
	}

	s.invalidateRoleListing(ctx, role, user.ID)

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Roles)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return user, token, exp, nil
}

// Login authenticates a user of any role.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, "", time.Time{}, apperrors.NewNotFound("user", map[string]any{"email": email})
		}
		return nil, "", time.Time{}, apperrors.NewStoreError(err)
	}
	if !user.Active {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("account deactivated")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Roles)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return user, token, exp, nil
}

func (s *AuthService) invalidateRoleListing(ctx context.Context, role domain.Role, userID string) {
	if s.cache == nil {
		return
	}
	switch role {
	case domain.RoleCustomer:
		_, _ = s.cache.Invalidate(ctx, cache.MutationKeys(cache.ResourceCustomers, userID)...)
	case domain.RoleProfessional:
		_, _ = s.cache.Invalidate(ctx, cache.MutationKeys(cache.ResourceProfessionals, userID)...)
	}
}
