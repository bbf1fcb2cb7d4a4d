package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/marketplace-service/internal/authz"
	"github.com/spec-kit/marketplace-service/internal/cache"
	"github.com/spec-kit/marketplace-service/internal/domain"
	"github.com/spec-kit/marketplace-service/internal/observability"
	"github.com/spec-kit/marketplace-service/internal/repository"
	apperrors "github.com/spec-kit/marketplace-service/pkg/util"
)

// AccountService covers admin user management and professional profile
// vetting, with cached role-scoped listings.
type AccountService struct {
	users    repository.UserRepository
	profiles repository.ProfileRepository
	cache    cache.Cache
	ttl      time.Duration
	metrics  *observability.Metrics
}

// AccountDependencies bundles account service requirements.
type AccountDependencies struct {
	UserRepo    repository.UserRepository
	ProfileRepo repository.ProfileRepository
	Cache       cache.Cache
	CacheTTL    time.Duration
	Metrics     *observability.Metrics
}

// NewAccountService constructs the service.
func NewAccountService(deps AccountDependencies) *AccountService {
	return &AccountService{
		users:    deps.UserRepo,
		profiles: deps.ProfileRepo,
		cache:    deps.Cache,
		ttl:      deps.CacheTTL,
		metrics:  deps.Metrics,
	}
}

// CustomerSummary is the cache-friendly projection of a customer.
type CustomerSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Active bool   `json:"active"`
}

// ProfessionalSummary pairs a professional with their profile.
type ProfessionalSummary struct {
	ID      string                      `json:"id"`
	Name    string                      `json:"name"`
	Email   string                      `json:"email"`
	Active  bool                        `json:"active"`
	Profile *domain.ProfessionalProfile `json:"profile,omitempty"`
}

// ListCustomers returns all customer accounts, cached.
func (s *AccountService) ListCustomers(ctx context.Context, actor authz.Actor) ([]CustomerSummary, error) {
	if d := authz.Decide(actor, authz.ActionList, authz.Resource{Type: authz.ResourceUser}); !d.Allowed {
		return nil, apperrors.NewForbidden(d.Reason)
	}

	key := cache.ListKey(cache.ResourceCustomers)
	customers, hit, err := cache.GetThrough(ctx, s.cache, key, s.ttl, func(ctx context.Context) ([]CustomerSummary, error) {
		users, err := s.users.ListByRole(ctx, domain.RoleCustomer)
		if err != nil {
			return nil, err
		}
		summaries := make([]CustomerSummary, 0, len(users))
		for _, user := range users {
			summaries = append(summaries, CustomerSummary{
				ID:     user.ID,
				Name:   user.Name,
				Email:  user.Email,
				Active: user.Active,
			})
		}
		return summaries, nil
	})
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}
	s.recordCache(key, hit)
	return customers, nil
}

// ListProfessionals returns all professional accounts with their
// profiles, cached.
func (s *AccountService) ListProfessionals(ctx context.Context, actor authz.Actor) ([]ProfessionalSummary, error) {
	if d := authz.Decide(actor, authz.ActionList, authz.Resource{Type: authz.ResourceProfile}); !d.Allowed {
		return nil, apperrors.NewForbidden(d.Reason)
	}

	key := cache.ListKey(cache.ResourceProfessionals)
	professionals, hit, err := cache.GetThrough(ctx, s.cache, key, s.ttl, func(ctx context.Context) ([]ProfessionalSummary, error) {
		return s.loadProfessionals(ctx)
	})
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}
	s.recordCache(key, hit)
	return professionals, nil
}

func (s *AccountService) loadProfessionals(ctx context.Context) ([]ProfessionalSummary, error) {
	users, err := s.users.ListByRole(ctx, domain.RoleProfessional)
	if err != nil {
		return nil, err
	}
	summaries := make([]ProfessionalSummary, 0, len(users))
	for _, user := range users {
		summary := ProfessionalSummary{
			ID:     user.ID,
			Name:   user.Name,
			Email:  user.Email,
			Active: user.Active,
		}
		profile, err := s.profiles.GetByUserID(ctx, user.ID)
		if err != nil && err != pgx.ErrNoRows {
			return nil, err
		}
		if err == nil {
			summary.Profile = profile
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// SetProfileApproval moves a professional profile to approved or
// rejected. Admin only.
func (s *AccountService) SetProfileApproval(ctx context.Context, actor authz.Actor, profileID string, status domain.ApprovalStatus) (*domain.ProfessionalProfile, error) {
	if d := authz.Decide(actor, authz.ActionTransition, authz.Resource{Type: authz.ResourceProfile}); !d.Allowed {
		return nil, apperrors.NewForbidden(d.Reason)
	}
	if status != domain.ApprovalApproved && status != domain.ApprovalRejected {
		return nil, apperrors.NewValidationError("status must be approved or rejected", nil)
	}

	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("profile", map[string]any{"id": profileID})
		}
		return nil, apperrors.NewStoreError(err)
	}

	profile.Status = status
	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, apperrors.NewStoreError(err)
	}

	s.invalidateProfessionals(ctx, profile.UserID)
	return profile, nil
}

// UpdateProfile edits profile fields. Owner or admin.
func (s *AccountService) UpdateProfile(ctx context.Context, actor authz.Actor, profileID string, description, pincodes string, experienceYears int) (*domain.ProfessionalProfile, error) {
	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("profile", map[string]any{"id": profileID})
		}
		return nil, apperrors.NewStoreError(err)
	}

	resource := authz.Resource{Type: authz.ResourceProfile, OwnerUserID: profile.UserID}
	if d := authz.Decide(actor, authz.ActionTransition, resource); !d.Allowed {
		return nil, apperrors.NewForbidden(d.Reason)
	}

	profile.Description = description
	profile.ServicePincodes = pincodes
	profile.ExperienceYears = experienceYears
	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, apperrors.NewStoreError(err)
	}

	s.invalidateProfessionals(ctx, profile.UserID)
	return profile, nil
}

// DeactivateUser flips the active flag off without deleting anything.
// Admin only.
func (s *AccountService) DeactivateUser(ctx context.Context, actor authz.Actor, userID string) error {
	if d := authz.Decide(actor, authz.ActionTransition, authz.Resource{Type: authz.ResourceUser}); !d.Allowed {
		return apperrors.NewForbidden(d.Reason)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("user", map[string]any{"id": userID})
		}
		return apperrors.NewStoreError(err)
	}

	user.Active = false
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.NewStoreError(err)
	}

	s.invalidateUserListings(ctx, user)
	return nil
}

// DeleteUser removes the user and everything referencing it in one
// transaction. Admin only.
func (s *AccountService) DeleteUser(ctx context.Context, actor authz.Actor, userID string) error {
	if d := authz.Decide(actor, authz.ActionDelete, authz.Resource{Type: authz.ResourceUser}); !d.Allowed {
		return apperrors.NewForbidden(d.Reason)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("user", map[string]any{"id": userID})
		}
		return apperrors.NewStoreError(err)
	}

	deleted, err := s.users.DeleteCascade(ctx, userID)
	if err != nil {
		return apperrors.NewStoreError(err)
	}

	// The cascade removes requests and reviews, so their list keys and
	// the item key of every removed row join the invalidation set
	// alongside the role listings.
	s.invalidateUserListings(ctx, user)
	if s.cache != nil {
		keys := []string{
			cache.ListKey(cache.ResourceServiceRequests),
			cache.ListKey(cache.ResourceReviews),
		}
		for _, id := range deleted.RequestIDs {
			keys = append(keys, cache.ItemKey(cache.ResourceServiceRequests, id))
		}
		for _, id := range deleted.ReviewIDs {
			keys = append(keys, cache.ItemKey(cache.ResourceReviews, id))
		}
		_, _ = s.cache.Invalidate(ctx, keys...)
	}
	return nil
}

func (s *AccountService) invalidateProfessionals(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	_, _ = s.cache.Invalidate(ctx, cache.MutationKeys(cache.ResourceProfessionals, userID)...)
}

func (s *AccountService) invalidateUserListings(ctx context.Context, user *domain.User) {
	if s.cache == nil {
		return
	}
	if user.HasRole(domain.RoleCustomer) {
		_, _ = s.cache.Invalidate(ctx, cache.MutationKeys(cache.ResourceCustomers, user.ID)...)
	}
	if user.HasRole(domain.RoleProfessional) {
		_, _ = s.cache.Invalidate(ctx, cache.MutationKeys(cache.ResourceProfessionals, user.ID)...)
	}
}

func (s *AccountService) recordCache(key string, hit bool) {
	if hit {
		s.metrics.RecordCacheHit(key)
	} else {
		s.metrics.RecordCacheMiss(key)
	}
}
