package service

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/marketplace-service/internal/authz"
	"github.com/spec-kit/marketplace-service/internal/cache"
	"github.com/spec-kit/marketplace-service/internal/domain"
	"github.com/spec-kit/marketplace-service/internal/observability"
	"github.com/spec-kit/marketplace-service/internal/repository"
	apperrors "github.com/spec-kit/marketplace-service/pkg/util"
)

// CatalogService manages the admin-owned service catalog with
// read-through cached listings.
type CatalogService struct {
	services repository.ServiceRepository
	cache    cache.Cache
	ttl      time.Duration
	metrics  *observability.Metrics
}

// CatalogDependencies bundles catalog service requirements.
type CatalogDependencies struct {
	ServiceRepo repository.ServiceRepository
	Cache       cache.Cache
	CacheTTL    time.Duration
	Metrics     *observability.Metrics
}

// NewCatalogService constructs the service.
func NewCatalogService(deps CatalogDependencies) *CatalogService {
	return &CatalogService{
		services: deps.ServiceRepo,
		cache:    deps.Cache,
		ttl:      deps.CacheTTL,
		metrics:  deps.Metrics,
	}
}

// ServiceInput carries catalog entry fields.
type ServiceInput struct {
	Name         string
	BasePrice    float64
	TimeRequired int
	Description  string
}

func (in ServiceInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperrors.NewValidationError("service name is required", nil)
	}
	if in.BasePrice <= 0 {
		return apperrors.NewValidationError("base price must be positive", nil)
	}
	if in.TimeRequired <= 0 {
		return apperrors.NewValidationError("time required must be positive", nil)
	}
	return nil
}

// ListServices returns the catalog, served from cache when warm.
func (s *CatalogService) ListServices(ctx context.Context) ([]domain.Service, error) {
	key := cache.ListKey(cache.ResourceServices)
	services, hit, err := cache.GetThrough(ctx, s.cache, key, s.ttl, func(ctx context.Context) ([]domain.Service, error) {
		return s.services.List(ctx)
	})
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}
	s.recordCache(key, hit)
	return services, nil
}

// GetService returns a single catalog entry.
func (s *CatalogService) GetService(ctx context.Context, id string) (*domain.Service, error) {
	key := cache.ItemKey(cache.ResourceServices, id)
	service, hit, err := cache.GetThrough(ctx, s.cache, key, s.ttl, func(ctx context.Context) (*domain.Service, error) {
		return s.services.GetByID(ctx, id)
	})
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("service", map[string]any{"id": id})
		}
		return nil, apperrors.NewStoreError(err)
	}
	s.recordCache(key, hit)
	return service, nil
}

// CreateService adds a catalog entry. Admin only.
func (s *CatalogService) CreateService(ctx context.Context, actor authz.Actor, input ServiceInput) (*domain.Service, error) {
	if d := authz.Decide(actor, authz.ActionCreate, authz.Resource{Type: authz.ResourceService}); !d.Allowed {
		return nil, apperrors.NewForbidden(d.Reason)
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	service := &domain.Service{
		Name:         strings.TrimSpace(input.Name),
		BasePrice:    input.BasePrice,
		TimeRequired: input.TimeRequired,
		Description:  input.Description,
	}
	if err := s.services.Create(ctx, service); err != nil {
		return nil, apperrors.NewStoreError(err)
	}

	s.invalidate(ctx, service.ID)
	return service, nil
}

// UpdateService rewrites a catalog entry. Admin only.
func (s *CatalogService) UpdateService(ctx context.Context, actor authz.Actor, id string, input ServiceInput) (*domain.Service, error) {
	if d := authz.Decide(actor, authz.ActionTransition, authz.Resource{Type: authz.ResourceService}); !d.Allowed {
		return nil, apperrors.NewForbidden(d.Reason)
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	service, err := s.services.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("service", map[string]any{"id": id})
		}
		return nil, apperrors.NewStoreError(err)
	}

	service.Name = strings.TrimSpace(input.Name)
	service.BasePrice = input.BasePrice
	service.TimeRequired = input.TimeRequired
	service.Description = input.Description
	if err := s.services.Update(ctx, service); err != nil {
		return nil, apperrors.NewStoreError(err)
	}

	s.invalidate(ctx, id)
	return service, nil
}

// DeleteService removes a catalog entry. Admin only.
func (s *CatalogService) DeleteService(ctx context.Context, actor authz.Actor, id string) error {
	if d := authz.Decide(actor, authz.ActionDelete, authz.Resource{Type: authz.ResourceService}); !d.Allowed {
		return apperrors.NewForbidden(d.Reason)
	}

	if err := s.services.Delete(ctx, id); err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("service", map[string]any{"id": id})
		}
		return apperrors.NewStoreError(err)
	}

	s.invalidate(ctx, id)
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	// Post-commit, pre-return. A reader racing this window can still see
	// the prior cached value; accepted one-round-trip staleness.
	_, _ = s.cache.Invalidate(ctx, cache.MutationKeys(cache.ResourceServices, id)...)
}

func (s *CatalogService) recordCache(key string, hit bool) {
	if hit {
		s.metrics.RecordCacheHit(key)
	} else {
		s.metrics.RecordCacheMiss(key)
	}
}
