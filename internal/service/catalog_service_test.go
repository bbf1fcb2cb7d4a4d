package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/marketplace-service/internal/authz"
	"github.com/spec-kit/marketplace-service/internal/cache"
	"github.com/spec-kit/marketplace-service/internal/domain"
	"github.com/spec-kit/marketplace-service/internal/observability"
	apperrors "github.com/spec-kit/marketplace-service/pkg/util"
)

// countingServiceRepo tracks store round trips so tests can tell cache
// hits from misses.
type countingServiceRepo struct {
	byID      map[string]*domain.Service
	listCalls int
	getCalls  int
	nextID    int
}

func newCountingServiceRepo(services ...*domain.Service) *countingServiceRepo {
	r := &countingServiceRepo{byID: make(map[string]*domain.Service)}
	for _, svc := range services {
		r.byID[svc.ID] = svc
	}
	return r
}

func (r *countingServiceRepo) Create(ctx context.Context, svc *domain.Service) error {
	r.nextID++
	svc.ID = fmt.Sprintf("svc-%d", r.nextID)
	clone := *svc
	r.byID[svc.ID] = &clone
	return nil
}

func (r *countingServiceRepo) Update(ctx context.Context, svc *domain.Service) error {
	if _, ok := r.byID[svc.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *svc
	r.byID[svc.ID] = &clone
	return nil
}

func (r *countingServiceRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.byID, id)
	return nil
}

func (r *countingServiceRepo) GetByID(ctx context.Context, id string) (*domain.Service, error) {
	r.getCalls++
	svc, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *svc
	return &clone, nil
}

func (r *countingServiceRepo) List(ctx context.Context) ([]domain.Service, error) {
	r.listCalls++
	var out []domain.Service
	for _, svc := range r.byID {
		out = append(out, *svc)
	}
	return out, nil
}

func newCatalogFixture(repo *countingServiceRepo) (*CatalogService, *cache.MemoryCache) {
	memory := cache.NewMemoryCache()
	svc := NewCatalogService(CatalogDependencies{
		ServiceRepo: repo,
		Cache:       memory,
		CacheTTL:    5 * time.Minute,
		Metrics:     observability.NewMetrics(),
	})
	return svc, memory
}

var catalogAdmin = authz.Actor{ID: "a1", Roles: []domain.Role{domain.RoleAdmin}}
var catalogCustomer = authz.Actor{ID: "c1", Roles: []domain.Role{domain.RoleCustomer}}

func TestListServices_SecondReadServedFromCache(t *testing.T) {
	repo := newCountingServiceRepo(&domain.Service{ID: "s1", Name: "Plumbing", BasePrice: 50, TimeRequired: 60})
	svc, _ := newCatalogFixture(repo)
	ctx := context.Background()

	first, err := svc.ListServices(ctx)
	require.NoError(t, err)
	assert.Len(t, first, 1)

	second, err := svc.ListServices(ctx)
	require.NoError(t, err)
	assert.Len(t, second, 1)

	assert.Equal(t, 1, repo.listCalls, "warm read must not touch the store")
}

func TestCreateService_InvalidatesListing(t *testing.T) {
	repo := newCountingServiceRepo(&domain.Service{ID: "s1", Name: "Plumbing", BasePrice: 50, TimeRequired: 60})
	svc, memory := newCatalogFixture(repo)
	ctx := context.Background()

	_, err := svc.ListServices(ctx)
	require.NoError(t, err)
	_, ok, _ := memory.Get(ctx, cache.ListKey(cache.ResourceServices))
	require.True(t, ok)

	created, err := svc.CreateService(ctx, catalogAdmin, ServiceInput{
		Name: "Cleaning", BasePrice: 30, TimeRequired: 45,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	_, ok, _ = memory.Get(ctx, cache.ListKey(cache.ResourceServices))
	assert.False(t, ok, "creation must drop the cached listing")

	listed, err := svc.ListServices(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestCreateService_NonAdminForbidden(t *testing.T) {
	svc, _ := newCatalogFixture(newCountingServiceRepo())

	_, err := svc.CreateService(context.Background(), catalogCustomer, ServiceInput{
		Name: "Cleaning", BasePrice: 30, TimeRequired: 45,
	})
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestCreateService_Validation(t *testing.T) {
	svc, _ := newCatalogFixture(newCountingServiceRepo())
	ctx := context.Background()

	_, err := svc.CreateService(ctx, catalogAdmin, ServiceInput{Name: " ", BasePrice: 30, TimeRequired: 45})
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	_, err = svc.CreateService(ctx, catalogAdmin, ServiceInput{Name: "x", BasePrice: 0, TimeRequired: 45})
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	_, err = svc.CreateService(ctx, catalogAdmin, ServiceInput{Name: "x", BasePrice: 10, TimeRequired: 0})
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestUpdateService_RefreshesAfterInvalidation(t *testing.T) {
	repo := newCountingServiceRepo(&domain.Service{ID: "s1", Name: "Plumbing", BasePrice: 50, TimeRequired: 60})
	svc, _ := newCatalogFixture(repo)
	ctx := context.Background()

	// Warm the item entry.
	_, err := svc.GetService(ctx, "s1")
	require.NoError(t, err)

	_, err = svc.UpdateService(ctx, catalogAdmin, "s1", ServiceInput{
		Name: "Plumbing Plus", BasePrice: 75, TimeRequired: 60,
	})
	require.NoError(t, err)

	got, err := svc.GetService(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Plumbing Plus", got.Name)
	assert.Equal(t, 75.0, got.BasePrice)
}

func TestDeleteService_NotFound(t *testing.T) {
	svc, _ := newCatalogFixture(newCountingServiceRepo())

	err := svc.DeleteService(context.Background(), catalogAdmin, "ghost")
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestGetService_NotFound(t *testing.T) {
	svc, _ := newCatalogFixture(newCountingServiceRepo())

	_, err := svc.GetService(context.Background(), "ghost")
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}
