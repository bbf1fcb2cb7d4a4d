package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/marketplace-service/internal/authz"
	"github.com/spec-kit/marketplace-service/internal/cache"
	"github.com/spec-kit/marketplace-service/internal/domain"
	"github.com/spec-kit/marketplace-service/internal/observability"
	"github.com/spec-kit/marketplace-service/internal/repository"
	apperrors "github.com/spec-kit/marketplace-service/pkg/util"
)

func newAccountFixture() (*AccountService, *stubUserRepo, *stubProfileRepo, *cache.MemoryCache) {
	users := newStubUserRepo(
		&domain.User{ID: "a1", Name: "Root", Email: "root@example.com", Active: true, Roles: []domain.Role{domain.RoleAdmin}},
		&domain.User{ID: "c1", Name: "Alice", Email: "alice@example.com", Active: true, Roles: []domain.Role{domain.RoleCustomer}},
		&domain.User{ID: "p1", Name: "Bob", Email: "bob@example.com", Active: true, Roles: []domain.Role{domain.RoleProfessional}},
	)
	profiles := newStubProfileRepo(&domain.ProfessionalProfile{
		ID: "prof-1", UserID: "p1", ServiceID: "s1", Status: domain.ApprovalPending,
	})
	memory := cache.NewMemoryCache()
	svc := NewAccountService(AccountDependencies{
		UserRepo:    users,
		ProfileRepo: profiles,
		Cache:       memory,
		CacheTTL:    5 * time.Minute,
		Metrics:     observability.NewMetrics(),
	})
	return svc, users, profiles, memory
}

var accountAdmin = authz.Actor{ID: "a1", Roles: []domain.Role{domain.RoleAdmin}}

func TestListCustomers_AdminOnly(t *testing.T) {
	svc, _, _, _ := newAccountFixture()
	ctx := context.Background()

	customers, err := svc.ListCustomers(ctx, accountAdmin)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, "Alice", customers[0].Name)

	customer := authz.Actor{ID: "c1", Roles: []domain.Role{domain.RoleCustomer}}
	_, err = svc.ListCustomers(ctx, customer)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestListProfessionals_IncludesProfile(t *testing.T) {
	svc, _, _, _ := newAccountFixture()

	professionals, err := svc.ListProfessionals(context.Background(), accountAdmin)
	require.NoError(t, err)
	require.Len(t, professionals, 1)
	require.NotNil(t, professionals[0].Profile)
	assert.Equal(t, domain.ApprovalPending, professionals[0].Profile.Status)
}

func TestSetProfileApproval(t *testing.T) {
	svc, _, profiles, memory := newAccountFixture()
	ctx := context.Background()

	// Warm the professionals listing so approval has something to drop.
	_, err := svc.ListProfessionals(ctx, accountAdmin)
	require.NoError(t, err)
	_, ok, _ := memory.Get(ctx, cache.ListKey(cache.ResourceProfessionals))
	require.True(t, ok)

	profile, err := svc.SetProfileApproval(ctx, accountAdmin, "prof-1", domain.ApprovalApproved)
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalApproved, profile.Status)

	stored, err := profiles.GetByUserID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalApproved, stored.Status)

	_, ok, _ = memory.Get(ctx, cache.ListKey(cache.ResourceProfessionals))
	assert.False(t, ok, "approval must drop the cached listing")
}

func TestSetProfileApproval_RejectsBadStatus(t *testing.T) {
	svc, _, _, _ := newAccountFixture()

	_, err := svc.SetProfileApproval(context.Background(), accountAdmin, "prof-1", domain.ApprovalPending)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestUpdateProfile_OwnerOnly(t *testing.T) {
	svc, _, _, _ := newAccountFixture()
	ctx := context.Background()

	owner := authz.Actor{ID: "p1", Roles: []domain.Role{domain.RoleProfessional}}
	updated, err := svc.UpdateProfile(ctx, owner, "prof-1", "seasoned plumber", "110001,110002", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, updated.ExperienceYears)

	intruder := authz.Actor{ID: "p2", Roles: []domain.Role{domain.RoleProfessional}}
	_, err = svc.UpdateProfile(ctx, intruder, "prof-1", "hijacked", "", 0)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestDeactivateUser(t *testing.T) {
	svc, users, _, _ := newAccountFixture()
	ctx := context.Background()

	require.NoError(t, svc.DeactivateUser(ctx, accountAdmin, "c1"))

	user, err := users.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, user.Active)
}

func TestDeleteUser_DropsDependentListings(t *testing.T) {
	svc, users, _, memory := newAccountFixture()
	ctx := context.Background()

	// Warm listings the cascade can affect.
	require.NoError(t, memory.Put(ctx, cache.ListKey(cache.ResourceServiceRequests), []byte("[]"), time.Minute))
	require.NoError(t, memory.Put(ctx, cache.ListKey(cache.ResourceReviews), []byte("[]"), time.Minute))
	_, err := svc.ListCustomers(ctx, accountAdmin)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, accountAdmin, "c1"))

	_, err = users.GetByID(ctx, "c1")
	assert.Error(t, err)

	for _, key := range []string{
		cache.ListKey(cache.ResourceCustomers),
		cache.ListKey(cache.ResourceServiceRequests),
		cache.ListKey(cache.ResourceReviews),
	} {
		_, ok, _ := memory.Get(ctx, key)
		assert.False(t, ok, "key %s must be invalidated", key)
	}
}

func TestDeleteUser_DropsDeletedItemKeys(t *testing.T) {
	svc, users, _, memory := newAccountFixture()
	ctx := context.Background()

	users.cascade = repository.CascadeDeleted{
		RequestIDs: []string{"req-1", "req-2"},
		ReviewIDs:  []string{"rev-1"},
	}
	itemKeys := []string{
		cache.ItemKey(cache.ResourceServiceRequests, "req-1"),
		cache.ItemKey(cache.ResourceServiceRequests, "req-2"),
		cache.ItemKey(cache.ResourceReviews, "rev-1"),
	}
	for _, key := range itemKeys {
		require.NoError(t, memory.Put(ctx, key, []byte(`{}`), time.Minute))
	}

	require.NoError(t, svc.DeleteUser(ctx, accountAdmin, "c1"))

	// A cached copy of a cascaded-away row would resurrect it on read.
	for _, key := range itemKeys {
		_, ok, _ := memory.Get(ctx, key)
		assert.False(t, ok, "key %s must be invalidated", key)
	}
}

func TestDeleteUser_NotFound(t *testing.T) {
	svc, _, _, _ := newAccountFixture()

	err := svc.DeleteUser(context.Background(), accountAdmin, "ghost")
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}
