package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/marketplace-service/internal/config"
	"github.com/spec-kit/marketplace-service/internal/domain"
	apperrors "github.com/spec-kit/marketplace-service/pkg/util"
)

func newAuthFixture() (*AuthService, *stubUserRepo, *stubProfileRepo) {
	users := newStubUserRepo()
	profiles := newStubProfileRepo()
	cfg := config.Config{Auth: config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 60,
		BcryptCost:            4,
	}}
	svc := NewAuthService(cfg, AuthDependencies{
		UserRepo:    users,
		ProfileRepo: profiles,
	})
	return svc, users, profiles
}

func TestRegisterCustomer(t *testing.T) {
	svc, users, _ := newAuthFixture()
	ctx := context.Background()

	user, token, exp, err := svc.RegisterCustomer(ctx, "Alice", "Alice@Example.com ", "hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.False(t, exp.IsZero())

	assert.Equal(t, "alice@example.com", user.Email, "email is normalized")
	assert.True(t, user.Active)
	assert.Equal(t, []domain.Role{domain.RoleCustomer}, user.Roles)
	assert.NotEqual(t, "hunter2", user.PasswordHash)

	stored, err := users.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)
}

func TestRegisterCustomer_DuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	_, _, _, err := svc.RegisterCustomer(ctx, "Alice", "alice@example.com", "hunter2")
	require.NoError(t, err)

	_, _, _, err = svc.RegisterCustomer(ctx, "Other Alice", "alice@example.com", "secret")
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestRegisterProfessional_CreatesPendingProfile(t *testing.T) {
	svc, _, profiles := newAuthFixture()
	ctx := context.Background()

	user, _, _, err := svc.RegisterProfessional(ctx, "Bob", "bob@example.com", "hunter2",
		ProfessionalProfileInput{ServiceID: "s1", ExperienceYears: 3, ServicePincodes: "110001"})
	require.NoError(t, err)
	assert.Equal(t, []domain.Role{domain.RoleProfessional}, user.Roles)

	profile, err := profiles.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalPending, profile.Status)
	assert.Equal(t, "s1", profile.ServiceID)
}

func TestRegisterProfessional_ServiceRequired(t *testing.T) {
	svc, _, _ := newAuthFixture()

	_, _, _, err := svc.RegisterProfessional(context.Background(), "Bob", "bob@example.com", "hunter2",
		ProfessionalProfileInput{})
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestLogin(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	registered, _, _, err := svc.RegisterCustomer(ctx, "Alice", "alice@example.com", "hunter2")
	require.NoError(t, err)

	user, token, _, err := svc.Login(ctx, "ALICE@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotEmpty(t, token)

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, claims.UserID)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	_, _, _, err := svc.RegisterCustomer(ctx, "Alice", "alice@example.com", "hunter2")
	require.NoError(t, err)

	_, _, _, err = svc.Login(ctx, "alice@example.com", "wrong")
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	svc, users, _ := newAuthFixture()
	ctx := context.Background()

	user, _, _, err := svc.RegisterCustomer(ctx, "Alice", "alice@example.com", "hunter2")
	require.NoError(t, err)

	user.Active = false
	require.NoError(t, users.Update(ctx, user))

	_, _, _, err = svc.Login(ctx, "alice@example.com", "hunter2")
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _, _ := newAuthFixture()

	_, _, _, err := svc.Login(context.Background(), "ghost@example.com", "hunter2")
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}
