package service

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Stephen-Salano/Spring-Security-example/internal/models"
	"github.com/Stephen-Salano/Spring-Security-example/internal/repo"
	"github.com/Stephen-Salano/Spring-Security-example/internal/tokens"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.RefreshToken{}))

	codec := tokens.New([]byte("test-jwt-secret"))
	return &AuthService{
		Repo: &repo.GormRepo{
			DB:         db,
			Codec:      codec,
			RefreshTTL: 24 * time.Hour,
		},
		Codec:     codec,
		AccessTTL: 15 * time.Minute,
	}
}

func validRegisterRequest() RegisterRequest {
	return RegisterRequest{
		FirstName: "Alice",
		LastName:  "Example",
		Username:  "alice",
		Email:     "alice@example.com",
		Password:  "hunter22hunter22",
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*RegisterRequest)
	}{
		{"blank first name", func(r *RegisterRequest) { r.FirstName = "" }},
		{"blank last name", func(r *RegisterRequest) { r.LastName = "" }},
		{"blank username", func(r *RegisterRequest) { r.Username = "" }},
		{"short username", func(r *RegisterRequest) { r.Username = "ab" }},
		{"blank email", func(r *RegisterRequest) { r.Email = "" }},
		{"malformed email", func(r *RegisterRequest) { r.Email = "not-an-email" }},
		{"blank password", func(r *RegisterRequest) { r.Password = "" }},
		{"short password", func(r *RegisterRequest) { r.Password = "short" }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := validRegisterRequest()
			tt.mutate(&req)
			_, err := svc.Register(ctx, req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestAuthService_Register_IssuesTokensAndDefaultRole(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, validRegisterRequest())
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	require.NotEmpty(t, res.RefreshToken)
	assert.Greater(t, res.ExpiresAt, time.Now().UnixMilli())

	sub, err := svc.Codec.ExtractSubject(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", sub)

	user, err := svc.Repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{models.RoleUser}, user.Roles)
	assert.NotEqual(t, "hunter22hunter22", user.PasswordHash)
}

func TestAuthService_Register_CustomRolesKept(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	req := validRegisterRequest()
	req.Roles = []string{"ADMIN", "USER"}

	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	user, err := svc.Repo.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"ADMIN", "USER"}, user.Roles)
}

func TestAuthService_Register_Conflict(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegisterRequest())
	require.NoError(t, err)

	_, err = svc.Register(ctx, validRegisterRequest())
	assert.ErrorIs(t, err, repo.ErrConflict)
}

func TestAuthService_Authenticate_ByUsernameAndEmail(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegisterRequest())
	require.NoError(t, err)

	byName, err := svc.Authenticate(ctx, "alice", "hunter22hunter22")
	require.NoError(t, err)
	byEmail, err := svc.Authenticate(ctx, "alice@example.com", "hunter22hunter22")
	require.NoError(t, err)

	// issued-at/jti change, so each login yields a fresh access token
	assert.NotEqual(t, byName.AccessToken, byEmail.AccessToken)

	nameClaims, err := svc.Codec.Verify(byName.AccessToken)
	require.NoError(t, err)
	emailClaims, err := svc.Codec.Verify(byEmail.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, nameClaims["roles"], emailClaims["roles"])
}

func TestAuthService_Authenticate_Failures(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegisterRequest())
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, err = svc.Authenticate(ctx, "nobody", "hunter22hunter22")
	assert.ErrorIs(t, err, repo.ErrUserNotFound)
}

func TestAuthService_Authenticate_SupersedesPreviousRefreshToken(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegisterRequest())
	require.NoError(t, err)

	first, err := svc.Authenticate(ctx, "alice", "hunter22hunter22")
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, "alice", "hunter22hunter22")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, repo.ErrTokenNotFound)
}

func TestAuthService_Refresh_RenewsAccessOnly(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, validRegisterRequest())
	require.NoError(t, err)

	res, err := svc.Refresh(ctx, reg.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, reg.RefreshToken, res.RefreshToken)
	assert.NotEqual(t, reg.AccessToken, res.AccessToken)

	sub, err := svc.Codec.ExtractSubject(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", sub)
}

func TestAuthService_Refresh_ExpiredTokenIsRevoked(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, validRegisterRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Repo.DB.Model(&models.RefreshToken{}).
		Where("token = ?", reg.RefreshToken).
		Update("expires_at", time.Now().Add(-time.Hour)).Error)

	_, err = svc.Refresh(ctx, reg.RefreshToken)
	assert.ErrorIs(t, err, repo.ErrTokenExpired)

	// a second attempt finds nothing: the token was deleted, not just refused
	_, err = svc.Refresh(ctx, reg.RefreshToken)
	assert.ErrorIs(t, err, repo.ErrTokenNotFound)
}

func TestAuthService_Refresh_UnknownToken(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	_, err := svc.Refresh(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, repo.ErrTokenNotFound)
}

func TestAuthService_Logout_RevokesRefreshToken(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, validRegisterRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, "alice"))

	_, err = svc.Refresh(ctx, reg.RefreshToken)
	assert.ErrorIs(t, err, repo.ErrTokenNotFound)

	// idempotent
	require.NoError(t, svc.Logout(ctx, "alice"))

	require.ErrorIs(t, svc.Logout(ctx, "nobody"), repo.ErrUserNotFound)
}
