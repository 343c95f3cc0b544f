package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/pageza/recipe-api/backend/internal/errors"
	"github.com/pageza/recipe-api/backend/internal/models"
	"github.com/pageza/recipe-api/backend/internal/service"
	"github.com/pageza/recipe-api/backend/internal/testhelpers"
	"github.com/pageza/recipe-api/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupAuthTest(t *testing.T) (*gorm.DB, *service.AuthService) {
	db := testhelpers.SetupTestDatabase(t)
	return db, service.NewAuthService(db, "test-secret", time.Hour)
}

func fieldErrors(t *testing.T, err error) apperrors.FieldErrors {
	t.Helper()
	var domainErr *apperrors.Error
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, apperrors.CodeValidation, domainErr.Code)
	return domainErr.Details
}

func TestCreateUser(t *testing.T) {
	db, svc := setupAuthTest(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, &types.CreateUserRequest{
		Email:    "  Cook@EXAMPLE.COM ",
		Password: "testpass123",
		Name:     "Cook",
	})
	require.NoError(t, err)
	assert.Equal(t, "Cook@example.com", user.Email)
	assert.NotEqual(t, "testpass123", user.PasswordHash)

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.True(t, stored.IsActive)
}

func TestCreateUserValidation(t *testing.T) {
	_, svc := setupAuthTest(t)

	_, err := svc.CreateUser(context.Background(), &types.CreateUserRequest{
		Email:    "not-an-email",
		Password: "pw",
	})
	details := fieldErrors(t, err)
	assert.Contains(t, details, "email")
	assert.Equal(t, "must be at least 5 characters", details["password"])
	assert.Equal(t, "this field is required", details["name"])
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	_, svc := setupAuthTest(t)
	ctx := context.Background()
	req := types.CreateUserRequest{Email: "dup@example.com", Password: "testpass123", Name: "One"}

	_, err := svc.CreateUser(ctx, &req)
	require.NoError(t, err)

	again := types.CreateUserRequest{Email: "dup@EXAMPLE.com", Password: "testpass123", Name: "Two"}
	_, err = svc.CreateUser(ctx, &again)
	assert.Equal(t, "user with this email already exists", fieldErrors(t, err)["email"])
}

func TestIssueAndValidateToken(t *testing.T) {
	db, svc := setupAuthTest(t)
	ctx := context.Background()
	user := testhelpers.CreateUser(t, db, "token@example.com")

	token, err := svc.IssueToken(ctx, &types.TokenRequest{Email: "token@EXAMPLE.com", Password: testhelpers.DefaultPassword})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
}

func TestIssueTokenRejectsBadCredentials(t *testing.T) {
	db, svc := setupAuthTest(t)
	ctx := context.Background()
	testhelpers.CreateUser(t, db, "cred@example.com")

	tests := []struct {
		name string
		req  types.TokenRequest
	}{
		{name: "wrong password", req: types.TokenRequest{Email: "cred@example.com", Password: "wrong"}},
		{name: "unknown user", req: types.TokenRequest{Email: "nobody@example.com", Password: testhelpers.DefaultPassword}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := svc.IssueToken(ctx, &tt.req)
			assert.Empty(t, token)
			assert.Equal(t, "unable to authenticate with provided credentials", fieldErrors(t, err)["credentials"])
		})
	}

	_, err := svc.IssueToken(ctx, &types.TokenRequest{Email: "cred@example.com"})
	assert.Equal(t, "this field is required", fieldErrors(t, err)["password"])
}

func TestIssueTokenInactiveUser(t *testing.T) {
	db, svc := setupAuthTest(t)
	user := testhelpers.CreateUser(t, db, "inactive@example.com")
	require.NoError(t, db.Model(user).Update("is_active", false).Error)

	_, err := svc.IssueToken(context.Background(), &types.TokenRequest{Email: user.Email, Password: testhelpers.DefaultPassword})
	assert.Contains(t, fieldErrors(t, err), "credentials")
}

func TestValidateTokenFailures(t *testing.T) {
	db, svc := setupAuthTest(t)
	ctx := context.Background()
	user := testhelpers.CreateUser(t, db, "v@example.com")

	_, err := svc.ValidateToken(ctx, "garbage")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	other := service.NewAuthService(db, "other-secret", time.Hour)
	foreign, err := other.GenerateToken(user)
	require.NoError(t, err)
	_, err = svc.ValidateToken(ctx, foreign)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	expired := service.NewAuthService(db, "test-secret", -time.Minute)
	stale, err := expired.GenerateToken(user)
	require.NoError(t, err)
	_, err = svc.ValidateToken(ctx, stale)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": user.ID})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ValidateToken(ctx, unsigned)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	valid, err := svc.GenerateToken(user)
	require.NoError(t, err)
	require.NoError(t, db.Delete(user).Error)
	_, err = svc.ValidateToken(ctx, valid)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestGetUser(t *testing.T) {
	db, svc := setupAuthTest(t)
	user := testhelpers.CreateUser(t, db, "me@example.com")

	got, err := svc.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", got.Email)

	_, err = svc.GetUser(context.Background(), user.ID+100)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "Foo.Bar@example.com", service.NormalizeEmail(" Foo.Bar@Example.COM "))
	assert.Equal(t, "no-at-sign", service.NormalizeEmail("no-at-sign"))
}
