package auth

import (
	"testing"
	"time"

	"github.com/commercive/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(expiration time.Duration) *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:     "test-secret-key-for-unit-tests-only",
		Expiration: expiration,
		Issuer:     "commercive-test",
	})
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := newTestService(time.Hour)
	tenantID := uuid.New()
	userID := uuid.New()

	t.Run("round trip", func(t *testing.T) {
		token, expiresAt, err := svc.GenerateToken(GenerateTokenInput{
			TenantID: tenantID,
			UserID:   userID,
			Username: "ops",
			Roles:    []string{"finance"},
		})
		require.NoError(t, err)
		assert.True(t, expiresAt.After(time.Now()))

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, tenantID.String(), claims.TenantID)
		assert.Equal(t, userID.String(), claims.UserID)
		assert.Equal(t, "ops", claims.Username)
		assert.Equal(t, []string{"finance"}, claims.Roles)
	})

	t.Run("requires tenant and user", func(t *testing.T) {
		_, _, err := svc.GenerateToken(GenerateTokenInput{UserID: userID})
		assert.ErrorIs(t, err, ErrMissingTenantID)

		_, _, err = svc.GenerateToken(GenerateTokenInput{TenantID: tenantID})
		assert.ErrorIs(t, err, ErrMissingUserID)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		expired := newTestService(-time.Minute)
		token, _, err := expired.GenerateToken(GenerateTokenInput{
			TenantID: tenantID,
			UserID:   userID,
		})
		require.NoError(t, err)

		_, err = expired.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("rejects token signed with another secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{
			Secret:     "a-completely-different-secret-value",
			Expiration: time.Hour,
			Issuer:     "commercive-test",
		})
		token, _, err := other.GenerateToken(GenerateTokenInput{
			TenantID: tenantID,
			UserID:   userID,
		})
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
