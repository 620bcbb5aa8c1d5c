package crm_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	crm "github.com/goliatone/go-crm"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenServiceGenerate(t *testing.T) {
	signingKey := []byte("test-signing-key")
	audience := jwt.ClaimStrings{"test-audience"}
	service := crm.NewTokenService(signingKey, 24, "test-issuer", audience, nil)

	user := &crm.User{
		ID:    uuid.New(),
		Email: "rep@example.com",
		Name:  "Rep",
		Role:  crm.RoleAdmin,
	}

	tokenString, err := service.Generate(user)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	token, err := jwt.ParseWithClaims(tokenString, &crm.JWTClaims{}, func(token *jwt.Token) (any, error) {
		return signingKey, nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(*crm.JWTClaims)
	require.True(t, ok)
	assert.Equal(t, user.ID.String(), claims.UserID())
	assert.Equal(t, "test-issuer", claims.Issuer)
	assert.Equal(t, "rep@example.com", claims.Email())
	assert.Equal(t, "Rep", claims.Name())
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.Expires(), time.Minute)

	t.Run("token never carries role or account", func(t *testing.T) {
		raw, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
		require.NoError(t, err)

		mapped, ok := raw.Claims.(jwt.MapClaims)
		require.True(t, ok)
		assert.NotContains(t, mapped, "role")
		assert.NotContains(t, mapped, "account_id")
	})

	t.Run("nil user is rejected", func(t *testing.T) {
		_, err := service.Generate(nil)
		assert.Error(t, err)
	})
}

func TestTokenServiceValidate(t *testing.T) {
	signingKey := []byte("test-signing-key")
	audience := jwt.ClaimStrings{"test-audience"}
	service := crm.NewTokenService(signingKey, 24, "test-issuer", audience, nil)

	user := &crm.User{ID: uuid.New(), Email: "rep@example.com"}

	t.Run("round trip", func(t *testing.T) {
		tokenString, err := service.Generate(user)
		require.NoError(t, err)

		claims, err := service.Validate(tokenString)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), claims.UserID())
	})

	t.Run("wrong key", func(t *testing.T) {
		other := crm.NewTokenService([]byte("other-key"), 24, "test-issuer", audience, nil)
		tokenString, err := other.Generate(user)
		require.NoError(t, err)

		_, err = service.Validate(tokenString)
		require.Error(t, err)
		assert.True(t, crm.IsMalformedError(err))
	})

	t.Run("expired", func(t *testing.T) {
		expired := crm.NewTokenService(signingKey, -1, "test-issuer", audience, nil)
		tokenString, err := expired.Generate(user)
		require.NoError(t, err)

		_, err = service.Validate(tokenString)
		require.Error(t, err)
		assert.True(t, crm.IsTokenExpiredError(err))
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := crm.NewTokenService(signingKey, 24, "other-issuer", audience, nil)
		tokenString, err := other.Generate(user)
		require.NoError(t, err)

		_, err = service.Validate(tokenString)
		assert.Error(t, err)
	})

	t.Run("alg none is rejected", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, &crm.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "test-issuer",
				Audience:  audience,
				Subject:   user.ID.String(),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = service.Validate(tokenString)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := service.Validate("not-a-token")
		require.Error(t, err)
		assert.True(t, crm.IsMalformedError(err))
	})
}
