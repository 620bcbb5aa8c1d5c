package crm_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	crm "github.com/goliatone/go-crm"
	"github.com/stretchr/testify/assert"
)

func TestJWTClaimsAccessors(t *testing.T) {
	now := time.Now().Truncate(time.Second)

	claims := &crm.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "okta|abc-123",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserName:  "Ada Lovelace",
		UserEmail: "ada@example.com",
	}

	assert.Equal(t, "okta|abc-123", claims.Subject())
	assert.Equal(t, "Ada Lovelace", claims.Name())
	assert.Equal(t, "ada@example.com", claims.Email())
	assert.Equal(t, now.Add(time.Hour), claims.Expires())
	assert.Equal(t, now, claims.IssuedAt())
}

func TestJWTClaimsUserIDFallsBackToSubject(t *testing.T) {
	claims := &crm.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "okta|abc-123"},
	}
	assert.Equal(t, "okta|abc-123", claims.UserID())

	claims.UID = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", claims.UserID())
}

func TestJWTClaimsZeroTimes(t *testing.T) {
	claims := &crm.JWTClaims{}
	assert.True(t, claims.Expires().IsZero())
	assert.True(t, claims.IssuedAt().IsZero())
}

func TestSubjectClaimsFromAuthClaims(t *testing.T) {
	t.Run("nil claims yields zero value", func(t *testing.T) {
		assert.Equal(t, crm.SubjectClaims{}, crm.SubjectClaimsFromAuthClaims(nil))
	})

	t.Run("maps identity fields", func(t *testing.T) {
		claims := &crm.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "okta|abc-123"},
			UserName:         "Ada Lovelace",
			UserEmail:        "ada@example.com",
		}

		sc := crm.SubjectClaimsFromAuthClaims(claims)
		assert.Equal(t, "okta|abc-123", sc.Subject)
		assert.Equal(t, "Ada Lovelace", sc.Name)
		assert.Equal(t, "ada@example.com", sc.Email)
	})
}
