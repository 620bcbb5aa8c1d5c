package crm

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims is the identity payload we accept from a verified token. There
// is deliberately no role or account accessor: authorization state is always
// re-derived from the local user store.
type AuthClaims interface {
	Subject() string
	UserID() string
	Name() string
	Email() string
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims for tokens this
// service mints and for mapped identity-provider tokens
type JWTClaims struct {
	jwt.RegisteredClaims
	UID       string `json:"uid,omitempty"`
	UserName  string `json:"name,omitempty"`
	UserEmail string `json:"email,omitempty"`
}

var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the local user id carried by locally minted tokens,
// falling back to the subject
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Name returns the display name claim, may be empty
func (c *JWTClaims) Name() string {
	return c.UserName
}

// Email returns the email claim, may be empty
func (c *JWTClaims) Email() string {
	return c.UserEmail
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// SubjectClaimsFromAuthClaims maps verified token claims to the resolver
// input
func SubjectClaimsFromAuthClaims(claims AuthClaims) SubjectClaims {
	if claims == nil {
		return SubjectClaims{}
	}
	return SubjectClaims{
		Subject: claims.Subject(),
		Name:    claims.Name(),
		Email:   claims.Email(),
	}
}
