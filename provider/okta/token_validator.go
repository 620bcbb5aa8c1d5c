package okta

import (
	stderrors "errors"
	"fmt"
	"net/url"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	crm "github.com/goliatone/go-crm"
)

// TokenValidator validates Okta-issued JWTs using the org's remote JWKS.
// Keys are cached by the underlying keyfunc set and refreshed on a bounded
// interval; a fetch failure or timeout fails closed as an invalid token.
type TokenValidator struct {
	config Config
	jwks   *keyfunc.JWKS
}

// NewTokenValidator creates a new Okta token validator and starts the
// background JWKS refresh.
func NewTokenValidator(cfg Config) (*TokenValidator, error) {
	issuer := cfg.issuerURL()
	if issuer == "" {
		return nil, fmt.Errorf("okta: issuer or domain is required")
	}

	issuerURL, err := url.Parse(issuer)
	if err != nil {
		return nil, fmt.Errorf("okta: invalid issuer URL: %w", err)
	}
	if issuerURL.Scheme == "" || issuerURL.Host == "" {
		return nil, fmt.Errorf("okta: invalid issuer URL: %s", issuer)
	}

	jwks, err := keyfunc.Get(cfg.jwksURL(), keyfunc.Options{
		RefreshInterval:   cfg.refreshInterval(),
		RefreshTimeout:    cfg.refreshTimeout(),
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, fmt.Errorf("okta: failed to load JWKS: %w", err)
	}

	return &TokenValidator{
		config: cfg,
		jwks:   jwks,
	}, nil
}

// Validate implements crm.TokenValidator. Claims are mapped to the minimal
// identity payload: role or group claims in the token are ignored by design.
func (v *TokenValidator) Validate(tokenString string) (crm.AuthClaims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithIssuer(v.config.issuerURL()),
		jwt.WithValidMethods([]string{"RS256"}),
	}
	if len(v.config.Audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(v.config.Audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &oktaClaims{}, v.jwks.Keyfunc, parserOptions...)
	if err != nil {
		return nil, normalizeValidationError(err)
	}

	claims, ok := token.Claims.(*oktaClaims)
	if !ok || !token.Valid {
		return nil, crm.ErrTokenMalformed
	}

	return claims.toAuthClaims(), nil
}

// Close stops the background JWKS refresh goroutine.
func (v *TokenValidator) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}

type oktaClaims struct {
	jwt.RegisteredClaims
	DisplayName string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
}

func (c *oktaClaims) toAuthClaims() *crm.JWTClaims {
	email := c.Email
	if email == "" {
		// Okta commonly uses the login email as the subject
		email = c.RegisteredClaims.Subject
	}

	return &crm.JWTClaims{
		RegisteredClaims: c.RegisteredClaims,
		UserName:         c.DisplayName,
		UserEmail:        email,
	}
}

func normalizeValidationError(err error) error {
	if err == nil {
		return nil
	}

	clone := crm.ErrTokenMalformed.Clone()
	if stderrors.Is(err, jwt.ErrTokenExpired) {
		clone = crm.ErrTokenExpired.Clone()
	}

	clone.Source = err
	return clone.WithMetadata(map[string]any{
		"provider": "okta",
		"cause":    err.Error(),
	})
}
