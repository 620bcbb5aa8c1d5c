package crm

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// AuthStrategy selects how inbound requests are authenticated. The choice is
// configuration, never an ambient environment branch.
type AuthStrategy string

const (
	// StrategyLocalCredential verifies HS256 tokens minted by this service
	// after a password login
	StrategyLocalCredential AuthStrategy = "local"
	// StrategyRemoteSignedToken verifies identity-provider JWTs against a
	// remote JWKS, provisioning accounts just in time
	StrategyRemoteSignedToken AuthStrategy = "remote"
	// StrategySession resolves opaque server-side session ids
	StrategySession AuthStrategy = "session"
)

// Authenticator turns a request artifact into a trusted Principal.
// Implementations must be side-effect free on failure and must collapse every
// failure into ErrUnauthenticated at the boundary.
type Authenticator interface {
	Authenticate(ctx context.Context, artifact string) (Principal, error)
	Login(ctx context.Context, email, password string) (string, Principal, error)
}

// Config holds auth options
type Config interface {
	GetAuthStrategy() string
	GetSigningKey() string
	GetTokenExpiration() int
	GetIssuer() string
	GetAudience() []string
	GetJWKSEndpoint() string
	// GetCustomerRepEdit enables the legacy policy where sales reps may
	// update in-account customers. Default is the strict admin-only variant.
	GetCustomerRepEdit() bool
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// SessionStore maps opaque session ids to principals for the Session
// strategy. Implementations expire entries after their TTL.
type SessionStore interface {
	Issue(ctx context.Context, userID uuid.UUID) (string, error)
	Resolve(ctx context.Context, sessionID string) (uuid.UUID, error)
	Revoke(ctx context.Context, sessionID string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] CRM "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] CRM "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] CRM "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] CRM "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
