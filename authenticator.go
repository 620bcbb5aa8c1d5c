package crm

import (
	"context"

	"github.com/google/uuid"
)

// Auther implements the Authenticator interface. The configured strategy
// decides how an inbound artifact is verified; every strategy ends in the
// resolver so role and account state is fresh on each request.
type Auther struct {
	strategy       AuthStrategy
	resolver       *PrincipalResolver
	tokenService   TokenService
	tokenValidator TokenValidator
	sessions       SessionStore
	logger         Logger
}

// NewAuthenticator returns a new Authenticator for the strategy named in the
// config. The remote strategy needs a token validator set via
// WithTokenValidator; the session strategy defaults to an in-memory store.
func NewAuthenticator(resolver *PrincipalResolver, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	strategy := AuthStrategy(opts.GetAuthStrategy())
	if strategy == "" {
		strategy = StrategyLocalCredential
	}

	return &Auther{
		strategy:     strategy,
		resolver:     resolver,
		tokenService: tokenService,
		sessions:     NewMemorySessionStore(0),
		logger:       defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithTokenService replaces the default HS256 service
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	if ts != nil {
		s.tokenService = ts
	}
	return s
}

// WithTokenValidator sets the validator for externally issued tokens, used by
// the remote strategy
func (s *Auther) WithTokenValidator(validator TokenValidator) *Auther {
	s.tokenValidator = validator
	return s
}

// WithSessionStore replaces the default in-memory session store
func (s *Auther) WithSessionStore(store SessionStore) *Auther {
	if store != nil {
		s.sessions = store
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Strategy returns the configured strategy
func (s *Auther) Strategy() AuthStrategy {
	return s.strategy
}

var _ Authenticator = (*Auther)(nil)

// Authenticate verifies an artifact per the configured strategy and resolves
// the principal. Every failure, missing artifact, bad signature, expired
// token, unknown session, collapses into ErrUnauthenticated so callers cannot
// distinguish them.
func (s *Auther) Authenticate(ctx context.Context, artifact string) (Principal, error) {
	if artifact == "" {
		return Principal{}, ErrUnauthenticated
	}

	switch s.strategy {
	case StrategyLocalCredential:
		return s.authenticateLocal(ctx, artifact)
	case StrategyRemoteSignedToken:
		return s.authenticateRemote(ctx, artifact)
	case StrategySession:
		return s.authenticateSession(ctx, artifact)
	default:
		s.logger.Error("Authenticate unknown strategy", "strategy", s.strategy)
		return Principal{}, ErrUnauthenticated
	}
}

// Login verifies local credentials and issues the strategy's artifact: an
// HS256 token for the local strategy, an opaque session id for the session
// strategy. The remote strategy has no local login.
func (s *Auther) Login(ctx context.Context, email, password string) (string, Principal, error) {
	if s.strategy == StrategyRemoteSignedToken {
		s.logger.Warn("Login attempted under remote strategy")
		return "", Principal{}, ErrInvalidCredentials
	}

	user, err := s.resolver.ResolveCredentials(ctx, email, password)
	if err != nil {
		return "", Principal{}, err
	}

	var artifact string
	switch s.strategy {
	case StrategySession:
		artifact, err = s.sessions.Issue(ctx, user.ID)
	default:
		artifact, err = s.tokenService.Generate(user)
	}
	if err != nil {
		s.logger.Error("Login failed to issue artifact", "error", err)
		return "", Principal{}, err
	}

	return artifact, user.Principal(), nil
}

// Logout revokes a session artifact. Token strategies have nothing to revoke
// server side; the call is a no-op for them.
func (s *Auther) Logout(ctx context.Context, artifact string) error {
	if s.strategy != StrategySession || artifact == "" {
		return nil
	}
	return s.sessions.Revoke(ctx, artifact)
}

func (s *Auther) authenticateLocal(ctx context.Context, artifact string) (Principal, error) {
	claims, err := s.tokenService.Validate(artifact)
	if err != nil {
		return Principal{}, s.deny("token validation failed", err)
	}

	userID, err := uuid.Parse(claims.UserID())
	if err != nil {
		return Principal{}, s.deny("token carries no user id", err)
	}

	p, err := s.resolver.ResolveUserID(ctx, userID)
	if err != nil {
		return Principal{}, s.deny("user resolution failed", err)
	}

	return p, nil
}

func (s *Auther) authenticateRemote(ctx context.Context, artifact string) (Principal, error) {
	if s.tokenValidator == nil {
		s.logger.Error("Authenticate remote strategy without token validator")
		return Principal{}, ErrUnauthenticated
	}

	claims, err := s.tokenValidator.Validate(artifact)
	if err != nil {
		return Principal{}, s.deny("remote token validation failed", err)
	}

	p, err := s.resolver.ResolveSubject(ctx, SubjectClaimsFromAuthClaims(claims))
	if err != nil {
		return Principal{}, s.deny("subject resolution failed", err)
	}

	return p, nil
}

func (s *Auther) authenticateSession(ctx context.Context, artifact string) (Principal, error) {
	userID, err := s.sessions.Resolve(ctx, artifact)
	if err != nil {
		return Principal{}, s.deny("session resolution failed", err)
	}

	p, err := s.resolver.ResolveUserID(ctx, userID)
	if err != nil {
		return Principal{}, s.deny("user resolution failed", err)
	}

	return p, nil
}

// deny logs the real failure and returns the uniform boundary error
func (s *Auther) deny(reason string, err error) error {
	s.logger.Debug("Authenticate denied", "reason", reason, "error", err)
	return ErrUnauthenticated
}
