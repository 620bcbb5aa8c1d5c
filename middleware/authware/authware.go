// Package authware authenticates inbound requests and attaches the resolved
// principal to the request context. It is strategy agnostic: the configured
// Authenticator decides whether the artifact is a local token, a remote
// identity-provider token, or an opaque session id.
package authware

import (
	"errors"
	"strings"

	crm "github.com/goliatone/go-crm"
	"github.com/goliatone/go-router"
)

var (
	defaultTokenLookup          = "header:" + router.HeaderAuthorization
	ErrArtifactMissingOrInvalid = errors.New("missing or malformed credential")
)

// PrincipalContextKey is the Locals key the middleware stores the principal
// under
const PrincipalContextKey = "principal"

type Config struct {
	// Filter skips authentication when it returns true
	Filter         func(router.Context) bool
	SuccessHandler router.HandlerFunc
	ErrorHandler   router.ErrorHandler

	// Authenticator resolves artifacts to principals, required
	Authenticator crm.Authenticator

	// ContextKey is the Locals key for the principal
	ContextKey string

	// TokenLookup is a comma separated list of sources in
	// "<source>:<name>" form, e.g. "header:Authorization,cookie:session"
	TokenLookup string

	// AuthScheme is the expected header scheme prefix, default "Bearer"
	AuthScheme string
}

// New returns the middleware. Every authentication failure renders through
// the ErrorHandler with the same error so responses cannot leak why the
// credential was rejected.
func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := getDefaultConfig(config...)
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			artifact, err := extractArtifact(ctx, cfg.extractors())
			if err != nil || artifact == "" {
				return cfg.ErrorHandler(ctx, crm.ErrUnauthenticated)
			}

			principal, err := cfg.Authenticator.Authenticate(ctx.Context(), artifact)
			if err != nil {
				return cfg.ErrorHandler(ctx, crm.ErrUnauthenticated)
			}

			ctx.Locals(cfg.ContextKey, principal)
			ctx.SetContext(crm.WithPrincipal(ctx.Context(), principal))

			return cfg.SuccessHandler(ctx)
		}
	}
}

// PrincipalFromRouter retrieves the principal the middleware stored
func PrincipalFromRouter(ctx router.Context) (crm.Principal, bool) {
	return PrincipalFromRouterKey(ctx, PrincipalContextKey)
}

func PrincipalFromRouterKey(ctx router.Context, key string) (crm.Principal, bool) {
	value := ctx.Locals(key)
	if value == nil {
		return crm.Principal{}, false
	}

	p, ok := value.(crm.Principal)
	if !ok || p.IsZero() {
		return crm.Principal{}, false
	}

	return p, true
}

func getDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Authenticator == nil {
		panic("AUTH: middleware configuration: Authenticator is required.")
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c router.Context, err error) error {
			return c.JSON(router.StatusUnauthorized, map[string]string{
				"error": crm.ErrUnauthenticated.Message,
			})
		}
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = PrincipalContextKey
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	return cfg
}

type artifactExtractor func(c router.Context) (string, error)

func extractArtifact(ctx router.Context, extractors []artifactExtractor) (string, error) {
	var raw string
	var err error

	for _, extractor := range extractors {
		raw, err = extractor(ctx)
		if raw != "" && err == nil {
			break
		}
	}

	return raw, err
}

func (cfg *Config) extractors() []artifactExtractor {
	extractors := make([]artifactExtractor, 0)

	// header:Authorization,cookie:session,query:auth_token
	for _, rootPart := range strings.Split(cfg.TokenLookup, ",") {
		parts := strings.Split(strings.TrimSpace(rootPart), ":")
		if len(parts) != 2 {
			continue
		}

		source := strings.TrimSpace(parts[0])
		name := strings.TrimSpace(parts[1])

		switch source {
		case "header":
			extractors = append(extractors, artifactFromHeader(name, cfg.AuthScheme))
		case "cookie":
			extractors = append(extractors, artifactFromCookie(name))
		case "query":
			extractors = append(extractors, artifactFromQuery(name))
		}
	}

	return extractors
}

// artifactFromHeader returns a function that extracts the credential from the
// request header, stripping the auth scheme prefix
func artifactFromHeader(header, authScheme string) artifactExtractor {
	return func(c router.Context) (string, error) {
		a := c.GetString(header, "")
		scheme := strings.TrimSpace(authScheme)
		l := len(scheme)
		if l == 0 {
			return "", ErrArtifactMissingOrInvalid
		}
		if len(a) > l+1 && strings.EqualFold(a[:l], scheme) {
			return strings.TrimSpace(a[l:]), nil
		}
		return "", ErrArtifactMissingOrInvalid
	}
}

func artifactFromCookie(name string) artifactExtractor {
	return func(c router.Context) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrArtifactMissingOrInvalid
		}
		return token, nil
	}
}

func artifactFromQuery(param string) artifactExtractor {
	return func(c router.Context) (string, error) {
		token := c.Query(param, "")
		if token == "" {
			return "", ErrArtifactMissingOrInvalid
		}
		return token, nil
	}
}
