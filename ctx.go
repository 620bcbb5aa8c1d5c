package crm

import "context"

type contextKey string

const principalContextKey contextKey = "crm:principal"

// WithPrincipal returns a context carrying the resolved principal
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext retrieves the principal stored by the auth middleware.
// The boolean is false when the request was never authenticated.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(Principal)
	if !ok || p.IsZero() {
		return Principal{}, false
	}
	return p, true
}

// MustPrincipal returns the principal or ErrUnauthenticated
func MustPrincipal(ctx context.Context) (Principal, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return Principal{}, ErrUnauthenticated
	}
	return p, nil
}
