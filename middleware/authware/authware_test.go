package authware_test

import (
	"context"
	"testing"

	crm "github.com/goliatone/go-crm"
	"github.com/goliatone/go-crm/middleware/authware"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, artifact string) (crm.Principal, error) {
	args := m.Called(ctx, artifact)
	p, _ := args.Get(0).(crm.Principal)
	return p, args.Error(1)
}

func (m *MockAuthenticator) Login(ctx context.Context, email, password string) (string, crm.Principal, error) {
	args := m.Called(ctx, email, password)
	p, _ := args.Get(1).(crm.Principal)
	return args.String(0), p, args.Error(2)
}

func testPrincipal() crm.Principal {
	return crm.Principal{
		UserID:    uuid.New(),
		AccountID: uuid.New(),
		Role:      crm.RoleSalesRep,
	}
}

// apply builds the handler the router would run for a protected route.
func apply(cfg authware.Config) router.HandlerFunc {
	return authware.New(cfg)(func(ctx router.Context) error {
		return ctx.Next()
	})
}

func TestAuthwareValidBearerToken(t *testing.T) {
	principal := testPrincipal()

	auther := &MockAuthenticator{}
	auther.On("Authenticate", mock.Anything, "artifact-123").Return(principal, nil)

	ctx := router.NewMockContext()
	ctx.HeadersM[router.HeaderAuthorization] = "Bearer artifact-123"
	ctx.On("GetString", router.HeaderAuthorization, "").Return("Bearer artifact-123")
	ctx.On("Context").Return(context.Background())
	ctx.On("Locals", authware.PrincipalContextKey, principal).Return(nil)
	ctx.On("SetContext", mock.Anything).Return()

	handler := apply(authware.Config{Authenticator: auther})

	require.NoError(t, handler(ctx))
	assert.True(t, ctx.NextCalled)
	auther.AssertExpectations(t)
	ctx.AssertExpectations(t)
}

func TestAuthwareMissingCredential(t *testing.T) {
	auther := &MockAuthenticator{}

	ctx := router.NewMockContext()
	ctx.On("GetString", router.HeaderAuthorization, "").Return("")

	var payload map[string]string
	ctx.On("JSON", router.StatusUnauthorized, mock.Anything).Run(func(args mock.Arguments) {
		payload = args.Get(1).(map[string]string)
	}).Return(nil)

	handler := apply(authware.Config{Authenticator: auther})

	require.NoError(t, handler(ctx))
	assert.False(t, ctx.NextCalled)
	assert.Equal(t, crm.ErrUnauthenticated.Message, payload["error"])
	auther.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything)
}

func TestAuthwareWrongScheme(t *testing.T) {
	auther := &MockAuthenticator{}

	ctx := router.NewMockContext()
	ctx.HeadersM[router.HeaderAuthorization] = "Basic dXNlcjpwYXNz"
	ctx.On("GetString", router.HeaderAuthorization, "").Return("Basic dXNlcjpwYXNz")

	handler := apply(authware.Config{
		Authenticator: auther,
		ErrorHandler: func(c router.Context, err error) error {
			return err
		},
	})

	err := handler(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, crm.ErrUnauthenticated)
	assert.False(t, ctx.NextCalled)
	auther.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything)
}

func TestAuthwareRejectedCredentialIsUniform(t *testing.T) {
	auther := &MockAuthenticator{}
	auther.On("Authenticate", mock.Anything, "bad-token").
		Return(crm.Principal{}, crm.ErrUnauthenticated)

	ctx := router.NewMockContext()
	ctx.HeadersM[router.HeaderAuthorization] = "Bearer bad-token"
	ctx.On("GetString", router.HeaderAuthorization, "").Return("Bearer bad-token")
	ctx.On("Context").Return(context.Background())

	var rejected map[string]string
	ctx.On("JSON", router.StatusUnauthorized, mock.Anything).Run(func(args mock.Arguments) {
		rejected = args.Get(1).(map[string]string)
	}).Return(nil)

	handler := apply(authware.Config{Authenticator: auther})

	require.NoError(t, handler(ctx))
	assert.False(t, ctx.NextCalled)
	auther.AssertExpectations(t)

	// a rejected credential renders the same body as a missing one
	missing := router.NewMockContext()
	missing.On("GetString", router.HeaderAuthorization, "").Return("")

	var absent map[string]string
	missing.On("JSON", router.StatusUnauthorized, mock.Anything).Run(func(args mock.Arguments) {
		absent = args.Get(1).(map[string]string)
	}).Return(nil)

	require.NoError(t, handler(missing))
	assert.Equal(t, absent, rejected)
}

func TestAuthwareFilterSkipsAuthentication(t *testing.T) {
	auther := &MockAuthenticator{}

	ctx := router.NewMockContext()

	handler := apply(authware.Config{
		Authenticator: auther,
		Filter: func(router.Context) bool {
			return true
		},
	})

	require.NoError(t, handler(ctx))
	assert.True(t, ctx.NextCalled)
	auther.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything)
}

func TestAuthwareCookieLookup(t *testing.T) {
	principal := testPrincipal()

	auther := &MockAuthenticator{}
	auther.On("Authenticate", mock.Anything, "sess-1").Return(principal, nil)

	ctx := router.NewMockContext()
	ctx.CookiesM["crm_session"] = "sess-1"
	ctx.On("Context").Return(context.Background())
	ctx.On("Locals", authware.PrincipalContextKey, principal).Return(nil)
	ctx.On("SetContext", mock.Anything).Return()

	handler := apply(authware.Config{
		Authenticator: auther,
		TokenLookup:   "cookie:crm_session",
	})

	require.NoError(t, handler(ctx))
	assert.True(t, ctx.NextCalled)
	auther.AssertExpectations(t)
}

func TestAuthwareQueryFallback(t *testing.T) {
	principal := testPrincipal()

	auther := &MockAuthenticator{}
	auther.On("Authenticate", mock.Anything, "query-token").Return(principal, nil)

	ctx := router.NewMockContext()
	ctx.QueriesM["access_token"] = "query-token"
	ctx.On("GetString", router.HeaderAuthorization, "").Return("")
	ctx.On("Context").Return(context.Background())
	ctx.On("Locals", authware.PrincipalContextKey, principal).Return(nil)
	ctx.On("SetContext", mock.Anything).Return()

	handler := apply(authware.Config{
		Authenticator: auther,
		TokenLookup:   "header:" + router.HeaderAuthorization + ",query:access_token",
	})

	require.NoError(t, handler(ctx))
	assert.True(t, ctx.NextCalled)
	auther.AssertExpectations(t)
}

func TestAuthwareCustomContextKey(t *testing.T) {
	principal := testPrincipal()

	auther := &MockAuthenticator{}
	auther.On("Authenticate", mock.Anything, "artifact-123").Return(principal, nil)

	ctx := router.NewMockContext()
	ctx.HeadersM[router.HeaderAuthorization] = "Bearer artifact-123"
	ctx.On("GetString", router.HeaderAuthorization, "").Return("Bearer artifact-123")
	ctx.On("Context").Return(context.Background())
	ctx.On("Locals", "identity", principal).Return(nil)
	ctx.On("SetContext", mock.Anything).Return()

	handler := apply(authware.Config{
		Authenticator: auther,
		ContextKey:    "identity",
	})

	require.NoError(t, handler(ctx))
	ctx.AssertCalled(t, "Locals", "identity", principal)
}

func TestPrincipalFromRouter(t *testing.T) {
	t.Run("stored principal resolves", func(t *testing.T) {
		principal := testPrincipal()

		ctx := router.NewMockContext()
		ctx.LocalsMock[authware.PrincipalContextKey] = principal

		got, ok := authware.PrincipalFromRouter(ctx)
		require.True(t, ok)
		assert.Equal(t, principal, got)
	})

	t.Run("missing principal", func(t *testing.T) {
		ctx := router.NewMockContext()

		_, ok := authware.PrincipalFromRouter(ctx)
		assert.False(t, ok)
	})

	t.Run("zero principal rejected", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.LocalsMock[authware.PrincipalContextKey] = crm.Principal{}

		_, ok := authware.PrincipalFromRouter(ctx)
		assert.False(t, ok)
	})

	t.Run("wrong type rejected", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.LocalsMock[authware.PrincipalContextKey] = "not a principal"

		_, ok := authware.PrincipalFromRouter(ctx)
		assert.False(t, ok)
	})
}
