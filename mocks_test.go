package crm_test

import (
	"context"
	"database/sql"
	"io"
	"mime/multipart"

	crm "github.com/goliatone/go-crm"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockLogger implements crm.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// MockResourceStore implements crm.ResourceStore
type MockResourceStore struct {
	mock.Mock
}

func (m *MockResourceStore) Probe(ctx context.Context, kind crm.ResourceKind, accountID, id uuid.UUID) (crm.ResourceProbe, error) {
	args := m.Called(ctx, kind, accountID, id)
	return args.Get(0).(crm.ResourceProbe), args.Error(1)
}

// MockIdentityStore implements crm.IdentityStore
type MockIdentityStore struct {
	mock.Mock
}

func (m *MockIdentityStore) GetUserByID(ctx context.Context, id uuid.UUID) (*crm.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*crm.User)
	return user, args.Error(1)
}

func (m *MockIdentityStore) GetUserByExternalID(ctx context.Context, externalID string) (*crm.User, error) {
	args := m.Called(ctx, externalID)
	user, _ := args.Get(0).(*crm.User)
	return user, args.Error(1)
}

func (m *MockIdentityStore) GetUserByEmail(ctx context.Context, email string) (*crm.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*crm.User)
	return user, args.Error(1)
}

func (m *MockIdentityStore) ProvisionSubject(ctx context.Context, account *crm.Account, user *crm.User) (*crm.User, error) {
	args := m.Called(ctx, account, user)
	created, _ := args.Get(0).(*crm.User)
	return created, args.Error(1)
}

// MockUsers mocks the subset of crm.Users the tests exercise; the embedded
// interface panics on anything unmocked.
type MockUsers struct {
	mock.Mock
	crm.Users
}

func (m *MockUsers) UpdateStatus(ctx context.Context, id uuid.UUID, status crm.UserStatus) (*crm.User, error) {
	args := m.Called(ctx, id, status)
	user, _ := args.Get(0).(*crm.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*crm.User, error) {
	args := m.Called(ctx, tx, email)
	user, _ := args.Get(0).(*crm.User)
	return user, args.Error(1)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *crm.User, criteria ...repository.InsertCriteria) (*crm.User, error) {
	args := m.Called(ctx, tx, record, criteria)
	user, _ := args.Get(0).(*crm.User)
	return user, args.Error(1)
}

func (m *MockUsers) UpdateTx(ctx context.Context, tx bun.IDB, record *crm.User, criteria ...repository.UpdateCriteria) (*crm.User, error) {
	args := m.Called(ctx, tx, record, criteria)
	user, _ := args.Get(0).(*crm.User)
	return user, args.Error(1)
}

// stubRepoManager wires a MockUsers behind the RepositoryManager surface the
// command handlers touch; transactions run the callback against a zero tx.
type stubRepoManager struct {
	crm.RepositoryManager
	users *MockUsers
}

func (s *stubRepoManager) Users() crm.Users { return s.users }

func (s *stubRepoManager) RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error {
	var tx bun.Tx
	return fn(ctx, tx)
}

// MockTokenValidator implements crm.TokenValidator
type MockTokenValidator struct {
	mock.Mock
}

func (m *MockTokenValidator) Validate(token string) (crm.AuthClaims, error) {
	args := m.Called(token)
	claims, _ := args.Get(0).(crm.AuthClaims)
	return claims, args.Error(1)
}

// mockConfig implements crm.Config
type mockConfig struct {
	strategy        string
	signingKey      string
	tokenExpiration int
	issuer          string
	audience        []string
	jwksEndpoint    string
	customerRepEdit bool
}

func newMockConfig() *mockConfig {
	return &mockConfig{
		strategy:        "local",
		signingKey:      "test-signing-key",
		tokenExpiration: 24,
		issuer:          "test-issuer",
		audience:        []string{"test-audience"},
	}
}

func (c *mockConfig) GetAuthStrategy() string  { return c.strategy }
func (c *mockConfig) GetSigningKey() string    { return c.signingKey }
func (c *mockConfig) GetTokenExpiration() int  { return c.tokenExpiration }
func (c *mockConfig) GetIssuer() string        { return c.issuer }
func (c *mockConfig) GetAudience() []string    { return c.audience }
func (c *mockConfig) GetJWKSEndpoint() string  { return c.jwksEndpoint }
func (c *mockConfig) GetCustomerRepEdit() bool { return c.customerRepEdit }

// MockContext mocks the router.Context the controller handlers receive
type MockContext struct {
	mock.Mock
	NextCalled bool
}

func (m *MockContext) Next() error {
	m.NextCalled = true
	return nil
}

func (m *MockContext) Context() context.Context {
	args := m.Called()
	c, ok := args.Get(0).(context.Context)
	if !ok {
		panic("arg needs to be context.Context")
	}
	return c
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockContext) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Method() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Body() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *MockContext) Status(code int) router.Context {
	m.Called(code)
	return m
}

func (m *MockContext) SendString(s string) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockContext) Send(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockContext) JSON(code int, val any) error {
	args := m.Called(code, val)
	return args.Error(0)
}

func (m *MockContext) NoContent(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) Render(name string, bind any, layout ...string) error {
	if len(layout) > 0 {
		args := m.Called(name, bind, layout[0])
		return args.Error(0)
	}
	args := m.Called(name, bind)
	return args.Error(0)
}

func (m *MockContext) Redirect(path string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(path, status)
		return args.Error(0)
	}
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	if len(status) > 0 {
		args := m.Called(name, data, status[0])
		return args.Error(0)
	}
	args := m.Called(name, data)
	return args.Error(0)
}

func (m *MockContext) RedirectBack(fallback string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(fallback, status)
		return args.Error(0)
	}
	args := m.Called(fallback)
	return args.Error(0)
}

func (m *MockContext) SetHeader(key, val string) router.Context {
	m.Called(key, val)
	return m
}

func (m *MockContext) Header(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Get(key string, defaultValue any) any {
	args := m.Called(key, defaultValue)
	return args.Get(0)
}

func (m *MockContext) GetBool(key string, defaultValue bool) bool {
	args := m.Called(key, defaultValue)
	return args.Bool(0)
}

func (m *MockContext) GetInt(key string, def int) int {
	args := m.Called(key, def)
	return args.Int(0)
}

func (m *MockContext) Set(key string, val any) {
	m.Called(key, val)
}

func (m *MockContext) Bind(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindJSON(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindXML(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindQuery(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) CookieParser(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) Cookie(cookie *router.Cookie) {
	m.Called(cookie)
}

func (m *MockContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) ParamsInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Query(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) QueryValues(key string) []string {
	args := m.Called(key)
	vals, _ := args.Get(0).([]string)
	return vals
}

func (m *MockContext) QueryInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Queries() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}

func (m *MockContext) GetString(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.Called(key, value[0])
		return nil
	}
	args := m.Called(key)
	return args.Get(0)
}

func (m *MockContext) OriginalURL() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) LocalsMerge(key any, value map[string]any) map[string]any {
	args := m.Called(key, value)
	merged, _ := args.Get(0).(map[string]any)
	return merged
}

func (m *MockContext) Referer() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) FormFile(key string) (*multipart.FileHeader, error) {
	args := m.Called(key)
	header, _ := args.Get(0).(*multipart.FileHeader)
	return header, args.Error(1)
}

func (m *MockContext) FormValue(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) IP() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) SendStatus(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) SendStream(r io.Reader) error {
	args := m.Called(r)
	return args.Error(0)
}

func (m *MockContext) RouteName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) RouteParams() map[string]string {
	args := m.Called()
	params, _ := args.Get(0).(map[string]string)
	return params
}
