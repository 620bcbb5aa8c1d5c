package crm

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// IdentityStore is the persistence surface the resolver needs. The full
// RepositoryManager satisfies it; tests supply mocks.
type IdentityStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByExternalID(ctx context.Context, externalID string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ProvisionSubject(ctx context.Context, account *Account, user *User) (*User, error)
}

// PrincipalResolver turns verified identities into principals. Role and
// account always come from the local user store, never from token claims.
type PrincipalResolver struct {
	store    IdentityStore
	hasher   PasswordAuthenticator
	logger   Logger
	defaults ProvisionDefaults
}

// ProvisionDefaults controls the rows created for first-time external
// subjects
type ProvisionDefaults struct {
	// Role assigned to just-in-time provisioned users
	Role UserRole
}

type PrincipalResolverOption func(*PrincipalResolver)

func WithResolverLogger(l Logger) PrincipalResolverOption {
	return func(r *PrincipalResolver) {
		if l != nil {
			r.logger = l
		}
	}
}

func WithProvisionDefaults(d ProvisionDefaults) PrincipalResolverOption {
	return func(r *PrincipalResolver) {
		if d.Role.IsValid() {
			r.defaults = d
		}
	}
}

func WithResolverHasher(h PasswordAuthenticator) PrincipalResolverOption {
	return func(r *PrincipalResolver) {
		if h != nil {
			r.hasher = h
		}
	}
}

// NewPrincipalResolver creates a resolver backed by the given store
func NewPrincipalResolver(store IdentityStore, opts ...PrincipalResolverOption) *PrincipalResolver {
	r := &PrincipalResolver{
		store:  store,
		hasher: NewBcryptHasher(0),
		logger: defLogger{},
		defaults: ProvisionDefaults{
			Role: RoleSalesRep,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// ResolveSubject resolves an external identity-provider subject to a local
// principal, provisioning a fresh single-user account on first sight. The
// provision is idempotent: ids are derived from the subject, and a concurrent
// first request that loses the insert race falls back to the winner's row.
func (r *PrincipalResolver) ResolveSubject(ctx context.Context, claims SubjectClaims) (Principal, error) {
	if claims.Subject == "" {
		return Principal{}, ErrTokenMalformed
	}

	user, err := r.store.GetUserByExternalID(ctx, claims.Subject)
	if err == nil {
		return user.Principal(), nil
	}
	if !errors.IsNotFound(err) {
		return Principal{}, errors.Wrap(err, errors.CategoryInternal, "failed to resolve subject")
	}

	user, err = r.provisionSubject(ctx, claims)
	if err != nil {
		return Principal{}, err
	}

	return user.Principal(), nil
}

// ResolveCredentials checks an email/password pair against the local store.
// Unknown email, wrong password, and invited-but-inactive users all collapse
// into ErrInvalidCredentials.
func (r *PrincipalResolver) ResolveCredentials(ctx context.Context, email, password string) (*User, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := r.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to resolve credentials")
	}

	if !user.IsActivated() || user.PasswordHash == "" {
		r.logger.Debug("login attempt for inactive user", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	if err := r.hasher.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	return user, nil
}

// ResolveUserID re-derives a principal from a local user id, used by the
// token and session strategies on every request
func (r *PrincipalResolver) ResolveUserID(ctx context.Context, id uuid.UUID) (Principal, error) {
	if id == uuid.Nil {
		return Principal{}, ErrUnauthenticated
	}

	user, err := r.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return Principal{}, ErrUnauthenticated
		}
		return Principal{}, errors.Wrap(err, errors.CategoryInternal, "failed to resolve user")
	}

	if !user.IsActivated() {
		return Principal{}, ErrUnauthenticated
	}

	return user.Principal(), nil
}

func (r *PrincipalResolver) provisionSubject(ctx context.Context, claims SubjectClaims) (*User, error) {
	displayName := subjectDisplayName(claims)

	account := &Account{
		Name: fmt.Sprintf("%s's Account", displayName),
	}
	if id, err := hashid.NewUUID("account:" + claims.Subject); err == nil {
		account.ID = id
	}

	externalID := claims.Subject
	user := &User{
		AccountID:  account.ID,
		ExternalID: &externalID,
		Email:      subjectEmail(claims),
		Name:       displayName,
		Role:       r.defaults.Role,
		Status:     UserStatusActive,
	}
	if id, err := hashid.NewUUID(claims.Subject); err == nil {
		user.ID = id
	}

	created, err := r.store.ProvisionSubject(ctx, account, user)
	if err == nil {
		r.logger.Info("provisioned account for new subject", "user_id", created.ID, "account_id", created.AccountID)
		return created, nil
	}

	// a concurrent request may have won the insert, the unique external_id
	// constraint makes the loser's create fail
	if existing, lookupErr := r.store.GetUserByExternalID(ctx, claims.Subject); lookupErr == nil {
		return existing, nil
	}

	return nil, errors.Wrap(err, errors.CategoryInternal, "failed to provision subject")
}

// subjectDisplayName prefers the verified name claim, then the email local
// part, mirroring what the identity provider shows the user
func subjectDisplayName(claims SubjectClaims) string {
	if name := strings.TrimSpace(claims.Name); name != "" {
		return name
	}

	email := subjectEmail(claims)
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	if email != "" {
		return email
	}

	return "New User"
}

func subjectEmail(claims SubjectClaims) string {
	if claims.Email != "" {
		return strings.ToLower(strings.TrimSpace(claims.Email))
	}
	return strings.ToLower(strings.TrimSpace(claims.Subject))
}
