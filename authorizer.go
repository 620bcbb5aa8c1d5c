package crm

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Operation is the intent of a resource request
type Operation string

const (
	OpList   Operation = "list"
	OpRead   Operation = "read"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// ResourceKind names the entity a request targets
type ResourceKind string

const (
	KindDeal     ResourceKind = "deal"
	KindCustomer ResourceKind = "customer"
	KindTask     ResourceKind = "task"
	KindStage    ResourceKind = "stage"
	KindUser     ResourceKind = "user"
)

// ResourceProbe is the result of the single data-store lookup the engine
// performs: does the row exist inside the given account, and who owns it.
// OwnerID is uuid.Nil for kinds without an individual owner.
type ResourceProbe struct {
	Found   bool
	OwnerID uuid.UUID
}

// ResourceStore answers existence/ownership probes. Task probes join through
// deals to derive account scope; everything else filters on account_id
// directly.
type ResourceStore interface {
	Probe(ctx context.Context, kind ResourceKind, accountID, id uuid.UUID) (ResourceProbe, error)
}

// Policy carries the configurable rule variants flagged during the rewrite
type Policy struct {
	// CustomerRepEdit restores the legacy behavior where sales reps may
	// update any in-account customer. Off by default: mutation is admin only.
	CustomerRepEdit bool
}

// Authorizer is the single source of truth for "can this principal perform
// this operation on this resource". It is pure over its inputs plus one store
// probe; it never mutates anything.
type Authorizer struct {
	store  ResourceStore
	policy Policy
	logger Logger
}

type AuthorizerOption func(*Authorizer)

func WithAuthorizerLogger(l Logger) AuthorizerOption {
	return func(a *Authorizer) {
		if l != nil {
			a.logger = l
		}
	}
}

func WithPolicy(p Policy) AuthorizerOption {
	return func(a *Authorizer) {
		a.policy = p
	}
}

// NewAuthorizer returns an engine backed by the given store
func NewAuthorizer(store ResourceStore, opts ...AuthorizerOption) *Authorizer {
	a := &Authorizer{
		store:  store,
		logger: defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Authorize decides a single-resource operation. A nil return is Allow; a
// deny comes back as ErrResourceNotFound (missing or cross-account masked),
// ErrOperationForbidden, or ErrSelfDelete. For OpCreate on KindTask, id is
// the deal the task will attach to; for other creates id is ignored.
//
// Evaluation order is fixed: self-delete guard, role rule, then the account
// scoped probe. Cross-account rows deny as NotFound before any ownership
// detail can leak.
func (a *Authorizer) Authorize(ctx context.Context, p Principal, op Operation, kind ResourceKind, id uuid.UUID) error {
	if p.IsZero() {
		return ErrUnauthenticated
	}

	if kind == KindUser && op == OpDelete && id == p.UserID {
		return ErrSelfDelete
	}

	if err := a.roleRule(p, op, kind); err != nil {
		return err
	}

	if !a.needsProbe(op, kind) {
		return nil
	}

	probeKind := kind
	if op == OpCreate && kind == KindTask {
		// task creation only requires the referenced deal to be in-account
		probeKind = KindDeal
	}

	probe, err := a.store.Probe(ctx, probeKind, p.AccountID, id)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "authorization probe failed")
	}

	if !probe.Found {
		if op == OpCreate && kind == KindTask {
			return errors.New("invalid deal id", errors.CategoryBadInput).
				WithCode(errors.CodeBadRequest)
		}
		return ErrResourceNotFound
	}

	if a.ownershipRequired(p, op, kind) && probe.OwnerID != p.UserID {
		return ErrOperationForbidden.WithMetadata(map[string]any{
			"kind": kind,
			"op":   op,
		})
	}

	return nil
}

// ScopeFor computes the visibility filter for collection reads. Admins see
// their whole account; sales reps see their account's customers but only
// their own deals and tasks. Stage and user listings are admin only.
func (a *Authorizer) ScopeFor(p Principal, kind ResourceKind) (Scope, error) {
	if p.IsZero() {
		return Scope{}, ErrUnauthenticated
	}

	scope := Scope{AccountID: p.AccountID}
	if p.IsAdmin() {
		return scope, nil
	}

	switch kind {
	case KindDeal, KindTask:
		owner := p.UserID
		scope.OwnerID = &owner
		return scope, nil
	case KindCustomer:
		return scope, nil
	case KindStage, KindUser:
		return Scope{}, ErrOperationForbidden.WithMetadata(map[string]any{
			"kind": kind,
			"op":   OpList,
		})
	default:
		return Scope{}, ErrOperationForbidden
	}
}

// roleRule applies the role column of the access matrix. Admins pass
// everything here; the account scope still applies through the probe.
func (a *Authorizer) roleRule(p Principal, op Operation, kind ResourceKind) error {
	if p.IsAdmin() {
		return nil
	}

	allowed := false
	switch kind {
	case KindDeal:
		allowed = op == OpRead || op == OpUpdate || op == OpCreate
	case KindTask:
		allowed = op == OpRead || op == OpUpdate || op == OpCreate
	case KindCustomer:
		allowed = op == OpRead || (op == OpUpdate && a.policy.CustomerRepEdit)
	case KindStage, KindUser:
		allowed = false
	}

	if !allowed {
		return ErrOperationForbidden.WithMetadata(map[string]any{
			"kind": kind,
			"op":   op,
		})
	}
	return nil
}

// needsProbe reports whether the operation targets an existing row (or, for
// task creation, a referenced parent row)
func (a *Authorizer) needsProbe(op Operation, kind ResourceKind) bool {
	switch op {
	case OpRead, OpUpdate, OpDelete:
		return true
	case OpCreate:
		return kind == KindTask
	default:
		return false
	}
}

// ownershipRequired reports whether the non-admin rule restricts the
// operation to the row's owner
func (a *Authorizer) ownershipRequired(p Principal, op Operation, kind ResourceKind) bool {
	if p.IsAdmin() {
		return false
	}

	switch kind {
	case KindDeal, KindTask:
		return op == OpRead || op == OpUpdate
	default:
		return false
	}
}
