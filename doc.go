// Package crm implements the access-control core of a small multi-tenant CRM:
// accounts, users, customers, deals, tasks, and pipeline stages, partitioned by
// account and governed by two roles (admin, sales_rep).
//
// The package is organized around four capabilities:
//
//   - Authenticator: turns a request artifact (bearer token, session id, or
//     local credentials) into a trusted Principal. Three strategies are
//     supported and selected by configuration: LocalCredential (HS256 tokens
//     signed with a local secret), RemoteSignedToken (identity-provider JWTs
//     verified against a remote JWKS), and Session (opaque server-side
//     sessions).
//
//   - PrincipalResolver: maps a verified subject to a Principal, creating the
//     Account and User rows on first sight of an external identity
//     (just-in-time provisioning). Roles are always re-derived from the local
//     store; role claims embedded in third-party tokens are never trusted.
//
//   - Authorizer: the single source of truth for "can this principal perform
//     this operation on this resource". Single-resource checks return a typed
//     error on deny; collection reads get a Scope that restricts queries to
//     the rows the principal may see.
//
//   - Invitation lifecycle: admins invite users (row without credential),
//     registration activates them. Modeled as an explicit state machine.
//
// Persistence uses bun repositories behind a RepositoryManager so every
// component receives its store explicitly. There is no global pool and no
// ambient environment branching: test doubles live in _test files only.
package crm
