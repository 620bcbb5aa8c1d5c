package crm

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeUnauthenticated = "UNAUTHENTICATED"
	TextCodeTokenExpired    = "TOKEN_EXPIRED"
	TextCodeTokenMalformed  = "TOKEN_MALFORMED"
	TextCodeNotFound        = "RESOURCE_NOT_FOUND"
	TextCodeForbidden       = "OPERATION_FORBIDDEN"
	TextCodeInvalidRole     = "INVALID_ROLE"
	TextCodeNotInvited      = "USER_NOT_INVITED"
	TextCodeAlreadyActive   = "USER_ALREADY_ACTIVE"
	TextCodeSelfDelete      = "SELF_DELETE_BLOCKED"
)

// ErrUnauthenticated is the single error surfaced for every authentication
// failure: missing artifact, malformed header, bad signature, or expired
// token. Callers must not be able to tell these apart.
var ErrUnauthenticated = errors.New("authentication required", errors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is internal detail for logs; it is collapsed into
// ErrUnauthenticated before crossing the boundary.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is internal detail for logs, same treatment as
// ErrTokenExpired.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidCredentials covers unknown email, wrong password, and
// invited-but-inactive users. One message for all three.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(errors.CodeUnauthorized)

// ErrResourceNotFound is the deny used both for genuinely missing rows and
// for rows that exist in another account. Cross-tenant probes cannot learn
// whether an id exists.
var ErrResourceNotFound = errors.New("resource not found", errors.CategoryNotFound).
	WithTextCode(TextCodeNotFound).
	WithCode(errors.CodeNotFound)

// ErrOperationForbidden is the deny for authenticated principals that fail a
// role or ownership rule on an in-account resource.
var ErrOperationForbidden = errors.New("operation not allowed", errors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(errors.CodeForbidden)

// ErrInvalidRole rejects role values outside the fixed enum
var ErrInvalidRole = errors.New("role is not valid", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidRole).
	WithCode(errors.CodeBadRequest)

// ErrUserNotInvited rejects registrations for emails with no invited row
var ErrUserNotInvited = errors.New("registration requires an invitation", errors.CategoryAuthz).
	WithTextCode(TextCodeNotInvited).
	WithCode(errors.CodeForbidden)

// ErrUserAlreadyActive rejects re-registration of an activated email
var ErrUserAlreadyActive = errors.New("user already registered", errors.CategoryConflict).
	WithTextCode(TextCodeAlreadyActive).
	WithCode(errors.CodeConflict)

// ErrSelfDelete blocks a principal from deleting its own user row
var ErrSelfDelete = errors.New("cannot delete own user", errors.CategoryAuthz).
	WithTextCode(TextCodeSelfDelete).
	WithCode(errors.CodeForbidden)

// ErrNoEmptyString guards hashing empty passwords
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the internal bcrypt mismatch marker
var ErrMismatchedHashAndPassword = errors.New("credential mismatch", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// IsDeny reports whether err is an authorization deny (either reason)
func IsDeny(err error) bool {
	var rich *errors.Error
	if !errors.As(err, &rich) {
		return false
	}
	return rich.Category == errors.CategoryAuthz || rich.Category == errors.CategoryNotFound
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTokenExpired) || strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTokenMalformed) ||
		strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
