package sessions

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeTokenMalformed     = "session_token_malformed"
	TextCodeTokenSignature     = "session_token_bad_signature"
	TextCodeTokenExpired       = "session_token_expired"
	TextCodeXSRFMismatch       = "session_xsrf_mismatch"
	TextCodeUnauthenticated    = "session_unauthenticated"
	TextCodeForbidden          = "session_forbidden"
	TextCodeDuplicateAccount   = "session_duplicate_account"
	TextCodeInvalidCredentials = "session_invalid_credentials"
	TextCodeAccountNotFound    = "session_account_not_found"
	TextCodeTooManyAttempts    = "session_too_many_attempts"
	TextCodeEmptyPassword      = "session_empty_password"
)

// ErrTokenMalformed is returned when a token is structurally invalid.
var ErrTokenMalformed = errors.New("session token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidSignature is returned when a token signature does not verify.
var ErrInvalidSignature = errors.New("session token signature is invalid", errors.CategoryAuth).
	WithTextCode(TextCodeTokenSignature).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned when a token is past its expiry.
var ErrTokenExpired = errors.New("session token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrXSRFMismatch is returned when the anti-forgery cookie and header do not
// round-trip. Callers at the gate boundary should collapse this to
// ErrUnauthenticated before responding.
var ErrXSRFMismatch = errors.New("anti-forgery token mismatch", errors.CategoryAuth).
	WithTextCode(TextCodeXSRFMismatch).
	WithCode(errors.CodeUnauthorized)

// ErrUnauthenticated is the single failure every authentication-layer error
// collapses to at the request boundary, so responses never reveal which
// check rejected the caller.
var ErrUnauthenticated = errors.New("request is not authenticated", errors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(errors.CodeUnauthorized)

// ErrForbidden is returned when a known identity fails a route rule.
var ErrForbidden = errors.New("insufficient privileges", errors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(errors.CodeForbidden)

// ErrDuplicateAccount is returned on signup with an already registered email.
var ErrDuplicateAccount = errors.New("account already exists", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateAccount).
	WithCode(errors.CodeBadRequest)

// ErrInvalidCredentials is returned when the identifier or password is wrong.
var ErrInvalidCredentials = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeBadRequest)

// ErrAccountNotFound is returned when the store has no matching account.
var ErrAccountNotFound = errors.New("account not found", errors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(errors.CodeNotFound)

// ErrTooManyLoginAttempts is returned while an account is in cooldown.
var ErrTooManyLoginAttempts = errors.New("too many login attempts", errors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts).
	WithCode(errors.CodeBadRequest)

// ErrNoEmptyString is returned when a password-shaped argument is empty.
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for structurally invalid tokens
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
