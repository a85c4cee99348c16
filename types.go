package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-router"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an authenticated account
type Identity interface {
	ID() string
	Username() string
	Email() string
	Role() string
}

// TokenSigner creates and verifies signed session tokens
type TokenSigner interface {
	Sign(payload map[string]any, ttl time.Duration) (string, error)
	Verify(token string) (*SessionClaims, error)
}

// AccountUpdate carries the fields a lifecycle operation may change on an
// account. InvalidatePassword asks the store to make the current password
// unusable without supplying a replacement.
type AccountUpdate struct {
	Password           string
	InvalidatePassword bool
}

// AccountProfile carries the optional descriptive fields a signup may set on
// the new account alongside its credentials.
type AccountProfile struct {
	Phone    string
	Username string
}

// AccountStore is the persistence collaborator. The library never hashes,
// stores, or logs raw passwords itself; they only cross this boundary.
type AccountStore interface {
	CreateAccount(ctx context.Context, email, password string, profile ...AccountProfile) (*User, error)
	FetchAccount(ctx context.Context, identifier string) (*User, error)
	UpdateAccount(ctx context.Context, id string, fields AccountUpdate) (*User, error)
	VerifyIdentity(ctx context.Context, identifier, password string) (*User, error)
}

// Lifecycle holds the session lifecycle operations
type Lifecycle interface {
	Signup(ctx context.Context, email, password string, profile ...AccountProfile) (*User, *Credentials, error)
	Login(ctx context.Context, identifier, password string) (*User, *Credentials, error)
	ChangePassword(ctx context.Context, id, oldPassword, newPassword string) (*User, error)
	ResetPassword(ctx context.Context, id string) (*User, error)
}

type LoginPayload interface {
	GetIdentifier() string
	GetPassword() string
}

// HTTPLifecycle is the cookie-emitting session surface consumed by controllers
type HTTPLifecycle interface {
	Signup(c router.Context, email, password string, profile ...AccountProfile) (*User, error)
	Login(c router.Context, payload LoginPayload) (*User, error)
	Logout(c router.Context) error
	SetRedirect(c router.Context)
	GetRedirect(c router.Context, def ...string) string
}

// Config holds session options
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetTokenExpiration() int
	GetIssuer() string
	GetAudience() []string
	GetSessionCookieName() string
	GetXSRFCookieName() string
	GetCookieDomain() string
	GetSSL() bool
	GetContextKey() string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SESSIONS "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] SESSIONS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SESSIONS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SESSIONS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
