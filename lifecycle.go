package sessions

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
)

// Credentials is a freshly issued session token plus its paired anti-forgery
// token. The two are always issued together and cleared together.
type Credentials struct {
	Token     string
	XSRFToken string
	TTL       time.Duration
}

// SessionManager orchestrates the session lifecycle: signup, login, password
// change, and password reset. Account reads and writes go through the
// AccountStore collaborator; token work through the Signer and Guard.
type SessionManager struct {
	store  AccountStore
	signer TokenSigner
	guard  *Guard
	ttl    time.Duration
	logger Logger
	hooks  *HookRunner
}

var _ Lifecycle = (*SessionManager)(nil)

// NewSessionManager returns a new SessionManager
func NewSessionManager(store AccountStore, cfg Config) *SessionManager {
	ttl := 24 * time.Hour
	if cfg.GetTokenExpiration() > 0 {
		ttl = time.Duration(cfg.GetTokenExpiration()) * time.Hour
	}

	signer := NewSigner(
		[]byte(cfg.GetSigningKey()),
		ttl,
		cfg.GetIssuer(),
		cfg.GetAudience(),
		defLogger{},
	)

	return &SessionManager{
		store:  store,
		signer: signer,
		guard:  NewGuard(),
		ttl:    ttl,
		logger: defLogger{},
		hooks:  NewHookRunner(),
	}
}

func (m *SessionManager) WithLogger(logger Logger) *SessionManager {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// WithSigner overrides the token signer.
func (m *SessionManager) WithSigner(signer TokenSigner) *SessionManager {
	if signer != nil {
		m.signer = signer
	}
	return m
}

// WithGuard overrides the anti-forgery guard, e.g. to enable storage-backed
// revocation.
func (m *SessionManager) WithGuard(guard *Guard) *SessionManager {
	if guard != nil {
		m.guard = guard
	}
	return m
}

// WithHooks overrides the continuation hook runner.
func (m *SessionManager) WithHooks(hooks *HookRunner) *SessionManager {
	if hooks != nil {
		m.hooks = hooks
	}
	return m
}

// Signer exposes the token signer used by this manager
func (m *SessionManager) Signer() TokenSigner {
	return m.signer
}

// Guard exposes the anti-forgery guard used by this manager
func (m *SessionManager) Guard() *Guard {
	return m.guard
}

// Hooks exposes the continuation hook runner
func (m *SessionManager) Hooks() *HookRunner {
	return m.hooks
}

// TTL is the session lifetime credentials are issued with
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Signup creates a new account and issues a credential pair for it. Fails
// with ErrDuplicateAccount when the email is already registered.
func (m *SessionManager) Signup(ctx context.Context, email, password string, profile ...AccountProfile) (*User, *Credentials, error) {
	user, err := m.store.CreateAccount(ctx, email, password, profile...)
	if err != nil {
		m.logger.Error("Signup create account error", "error", err)
		return nil, nil, err
	}

	creds, err := m.issueCredentials(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	return user.Sanitized(), creds, nil
}

// Login verifies the identifier/password pair and issues fresh credentials.
// A missing account and a wrong password are indistinguishable to callers.
func (m *SessionManager) Login(ctx context.Context, identifier, password string) (*User, *Credentials, error) {
	user, err := m.store.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		m.logger.Error("Login verify identity error", "error", err)
		return nil, nil, err
	}

	creds, err := m.issueCredentials(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	return user.Sanitized(), creds, nil
}

// Revoke drops server-side anti-forgery state for a session. Client-side
// invalidation happens through expired replacement cookies; this is the
// storage half of logout and is safe to call without a valid session.
func (m *SessionManager) Revoke(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return m.guard.Revoke(ctx, sessionID)
}

// ChangePassword verifies the old password before swapping in the new one.
// It does not re-issue credentials: the caller re-authenticates with the new
// password.
func (m *SessionManager) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) (*User, error) {
	if newPassword == "" {
		return nil, ErrNoEmptyString
	}

	if _, err := m.store.VerifyIdentity(ctx, id, oldPassword); err != nil {
		m.logger.Error("ChangePassword verification failed", "error", err)
		return nil, err
	}

	user, err := m.store.UpdateAccount(ctx, id, AccountUpdate{Password: newPassword})
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to change password")
	}

	return user.Sanitized(), nil
}

// ResetPassword unconditionally invalidates the account's current password.
// It requires no proof of the old password; gating the trigger behind an
// out-of-band check (e.g. an emailed link) is the host's responsibility.
func (m *SessionManager) ResetPassword(ctx context.Context, id string) (*User, error) {
	user, err := m.store.UpdateAccount(ctx, id, AccountUpdate{InvalidatePassword: true})
	if err != nil {
		m.logger.Error("ResetPassword update failed", "error", err)
		return nil, err
	}

	return user.Sanitized(), nil
}

// VerifyToken decodes a session token into claims.
func (m *SessionManager) VerifyToken(token string) (*SessionClaims, error) {
	return m.signer.Verify(token)
}

func (m *SessionManager) issueCredentials(ctx context.Context, user *User) (*Credentials, error) {
	token, err := m.signer.Sign(user.TokenPayload(), m.ttl)
	if err != nil {
		m.logger.Error("failed to sign session token", "error", err)
		return nil, err
	}

	xsrf, err := m.guard.Issue(ctx, user.ID.String())
	if err != nil {
		m.logger.Error("failed to issue anti-forgery token", "error", err)
		return nil, err
	}

	return &Credentials{
		Token:     token,
		XSRFToken: xsrf,
		TTL:       m.ttl,
	}, nil
}
