package sessions

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"io"
	"time"

	"github.com/goliatone/go-errors"
)

// DefaultXSRFTokenLength is the random byte length of anti-forgery tokens
const DefaultXSRFTokenLength = 32

// XSRFStorage records issued anti-forgery tokens keyed by session so the
// server can revoke them independently of the client's cookies. When nil the
// guard runs in pure double-submit mode.
type XSRFStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Guard implements the double-submit anti-forgery protocol: a random token is
// delivered via a readable cookie and must be echoed back in a request
// header. An attacker's page cannot read the cookie, so it cannot forge the
// header.
type Guard struct {
	tokenLength int
	storage     XSRFStorage
	ttl         time.Duration
	logger      Logger
}

type GuardOption func(*Guard)

// WithGuardStorage enables server-side token tracking.
func WithGuardStorage(storage XSRFStorage, ttl time.Duration) GuardOption {
	return func(g *Guard) {
		g.storage = storage
		g.ttl = ttl
	}
}

// WithGuardTokenLength overrides the random token byte length.
func WithGuardTokenLength(length int) GuardOption {
	return func(g *Guard) {
		if length > 0 {
			g.tokenLength = length
		}
	}
}

// WithGuardLogger overrides the guard logger.
func WithGuardLogger(logger Logger) GuardOption {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGuard creates an anti-forgery guard
func NewGuard(opts ...GuardOption) *Guard {
	g := &Guard{
		tokenLength: DefaultXSRFTokenLength,
		logger:      defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g
}

// Issue generates a fresh anti-forgery token for the given session. When
// storage is configured the token is recorded under the session key with the
// guard's TTL, replacing any previous token for that session. Tokens issued
// without a session id are never tracked server-side; they would all land on
// one shared key.
func (g *Guard) Issue(ctx context.Context, sessionID string) (string, error) {
	buf := make([]byte, g.tokenLength)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to generate anti-forgery token")
	}

	token := hex.EncodeToString(buf)

	if g.storage != nil && sessionID != "" {
		if err := g.storage.Set(ctx, storageKey(sessionID), token, g.ttl); err != nil {
			return "", errors.Wrap(err, errors.CategoryInternal, "failed to store anti-forgery token")
		}
	}

	return token, nil
}

// Check reports whether the cookie and header values round-trip. Both must
// be present, non-empty, and equal. The comparison is constant time.
func (g *Guard) Check(cookieValue, headerValue string) bool {
	if cookieValue == "" || headerValue == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookieValue), []byte(headerValue)) == 1
}

// CheckSession performs the double-submit check and, when storage is
// configured, additionally requires the presented value to match the token
// recorded for the session. A storage read failure fails closed.
func (g *Guard) CheckSession(ctx context.Context, sessionID, cookieValue, headerValue string) bool {
	if !g.Check(cookieValue, headerValue) {
		return false
	}

	if g.storage == nil || sessionID == "" {
		return true
	}

	stored, err := g.storage.Get(ctx, storageKey(sessionID))
	if err != nil {
		g.logger.Warn("anti-forgery storage read failed", "error", err)
		return false
	}

	return subtle.ConstantTimeCompare([]byte(stored), []byte(cookieValue)) == 1
}

// Revoke removes the stored token for a session. A no-op without storage or
// without a session id.
func (g *Guard) Revoke(ctx context.Context, sessionID string) error {
	if g.storage == nil || sessionID == "" {
		return nil
	}
	return g.storage.Delete(ctx, storageKey(sessionID))
}

func storageKey(sessionID string) string {
	return "xsrf:" + sessionID
}
