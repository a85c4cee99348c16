package sessions

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the decoded content of a session token. It carries the
// registered JWT claims plus the arbitrary payload that was signed.
type SessionClaims struct {
	jwt.RegisteredClaims
	UID      string         `json:"uid,omitempty"`
	UserRole string         `json:"role,omitempty"`
	Payload  map[string]any `json:"data,omitempty"`
}

// Subject returns the subject claim
func (c *SessionClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the account id the token was issued for
func (c *SessionClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Role returns the account's privilege level
func (c *SessionClaims) Role() string {
	return c.UserRole
}

// Get returns a payload value by key
func (c *SessionClaims) Get(key string) (any, bool) {
	if c.Payload == nil {
		return nil, false
	}
	v, ok := c.Payload[key]
	return v, ok
}

// GetString returns a payload value as string, or def when absent
func (c *SessionClaims) GetString(key, def string) string {
	if v, ok := c.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// HasRole checks if the account has the given role
func (c *SessionClaims) HasRole(role string) bool {
	return c.UserRole == role
}

// IsAtLeast checks if the account's role meets the minimum required role
func (c *SessionClaims) IsAtLeast(minRole string) bool {
	return RoleAtLeast(UserRole(c.UserRole), UserRole(minRole))
}

// Expires returns the expiration time
func (c *SessionClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issuance time
func (c *SessionClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
