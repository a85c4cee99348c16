package sessions

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the account model persisted by the bundled store. The core only
// ever hands out sanitized copies; PasswordHash never serializes.
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role           UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	Username       string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone          string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash   string     `bun:"password_hash" json:"-"`
	LoginAttempts  int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	PasswordSetAt  *time.Time `bun:"password_set_at,nullzero" json:"password_set_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Sanitized returns a copy safe to hand to callers and response bodies.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.PasswordHash = ""
	return &clone
}

// TokenPayload is the mapping signed into the user's session token.
func (u *User) TokenPayload() map[string]any {
	return map[string]any{
		"uid":      u.ID.String(),
		"role":     string(u.Role),
		"email":    u.Email,
		"username": u.Username,
	}
}

var _ Identity = (*userIdentity)(nil)

type userIdentity struct {
	user *User
}

// AsIdentity adapts a User to the Identity interface.
func AsIdentity(u *User) Identity {
	return userIdentity{user: u}
}

func (i userIdentity) ID() string {
	if i.user == nil {
		return ""
	}
	return i.user.ID.String()
}

func (i userIdentity) Username() string {
	if i.user == nil {
		return ""
	}
	return i.user.Username
}

func (i userIdentity) Email() string {
	if i.user == nil {
		return ""
	}
	return i.user.Email
}

func (i userIdentity) Role() string {
	if i.user == nil {
		return ""
	}
	return string(i.user.Role)
}
