package sessions

import (
	"context"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
)

// MaxLoginAttempts is the number of failed logins an account gets inside the
// cooldown window before further attempts are rejected outright.
var MaxLoginAttempts = 5

// CoolDownPeriod is the window in which failed attempts accumulate
var CoolDownPeriod = "24h"

// AccountProvider is the bundled AccountStore implementation on top of the
// bun repositories. Password hashing and comparison live here, on the
// persistence side of the collaborator boundary.
type AccountProvider struct {
	repo RepositoryManager
	// UseHashid derives account ids deterministically from the email so
	// repeated imports of the same identity converge.
	UseHashid bool
	logger    Logger
}

var _ AccountStore = (*AccountProvider)(nil)

// NewAccountProvider creates a provider backed by the given repositories
func NewAccountProvider(repo RepositoryManager) *AccountProvider {
	return &AccountProvider{
		repo:   repo,
		logger: defLogger{},
	}
}

func (p *AccountProvider) WithLogger(l Logger) *AccountProvider {
	if l != nil {
		p.logger = l
	}
	return p
}

// CreateAccount registers a new account. Fails with ErrDuplicateAccount when
// the email is taken.
func (p *AccountProvider) CreateAccount(ctx context.Context, email, password string, profile ...AccountProfile) (*User, error) {
	if _, err := p.repo.Users().GetByIdentifier(ctx, email); err == nil {
		return nil, ErrDuplicateAccount
	} else if !errors.IsNotFound(err) {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to check for existing account")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Email:        email,
		Username:     usernameFromEmail(email),
		PasswordHash: hash,
	}

	if len(profile) > 0 {
		user.Phone = profile[0].Phone
		if profile[0].Username != "" {
			user.Username = profile[0].Username
		}
	}

	if p.UseHashid {
		if id, err := hashid.NewUUID(email); err == nil {
			user.ID = id
		}
	}

	record, err := p.repo.Users().Register(ctx, user)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryConflict, "could not create account")
	}

	return record, nil
}

// FetchAccount retrieves an account by id, email, or username.
func (p *AccountProvider) FetchAccount(ctx context.Context, identifier string) (*User, error) {
	user, err := p.repo.Users().GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to fetch account")
	}
	return user, nil
}

// UpdateAccount applies the given field changes. InvalidatePassword swaps in
// a random hash no caller knows, making the current password unusable.
func (p *AccountProvider) UpdateAccount(ctx context.Context, id string, fields AccountUpdate) (*User, error) {
	user, err := p.FetchAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case fields.InvalidatePassword:
		if err := p.repo.Users().ReplacePassword(ctx, user.ID, RandomPasswordHash()); err != nil {
			return nil, p.notFoundOrInternal(err, "failed to invalidate password")
		}
	case fields.Password != "":
		hash, err := HashPassword(fields.Password)
		if err != nil {
			return nil, err
		}
		if err := p.repo.Users().ReplacePassword(ctx, user.ID, hash); err != nil {
			return nil, p.notFoundOrInternal(err, "failed to update password")
		}
	}

	return p.FetchAccount(ctx, id)
}

// VerifyIdentity finds the account, enforces the login cooldown, and
// compares the password. Every credential failure surfaces as
// ErrInvalidCredentials so callers cannot probe which part was wrong.
func (p *AccountProvider) VerifyIdentity(ctx context.Context, identifier, password string) (*User, error) {
	user, err := p.repo.Users().GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve account during verification")
	}

	if user.LoginAttemptAt != nil {
		expired, err := IsOutsideThresholdPeriod(*user.LoginAttemptAt, CoolDownPeriod)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to calculate login attempt cooldown")
		}

		if expired {
			user.LoginAttempts = 0
		}
	}

	if user.LoginAttempts > MaxLoginAttempts {
		return nil, ErrTooManyLoginAttempts
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if err2 := p.repo.Users().TrackAttemptedLogin(ctx, user); err2 != nil {
			return nil, errors.Wrap(err2, errors.CategoryInternal, "failed to track login attempt")
		}
		return nil, ErrInvalidCredentials
	}

	if err := p.repo.Users().TrackSuccessfulLogin(ctx, user); err != nil {
		p.logger.Error("failed to track successful login", "error", err)
	}

	return user, nil
}

func (p *AccountProvider) notFoundOrInternal(err error, msg string) error {
	if errors.IsNotFound(err) {
		return ErrAccountNotFound
	}
	return errors.Wrap(err, errors.CategoryInternal, msg)
}

func usernameFromEmail(email string) string {
	if strings.Contains(email, "@") {
		return strings.Split(email, "@")[0]
	}
	return email
}
