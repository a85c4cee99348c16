package sessions_test

import (
	"context"
	"sync"
	"time"

	sessions "github.com/goliatone/go-sessions"
	"github.com/stretchr/testify/mock"
)

// MockAccountStore implements sessions.AccountStore
type MockAccountStore struct {
	mock.Mock
}

func (m *MockAccountStore) CreateAccount(ctx context.Context, email, password string, profile ...sessions.AccountProfile) (*sessions.User, error) {
	callArgs := []any{ctx, email, password}
	for _, p := range profile {
		callArgs = append(callArgs, p)
	}
	args := m.Called(callArgs...)
	user, _ := args.Get(0).(*sessions.User)
	return user, args.Error(1)
}

func (m *MockAccountStore) FetchAccount(ctx context.Context, identifier string) (*sessions.User, error) {
	args := m.Called(ctx, identifier)
	user, _ := args.Get(0).(*sessions.User)
	return user, args.Error(1)
}

func (m *MockAccountStore) UpdateAccount(ctx context.Context, id string, fields sessions.AccountUpdate) (*sessions.User, error) {
	args := m.Called(ctx, id, fields)
	user, _ := args.Get(0).(*sessions.User)
	return user, args.Error(1)
}

func (m *MockAccountStore) VerifyIdentity(ctx context.Context, identifier, password string) (*sessions.User, error) {
	args := m.Called(ctx, identifier, password)
	user, _ := args.Get(0).(*sessions.User)
	return user, args.Error(1)
}

// MockLoginPayload implements sessions.LoginPayload
type MockLoginPayload struct {
	Identifier string
	Password   string
}

func (m MockLoginPayload) GetIdentifier() string {
	return m.Identifier
}

func (m MockLoginPayload) GetPassword() string {
	return m.Password
}

// memoryStorage is an in-process XSRFStorage for guard tests
type memoryStorage struct {
	mu     sync.Mutex
	values map[string]string
	err    error
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{values: map[string]string{}}
}

func (s *memoryStorage) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	return s.values[key], nil
}

func (s *memoryStorage) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.values[key] = value
	return nil
}

func (s *memoryStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	delete(s.values, key)
	return nil
}

// testConfig implements sessions.Config
type testConfig struct {
	signingKey      string
	signingMethod   string
	tokenExpiration int
	issuer          string
	audience        []string
	sessionCookie   string
	xsrfCookie      string
	cookieDomain    string
	ssl             bool
	contextKey      string
}

func newTestConfig() *testConfig {
	return &testConfig{
		signingKey:      "test-signing-key-0123456789abcdef",
		signingMethod:   "HS256",
		tokenExpiration: 1,
		sessionCookie:   "X-ACCESS-JWT",
		xsrfCookie:      "X-ACCESS-XSRF",
		contextKey:      "session",
	}
}

func (c *testConfig) GetSigningKey() string        { return c.signingKey }
func (c *testConfig) GetSigningMethod() string     { return c.signingMethod }
func (c *testConfig) GetTokenExpiration() int      { return c.tokenExpiration }
func (c *testConfig) GetIssuer() string            { return c.issuer }
func (c *testConfig) GetAudience() []string        { return c.audience }
func (c *testConfig) GetSessionCookieName() string { return c.sessionCookie }
func (c *testConfig) GetXSRFCookieName() string    { return c.xsrfCookie }
func (c *testConfig) GetCookieDomain() string      { return c.cookieDomain }
func (c *testConfig) GetSSL() bool                 { return c.ssl }
func (c *testConfig) GetContextKey() string        { return c.contextKey }
