package authgate

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestKey() []byte {
	return []byte("test-signing-key-0123456789abcdef")
}

func signTestToken(t *testing.T, key []byte, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func newGateContext(method, path string) *router.MockContext {
	ctx := router.NewMockContext()
	ctx.On("Method").Return(method).Maybe()
	ctx.On("Path").Return(path).Maybe()
	ctx.On("Locals", "session", mock.Anything).Return(nil).Maybe()
	return ctx
}

func newGateConfig(captured *error) Config {
	return Config{
		SigningKey: SigningKey{JWTAlg: "HS256", Key: newTestKey()},
		ErrorHandler: func(c router.Context, err error) error {
			if captured != nil {
				*captured = err
			}
			return err
		},
	}
}

func TestGateAllowsValidCredentialPair(t *testing.T) {
	token := signTestToken(t, newTestKey(), jwt.MapClaims{
		"sub":  "user-1",
		"uid":  "user-1",
		"role": "member",
	})

	handler := New(newGateConfig(nil))(func(ctx router.Context) error { return nil })

	ctx := newGateContext("POST", "/things")
	ctx.CookiesM["X-ACCESS-JWT"] = token
	ctx.CookiesM["X-ACCESS-XSRF"] = "xsrf-token"
	ctx.On("GetString", "X-ACCESS-XSRF", "").Return("xsrf-token")

	require.NoError(t, handler(ctx))
	require.True(t, ctx.NextCalled)

	claims, ok := ctx.LocalsMock["session"].(Claims)
	require.True(t, ok)
	require.Equal(t, "user-1", claims.UserID())
	require.Equal(t, "member", claims.Role())
}

func TestGateRejectsMissingSessionCookie(t *testing.T) {
	var captured error
	handler := New(newGateConfig(&captured))(func(ctx router.Context) error { return nil })

	ctx := newGateContext("POST", "/things")
	ctx.On("GetString", "X-ACCESS-XSRF", "").Return("xsrf-token").Maybe()

	require.Error(t, handler(ctx))
	require.ErrorIs(t, captured, ErrSessionMissing)
	require.False(t, ctx.NextCalled)
}

func TestGateRejectsMissingXSRFHeader(t *testing.T) {
	token := signTestToken(t, newTestKey(), jwt.MapClaims{
		"sub": "user-1",
	})

	var captured error
	handler := New(newGateConfig(&captured))(func(ctx router.Context) error { return nil })

	// valid session cookie but no header echo
	ctx := newGateContext("POST", "/things")
	ctx.CookiesM["X-ACCESS-JWT"] = token
	ctx.CookiesM["X-ACCESS-XSRF"] = "xsrf-token"
	ctx.On("GetString", "X-ACCESS-XSRF", "").Return("")

	require.Error(t, handler(ctx))
	require.ErrorIs(t, captured, ErrPairMismatch)
	require.False(t, ctx.NextCalled)
}

func TestGateRejectsMismatchedXSRFPair(t *testing.T) {
	token := signTestToken(t, newTestKey(), jwt.MapClaims{
		"sub": "user-1",
	})

	var captured error
	handler := New(newGateConfig(&captured))(func(ctx router.Context) error { return nil })

	ctx := newGateContext("POST", "/things")
	ctx.CookiesM["X-ACCESS-JWT"] = token
	ctx.CookiesM["X-ACCESS-XSRF"] = "xsrf-token"
	ctx.On("GetString", "X-ACCESS-XSRF", "").Return("different-token")

	require.Error(t, handler(ctx))
	require.ErrorIs(t, captured, ErrPairMismatch)
}

func TestGateRejectsExpiredToken(t *testing.T) {
	token := signTestToken(t, newTestKey(), jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	var captured error
	handler := New(newGateConfig(&captured))(func(ctx router.Context) error { return nil })

	ctx := newGateContext("POST", "/things")
	ctx.CookiesM["X-ACCESS-JWT"] = token
	ctx.CookiesM["X-ACCESS-XSRF"] = "xsrf-token"
	ctx.On("GetString", "X-ACCESS-XSRF", "").Return("xsrf-token").Maybe()

	require.Error(t, handler(ctx))
	require.Error(t, captured)
	require.False(t, ctx.NextCalled)
}

func TestGateRejectsTokenSignedWithWrongKey(t *testing.T) {
	token := signTestToken(t, []byte("another-key-another-key-another!"), jwt.MapClaims{
		"sub": "user-1",
	})

	var captured error
	handler := New(newGateConfig(&captured))(func(ctx router.Context) error { return nil })

	ctx := newGateContext("POST", "/things")
	ctx.CookiesM["X-ACCESS-JWT"] = token
	ctx.CookiesM["X-ACCESS-XSRF"] = "xsrf-token"
	ctx.On("GetString", "X-ACCESS-XSRF", "").Return("xsrf-token").Maybe()

	require.Error(t, handler(ctx))
	require.Error(t, captured)
}

func TestGateForbiddenIsDistinctFromUnauthenticated(t *testing.T) {
	token := signTestToken(t, newTestKey(), jwt.MapClaims{
		"sub":  "user-1",
		"role": "member",
	})

	var authErr, forbiddenErr error
	cfg := Config{
		SigningKey: SigningKey{JWTAlg: "HS256", Key: newTestKey()},
		ErrorHandler: func(c router.Context, err error) error {
			authErr = err
			return err
		},
		ForbiddenHandler: func(c router.Context, err error) error {
			forbiddenErr = err
			return err
		},
		Rules: RuleTable{
			"POST /admin": MinimumRole("admin"),
		},
	}

	handler := New(cfg)(func(ctx router.Context) error { return nil })

	ctx := newGateContext("POST", "/admin")
	ctx.CookiesM["X-ACCESS-JWT"] = token
	ctx.CookiesM["X-ACCESS-XSRF"] = "xsrf-token"
	ctx.On("GetString", "X-ACCESS-XSRF", "").Return("xsrf-token")

	require.Error(t, handler(ctx))
	require.NoError(t, authErr)
	require.Error(t, forbiddenErr)
	require.False(t, ctx.NextCalled)
}

func TestGateRuleAllowsSufficientRole(t *testing.T) {
	token := signTestToken(t, newTestKey(), jwt.MapClaims{
		"sub":  "user-1",
		"role": "owner",
	})

	cfg := Config{
		SigningKey: SigningKey{JWTAlg: "HS256", Key: newTestKey()},
		Rules: RuleTable{
			"POST /admin": MinimumRole("admin"),
		},
	}

	handler := New(cfg)(func(ctx router.Context) error { return nil })

	ctx := newGateContext("POST", "/admin")
	ctx.CookiesM["X-ACCESS-JWT"] = token
	ctx.CookiesM["X-ACCESS-XSRF"] = "xsrf-token"
	ctx.On("GetString", "X-ACCESS-XSRF", "").Return("xsrf-token")

	require.NoError(t, handler(ctx))
	require.True(t, ctx.NextCalled)
}

func TestGateMinimumRoleConfig(t *testing.T) {
	token := signTestToken(t, newTestKey(), jwt.MapClaims{
		"sub":  "user-1",
		"role": "guest",
	})

	var forbiddenErr error
	cfg := Config{
		SigningKey:  SigningKey{JWTAlg: "HS256", Key: newTestKey()},
		MinimumRole: "member",
		ForbiddenHandler: func(c router.Context, err error) error {
			forbiddenErr = err
			return err
		},
	}

	handler := New(cfg)(func(ctx router.Context) error { return nil })

	ctx := newGateContext("GET", "/profile")
	ctx.CookiesM["X-ACCESS-JWT"] = token
	ctx.CookiesM["X-ACCESS-XSRF"] = "xsrf-token"
	ctx.On("GetString", "X-ACCESS-XSRF", "").Return("xsrf-token")

	require.Error(t, handler(ctx))
	require.Error(t, forbiddenErr)
}

func TestGateFilterSkipsVerification(t *testing.T) {
	cfg := Config{
		SigningKey: SigningKey{JWTAlg: "HS256", Key: newTestKey()},
		Filter: func(ctx router.Context) bool {
			return true
		},
	}

	handler := New(cfg)(func(ctx router.Context) error { return nil })

	ctx := newGateContext("GET", "/public")

	require.NoError(t, handler(ctx))
	require.True(t, ctx.NextCalled)
}

func TestGateCustomXSRFChecker(t *testing.T) {
	token := signTestToken(t, newTestKey(), jwt.MapClaims{
		"sub": "user-1",
	})

	var checkedSession string
	cfg := Config{
		SigningKey: SigningKey{JWTAlg: "HS256", Key: newTestKey()},
		XSRFChecker: func(ctx router.Context, sessionID, cookieValue, headerValue string) error {
			checkedSession = sessionID
			return nil
		},
	}

	handler := New(cfg)(func(ctx router.Context) error { return nil })

	ctx := newGateContext("POST", "/things")
	ctx.CookiesM["X-ACCESS-JWT"] = token
	ctx.On("GetString", "X-ACCESS-XSRF", "").Return("")

	require.NoError(t, handler(ctx))
	require.Equal(t, "user-1", checkedSession)
}

func TestGateRequiresKeyMaterial(t *testing.T) {
	require.Panics(t, func() {
		handler := New(Config{})(func(ctx router.Context) error { return nil })
		handler(newGateContext("GET", "/"))
	})
}
