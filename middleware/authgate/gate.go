package authgate

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-router"
)

var (
	defaultSessionCookie = "X-ACCESS-JWT"
	defaultXSRFCookie    = "X-ACCESS-XSRF"

	ErrSessionMissing = errors.New("missing or malformed session token")
	ErrPairMismatch   = errors.New("anti-forgery token mismatch")
)

// TokenVerifier interface for verifying session tokens without import cycles
// This mirrors the Signer.Verify method from the sessions package
type TokenVerifier interface {
	Verify(tokenString string) (Claims, error)
}

// Claims interface for structured claims without import cycles
// This mirrors the SessionClaims type from the sessions package
type Claims interface {
	Subject() string
	UserID() string
	Role() string
	HasRole(role string) bool
	IsAtLeast(minRole string) bool
}

// XSRFChecker compares the anti-forgery cookie against the request header.
// The default performs a constant time equality check.
type XSRFChecker func(ctx router.Context, sessionID, cookieValue, headerValue string) error

// ValidationListener is invoked after the credential pair has been verified
// but before authorization checks.
type ValidationListener func(ctx router.Context, claims Claims) error

type Config struct {
	Filter         func(router.Context) bool
	SuccessHandler router.HandlerFunc

	// ErrorHandler handles every authentication failure. All failure modes
	// collapse into the same response so callers cannot probe which half of
	// the credential pair was wrong.
	ErrorHandler router.ErrorHandler

	// ForbiddenHandler handles authorization failures for requests that
	// carried a valid credential pair.
	ForbiddenHandler router.ErrorHandler

	// ForbiddenStatus is the status ForbiddenHandler responds with. Set it
	// to router.StatusUnauthorized to hide resource existence.
	ForbiddenStatus int

	SigningKey  SigningKey
	SigningKeys map[string]SigningKey
	KeyFunc     jwt.Keyfunc
	JWKSetURLs  []string

	// TokenVerifier decodes session tokens. When nil one is built from the
	// configured keys.
	TokenVerifier TokenVerifier

	SessionCookieName string
	XSRFCookieName    string

	// XSRFHeaderName defaults to the XSRF cookie name.
	XSRFHeaderName string

	// XSRFChecker validates the double-submit pair. Override to add
	// storage-backed checks on top of the equality comparison.
	XSRFChecker XSRFChecker

	ContextKey string

	// Rules maps route identifiers to authorization predicates. A route
	// with no rule only requires a valid credential pair.
	Rules RuleTable

	// RouteID derives the rule lookup key for a request. Defaults to
	// "METHOD path".
	RouteID func(router.Context) string

	// RoleChecker is an optional function to validate roles against custom logic
	RoleChecker func(Claims, string) bool
	// RequiredRole specifies an exact role that must be present
	RequiredRole string
	// MinimumRole specifies the minimum role level required (uses role hierarchy)
	MinimumRole string

	// ContextEnricher is an optional function to propagate claims to the standard
	// Go context. If provided, it will be called after successful verification.
	ContextEnricher func(c context.Context, claims Claims) context.Context

	ValidationListeners []ValidationListener
}

type SigningKey struct {
	JWTAlg string
	Key    any
}

func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := GetDefaultConfig(config...)
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			raw := ctx.Cookies(cfg.SessionCookieName)
			if raw == "" {
				return cfg.ErrorHandler(ctx, ErrSessionMissing)
			}

			claims, err := cfg.TokenVerifier.Verify(raw)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			xsrfCookie := ctx.Cookies(cfg.XSRFCookieName)
			xsrfHeader := ctx.GetString(cfg.XSRFHeaderName, "")
			if err := cfg.XSRFChecker(ctx, claims.Subject(), xsrfCookie, xsrfHeader); err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			if err := cfg.runValidationListeners(ctx, claims); err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			if err := performAuthorizationChecks(ctx, claims, cfg); err != nil {
				return cfg.ForbiddenHandler(ctx, err)
			}

			ctx.Locals(cfg.ContextKey, claims)

			if cfg.ContextEnricher != nil {
				stdCtx := ctx.Context()
				stdCtxWithClaims := cfg.ContextEnricher(stdCtx, claims)
				ctx.SetContext(stdCtxWithClaims)
			}

			return cfg.SuccessHandler(ctx)
		}
	}
}

// performAuthorizationChecks runs the rule table and role checks for requests
// that already carry a valid credential pair
func performAuthorizationChecks(ctx router.Context, claims Claims, cfg Config) error {
	if rule, ok := cfg.Rules.Resolve(cfg.RouteID(ctx)); ok {
		if !rule(claims) {
			return fmt.Errorf("access denied: route rule rejected role '%s'", claims.Role())
		}
	}

	if cfg.RequiredRole != "" {
		if !claims.HasRole(cfg.RequiredRole) {
			return fmt.Errorf("access denied: required role '%s' not found", cfg.RequiredRole)
		}
	}

	// user has at least the minimum role level?
	if cfg.MinimumRole != "" {
		if !claims.IsAtLeast(cfg.MinimumRole) {
			return fmt.Errorf("access denied: minimum role '%s' required", cfg.MinimumRole)
		}
	}

	// use custom role checker if provided
	if cfg.RoleChecker != nil {
		roleToCheck := cfg.RequiredRole
		if roleToCheck == "" {
			roleToCheck = cfg.MinimumRole
		}

		if roleToCheck != "" && !cfg.RoleChecker(claims, roleToCheck) {
			return fmt.Errorf("access denied: custom role check failed for role '%s'", roleToCheck)
		}
	}

	return nil
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c router.Context, err error) error {
			return c.Status(router.StatusUnauthorized).SendString("Invalid or expired session")
		}
	}

	if cfg.ForbiddenStatus == 0 {
		cfg.ForbiddenStatus = router.StatusForbidden
	}

	if cfg.ForbiddenHandler == nil {
		status := cfg.ForbiddenStatus
		cfg.ForbiddenHandler = func(c router.Context, err error) error {
			return c.Status(status).SendString("Access denied")
		}
	}

	if cfg.TokenVerifier == nil && cfg.SigningKey.Key == nil && len(cfg.SigningKeys) == 0 && len(cfg.JWKSetURLs) == 0 && cfg.KeyFunc == nil {
		panic("SESSIONS: gate middleware configuration: At least one of the following is required: TokenVerifier, KeyFunc, JWKSetURLs, SigningKeys, or SigningKey.")
	}

	if cfg.SessionCookieName == "" {
		cfg.SessionCookieName = defaultSessionCookie
	}

	if cfg.XSRFCookieName == "" {
		cfg.XSRFCookieName = defaultXSRFCookie
	}

	if cfg.XSRFHeaderName == "" {
		cfg.XSRFHeaderName = cfg.XSRFCookieName
	}

	if cfg.XSRFChecker == nil {
		cfg.XSRFChecker = defaultXSRFChecker
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "session"
	}

	if cfg.RouteID == nil {
		cfg.RouteID = DefaultRouteID
	}

	if cfg.KeyFunc == nil && cfg.TokenVerifier == nil {
		if len(cfg.SigningKeys) > 0 || len(cfg.JWKSetURLs) > 0 {
			var givenKeys map[string]keyfunc.GivenKey
			if cfg.SigningKeys != nil {
				givenKeys = make(map[string]keyfunc.GivenKey, len(cfg.SigningKeys))
				for kid, key := range cfg.SigningKeys {
					givenKeys[kid] = keyfunc.NewGivenCustom(key.Key, keyfunc.GivenKeyOptions{
						Algorithm: key.JWTAlg,
					})
				}
			}
			if len(cfg.JWKSetURLs) > 0 {
				var err error
				cfg.KeyFunc, err = multiKeyfunc(givenKeys, cfg.JWKSetURLs)
				if err != nil {
					panic("Failed to create keyfunc from JWK Set URL: " + err.Error())
				}
			} else {
				cfg.KeyFunc = keyfunc.NewGiven(givenKeys).Keyfunc
			}
		} else {
			cfg.KeyFunc = signingKeyFunc(cfg.SigningKey)
		}
	}

	if cfg.TokenVerifier == nil {
		cfg.TokenVerifier = keyfuncVerifier{keyFunc: cfg.KeyFunc}
	}

	return cfg
}

// defaultXSRFChecker enforces the double-submit contract: both halves present
// and equal, compared in constant time.
func defaultXSRFChecker(ctx router.Context, sessionID, cookieValue, headerValue string) error {
	if cookieValue == "" || headerValue == "" {
		return ErrPairMismatch
	}
	if subtle.ConstantTimeCompare([]byte(cookieValue), []byte(headerValue)) != 1 {
		return ErrPairMismatch
	}
	return nil
}

func multiKeyfunc(givenKeys map[string]keyfunc.GivenKey, jwtSetUrls []string) (jwt.Keyfunc, error) {
	opts := keyfuncOptions(givenKeys)
	m := make(map[string]keyfunc.Options, len(jwtSetUrls))
	for _, url := range jwtSetUrls {
		m[url] = opts
	}
	mopts := keyfunc.MultipleOptions{
		KeySelector: keyfunc.KeySelectorFirst,
	}
	multi, err := keyfunc.GetMultiple(m, mopts)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWT URLs: %w", err)
	}
	return multi.Keyfunc, nil
}

func keyfuncOptions(givenKeys map[string]keyfunc.GivenKey) keyfunc.Options {
	return keyfunc.Options{
		GivenKeys: givenKeys,
		RefreshErrorHandler: func(err error) {
			log.Printf("failed to do a background refresh of JWT set: %s", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	}
}

func (cfg *Config) runValidationListeners(ctx router.Context, claims Claims) error {
	for _, listener := range cfg.ValidationListeners {
		if listener == nil {
			continue
		}
		if err := listener(ctx, claims); err != nil {
			return err
		}
	}
	return nil
}

func signingKeyFunc(key SigningKey) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		if key.JWTAlg != "" {
			alg, ok := token.Header["alg"].(string)
			if !ok {
				return nil, fmt.Errorf("unexpected JWT signing method: expected %q got: missing json type", key.JWTAlg)
			}
			if alg != key.JWTAlg {
				return nil, fmt.Errorf("unexpected jwt signing method: expected: %q: got: %q", key.JWTAlg, alg)
			}
		}
		return key.Key, nil
	}
}

// keyfuncVerifier decodes tokens with the configured keys when no external
// TokenVerifier is supplied.
type keyfuncVerifier struct {
	keyFunc jwt.Keyfunc
}

func (v keyfuncVerifier) Verify(tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, v.keyFunc)
	if err != nil {
		return nil, err
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrSessionMissing
	}

	return mapClaimsAdapter{claims: mapClaims}, nil
}

type mapClaimsAdapter struct {
	claims jwt.MapClaims
}

func (a mapClaimsAdapter) Subject() string {
	sub, _ := a.claims.GetSubject()
	return sub
}

func (a mapClaimsAdapter) UserID() string {
	if uid, ok := a.claims["uid"].(string); ok {
		return uid
	}
	return a.Subject()
}

func (a mapClaimsAdapter) Role() string {
	role, _ := a.claims["role"].(string)
	return role
}

func (a mapClaimsAdapter) HasRole(role string) bool {
	return a.Role() == role
}

func (a mapClaimsAdapter) IsAtLeast(minRole string) bool {
	return roleAtLeast(a.Role(), minRole)
}
