package sessions

import (
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// redirect cookie shared by SetRedirect/GetRedirect
const redirectCookieName = "redirect_to"

// HTTPSessions adapts a SessionManager to the cookie-based HTTP surface:
// it translates lifecycle results into session/anti-forgery cookie pairs
// and clears both on logout.
type HTTPSessions struct {
	manager      *SessionManager
	cfg          Config
	cookies      *CookiePolicy
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

var _ HTTPLifecycle = (*HTTPSessions)(nil)

func NewHTTPSessions(manager *SessionManager, cfg Config) (*HTTPSessions, error) {
	policy := NewCookiePolicy(cfg)
	h := &HTTPSessions{
		manager: manager,
		cfg:     cfg,
		cookies: &policy,
		Logger:  defLogger{},
	}

	h.ErrorHandler = h.defaultErrHandler

	return h, nil
}

func (h *HTTPSessions) WithLogger(logger Logger) *HTTPSessions {
	if logger != nil {
		h.Logger = logger
	}
	return h
}

// Manager exposes the underlying lifecycle orchestrator
func (h *HTTPSessions) Manager() *SessionManager {
	return h.manager
}

// XSRFHeaderName is the request header the gate reads the anti-forgery
// token from. It matches the anti-forgery cookie name.
func (h *HTTPSessions) XSRFHeaderName() string {
	return h.cfg.GetXSRFCookieName()
}

// Signup creates the account and sets the credential cookie pair on the
// response, so a successful signup is also a login.
func (h *HTTPSessions) Signup(c router.Context, email, password string, profile ...AccountProfile) (*User, error) {
	user, creds, err := h.manager.Signup(c.Context(), email, password, profile...)
	if err != nil {
		h.Logger.Error("Signup error", "error", err)
		return nil, err
	}

	h.setCredentialCookies(c, creds)
	return user, nil
}

// Login authenticates and sets the credential cookie pair on the response.
func (h *HTTPSessions) Login(c router.Context, payload LoginPayload) (*User, error) {
	user, creds, err := h.manager.Login(c.Context(), payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		h.Logger.Error("Login error", "error", err)
		return nil, err
	}

	h.setCredentialCookies(c, creds)
	return user, nil
}

// Logout replaces both cookies with expired ones and drops any server-side
// anti-forgery state. It succeeds whether or not a valid session was
// presented.
func (h *HTTPSessions) Logout(c router.Context) error {
	if token := c.Cookies(h.cfg.GetSessionCookieName()); token != "" {
		if claims, err := h.manager.VerifyToken(token); err == nil {
			if err := h.manager.Revoke(c.Context(), claims.Subject()); err != nil {
				h.Logger.Warn("Logout revoke error", "error", err)
			}
		}
	}

	c.Cookie(h.cookies.Expired(h.cfg.GetSessionCookieName(), true))
	c.Cookie(h.cookies.Expired(h.cfg.GetXSRFCookieName(), false))
	return nil
}

// IssueAntiForgery sets a fresh anti-forgery cookie without touching the
// session cookie. Used to bootstrap the double-submit pair for clients that
// have not authenticated yet.
func (h *HTTPSessions) IssueAntiForgery(c router.Context) (string, error) {
	token, err := h.manager.Guard().Issue(c.Context(), "")
	if err != nil {
		return "", err
	}

	c.Cookie(h.cookies.AntiForgery(h.cfg.GetXSRFCookieName(), token, h.manager.TTL()))
	return token, nil
}

func (h *HTTPSessions) GetRedirect(ctx router.Context, def ...string) string {
	r := ctx.Cookies(redirectCookieName)
	if r == "" {
		if len(def) > 0 {
			return def[0]
		}
		return "/"
	}
	ctx.Cookie(h.cookies.Expired(redirectCookieName, true))
	return r
}

func (h *HTTPSessions) SetRedirect(ctx router.Context) {
	h.Logger.Info("Setting redirect cookie", "key", redirectCookieName, "path", ctx.OriginalURL())

	ctx.Cookie(h.cookies.Session(redirectCookieName, ctx.OriginalURL(), time.Minute*5))
}

func (h *HTTPSessions) setCredentialCookies(c router.Context, creds *Credentials) {
	c.Cookie(h.cookies.Session(h.cfg.GetSessionCookieName(), creds.Token, creds.TTL))
	c.Cookie(h.cookies.AntiForgery(h.cfg.GetXSRFCookieName(), creds.XSRFToken, creds.TTL))
}

func (h *HTTPSessions) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	h.Logger.Info(
		"Session error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	switch richErr.Category {
	case errors.CategoryAuth, errors.CategoryAuthz:
		return c.JSON(router.StatusUnauthorized, map[string]any{
			"error": richErr.Message,
			"code":  richErr.TextCode,
		})
	default:
		return c.JSON(richErr.Code, map[string]any{
			"error": richErr.Message,
		})
	}
}
