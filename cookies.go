package sessions

import (
	"time"

	"github.com/goliatone/go-router"
)

// expiredCookieAge pushes Expires far enough into the past that every client
// deletes the cookie immediately.
const expiredCookieAge = -time.Hour * 24 * 365

// CookiePolicy computes Set-Cookie attributes for a deployment. Secure and
// Domain are emitted if and only if the deployment is configured with a
// TLS-scoped domain; a plain local deployment gets host-only cookies.
type CookiePolicy struct {
	SSL      bool
	Domain   string
	Path     string
	SameSite string
}

// CookieOptions control per-cookie attributes.
type CookieOptions struct {
	TTL      time.Duration
	HTTPOnly bool
	// Expire forces the cookie into the past regardless of TTL so the
	// client deletes it.
	Expire bool
}

// NewCookiePolicy derives the policy from config.
func NewCookiePolicy(cfg Config) CookiePolicy {
	return CookiePolicy{
		SSL:    cfg.GetSSL(),
		Domain: cfg.GetCookieDomain(),
	}
}

// Build computes the cookie for the given name/value under this policy.
func (p CookiePolicy) Build(name, value string, opts CookieOptions) *router.Cookie {
	expires := time.Now().Add(opts.TTL)
	if opts.Expire {
		expires = time.Now().Add(expiredCookieAge)
		value = ""
	}

	sameSite := p.SameSite
	if sameSite == "" {
		sameSite = "Lax"
	}

	path := p.Path
	if path == "" {
		path = "/"
	}

	cookie := &router.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  expires,
		HTTPOnly: opts.HTTPOnly,
		SameSite: sameSite,
	}

	if p.SSL && p.Domain != "" {
		cookie.Domain = p.Domain
		cookie.Secure = true
	}

	return cookie
}

// Session builds the session token cookie. Always HttpOnly so scripts can
// never read the credential.
func (p CookiePolicy) Session(name, token string, ttl time.Duration) *router.Cookie {
	return p.Build(name, token, CookieOptions{TTL: ttl, HTTPOnly: true})
}

// AntiForgery builds the anti-forgery cookie. Deliberately not HttpOnly:
// client code must read it to echo the value as a request header. Making it
// HttpOnly would silently break the double-submit contract.
func (p CookiePolicy) AntiForgery(name, token string, ttl time.Duration) *router.Cookie {
	return p.Build(name, token, CookieOptions{TTL: ttl, HTTPOnly: false})
}

// Expired builds the deletion form of a cookie.
func (p CookiePolicy) Expired(name string, httpOnly bool) *router.Cookie {
	return p.Build(name, "", CookieOptions{HTTPOnly: httpOnly, Expire: true})
}
