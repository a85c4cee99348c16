package sessions

import (
	"errors"
	"os"

	"github.com/caarlos0/env/v11"
	goerrors "github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
)

// EnvConfig is a Config implementation loaded from environment variables.
type EnvConfig struct {
	SigningKey      string   `env:"SESSION_SIGNING_KEY"`
	SigningMethod   string   `env:"SESSION_SIGNING_METHOD" envDefault:"HS256"`
	TokenExpiration int      `env:"SESSION_TOKEN_EXPIRATION" envDefault:"72"`
	Issuer          string   `env:"SESSION_ISSUER"`
	Audience        []string `env:"SESSION_AUDIENCE" envSeparator:","`
	SessionCookie   string   `env:"SESSION_COOKIE_NAME" envDefault:"X-ACCESS-JWT"`
	XSRFCookie      string   `env:"SESSION_XSRF_COOKIE_NAME" envDefault:"X-ACCESS-XSRF"`
	CookieDomain    string   `env:"SESSION_COOKIE_DOMAIN"`
	SSL             bool     `env:"SESSION_SSL" envDefault:"false"`
	ContextKey      string   `env:"SESSION_CONTEXT_KEY" envDefault:"session"`
}

var _ Config = (*EnvConfig)(nil)

// LoadEnvConfig reads a .env file when present and parses the environment
// into an EnvConfig. A missing .env file is not an error.
func LoadEnvConfig() (*EnvConfig, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to load .env file")
		}
	}

	cfg := &EnvConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to parse environment config")
	}

	if cfg.SigningKey == "" {
		return nil, goerrors.New("SESSION_SIGNING_KEY is required", goerrors.CategoryValidation)
	}

	return cfg, nil
}

func (c *EnvConfig) GetSigningKey() string        { return c.SigningKey }
func (c *EnvConfig) GetSigningMethod() string     { return c.SigningMethod }
func (c *EnvConfig) GetTokenExpiration() int      { return c.TokenExpiration }
func (c *EnvConfig) GetIssuer() string            { return c.Issuer }
func (c *EnvConfig) GetAudience() []string        { return c.Audience }
func (c *EnvConfig) GetSessionCookieName() string { return c.SessionCookie }
func (c *EnvConfig) GetXSRFCookieName() string    { return c.XSRFCookie }
func (c *EnvConfig) GetCookieDomain() string      { return c.CookieDomain }
func (c *EnvConfig) GetSSL() bool                 { return c.SSL }
func (c *EnvConfig) GetContextKey() string        { return c.ContextKey }
