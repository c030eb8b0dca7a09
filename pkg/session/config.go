package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Config holds session policy. It is validated once by New and never
// mutated afterwards.
type Config struct {
	// Secrets verify incoming cookies in order; the first one signs.
	Secrets []string `env:"SESSION_SECRETS" envSeparator:"," yaml:"secrets"`

	CookieName     string `env:"SESSION_COOKIE_NAME" envDefault:"connect.sid" yaml:"cookie_name"`
	CookiePath     string `env:"SESSION_COOKIE_PATH" envDefault:"/" yaml:"cookie_path"`
	CookieDomain   string `env:"SESSION_COOKIE_DOMAIN" yaml:"cookie_domain"`
	CookieHTTPOnly bool   `env:"SESSION_COOKIE_HTTP_ONLY" envDefault:"true" yaml:"cookie_http_only"`
	CookieSecure   bool   `env:"SESSION_COOKIE_SECURE" envDefault:"false" yaml:"cookie_secure"`
	// CookieSameSite is one of "strict", "lax", "none" or empty to omit it.
	CookieSameSite string `env:"SESSION_COOKIE_SAME_SITE" envDefault:"lax" yaml:"cookie_same_site"`

	// MaxAge is the cookie and store lifetime in seconds.
	MaxAge int `env:"SESSION_MAX_AGE" envDefault:"86400" yaml:"max_age"`
	// BrowserSession ignores MaxAge: cookies last until the browser closes
	// and store entries never expire.
	BrowserSession bool `env:"SESSION_BROWSER_SESSION" envDefault:"false" yaml:"browser_session"`

	StorePrefix string `env:"SESSION_STORE_PREFIX" envDefault:"sess:" yaml:"store_prefix"`

	SaveUninitialized bool `env:"SESSION_SAVE_UNINITIALIZED" envDefault:"false" yaml:"save_uninitialized"`
	Resave            bool `env:"SESSION_RESAVE" envDefault:"false" yaml:"resave"`
	Rolling           bool `env:"SESSION_ROLLING" envDefault:"false" yaml:"rolling"`
}

// DefaultConfig returns the defaults of the connect session middleware.
// Secrets are left empty and must be provided.
func DefaultConfig() Config {
	return Config{
		CookieName:     "connect.sid",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSameSite: "lax",
		MaxAge:         86400,
		StorePrefix:    "sess:",
	}
}

// Validate reports every configuration problem joined with
// ErrInvalidConfiguration.
func (c Config) Validate() error {
	var errs []error

	if len(c.signingSecrets()) == 0 {
		errs = append(errs, errors.New("at least one non-empty secret is required"))
	}
	if c.CookieName == "" || strings.ContainsAny(c.CookieName, " \t\r\n;,=") {
		errs = append(errs, fmt.Errorf("invalid cookie name %q", c.CookieName))
	}
	if !c.BrowserSession && c.MaxAge <= 0 {
		errs = append(errs, fmt.Errorf("max age must be positive, got %d", c.MaxAge))
	}
	if _, err := parseSameSite(c.CookieSameSite); err != nil {
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{ErrInvalidConfiguration}, errs...)...)
}

// MaxAgeDuration returns the configured lifetime, or zero for browser
// session cookies.
func (c Config) MaxAgeDuration() time.Duration {
	if c.BrowserSession {
		return 0
	}
	return time.Duration(c.MaxAge) * time.Second
}

func (c Config) signingSecrets() []string {
	secrets := make([]string, 0, len(c.Secrets))
	for _, s := range c.Secrets {
		if s = strings.TrimSpace(s); s != "" {
			secrets = append(secrets, s)
		}
	}
	return secrets
}

// parseSameSite maps the configured attribute to its http constant.
// The empty string yields http.SameSiteDefaultMode, which omits the attribute.
func parseSameSite(v string) (http.SameSite, error) {
	switch strings.ToLower(v) {
	case "":
		return http.SameSiteDefaultMode, nil
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("invalid same site mode %q", v)
	}
}
