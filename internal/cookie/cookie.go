// Package cookie provides cookie helpers that share one domain and security
// configuration across the session and CSRF cookies.
package cookie

import (
	"net/http"
	"strings"
)

// Config holds cookie configuration.
type Config struct {
	// BaseDomain scopes cookies to a domain (e.g., "zipfinder.example").
	// Leave empty for host-only cookies, which is what localhost needs.
	BaseDomain string

	// Secure determines whether cookies require HTTPS.
	// Should be true in production, false in development.
	Secure bool
}

// NewConfig creates a new cookie configuration.
//
// Example:
//
//	cfg := cookie.NewConfig("zipfinder.example", true) // production
//	cfg := cookie.NewConfig("", false)                 // development
func NewConfig(baseDomain string, secure bool) *Config {
	return &Config{
		BaseDomain: strings.TrimPrefix(baseDomain, "."),
		Secure:     secure,
	}
}

func (c *Config) domain() string {
	if c.BaseDomain == "" {
		return ""
	}
	return "." + c.BaseDomain
}

// SetSession sets an HttpOnly, SameSite=Lax cookie on path "/".
func (c *Config) SetSession(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Domain:   c.domain(),
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Get retrieves a cookie value from the request.
// Returns empty string if cookie not found.
func Get(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Cookie names used throughout the application.
const (
	// SessionCookieName identifies the browser session that owns a lookup page.
	SessionCookieName = "zipfinder_session"

	// CSRFCookieName stores the CSRF token for form protection.
	CSRFCookieName = "zipfinder_csrf"
)
