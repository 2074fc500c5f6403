package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/zipfinder/internal/cookie"
)

const (
	// SessionContextKey is the context key for the browser session ID
	SessionContextKey contextKey = "session_id"
)

// SessionConfig configures the browser session cookie.
type SessionConfig struct {
	CookieConfig *cookie.Config

	// CookieName defaults to cookie.SessionCookieName.
	CookieName string

	// TTL is the cookie lifetime. It is refreshed on every request.
	TTL time.Duration
}

// Session assigns every browser a session ID stored in a cookie.
// Cookie values that are not UUIDs are replaced.
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	if cfg.CookieConfig == nil {
		panic("session: CookieConfig is required")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = cookie.SessionCookieName
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	maxAge := int(cfg.TTL / time.Second)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := cookie.Get(r, cfg.CookieName)
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.NewString()
			}
			cfg.CookieConfig.SetSession(w, cfg.CookieName, id, maxAge)

			ctx := context.WithValue(r.Context(), SessionContextKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionID retrieves the session ID from the context
func GetSessionID(ctx context.Context) string {
	if id, ok := ctx.Value(SessionContextKey).(string); ok {
		return id
	}
	return ""
}
