package cookie

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_SetSession(t *testing.T) {
	tests := []struct {
		name       string
		cfg        *Config
		wantDomain string
	}{
		{name: "host only", cfg: NewConfig("", false), wantDomain: ""},
		{name: "scoped domain", cfg: NewConfig("zipfinder.example", true), wantDomain: "zipfinder.example"},
		{name: "leading dot trimmed", cfg: NewConfig(".zipfinder.example", true), wantDomain: "zipfinder.example"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.cfg.SetSession(rec, SessionCookieName, "abc", 3600)

			cookies := rec.Result().Cookies()
			require.Len(t, cookies, 1)

			c := cookies[0]
			assert.Equal(t, SessionCookieName, c.Name)
			assert.Equal(t, "abc", c.Value)
			assert.Equal(t, tt.wantDomain, c.Domain)
			assert.Equal(t, "/", c.Path)
			assert.Equal(t, 3600, c.MaxAge)
			assert.True(t, c.HttpOnly)
			assert.Equal(t, tt.cfg.Secure, c.Secure)
			assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
		})
	}
}

func TestGet(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", Get(r, SessionCookieName))

	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "xyz"})
	assert.Equal(t, "xyz", Get(r, SessionCookieName))
}
