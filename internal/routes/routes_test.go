package routes

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dukerupert/zipfinder/internal/cookie"
	"github.com/dukerupert/zipfinder/internal/domain"
	"github.com/dukerupert/zipfinder/internal/handler"
	"github.com/dukerupert/zipfinder/internal/lookup"
	"github.com/dukerupert/zipfinder/internal/middleware"
	"github.com/dukerupert/zipfinder/internal/router"
	"github.com/dukerupert/zipfinder/web"
)

func newTestRouter(t *testing.T) (*router.Router, *lookup.MockFetcher) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	renderer, err := handler.NewRenderer(web.Templates(), logger)
	require.NoError(t, err)

	fetcher := lookup.NewMockFetcher(gomock.NewController(t))
	store := lookup.NewStore(lookup.StoreConfig{TTL: time.Hour, CleanupInterval: time.Hour})
	t.Cleanup(store.Stop)

	h := handler.NewLookupHandler(lookup.NewController(fetcher, lookup.NewFormValidator(), nil, logger), store, renderer)
	cookies := cookie.NewConfig("", false)

	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		middleware.Session(middleware.SessionConfig{CookieConfig: cookies, TTL: time.Hour}),
	)
	RegisterLookupRoutes(r, LookupDeps{
		Handler: h,
		PageMiddleware: []router.Middleware{
			middleware.MaxBodySize(),
			middleware.CSRF(middleware.DefaultCSRFConfig(cookies)),
		},
		APIMiddleware: []router.Middleware{router.CORS([]string{"*"})},
	})
	RegisterOpsRoutes(r, OpsDeps{
		Health:   h.Health,
		Static:   web.Static(),
		NotFound: handler.NotFoundResponse,
	})

	return r, fetcher
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLookupRoutes_FormRoundTrip(t *testing.T) {
	r, fetcher := newTestRouter(t)
	fetcher.EXPECT().Lookup(gomock.Any(), "90210").Return(&domain.LookupResult{
		PostCode: "90210",
		Places:   []domain.Place{{Name: "Beverly Hills", State: "CA", Latitude: "34.0901", Longitude: "-118.4065"}},
	}, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	session := findCookie(rec.Result().Cookies(), cookie.SessionCookieName)
	csrf := findCookie(rec.Result().Cookies(), cookie.CSRFCookieName)
	require.NotNil(t, session)
	require.NotNil(t, csrf)
	assert.Contains(t, rec.Body.String(), `value="`+csrf.Value+`"`)

	form := url.Values{"zip-code": {"90210"}, "csrf_token": {csrf.Value}}
	req := httptest.NewRequest(http.MethodPost, "/lookup", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(session)
	req.AddCookie(csrf)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<p>City: Beverly Hills</p>")

	// The same session sees the region on reload.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(session)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), "<p>Zip Code: 90210</p>")
}

func TestLookupRoutes_SubmitWithoutCSRFToken(t *testing.T) {
	r, _ := newTestRouter(t)

	form := url.Values{"zip-code": {"90210"}}
	req := httptest.NewRequest(http.MethodPost, "/lookup", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLookupRoutes_API(t *testing.T) {
	r, fetcher := newTestRouter(t)
	fetcher.EXPECT().Lookup(gomock.Any(), "99999").
		Return(nil, &domain.Error{Code: domain.ENOTFOUND, Message: "{}"})

	req := httptest.NewRequest(http.MethodGet, "/api/lookup/99999", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "https://example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/lookup/90210", nil)
	req.Header.Set("Origin", "https://example.com")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestOpsRoutes(t *testing.T) {
	r, _ := newTestRouter(t)

	tests := []struct {
		path   string
		status int
	}{
		{"/health", http.StatusOK},
		{"/static/styles.css", http.StatusOK},
		{"/nope", http.StatusNotFound},
		{"/lookup/extra", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
