package telemetry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitSentry_Disabled(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cleanup, err := InitSentry(SentryConfig{Enabled: false}, logger)
	require.NoError(t, err)
	require.NotNil(t, cleanup)
	cleanup()

	assert.False(t, IsEnabled())
}

func TestInitSentry_MissingDSN(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := InitSentry(SentryConfig{Enabled: true}, logger)
	require.NoError(t, err)
	assert.False(t, IsEnabled())
}

func TestDisabledHelpersAreNoops(t *testing.T) {
	sentryInstance = nil

	assert.NotPanics(t, func() {
		CaptureError(errors.New("boom"))
		CaptureErrorFromContext(context.Background(), errors.New("boom"), nil)
		AddBreadcrumb(context.Background(), "lookup", "submitted", nil)
	})

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	h := SentryMiddleware()(SessionTagger(func(context.Context) string { return "s" })(next))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
}

func TestHTTPTransport_PassThrough(t *testing.T) {
	sentryInstance = nil

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	client := &http.Client{Transport: &HTTPTransport{}}
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
}
