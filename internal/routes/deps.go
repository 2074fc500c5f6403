package routes

import (
	"io/fs"
	"net/http"

	"github.com/dukerupert/zipfinder/internal/handler"
	"github.com/dukerupert/zipfinder/internal/router"
)

// LookupDeps contains dependencies for the lookup page and API routes
type LookupDeps struct {
	Handler *handler.LookupHandler

	// PageMiddleware applies to GET / and POST /lookup (CSRF, body limit)
	PageMiddleware []router.Middleware

	// APIMiddleware applies to /api/lookup/{code} (CORS)
	APIMiddleware []router.Middleware
}

// OpsDeps contains dependencies for operational routes
type OpsDeps struct {
	Health   http.HandlerFunc
	Metrics  http.Handler
	Static   fs.FS
	NotFound http.HandlerFunc
}
