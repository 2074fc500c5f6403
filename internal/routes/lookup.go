package routes

import (
	"net/http"

	"github.com/dukerupert/zipfinder/internal/router"
)

// RegisterLookupRoutes registers the lookup page, its form submission and
// the JSON lookup API.
func RegisterLookupRoutes(r *router.Router, deps LookupDeps) {
	pages := r.Group(deps.PageMiddleware...)
	pages.Get("/{$}", deps.Handler.Page)
	pages.Post("/lookup", deps.Handler.Submit)

	// The API shares validation and classification with the form but is
	// stateless, so it skips CSRF.
	api := r.Group(deps.APIMiddleware...)
	api.Get("/api/lookup/{code}", deps.Handler.API)
	api.Options("/api/lookup/{code}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

// RegisterOpsRoutes registers health, metrics, static assets and the
// not-found fallback.
//
// Note: /metrics has no auth. Protect it at the network edge in production.
func RegisterOpsRoutes(r *router.Router, deps OpsDeps) {
	r.Get("/health", deps.Health)
	if deps.Metrics != nil {
		r.Get("/metrics", deps.Metrics.ServeHTTP)
	}
	if deps.Static != nil {
		r.Static("/static/", deps.Static)
	}
	if deps.NotFound != nil {
		r.NotFound(deps.NotFound)
	}
}
