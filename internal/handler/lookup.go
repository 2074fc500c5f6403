package handler

import (
	"errors"
	"net/http"

	"github.com/dukerupert/zipfinder/internal/domain"
	"github.com/dukerupert/zipfinder/internal/lookup"
	"github.com/dukerupert/zipfinder/internal/middleware"
	"github.com/dukerupert/zipfinder/internal/telemetry"
)

const lookupPage = "lookup"

// LookupHandler serves the lookup page, its form submission and the JSON API.
type LookupHandler struct {
	controller *lookup.Controller
	pages      *lookup.Store
	renderer   *Renderer
}

// NewLookupHandler creates a lookup handler.
func NewLookupHandler(controller *lookup.Controller, pages *lookup.Store, renderer *Renderer) *LookupHandler {
	return &LookupHandler{
		controller: controller,
		pages:      pages,
		renderer:   renderer,
	}
}

// PageData is the template data for the lookup page.
type PageData struct {
	lookup.PageView
	Query     string
	CSRFToken string
}

// LookupResponse is the JSON body of a successful API lookup.
type LookupResponse struct {
	Query  string               `json:"query"`
	Result *domain.LookupResult `json:"result"`
	Lines  []string             `json:"lines"`
}

// Page handles GET /. A session gets its page on first submission, so a
// plain view renders the empty state without storing anything.
func (h *LookupHandler) Page(w http.ResponseWriter, r *http.Request) {
	var view lookup.PageView
	if page, ok := h.pages.Peek(middleware.GetSessionID(r.Context())); ok {
		view = page.Snapshot()
	}
	h.render(w, r, http.StatusOK, view, "")
}

// Submit handles POST /lookup
func (h *LookupHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			ErrorResponse(w, r, domain.WrapError(err, domain.ETOOLARGE, "handler.lookup.submit", "Request body too large"))
			return
		}
		ErrorResponse(w, r, domain.WrapError(err, domain.EINVALID, "handler.lookup.submit", "Malformed form submission"))
		return
	}

	query := r.PostFormValue("zip-code")
	page := h.pages.Get(middleware.GetSessionID(r.Context()))
	logger := middleware.GetLogger(r.Context())

	telemetry.AddBreadcrumb(r.Context(), "lookup", "submitted", map[string]interface{}{"query": query})

	outcome, err := h.controller.Submit(r.Context(), page, query)
	if err != nil {
		logger.Info("lookup rejected while another is in flight", "query", query)
		h.render(w, r, ErrorCodeToHTTPStatus(domain.ErrorCode(err)), page.Snapshot(), query)
		return
	}

	if domain.IsCode(outcome.Err, domain.EINTERNAL) {
		telemetry.CaptureErrorFromContext(r.Context(), outcome.Err, map[string]interface{}{
			"query":   query,
			"failure": string(outcome.Failure),
		})
	}

	h.render(w, r, http.StatusOK, page.Snapshot(), query)
}

// API handles GET /api/lookup/{code}. It runs the same validation and
// classification as the form but never touches a page.
func (h *LookupHandler) API(w http.ResponseWriter, r *http.Request) {
	query := r.PathValue("code")

	outcome := h.controller.Resolve(r.Context(), query)
	if !outcome.OK() {
		ErrorResponse(w, r, outcome.Err)
		return
	}

	writeJSON(w, http.StatusOK, LookupResponse{
		Query:  query,
		Result: outcome.Result,
		Lines:  lookup.NewDisplayRegion(outcome.Result).Text(),
	})
}

// Health handles GET /health
func (h *LookupHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"pages":  h.pages.Len(),
	})
}

func (h *LookupHandler) render(w http.ResponseWriter, r *http.Request, status int, view lookup.PageView, query string) {
	h.renderer.RenderHTTPStatus(w, status, lookupPage, PageData{
		PageView:  view,
		Query:     query,
		CSRFToken: middleware.GetCSRFToken(r.Context()),
	})
}
