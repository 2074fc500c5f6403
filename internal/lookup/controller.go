package lookup

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukerupert/zipfinder/internal/domain"
)

//go:generate mockgen -source=controller.go -destination=mock_fetcher.go -package=lookup

// Fetcher retrieves the lookup result for a query.
type Fetcher interface {
	Lookup(ctx context.Context, query string) (*domain.LookupResult, error)
}

// Recorder observes lookup outcomes.
type Recorder interface {
	ObserveLookup(failure domain.FailureKind, duration time.Duration)
	RegionRendered()
}

type nopRecorder struct{}

func (nopRecorder) ObserveLookup(domain.FailureKind, time.Duration) {}
func (nopRecorder) RegionRendered() {}

// Controller drives a submission through validate, fetch, classify and render.
type Controller struct {
	fetcher   Fetcher
	validator *FormValidator
	recorder  Recorder
	logger    *slog.Logger
}

// NewController creates a controller. A nil recorder disables metrics.
func NewController(fetcher Fetcher, validator *FormValidator, recorder Recorder, logger *slog.Logger) *Controller {
	if validator == nil {
		validator = NewFormValidator()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Controller{
		fetcher:   fetcher,
		validator: validator,
		recorder:  recorder,
		logger:    logger,
	}
}

// Submit runs one submission against page. Invalid queries never reach the
// fetcher. It returns ErrLookupInProgress, leaving page untouched, when page
// already has a submission in flight.
func (c *Controller) Submit(ctx context.Context, page *Page, query string) (domain.Outcome, error) {
	if !page.begin() {
		return domain.Outcome{Query: query}, ErrLookupInProgress
	}
	defer page.end()

	outcome := c.Resolve(ctx, query)
	c.Render(page, outcome)

	return outcome, nil
}

// Resolve validates query and, if valid, fetches it. It does not touch any page.
func (c *Controller) Resolve(ctx context.Context, query string) domain.Outcome {
	if err := c.validator.Validate(Form{ZipCode: query}); err != nil {
		c.logger.Info("lookup rejected", "query", query, "error", domain.ErrorMessage(err))
		outcome := domain.Failed(query, err)
		c.recorder.ObserveLookup(outcome.Failure, 0)
		return outcome
	}

	return c.Fetch(ctx, query)
}

// Fetch performs the remote lookup and classifies the result.
func (c *Controller) Fetch(ctx context.Context, query string) domain.Outcome {
	const op = "lookup.fetch"

	start := time.Now()
	result, err := c.fetcher.Lookup(ctx, query)
	if err == nil {
		if _, ok := result.FirstPlace(); !ok {
			err = domain.Errorf(domain.EBADRESPONSE, op, "lookup result for %q has no places", query)
		}
	}
	elapsed := time.Since(start)

	var outcome domain.Outcome
	if err != nil {
		outcome = domain.Failed(query, err)
	} else {
		outcome = domain.Succeeded(query, result)
	}
	c.recorder.ObserveLookup(outcome.Failure, elapsed)

	switch outcome.Failure {
	case domain.FailureNone:
		c.logger.Debug("lookup succeeded", "query", query, "duration", elapsed)
	case domain.FailureTransport:
		c.logger.Warn("lookup failed",
			"query", query,
			"failure", outcome.Failure,
			"op", domain.ErrorOp(err),
			"error", err,
			"duration", elapsed,
		)
	default:
		c.logger.Info("lookup failed",
			"query", query,
			"failure", outcome.Failure,
			"code", domain.ErrorCode(err),
			"duration", elapsed,
		)
	}

	return outcome
}

// Render applies outcome to page. Success hides the banner and appends one
// region; any failure shows the banner and appends nothing.
func (c *Controller) Render(page *Page, outcome domain.Outcome) {
	if !outcome.OK() {
		page.ShowError()
		return
	}

	page.HideError()
	page.AppendRegion(NewDisplayRegion(outcome.Result))
	c.recorder.RegionRendered()
}
