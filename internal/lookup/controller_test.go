package lookup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dukerupert/zipfinder/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func beverlyHills() *domain.LookupResult {
	return &domain.LookupResult{
		PostCode:            "90210",
		Country:             "United States",
		CountryAbbreviation: "US",
		Places: []domain.Place{{
			Name:              "Beverly Hills",
			State:             "CA",
			StateAbbreviation: "CA",
			Latitude:          "34.0901",
			Longitude:         "-118.4065",
		}},
	}
}

func TestController_Submit_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fetcher := NewMockFetcher(ctrl)
	fetcher.EXPECT().Lookup(gomock.Any(), "90210").Return(beverlyHills(), nil)

	c := NewController(fetcher, NewFormValidator(), nil, testLogger())
	page := NewPage()
	page.ShowError()

	outcome, err := c.Submit(context.Background(), page, "90210")
	require.NoError(t, err)
	assert.True(t, outcome.OK())

	assert.False(t, page.ErrorVisible(), "success hides the banner")
	regions := page.Regions()
	require.Len(t, regions, 1)

	want := []string{
		"Zip Code: 90210",
		"City: Beverly Hills",
		"State: CA",
		"Latitude: 34.0901",
		"Longitude: -118.4065",
	}
	if diff := cmp.Diff(want, regions[0].Text()); diff != "" {
		t.Errorf("region mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, page.Snapshot().Busy)
}

func TestController_Submit_InvalidInput(t *testing.T) {
	tests := []string{"abcde", "", "0", "00000"}

	for _, query := range tests {
		t.Run(query, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			// No EXPECT: any fetch fails the test.
			fetcher := NewMockFetcher(ctrl)
			c := NewController(fetcher, NewFormValidator(), nil, testLogger())
			page := NewPage()

			outcome, err := c.Submit(context.Background(), page, query)
			require.NoError(t, err)

			assert.Equal(t, domain.FailureInvalidInput, outcome.Failure)
			assert.True(t, page.ErrorVisible())
			assert.Empty(t, page.Regions())
		})
	}
}

func TestController_Submit_Failures(t *testing.T) {
	tests := []struct {
		name        string
		result      *domain.LookupResult
		err         error
		wantFailure domain.FailureKind
	}{
		{
			name:        "service 404",
			err:         &domain.Error{Code: domain.ENOTFOUND, Op: "zippopotam.lookup", Message: "not found"},
			wantFailure: domain.FailureService,
		},
		{
			name:        "service 500",
			err:         &domain.Error{Code: domain.EUPSTREAM, Op: "zippopotam.lookup", Message: "boom"},
			wantFailure: domain.FailureService,
		},
		{
			name:        "transport",
			err:         domain.WrapError(errors.New("connection refused"), domain.EUNAVAILABLE, "zippopotam.lookup", "lookup service unreachable"),
			wantFailure: domain.FailureTransport,
		},
		{
			name:        "malformed",
			err:         domain.Errorf(domain.EBADRESPONSE, "zippopotam.lookup", "failed to decode response"),
			wantFailure: domain.FailureMalformed,
		},
		{
			name:        "result without places",
			result:      &domain.LookupResult{PostCode: "90210"},
			wantFailure: domain.FailureMalformed,
		},
		{
			name:        "plain error",
			err:         errors.New("unexpected"),
			wantFailure: domain.FailureTransport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			fetcher := NewMockFetcher(ctrl)
			fetcher.EXPECT().Lookup(gomock.Any(), "99999").Return(tt.result, tt.err)

			c := NewController(fetcher, nil, nil, testLogger())
			page := NewPage()
			page.AppendRegion(NewDisplayRegion(beverlyHills()))

			outcome, err := c.Submit(context.Background(), page, "99999")
			require.NoError(t, err)

			assert.Equal(t, tt.wantFailure, outcome.Failure)
			assert.Error(t, outcome.Err)
			assert.True(t, page.ErrorVisible())
			assert.Len(t, page.Regions(), 1, "failures never add or remove regions")
		})
	}
}

func TestController_Submit_Accumulates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fetcher := NewMockFetcher(ctrl)
	fetcher.EXPECT().Lookup(gomock.Any(), gomock.Any()).Return(beverlyHills(), nil).Times(3)

	c := NewController(fetcher, nil, nil, testLogger())
	page := NewPage()

	for i := 0; i < 3; i++ {
		_, err := c.Submit(context.Background(), page, "90210")
		require.NoError(t, err)
	}

	assert.Len(t, page.Regions(), 3)
	assert.False(t, page.ErrorVisible())
}

func TestController_Submit_ErrorThenSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fetcher := NewMockFetcher(ctrl)
	gomock.InOrder(
		fetcher.EXPECT().Lookup(gomock.Any(), "99999").Return(nil, &domain.Error{Code: domain.ENOTFOUND, Message: "{}"}),
		fetcher.EXPECT().Lookup(gomock.Any(), "90210").Return(beverlyHills(), nil),
	)

	c := NewController(fetcher, nil, nil, testLogger())
	page := NewPage()

	_, _ = c.Submit(context.Background(), page, "99999")
	assert.True(t, page.ErrorVisible())

	_, _ = c.Submit(context.Background(), page, "90210")
	assert.False(t, page.ErrorVisible())
	assert.Len(t, page.Regions(), 1)
}

func TestController_Submit_InProgress(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	started := make(chan struct{})
	release := make(chan struct{})

	fetcher := NewMockFetcher(ctrl)
	fetcher.EXPECT().Lookup(gomock.Any(), "90210").DoAndReturn(
		func(ctx context.Context, query string) (*domain.LookupResult, error) {
			close(started)
			<-release
			return beverlyHills(), nil
		},
	)

	c := NewController(fetcher, nil, nil, testLogger())
	page := NewPage()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := c.Submit(context.Background(), page, "90210")
		assert.NoError(t, err)
	}()

	<-started
	outcome, err := c.Submit(context.Background(), page, "10001")
	assert.ErrorIs(t, err, ErrLookupInProgress)
	assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))
	assert.Equal(t, domain.FailureNone, outcome.Failure)
	assert.False(t, page.ErrorVisible(), "rejected submission leaves the page untouched")

	close(release)
	wg.Wait()

	assert.Len(t, page.Regions(), 1)
	assert.False(t, page.Snapshot().Busy)
}

func TestController_Resolve_DoesNotTouchPages(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fetcher := NewMockFetcher(ctrl)
	fetcher.EXPECT().Lookup(gomock.Any(), "90210").Return(beverlyHills(), nil)

	c := NewController(fetcher, nil, nil, testLogger())
	outcome := c.Resolve(context.Background(), "90210")

	require.True(t, outcome.OK())
	assert.Equal(t, domain.Scalar("90210"), outcome.Result.PostCode)
}

func TestController_Recorder(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fetcher := NewMockFetcher(ctrl)
	recorder := NewMockRecorder(ctrl)

	fetcher.EXPECT().Lookup(gomock.Any(), "90210").Return(beverlyHills(), nil)
	recorder.EXPECT().ObserveLookup(domain.FailureNone, gomock.Any())
	recorder.EXPECT().RegionRendered()
	recorder.EXPECT().ObserveLookup(domain.FailureInvalidInput, time.Duration(0))

	c := NewController(fetcher, nil, recorder, testLogger())
	page := NewPage()

	_, err := c.Submit(context.Background(), page, "90210")
	require.NoError(t, err)
	_, err = c.Submit(context.Background(), page, "abcde")
	require.NoError(t, err)
}

func TestController_Fetch_ContextCanceled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fetcher := NewMockFetcher(ctrl)
	fetcher.EXPECT().Lookup(gomock.Any(), "90210").DoAndReturn(
		func(ctx context.Context, query string) (*domain.LookupResult, error) {
			<-ctx.Done()
			return nil, domain.WrapError(ctx.Err(), domain.EUNAVAILABLE, "zippopotam.lookup", "lookup service unreachable")
		},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	c := NewController(fetcher, nil, nil, testLogger())
	outcome := c.Fetch(ctx, "90210")

	assert.Equal(t, domain.FailureTransport, outcome.Failure)
	assert.ErrorIs(t, outcome.Err, context.DeadlineExceeded)
}
