package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/guilherme-santos/lessonsync/internal"
)

const (
	defaultSleep   = 5 * time.Second
	defaultRetries = 3
)

// Client reads and writes lesson events on a single Google calendar.
type Client struct {
	svc        *calendar.Service
	calendarID string

	// Retries is how many times a call rejected with rateLimitExceeded is
	// tried again, waiting Sleep in between.
	Retries int
	Sleep   time.Duration
}

// NewClient creates a client for calendarID using httpClient, which must
// already be authorized. endpoint overrides the API base URL, mostly to point
// at a fake server in tests.
func NewClient(ctx context.Context, httpClient *http.Client, calendarID string, endpoint ...string) (*Client, error) {
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if len(endpoint) > 0 && endpoint[0] != "" {
		opts = append(opts, option.WithEndpoint(endpoint[0]))
	}

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("google: creating calendar service: %v", err)
	}
	return &Client{
		svc:        svc,
		calendarID: calendarID,
		Retries:    defaultRetries,
		Sleep:      defaultSleep,
	}, nil
}

func (c *Client) Events(ctx context.Context, timeMin, timeMax time.Time) ([]*internal.Event, error) {
	logger := internal.Logger(ctx).With("calendar", c.calendarID)
	logger.Debug("google: checking for events", "time_min", timeMin, "time_max", timeMax)

	call := c.svc.Events.
		List(c.calendarID).
		Context(ctx).
		ShowDeleted(false).
		SingleEvents(true).
		OrderBy("startTime").
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339))

	var (
		events        []*internal.Event
		nextPageToken string
	)
	for {
		var page *calendar.Events
		err := c.retry(ctx, func() (err error) {
			page, err = call.PageToken(nextPageToken).Do()
			return err
		})
		if err != nil {
			return nil, ioError("google: listing events", err)
		}

		for _, item := range page.Items {
			events = append(events, newEvent(item))
		}
		nextPageToken = page.NextPageToken
		if nextPageToken == "" {
			break
		}
	}
	if len(events) == 0 {
		logger.Debug("google: no events in range")
	}
	return events, nil
}

func (c *Client) CreateEvent(ctx context.Context, req *internal.Event) (*internal.Event, error) {
	var gevent *calendar.Event
	err := c.retry(ctx, func() (err error) {
		gevent, err = c.svc.Events.Insert(c.calendarID, newGoogleEvent(req)).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, ioError("google: creating event", err)
	}
	return newEvent(gevent), nil
}

func (c *Client) UpdateEvent(ctx context.Context, req *internal.Event) error {
	if req.ID == "" {
		return errors.New("google: updating event: missing event id")
	}
	err := c.retry(ctx, func() error {
		_, err := c.svc.Events.Update(c.calendarID, req.ID, newGoogleEvent(req)).Context(ctx).Do()
		return err
	})
	if err != nil {
		return ioError("google: updating event "+req.ID, err)
	}
	return nil
}

func (c *Client) retry(ctx context.Context, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !shouldRetry(err) || attempt >= c.Retries {
			return err
		}
		internal.Logger(ctx).Debug("google: rate limited, retrying", "attempt", attempt+1)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.Sleep):
		}
	}
}

func ioError(op string, err error) error {
	return &internal.IOError{
		Op:        op,
		Retryable: isTransient(err),
		Err:       err,
	}
}

func shouldRetry(err error) bool {
	return errIsReason(err, "rateLimitExceeded")
}

// isTransient reports whether the same call may succeed later.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var gErr *googleapi.Error
	if !errors.As(err, &gErr) {
		// Transport level failure, no answer from the API.
		return true
	}
	if gErr.Code == http.StatusTooManyRequests || gErr.Code >= http.StatusInternalServerError {
		return true
	}
	return shouldRetry(err)
}

func errIsReason(err error, reason string) bool {
	var gErr *googleapi.Error
	if !errors.As(err, &gErr) {
		return false
	}

	for _, err := range gErr.Errors {
		switch err.Reason {
		case reason:
			return true
		}
	}
	return false
}
