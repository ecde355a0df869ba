// Package calendar submits event-insert requests to the Google Calendar API
// using a user's stored OAuth credential.
package calendar

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/rahat/quickcal/internal/apperror"
	"github.com/rahat/quickcal/internal/model"
)

// Inserter is the calendar operation the event service depends on.
// Client implements it against the real API; tests substitute a fake.
//
// The second return value is the possibly-refreshed OAuth token: when the
// stored access token had expired, the refreshing token source obtained a
// new one during the call, and the caller should re-persist it so the next
// request doesn't refresh again. nil means the stored token is still current.
type Inserter interface {
	InsertEvent(ctx context.Context, stored *oauth2.Token, req model.EventRequest) (link string, refreshed *oauth2.Token, err error)
}

// TokenRefresher builds refreshing token sources from stored tokens.
// Satisfied by auth.GoogleProvider.
type TokenRefresher interface {
	TokenSource(ctx context.Context, t *oauth2.Token) oauth2.TokenSource
}

// Client inserts events into the user's primary Google calendar.
type Client struct {
	tokens   TokenRefresher
	timeZone string // fixed IANA zone attached to every event
}

var _ Inserter = (*Client)(nil)

// NewClient creates a calendar Client. timeZone is the fixed zone for event
// timestamps; pass "" for UTC.
func NewClient(tokens TokenRefresher, timeZone string) *Client {
	if timeZone == "" {
		timeZone = "UTC"
	}
	return &Client{tokens: tokens, timeZone: timeZone}
}

// BuildEvent constructs the calendar-event payload for an already-validated
// request.
//
// Start and end are both the literal concatenation date + "T" + time + ":00"
// — the product has no duration input, so an event renders as a zero-length
// marker at its start time rather than guessing how long it lasts.
func BuildEvent(req model.EventRequest, timeZone string) *gcal.Event {
	stamp := req.Date + "T" + req.Time + ":00"
	return &gcal.Event{
		Summary: req.Description,
		Start:   &gcal.EventDateTime{DateTime: stamp, TimeZone: timeZone},
		End:     &gcal.EventDateTime{DateTime: stamp, TimeZone: timeZone},
	}
}

// InsertEvent submits the event to the user's primary calendar and returns
// the provider-assigned shareable link.
//
// The token source refreshes the access token transparently if it has
// expired; we compare afterwards and hand any newer token back to the caller
// for re-persistence. Failures are not retried — the client gets a generic
// provider error and may simply try again.
func (c *Client) InsertEvent(ctx context.Context, stored *oauth2.Token, req model.EventRequest) (string, *oauth2.Token, error) {
	ts := c.tokens.TokenSource(ctx, stored)

	srv, err := gcal.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return "", nil, fmt.Errorf("calendar: creating service: %w", err)
	}

	created, err := srv.Events.Insert("primary", BuildEvent(req, c.timeZone)).Context(ctx).Do()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", apperror.ErrProvider, err)
	}

	// Best-effort: surface a refreshed token so the caller can re-persist it.
	// ts.Token() never hits the network here — the service call above already
	// forced a refresh if one was needed.
	var refreshed *oauth2.Token
	if current, err := ts.Token(); err == nil && current.AccessToken != stored.AccessToken {
		refreshed = current
	}

	return created.HtmlLink, refreshed, nil
}
