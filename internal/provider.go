package internal

import (
	"context"

	"golang.org/x/oauth2"
)

// Provider reads calendars and events from a remote calendar service.
type Provider interface {
	// Calendars returns the account's calendars in provider order.
	Calendars(_ context.Context, _ *oauth2.Token) ([]*Calendar, error)

	// Events streams events starting within [now, now+windowDays),
	// sorted ascending by start time. An empty calendarNames selects
	// the primary calendar, "*" selects all calendars.
	Events(_ context.Context, _ *oauth2.Token, calendarNames []string, windowDays int) (Iterator, error)
}

// Authorizer runs the interactive consent flow and returns a token.
// The prompt callback receives the URL the user must open.
type Authorizer interface {
	Login(_ context.Context, prompt func(authURL string)) (*oauth2.Token, error)
}

type Iterator interface {
	Next() bool
	Event() *Event
	Err() error
}
