package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/gobinath/gcalendar/internal"
)

// Built-in OAuth application credentials. Variables so they can be
// replaced at build time:
//
//	go build -ldflags "-X github.com/gobinath/gcalendar/calendar/google.DefaultClientID=..."
//
// Users can also pass --client-id/--client-secret to use their own app.
var (
	DefaultClientID     = "747777439635-ng97q7of4f1rm3dl0p4jd7b6d8crevqn.apps.googleusercontent.com"
	DefaultClientSecret = "dUbaiz7PdFxRCBYZ2GCmSCkA"
)

const redirectPath = "/gcalendar"

type Client struct {
	oauthCfg *oauth2.Config

	Verbose bool
}

func NewClient(clientID, clientSecret string) *Client {
	if clientID == "" || clientSecret == "" {
		clientID = DefaultClientID
		clientSecret = DefaultClientSecret
	}
	return &Client{
		oauthCfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  "http://localhost:8080" + redirectPath,
			Scopes:       []string{calendar.CalendarReadonlyScope},
		},
	}
}

const defaultSleep = 5 * time.Second

// Calendars returns the account's calendar list in provider order.
func (c *Client) Calendars(ctx context.Context, tok *oauth2.Token) ([]*internal.Calendar, error) {
	svc, err := c.calendarSvc(ctx, tok)
	if err != nil {
		return nil, err
	}

	var (
		cals          []*internal.Calendar
		nextPageToken string
	)
	for {
		list, err := svc.CalendarList.List().Context(ctx).PageToken(nextPageToken).Do()
		if err != nil {
			if shouldRetry(err) {
				time.Sleep(defaultSleep)
				continue
			}
			return nil, classify(err)
		}
		for _, entry := range list.Items {
			cals = append(cals, &internal.Calendar{
				ID:      entry.Id,
				Name:    entry.Summary,
				Primary: entry.Primary,
			})
		}
		nextPageToken = list.NextPageToken
		if nextPageToken == "" {
			break
		}
	}
	return cals, nil
}

// Events streams events starting within [now, now+windowDays) for the
// selected calendars, sorted ascending by start time.
func (c *Client) Events(ctx context.Context, tok *oauth2.Token, calendarNames []string, windowDays int) (internal.Iterator, error) {
	svc, err := c.calendarSvc(ctx, tok)
	if err != nil {
		return nil, err
	}
	cals, err := c.Calendars(ctx, tok)
	if err != nil {
		return nil, err
	}
	selected, err := selectCalendars(cals, calendarNames)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	it := newEventIterator()
	go c.events(ctx, svc, selected, now, now.AddDate(0, 0, windowDays), it.events)
	return it, nil
}

func (c *Client) events(
	ctx context.Context,
	svc *calendar.Service,
	cals []*internal.Calendar,
	from, to time.Time,
	eventCh chan eventOrError,
) {
	defer close(eventCh)

	var all []*internal.Event
	for _, cal := range cals {
		c.logf(cal.Name, "checking for events")

		call := svc.Events.
			List(cal.ID).
			Context(ctx).
			ShowDeleted(false).
			SingleEvents(true).
			OrderBy("startTime").
			TimeMin(from.Format(time.RFC3339)).
			TimeMax(to.Format(time.RFC3339))

		var nextPageToken string
		for {
			events, err := call.PageToken(nextPageToken).Do()
			if err != nil {
				if shouldRetry(err) {
					time.Sleep(defaultSleep)
					continue
				}
				c.logf(cal.Name, "unable to get list of events: %v", err)
				eventCh <- eventOrError{err: classify(err)}
				return
			}
			for _, item := range events.Items {
				if e := newEvent(cal.Name, item); e != nil {
					all = append(all, e)
				}
			}
			nextPageToken = events.NextPageToken
			if nextPageToken == "" {
				break
			}
		}
	}

	// Per-calendar results come back ordered already, the merge across
	// calendars needs a final sort.
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].StartsAt.Before(all[j].StartsAt)
	})
	for _, e := range all {
		select {
		case eventCh <- eventOrError{e: e}:
		case <-ctx.Done():
			return
		}
	}
}

// selectCalendars resolves the requested calendar names against the
// account's calendar list. Empty means primary, "*" means all, names
// are matched case-insensitively.
func selectCalendars(cals []*internal.Calendar, names []string) ([]*internal.Calendar, error) {
	if len(names) == 0 {
		for _, cal := range cals {
			if cal.Primary {
				return []*internal.Calendar{cal}, nil
			}
		}
		return nil, fmt.Errorf("%w: account has no primary calendar", internal.ErrInvalidArgument)
	}

	want := make(map[string]bool, len(names))
	for _, name := range names {
		if name == "*" {
			return cals, nil
		}
		want[strings.ToLower(name)] = true
	}

	var selected []*internal.Calendar
	for _, cal := range cals {
		if want[strings.ToLower(cal.Name)] {
			selected = append(selected, cal)
		}
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: no calendar matches %v", internal.ErrInvalidArgument, names)
	}
	return selected, nil
}

func newEvent(calName string, item *calendar.Event) *internal.Event {
	if item == nil || item.Status == "cancelled" || item.Start == nil {
		return nil
	}

	e := &internal.Event{
		ID:       item.Id,
		Summary:  item.Summary,
		Calendar: calName,
		Location: item.Location,
	}
	if item.Start.DateTime != "" {
		e.StartsAt, _ = time.Parse(time.RFC3339, item.Start.DateTime)
		if item.End != nil {
			e.EndsAt, _ = time.Parse(time.RFC3339, item.End.DateTime)
		}
		return e
	}

	// All-day events carry a bare date, treated as a full-day interval
	// in local time.
	e.AllDay = true
	e.StartsAt, _ = time.ParseInLocation(dateFormat, item.Start.Date, time.Local)
	if item.End != nil && item.End.Date != "" {
		e.EndsAt, _ = time.ParseInLocation(dateFormat, item.End.Date, time.Local)
	} else {
		e.EndsAt = e.StartsAt.AddDate(0, 0, 1)
	}
	return e
}

const dateFormat = "2006-01-02"

// Login runs the interactive consent flow: the user opens the printed
// URL, Google redirects to a loopback server which captures the code.
func (c *Client) Login(ctx context.Context, prompt func(authURL string)) (*oauth2.Token, error) {
	state := fmt.Sprintf("gcalendar-%d", time.Now().UTC().Nanosecond())
	authURL := c.oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	prompt(authURL)

	mux := http.NewServeMux()
	server := &http.Server{
		Addr:    ":8080",
		Handler: mux,
	}

	var (
		token   *oauth2.Token
		authErr error
	)

	mux.HandleFunc(redirectPath, func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			go server.Shutdown(ctx)
		}()

		query := req.URL.Query()
		if query.Get("state") != state {
			authErr = errors.New("oauth link is not valid")
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		token, authErr = c.oauthCfg.Exchange(ctx, query.Get("code"))
		if authErr != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintln(w, "Unable to retrieve token:", authErr)
			return
		}

		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "All good, you can close this window!")
	})

	serverCh := make(chan struct{})
	var svrErr error
	go func() {
		svrErr = server.ListenAndServe()
		close(serverCh)
	}()

	select {
	case <-serverCh:
	case <-ctx.Done():
		server.Close()
		<-serverCh
		return nil, ctx.Err()
	}

	if svrErr != nil && svrErr != http.ErrServerClosed {
		return nil, svrErr
	}
	if authErr != nil {
		return nil, authErr
	}
	if token == nil {
		return nil, errors.New("authorization flow did not complete")
	}
	return token, nil
}

func (c *Client) calendarSvc(ctx context.Context, tok *oauth2.Token) (*calendar.Service, error) {
	httpClient := c.oauthCfg.Client(ctx, tok)
	return calendar.NewService(ctx, option.WithHTTPClient(httpClient))
}

func (c *Client) logf(account string, format string, a ...any) {
	if c.Verbose {
		internal.Logf(os.Stderr, "google:", account, format, a...)
	}
}

func shouldRetry(err error) bool {
	return errIsReason(err, "rateLimitExceeded")
}

// classify maps provider errors onto the error kinds the caller acts
// on: rejected credentials ask for re-authorization, anything
// transport-shaped is reported as retryable by the user.
func classify(err error) error {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		switch gErr.Code {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %v", internal.ErrAuthExpired, err)
		case http.StatusForbidden:
			if errIsReason(err, "authError") {
				return fmt.Errorf("%w: %v", internal.ErrAuthExpired, err)
			}
		}
		return err
	}

	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) {
		return fmt.Errorf("%w: %v", internal.ErrAuthExpired, err)
	}

	return fmt.Errorf("%w: %v", internal.ErrNetwork, err)
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
