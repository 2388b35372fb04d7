// Package gcal implements the Google Calendar backed event store.
package gcal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/perbu/today/config"
	"github.com/perbu/today/eventstore"
)

// dateOnly is the layout Google uses for all-day event bounds.
const dateOnly = "2006-01-02"

// Store queries the Google Calendar API. It is constructed cold; the
// service is built during the access request so the OAuth consent screen
// plays the role of the user-facing permission prompt.
type Store struct {
	loader config.Loader
	svc    *calendar.Service
}

// New returns an unconnected store. Call RequestAccess before Events.
func New(loader config.Loader) *Store {
	return &Store{loader: loader}
}

// RequestAccess runs the OAuth token flow asynchronously and reports the
// outcome once. This can take as long as the user takes to approve the
// consent screen; the caller bounds the wait.
func (s *Store) RequestAccess(respond func(granted bool, err error)) {
	go func() {
		svc, err := s.connect()
		if err != nil {
			respond(false, err)
			return
		}
		s.svc = svc
		respond(true, nil)
	}()
}

func (s *Store) connect() (*calendar.Service, error) {
	credBytes, err := s.loader.LoadCredentials()
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}

	token, err := loadOrObtainToken(credBytes, s.loader)
	if err != nil {
		return nil, fmt.Errorf("getting token: %w", err)
	}

	client, err := oauthClient(credBytes, token)
	if err != nil {
		return nil, err
	}

	srv, err := calendar.NewService(context.Background(), option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("creating calendar service: %w", err)
	}
	return srv, nil
}

// loadOrObtainToken loads a token from storage or obtains a new one if necessary.
func loadOrObtainToken(credBytes []byte, loader config.Loader) (*oauth2.Token, error) {
	tokenBytes, err := loader.LoadToken()
	if err == nil { // Token found in storage
		var tok oauth2.Token
		if err := json.Unmarshal(tokenBytes, &tok); err != nil {
			return nil, fmt.Errorf("unmarshalling token: %w", err)
		}
		return &tok, nil
	}

	// No token found, initiate OAuth2 flow
	return getTokenFromWeb(credBytes, loader)
}

// oauthClient creates an OAuth2 client.
func oauthClient(credBytes []byte, token *oauth2.Token) (*http.Client, error) {
	conf, err := google.ConfigFromJSON(credBytes, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}
	return conf.Client(context.Background(), token), nil
}

// Events queries every calendar visible to the authorized account and
// merges the per-calendar results. Filtering and ordering are left to
// the caller.
func (s *Store) Events(ctx context.Context, start, end time.Time) ([]eventstore.Event, error) {
	list, err := s.svc.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("listing calendars: %w", err)
	}

	var out []eventstore.Event
	for _, entry := range list.Items {
		events, err := s.svc.Events.List(entry.Id).
			ShowDeleted(false).
			SingleEvents(true).
			TimeMin(start.Format(time.RFC3339)).
			TimeMax(end.Format(time.RFC3339)).
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("retrieving events for %s: %w", entry.Id, err)
		}
		for _, item := range events.Items {
			out = append(out, mapItem(item))
		}
	}
	return out, nil
}

// mapItem converts an API event to the store view. All-day events carry
// a bare date instead of a datetime in their bounds.
func mapItem(item *calendar.Event) eventstore.Event {
	ev := eventstore.Event{
		Title:    item.Summary,
		Location: item.Location,
	}
	if item.Organizer != nil {
		ev.Organizer = item.Organizer.DisplayName
	}
	ev.Start, ev.AllDay = parseBound(item.Start)
	ev.End, _ = parseBound(item.End)
	return ev
}

func parseBound(b *calendar.EventDateTime) (time.Time, bool) {
	if b == nil {
		return time.Time{}, false
	}
	if b.Date != "" {
		t, _ := time.ParseInLocation(dateOnly, b.Date, time.Local)
		return t, true
	}
	t, _ := time.Parse(time.RFC3339, b.DateTime)
	return t, false
}
