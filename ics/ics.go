// Package ics implements an event store backed by ICS feeds, either
// remote subscription URLs or local files.
package ics

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/perbu/today/eventstore"
)

// Store reads events from one or more ICS feeds. There is no interactive
// permission step for feed subscriptions, so access is granted whenever
// at least one feed is configured.
type Store struct {
	feeds  []string
	client *http.Client
	loc    *time.Location
}

// New returns a store over the given feeds. Feeds starting with http://
// or https:// are fetched; anything else is read as a local file path.
func New(feeds []string, loc *time.Location) *Store {
	return &Store{
		feeds:  feeds,
		client: &http.Client{Timeout: 15 * time.Second},
		loc:    loc,
	}
}

// RequestAccess reports the grant asynchronously to match the store
// contract, even though no prompt is involved.
func (s *Store) RequestAccess(respond func(granted bool, err error)) {
	go func() {
		if len(s.feeds) == 0 {
			respond(false, errors.New("no ICS feeds configured"))
			return
		}
		respond(true, nil)
	}()
}

// Events fetches every feed and returns the events intersecting the
// half-open window [start, end). Recurring events appear only as the
// feed materializes them.
func (s *Store) Events(ctx context.Context, start, end time.Time) ([]eventstore.Event, error) {
	var out []eventstore.Event
	for _, feed := range s.feeds {
		body, err := s.fetch(ctx, feed)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", feed, err)
		}
		events, err := parseBody(body, s.loc)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", feed, err)
		}
		for _, ev := range events {
			if ev.Start.Before(end) && ev.End.After(start) {
				out = append(out, ev)
			}
		}
	}
	return out, nil
}

func (s *Store) fetch(ctx context.Context, feed string) ([]byte, error) {
	if !strings.HasPrefix(feed, "http://") && !strings.HasPrefix(feed, "https://") {
		return os.ReadFile(feed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// parseBody parses one ICS payload. Malformed VEVENTs are skipped with a
// warning so a single bad entry does not take the whole feed down.
func parseBody(body []byte, loc *time.Location) ([]eventstore.Event, error) {
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	events := make([]eventstore.Event, 0, len(cal.Events()))
	for _, ve := range cal.Events() {
		ev, err := mapVEvent(ve, loc)
		if err != nil {
			log.Printf("Warning: skipping malformed VEVENT: %v", err)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func mapVEvent(ve *ical.VEvent, loc *time.Location) (eventstore.Event, error) {
	var ev eventstore.Event
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.Title = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		ev.Location = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyOrganizer); p != nil {
		ev.Organizer = organizerName(p)
	}

	ev.AllDay = isAllDay(ve)

	var start, end time.Time
	var err error
	if ev.AllDay {
		start, err = ve.GetAllDayStartAt()
		if err != nil {
			return ev, fmt.Errorf("DTSTART: %w", err)
		}
		end, err = ve.GetAllDayEndAt()
		if err != nil {
			end = start.AddDate(0, 0, 1)
		}
	} else {
		start, err = ve.GetStartAt()
		if err != nil {
			return ev, fmt.Errorf("DTSTART: %w", err)
		}
		end, err = ve.GetEndAt()
		if err != nil {
			end = start
		}
	}
	ev.Start = start.In(loc)
	ev.End = end.In(loc)
	return ev, nil
}

// isAllDay detects all-day semantics from the DTSTART value form, the
// same way a date-only value is distinguished in the wire format.
func isAllDay(ve *ical.VEvent) bool {
	prop := ve.GetProperty(ical.ComponentPropertyDtStart)
	if prop == nil {
		return false
	}
	if vs, ok := prop.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(prop.Value, "T")
}

// organizerName returns the organizer's display name (the CN parameter).
// A bare mailto address is not a display name, so it maps to absent.
func organizerName(p *ical.IANAProperty) string {
	if cns, ok := p.ICalParameters["CN"]; ok && len(cns) > 0 {
		return strings.Trim(cns[0], `"`)
	}
	return ""
}
