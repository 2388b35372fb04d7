package gcal

import (
	"testing"
	"time"

	"google.golang.org/api/calendar/v3"
)

func TestMapItemTimed(t *testing.T) {
	item := &calendar.Event{
		Summary:  "Meeting with Bob",
		Location: "Room 4",
		Organizer: &calendar.EventOrganizer{
			DisplayName: "Bob Example",
			Email:       "bob@example.com",
		},
		Start: &calendar.EventDateTime{DateTime: "2025-01-31T10:00:00-07:00"},
		End:   &calendar.EventDateTime{DateTime: "2025-01-31T11:00:00-07:00"},
	}

	ev := mapItem(item)
	if ev.Title != "Meeting with Bob" {
		t.Errorf("Title = %q", ev.Title)
	}
	if ev.Location != "Room 4" {
		t.Errorf("Location = %q", ev.Location)
	}
	if ev.Organizer != "Bob Example" {
		t.Errorf("Organizer = %q", ev.Organizer)
	}
	if ev.AllDay {
		t.Error("AllDay = true for a timed event")
	}
	wantStart := time.Date(2025, 1, 31, 10, 0, 0, 0, time.FixedZone("", -7*3600))
	if !ev.Start.Equal(wantStart) {
		t.Errorf("Start = %v, want %v", ev.Start, wantStart)
	}
	if !ev.End.Equal(wantStart.Add(time.Hour)) {
		t.Errorf("End = %v, want %v", ev.End, wantStart.Add(time.Hour))
	}
}

func TestMapItemAllDay(t *testing.T) {
	item := &calendar.Event{
		Summary: "Lunch",
		Start:   &calendar.EventDateTime{Date: "2025-01-31"},
		End:     &calendar.EventDateTime{Date: "2025-02-01"},
	}

	ev := mapItem(item)
	if !ev.AllDay {
		t.Error("AllDay = false for a date-only event")
	}
	want := time.Date(2025, 1, 31, 0, 0, 0, 0, time.Local)
	if !ev.Start.Equal(want) {
		t.Errorf("Start = %v, want %v", ev.Start, want)
	}
}

func TestMapItemSparse(t *testing.T) {
	// The API can return events with no organizer and no bounds; mapping
	// must not panic and optional fields stay empty.
	ev := mapItem(&calendar.Event{})
	if ev.Title != "" || ev.Location != "" || ev.Organizer != "" {
		t.Errorf("unexpected non-empty fields: %+v", ev)
	}
	if !ev.Start.IsZero() || !ev.End.IsZero() {
		t.Errorf("expected zero bounds, got %v / %v", ev.Start, ev.End)
	}
}
