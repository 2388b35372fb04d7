package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/perbu/today/agenda"
	"github.com/perbu/today/eventstore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// countingStore records how often Events is called, to observe caching.
type countingStore struct {
	events []eventstore.Event
	err    error
	calls  int
}

func (c *countingStore) RequestAccess(respond func(granted bool, err error)) {
	go respond(true, nil)
}

func (c *countingStore) Events(_ context.Context, _, _ time.Time) ([]eventstore.Event, error) {
	c.calls++
	return c.events, c.err
}

func get(t *testing.T, handler http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	handler.ServeHTTP(w, req)
	return w
}

func TestEventsEndpoint(t *testing.T) {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	store := &countingStore{
		events: []eventstore.Event{
			{Title: "Sync", Start: start, End: start.Add(time.Hour)},
			{Title: "Standup", Start: start.Add(-time.Hour), End: start},
		},
	}
	srv := New(store, time.UTC)

	w := get(t, srv.Handler(), "/events?date=2024-05-01")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var records []agenda.Record
	if err := json.Unmarshal(w.Body.Bytes(), &records); err != nil {
		t.Fatalf("response is not a JSON array: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Title != "Standup" || records[1].Title != "Sync" {
		t.Errorf("records out of order: %+v", records)
	}
}

func TestEventsEndpointCaches(t *testing.T) {
	store := &countingStore{}
	srv := New(store, time.UTC)

	get(t, srv.Handler(), "/events?date=2024-05-01")
	get(t, srv.Handler(), "/events?date=2024-05-01")
	if store.calls != 1 {
		t.Errorf("store queried %d times for the same date, want 1", store.calls)
	}

	get(t, srv.Handler(), "/events?date=2024-05-02")
	if store.calls != 2 {
		t.Errorf("store queried %d times after a second date, want 2", store.calls)
	}
}

func TestEventsEndpointDegradesToEmpty(t *testing.T) {
	store := &countingStore{err: context.DeadlineExceeded}
	srv := New(store, time.UTC)

	w := get(t, srv.Handler(), "/events")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 even on query failure", w.Code)
	}
	var records []agenda.Record
	if err := json.Unmarshal(w.Body.Bytes(), &records); err != nil {
		t.Fatalf("response is not a JSON array: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv := New(&countingStore{}, time.UTC)

	w := get(t, srv.Handler(), "/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var payload map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("response is not a JSON object: %v", err)
	}
	for _, key := range []string{"cpu", "mem", "net", "power", "events"} {
		if _, ok := payload[key]; !ok {
			t.Errorf("stats payload missing %q", key)
		}
	}
}
