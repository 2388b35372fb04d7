// Package agenda turns raw store events into the JSON document printed
// on stdout: filter out noise, sort chronologically, map to minimal
// records and emit exactly one JSON value.
package agenda

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/perbu/today/eventstore"
)

// NoTitle is the placeholder for events the store returns without a title.
const NoTitle = "(No Title)"

// noiseWords excludes titles by case-insensitive substring match. The
// match is deliberately broad: "Holidaysburg Meeting" contains "holiday"
// and is dropped too.
var noiseWords = []string{"holiday", "birthday"}

// Record is the serialization-ready form of one event. Absent optional
// fields encode as null.
type Record struct {
	Title     string  `json:"title"`
	Location  *string `json:"location"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Organizer *string `json:"organizer"`
}

// Filter drops all-day events and noise titles. It returns a fresh slice
// and leaves the input untouched.
func Filter(events []eventstore.Event) []eventstore.Event {
	kept := make([]eventstore.Event, 0, len(events))
	for _, ev := range events {
		if ev.AllDay {
			continue
		}
		if isNoise(ev.Title) {
			continue
		}
		kept = append(kept, ev)
	}
	return kept
}

func isNoise(title string) bool {
	lowered := strings.ToLower(title)
	for _, word := range noiseWords {
		if strings.Contains(lowered, word) {
			return true
		}
	}
	return false
}

// Build filters, sorts and maps raw events into records. The sort is
// stable: events with equal start times keep the store's return order.
func Build(events []eventstore.Event, loc *time.Location) []Record {
	kept := Filter(events)
	slices.SortStableFunc(kept, func(a, b eventstore.Event) int {
		return a.Start.Compare(b.Start)
	})
	records := make([]Record, 0, len(kept))
	for _, ev := range kept {
		records = append(records, toRecord(ev, loc))
	}
	return records
}

// toRecord maps one raw event. Timestamps are rendered in loc with the
// UTC offset included.
func toRecord(ev eventstore.Event, loc *time.Location) Record {
	rec := Record{
		Title: ev.Title,
		From:  ev.Start.In(loc).Format(time.RFC3339),
		To:    ev.End.In(loc).Format(time.RFC3339),
	}
	if rec.Title == "" {
		rec.Title = NoTitle
	}
	if ev.Location != "" {
		rec.Location = &ev.Location
	}
	if ev.Organizer != "" {
		rec.Organizer = &ev.Organizer
	}
	return rec
}

// encodingFailed is written verbatim when the payload cannot be encoded.
const encodingFailed = `{"error":"JSON encoding failed"}`

// Emit writes the record array to w as a single JSON value. The document
// is encoded in full before anything is written, so a failed encode never
// produces partial output. HTML characters and slashes are left as-is.
func Emit(w io.Writer, records []Record) error {
	buf, err := encode(records)
	if err != nil {
		io.WriteString(w, encodingFailed)
		return fmt.Errorf("encoding records: %w", err)
	}
	_, err = w.Write(buf)
	return err
}

// EmitError writes the single error object for a failed run.
func EmitError(w io.Writer, msg string) {
	buf, err := encode(struct {
		Error string `json:"error"`
	}{Error: msg})
	if err != nil {
		io.WriteString(w, encodingFailed)
		return
	}
	w.Write(buf)
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
