// Package eventstore defines the calendar store collaborator: an
// asynchronous authorization handshake plus a range query over raw
// events. Concrete backends live in the gcal and ics packages.
package eventstore

import (
	"context"
	"time"
)

// Event is a read-only view of a raw calendar event as returned by a
// store. Optional text fields are empty strings when the store has no
// value for them.
type Event struct {
	Title     string
	Location  string
	Start     time.Time
	End       time.Time
	AllDay    bool
	Organizer string
}

// Store is a calendar backend. RequestAccess must invoke respond exactly
// once, possibly from another goroutine. Events may only be called after
// the store has reported a grant.
type Store interface {
	RequestAccess(respond func(granted bool, err error))
	Events(ctx context.Context, start, end time.Time) ([]Event, error)
}

// AccessTimeout bounds the wait for the store's authorization callback.
const AccessTimeout = 10 * time.Second

// WaitForAccess issues the store's access request and blocks until the
// callback fires or timeout elapses. A timeout, an explicit deny and a
// reported error all count as not granted. The buffered channel keeps
// the responder from blocking when the timeout has already won.
func WaitForAccess(store Store, timeout time.Duration) bool {
	ch := make(chan bool, 1)
	store.RequestAccess(func(granted bool, err error) {
		ch <- granted && err == nil
	})
	select {
	case granted := <-ch:
		return granted
	case <-time.After(timeout):
		return false
	}
}
