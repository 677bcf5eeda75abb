package internal

import (
	"context"
	"time"
)

// Provider is the calendar store lessons are reconciled against.
//
// Events returns the single occurrences overlapping [timeMin, timeMax],
// ordered by start time. An empty range is not an error.
// UpdateEvent replaces the whole event identified by Event.ID.
type Provider interface {
	Events(_ context.Context, timeMin, timeMax time.Time) ([]*Event, error)
	CreateEvent(context.Context, *Event) (*Event, error)
	UpdateEvent(context.Context, *Event) error
}
