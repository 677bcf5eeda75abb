package internal

import "time"

const (
	// DefaultSummary is used as event title when a lesson has no discipline.
	DefaultSummary = "Пара"
	// DefaultColorID is the calendar colour every lesson event is tagged with.
	DefaultColorID = "1"

	descriptionTemplate = "Преподаватель: %s\nСсылка: %s"
)

type Event struct {
	ID          string
	Summary     string
	Location    string
	Description string
	StartsAt    time.Time
	EndsAt      time.Time
	TimeZone    string
	ColorID     string

	// LessonID is kept in the event private data and only used for matching.
	LessonID string
}

// SameSlot reports whether e and other agree on the fields that decide if an
// existing event needs an update: summary, location, start and end.
//
// Description, colour and lesson id are left out: changing a teacher or a
// link alone must not cause a write. When an update does happen the whole
// event is replaced anyway.
func (e Event) SameSlot(other *Event) bool {
	return e.Summary == other.Summary &&
		e.Location == other.Location &&
		e.StartsAt.Equal(other.StartsAt) &&
		e.EndsAt.Equal(other.EndsAt)
}
