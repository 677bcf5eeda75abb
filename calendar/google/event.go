package google

import (
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/guilherme-santos/lessonsync/internal"
)

// lessonIDKey is the private extended property holding the lesson identity.
const lessonIDKey = "lessonId"

func newEvent(event *calendar.Event) *internal.Event {
	e := &internal.Event{
		ID:          event.Id,
		Summary:     event.Summary,
		Location:    event.Location,
		Description: event.Description,
		ColorID:     event.ColorId,
	}
	if event.Start != nil {
		e.StartsAt, _ = time.Parse(time.RFC3339, event.Start.DateTime)
		e.TimeZone = event.Start.TimeZone
	}
	if event.End != nil {
		e.EndsAt, _ = time.Parse(time.RFC3339, event.End.DateTime)
	}
	if props := event.ExtendedProperties; props != nil {
		e.LessonID = props.Private[lessonIDKey]
	}
	return e
}

func newGoogleEvent(event *internal.Event) *calendar.Event {
	return &calendar.Event{
		Summary:     event.Summary,
		Location:    event.Location,
		Description: event.Description,
		Start: &calendar.EventDateTime{
			DateTime: event.StartsAt.Format(time.RFC3339),
			TimeZone: event.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: event.EndsAt.Format(time.RFC3339),
			TimeZone: event.TimeZone,
		},
		ColorId: event.ColorID,
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{lessonIDKey: event.LessonID},
		},
		Reminders: &calendar.EventReminders{
			UseDefault: true,
		},
	}
}
