package internal

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

// DefaultTimeZone is the zone lesson times are expressed in.
const DefaultTimeZone = "Europe/Moscow"

var timeLayouts = []string{"15:04", "15:04:05"}

// Mapper turns lessons into the events that should exist for them.
type Mapper struct {
	Location        *time.Location
	FallbackSummary string
	ColorID         string
}

func NewMapper(loc *time.Location) *Mapper {
	return &Mapper{
		Location:        loc,
		FallbackSummary: DefaultSummary,
		ColorID:         DefaultColorID,
	}
}

// Event builds the desired event for l. Lesson times are wall clock times in
// m.Location: "09:00" becomes 09:00 in that zone whatever zone the process
// runs in.
func (m *Mapper) Event(l Lesson) (*Event, error) {
	day := l.Day()
	if _, err := time.Parse(DateFormat, day); err != nil {
		return nil, &MappingError{Lesson: m.Label(l), Field: "lessonDate", Value: l.Date, Err: err}
	}
	startsAt, err := m.compose(day, l.StartTime)
	if err != nil {
		return nil, &MappingError{Lesson: m.Label(l), Field: "lessonStartTime", Value: l.StartTime, Err: err}
	}
	endsAt, err := m.compose(day, l.EndTime)
	if err != nil {
		return nil, &MappingError{Lesson: m.Label(l), Field: "lessonEndTime", Value: l.EndTime, Err: err}
	}
	if endsAt.Before(startsAt) {
		return nil, &MappingError{Lesson: m.Label(l), Field: "lessonEndTime", Value: l.EndTime, Err: errors.New("ends before it starts")}
	}

	summary := l.DisciplineName
	if summary == "" {
		summary = m.FallbackSummary
	}

	teachers := make([]string, len(l.Teachers))
	for i, t := range l.Teachers {
		teachers[i] = t.String()
	}

	return &Event{
		Summary:     summary,
		Location:    l.ClassroomName,
		Description: fmt.Sprintf(descriptionTemplate, strings.Join(teachers, ", "), l.Link),
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		TimeZone:    m.Location.String(),
		ColorID:     m.ColorID,
		LessonID:    LessonID(l),
	}, nil
}

// Label identifies l in logs and reports. A lesson without a discipline
// name is labelled with the fallback summary, as its event would be.
func (m *Mapper) Label(l Lesson) string {
	name := l.DisciplineName
	if name == "" {
		name = m.FallbackSummary
	}
	return name + " " + l.Day() + " " + l.StartTime
}

func (m *Mapper) compose(day, clock string) (time.Time, error) {
	var err error
	for _, layout := range timeLayouts {
		var t time.Time
		t, err = time.ParseInLocation(DateFormat+"T"+layout, day+"T"+clock, m.Location)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
