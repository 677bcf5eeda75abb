package internal

import (
	"strings"
)

// Lesson is a single scheduled class as returned by the schedule source.
type Lesson struct {
	Date           string    `json:"lessonDate"`
	StartTime      string    `json:"lessonStartTime"`
	EndTime        string    `json:"lessonEndTime"`
	DisciplineName string    `json:"disciplineName"`
	ClassroomName  string    `json:"classroomName"`
	Teachers       []Teacher `json:"teachers"`
	Link           string    `json:"link"`
}

type Teacher struct {
	FirstName  string `json:"firstName"`
	Patronymic string `json:"patronymic"`
	LastName   string `json:"lastName"`
}

func (t Teacher) String() string {
	return t.FirstName + " " + t.Patronymic + " " + t.LastName
}

// Day returns the calendar date part of the lesson date, dropping any
// time-of-day suffix the source may attach (e.g. "2024-03-04T00:00:00").
func (l Lesson) Day() string {
	day, _, _ := strings.Cut(l.Date, "T")
	return day
}

const idSeparator = "_"

var idEscaper = strings.NewReplacer(`\`, `\\`, idSeparator, `\`+idSeparator)

// LessonID derives the identity used to match a lesson with the event
// previously created for it. Only date, times, discipline and classroom take
// part; teachers and link don't.
//
// Fields are escaped before joining, so a separator inside a discipline or
// classroom name can't make two different lessons share an id. Fields without
// '_' or '\' are joined verbatim.
func LessonID(l Lesson) string {
	fields := []string{l.Day(), l.StartTime, l.EndTime, l.DisciplineName, l.ClassroomName}
	for i, f := range fields {
		fields[i] = idEscaper.Replace(f)
	}
	return strings.Join(fields, idSeparator)
}
