package ics

import (
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/guilherme-santos/lessonsync/internal"
)

const utcLayout = "20060102T150405Z"

var (
	propDtStamp  = ical.ComponentProperty("DTSTAMP")
	propLessonID = ical.ComponentProperty("X-LESSON-ID")
	propColorID  = ical.ComponentProperty("X-COLOR-ID")
	propTimeZone = ical.ComponentProperty("X-LESSON-TZ")
)

var (
	textEscaper   = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\n", `\n`)
	textUnescaper = strings.NewReplacer(`\\`, `\`, `\;`, ";", `\,`, ",", `\n`, "\n", `\N`, "\n")
)

func setEvent(ve *ical.VEvent, e *internal.Event) {
	ve.SetProperty(propDtStamp, time.Now().UTC().Format(utcLayout))
	ve.SetProperty(ical.ComponentPropertySummary, textEscaper.Replace(e.Summary))
	ve.SetProperty(ical.ComponentPropertyLocation, textEscaper.Replace(e.Location))
	ve.SetProperty(ical.ComponentPropertyDescription, textEscaper.Replace(e.Description))
	ve.SetProperty(ical.ComponentPropertyDtStart, e.StartsAt.UTC().Format(utcLayout))
	ve.SetProperty(ical.ComponentPropertyDtEnd, e.EndsAt.UTC().Format(utcLayout))
	ve.SetProperty(propTimeZone, e.TimeZone)
	ve.SetProperty(propColorID, e.ColorID)
	ve.SetProperty(propLessonID, textEscaper.Replace(e.LessonID))
}

func newEvent(ve *ical.VEvent) (*internal.Event, error) {
	uid := value(ve, ical.ComponentPropertyUniqueId)
	if uid == "" {
		return nil, errors.New("missing UID")
	}
	startsAt, err := time.Parse(utcLayout, value(ve, ical.ComponentPropertyDtStart))
	if err != nil {
		return nil, err
	}
	endsAt, err := time.Parse(utcLayout, value(ve, ical.ComponentPropertyDtEnd))
	if err != nil {
		return nil, err
	}

	e := &internal.Event{
		ID:          uid,
		Summary:     textUnescaper.Replace(value(ve, ical.ComponentPropertySummary)),
		Location:    textUnescaper.Replace(value(ve, ical.ComponentPropertyLocation)),
		Description: textUnescaper.Replace(value(ve, ical.ComponentPropertyDescription)),
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		TimeZone:    value(ve, propTimeZone),
		ColorID:     value(ve, propColorID),
		LessonID:    textUnescaper.Replace(value(ve, propLessonID)),
	}
	if loc, err := time.LoadLocation(e.TimeZone); err == nil && e.TimeZone != "" {
		e.StartsAt = e.StartsAt.In(loc)
		e.EndsAt = e.EndsAt.In(loc)
	}
	return e, nil
}

func value(ve *ical.VEvent, prop ical.ComponentProperty) string {
	if p := ve.GetProperty(prop); p != nil {
		return p.Value
	}
	return ""
}
