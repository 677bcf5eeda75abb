// Package ics keeps lesson events in an iCalendar file instead of an online
// calendar. The file can be subscribed to from any calendar application.
package ics

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/guilherme-santos/lessonsync/internal"
)

const productID = "-//lessonsync//lessons//EN"

// Store is a calendar backed by a single .ics file. Every write rewrites the
// whole file.
type Store struct {
	path string

	mu     sync.Mutex
	newUID func() string
}

func NewStore(path string) *Store {
	return &Store{
		path:   path,
		newUID: uuid.NewString,
	}
}

func (s *Store) Events(_ context.Context, timeMin, timeMax time.Time) ([]*internal.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cal, err := s.load()
	if err != nil {
		return nil, &internal.IOError{Op: "ics: reading " + s.path, Err: err}
	}

	events := []*internal.Event{}
	for _, ve := range cal.Events() {
		e, err := newEvent(ve)
		if err != nil {
			// Not one of ours or hand edited; it can't be matched anyway.
			continue
		}
		if !e.EndsAt.After(timeMin) || !e.StartsAt.Before(timeMax) {
			continue
		}
		events = append(events, e)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartsAt.Before(events[j].StartsAt)
	})
	return events, nil
}

func (s *Store) CreateEvent(_ context.Context, e *internal.Event) (*internal.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cal, err := s.load()
	if err != nil {
		return nil, &internal.IOError{Op: "ics: reading " + s.path, Err: err}
	}

	created := *e
	created.ID = s.newUID()
	setEvent(cal.AddEvent(created.ID), &created)

	if err := s.save(cal); err != nil {
		return nil, &internal.IOError{Op: "ics: writing " + s.path, Err: err}
	}
	return &created, nil
}

func (s *Store) UpdateEvent(_ context.Context, e *internal.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cal, err := s.load()
	if err != nil {
		return &internal.IOError{Op: "ics: reading " + s.path, Err: err}
	}

	ve := findEvent(cal, e.ID)
	if ve == nil {
		return &internal.IOError{Op: "ics: updating event " + e.ID, Err: errors.New("event not found")}
	}
	setEvent(ve, e)

	if err := s.save(cal); err != nil {
		return &internal.IOError{Op: "ics: writing " + s.path, Err: err}
	}
	return nil
}

// load reads the calendar file. A missing file is an empty calendar.
func (s *Store) load() (*ical.Calendar, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && len(bytes.TrimSpace(data)) == 0) {
		return newCalendar(), nil
	}
	if err != nil {
		return nil, err
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing calendar: %w", err)
	}
	return cal, nil
}

// save writes cal next to the target and renames it over, so readers never
// see a half written file.
func (s *Store) save(cal *ical.Calendar) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".lessonsync-*.ics")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.WriteString(tmp, cal.Serialize()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}

// Encode writes events as a standalone iCalendar document. Events without an
// ID get a fresh UID.
func Encode(w io.Writer, events []*internal.Event) error {
	cal := newCalendar()
	for _, e := range events {
		uid := e.ID
		if uid == "" {
			uid = uuid.NewString()
		}
		setEvent(cal.AddEvent(uid), e)
	}
	_, err := io.WriteString(w, cal.Serialize())
	return err
}

func newCalendar() *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetProductId(productID)
	return cal
}

func findEvent(cal *ical.Calendar, uid string) *ical.VEvent {
	for _, ve := range cal.Events() {
		if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil && p.Value == uid {
			return ve
		}
	}
	return nil
}
