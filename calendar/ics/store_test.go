package ics

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/guilherme-santos/lessonsync/internal"
)

var moscow, _ = time.LoadLocation("Europe/Moscow")

func lessonEvent(id string, day, hour int) *internal.Event {
	return &internal.Event{
		Summary:     "Algebra, part 1",
		Location:    "101",
		Description: "Преподаватель: Иван Иванович Иванов\nСсылка: https://example.com/a;b",
		StartsAt:    time.Date(2024, 3, day, hour, 0, 0, 0, moscow),
		EndsAt:      time.Date(2024, 3, day, hour+1, 30, 0, 0, moscow),
		TimeZone:    "Europe/Moscow",
		ColorID:     "1",
		LessonID:    id,
	}
}

func TestStore_MissingFileIsEmpty(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "lessons.ics"))

	events, err := s.Events(context.Background(), time.Time{}, time.Now())
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
}

func TestStore_CreateListUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cal", "lessons.ics")
	s := NewStore(path)
	ctx := context.Background()

	want := lessonEvent(`2024-03-04_09:00_10:30_Algebra\_1_101`, 4, 9)
	created, err := s.CreateEvent(ctx, want)
	if err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected a UID to be assigned")
	}
	if _, err := s.CreateEvent(ctx, lessonEvent("other", 6, 12)); err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}

	from := time.Date(2024, 3, 4, 0, 0, 0, 0, moscow)
	to := time.Date(2024, 3, 4, 23, 59, 59, 0, moscow)
	events, err := s.Events(ctx, from, to)
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event in window, got %d", len(events))
	}
	got := events[0]
	if got.ID != created.ID {
		t.Errorf("expected id %q, got %q", created.ID, got.ID)
	}
	if got.LessonID != want.LessonID {
		t.Errorf("expected lesson id %q, got %q", want.LessonID, got.LessonID)
	}
	if got.Description != want.Description {
		t.Errorf("expected description %q, got %q", want.Description, got.Description)
	}
	if !want.SameSlot(got) {
		t.Errorf("expected %+v to match %+v", got, want)
	}
	if got.StartsAt.Location().String() != "Europe/Moscow" {
		t.Errorf("expected start in Europe/Moscow, got %s", got.StartsAt.Location())
	}

	update := lessonEvent(want.LessonID, 4, 11)
	update.ID = created.ID
	update.Location = "202"
	if err := s.UpdateEvent(ctx, update); err != nil {
		t.Fatalf("UpdateEvent() error = %v", err)
	}

	events, err = s.Events(ctx, from, to)
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	if len(events) != 1 || events[0].Location != "202" || events[0].StartsAt.Hour() != 11 {
		t.Errorf("event was not updated: %+v", events)
	}
}

func TestStore_UpdateUnknownEvent(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "lessons.ics"))

	e := lessonEvent("a", 4, 9)
	e.ID = "missing"
	if err := s.UpdateEvent(context.Background(), e); err == nil {
		t.Fatal("expected an error")
	}
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, []*internal.Event{lessonEvent("a", 4, 9), lessonEvent("b", 5, 9)}); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	out := buf.String()
	if n := strings.Count(out, "BEGIN:VEVENT"); n != 2 {
		t.Errorf("expected 2 events, got %d", n)
	}
	if !strings.Contains(out, "X-LESSON-ID:a") {
		t.Errorf("expected lesson id in output:\n%s", out)
	}
	if !strings.Contains(out, "DTSTART:20240304T060000Z") {
		t.Errorf("expected UTC start in output:\n%s", out)
	}
}
