package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/guilherme-santos/lessonsync/internal"
	"github.com/guilherme-santos/lessonsync/internal/syncer"
)

var moscow, _ = time.LoadLocation("Europe/Moscow")

// Wednesday; next week is 2024-03-04..2024-03-10.
var now = time.Date(2024, time.February, 28, 12, 0, 0, 0, moscow)

type source struct {
	lessons []internal.Lesson
	err     error
	period  internal.Period
}

func (s *source) Lessons(_ context.Context, p internal.Period) ([]internal.Lesson, error) {
	s.period = p
	return s.lessons, s.err
}

type provider struct {
	mu      sync.Mutex
	events  []*internal.Event
	readErr error
	calls   int
}

func (p *provider) Events(context.Context, time.Time, time.Time) ([]*internal.Event, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.events, p.readErr
}

func (p *provider) CreateEvent(_ context.Context, e *internal.Event) (*internal.Event, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if e.Location == "broken" {
		return nil, errors.New("backend error")
	}
	created := *e
	created.ID = fmt.Sprintf("ev%d", len(p.events)+1)
	p.events = append(p.events, &created)
	return &created, nil
}

func (p *provider) UpdateEvent(context.Context, *internal.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return nil
}

type history struct {
	reports []*internal.Report
	err     error
}

func (h *history) SaveRun(_ context.Context, r *internal.Report) error {
	h.reports = append(h.reports, r)
	return h.err
}

func lesson(day, start, classroom string) internal.Lesson {
	return internal.Lesson{
		Date:           day,
		StartTime:      start,
		EndTime:        "23:00",
		DisciplineName: "Algebra",
		ClassroomName:  classroom,
	}
}

func newRunner(src *source, p *provider, h *history) *Runner {
	s := syncer.New(p, internal.NewMapper(moscow))
	s.Calendar = internal.Calendar{Platform: "google", ID: "primary"}

	r := New(src, s, moscow)
	r.Now = func() time.Time { return now }
	if h != nil {
		r.History = h
	}
	return r
}

func decode(t *testing.T, body string) map[string]any {
	t.Helper()
	var v map[string]any
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		t.Fatalf("body %q is not JSON: %v", body, err)
	}
	return v
}

func TestRun_NoLessons(t *testing.T) {
	src := &source{}
	p := &provider{}
	h := &history{}

	resp, err := newRunner(src, p, h).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK || resp.Body != "No lessons" {
		t.Errorf("unexpected response %+v", resp)
	}
	if p.calls != 0 {
		t.Errorf("expected no provider calls, got %d", p.calls)
	}
	if src.period.String() != "2024-03-04..2024-03-10" {
		t.Errorf("unexpected period %s", src.period)
	}
	if len(h.reports) != 1 || h.reports[0].RunID == "" {
		t.Errorf("expected the run to be recorded, got %+v", h.reports)
	}
}

func TestRun_Completed(t *testing.T) {
	src := &source{lessons: []internal.Lesson{
		lesson("2024-03-04", "09:00", "101"),
		lesson("2024-03-05", "09:00", "102"),
	}}
	p := &provider{}

	resp, err := newRunner(src, p, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	body := decode(t, resp.Body)
	if body["message"] != "Sync completed" || body["count"] != 2.0 || body["created"] != 2.0 {
		t.Errorf("unexpected body %v", body)
	}

	// Second run finds both events in place.
	resp, err = newRunner(src, p, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	body = decode(t, resp.Body)
	if body["unchanged"] != 2.0 || body["created"] != 0.0 || body["updated"] != 0.0 {
		t.Errorf("unexpected body on rerun %v", body)
	}
}

func TestRun_PartialFailure(t *testing.T) {
	src := &source{lessons: []internal.Lesson{
		lesson("2024-03-04", "09:00", "101"),
		lesson("2024-03-05", "09:00", "broken"),
		lesson("2024-03-06", "nine", "101"),
	}}
	h := &history{err: errors.New("disk full")}

	resp, err := newRunner(src, &provider{}, h).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	body := decode(t, resp.Body)
	if resp.StatusCode != http.StatusOK || body["message"] != "Sync completed with failures" {
		t.Errorf("unexpected response %+v", resp)
	}
	if body["failed"] != 2.0 || body["created"] != 1.0 || body["count"] != 3.0 {
		t.Errorf("unexpected counters %v", body)
	}
	if len(h.reports) != 1 {
		t.Errorf("expected one recorded run, got %d", len(h.reports))
	}
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name          string
		src           *source
		p             *provider
		wantRetryable bool
	}{
		{
			name:          "schedule unavailable",
			src:           &source{err: &internal.IOError{Op: "schedule", Retryable: true, Err: errors.New("503")}},
			p:             &provider{},
			wantRetryable: true,
		},
		{
			name: "calendar read fails",
			src:  &source{lessons: []internal.Lesson{lesson("2024-03-04", "09:00", "101")}},
			p:    &provider{readErr: &internal.IOError{Op: "google", Err: errors.New("forbidden")}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &history{}
			resp, err := newRunner(tt.src, tt.p, h).Run(context.Background())
			if err == nil {
				t.Fatal("expected an error")
			}
			if resp.StatusCode != http.StatusBadGateway {
				t.Errorf("expected 502, got %d", resp.StatusCode)
			}
			body := decode(t, resp.Body)
			if body["retryable"] != tt.wantRetryable || body["error"] == "" {
				t.Errorf("unexpected body %v", body)
			}
			if len(h.reports) != 1 || h.reports[0].Err == nil {
				t.Errorf("expected the failed run to be recorded, got %+v", h.reports)
			}
		})
	}
}
