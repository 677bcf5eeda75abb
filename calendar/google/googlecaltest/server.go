package googlecaltest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/calendar/v3"
)

// Server is a fake Google Calendar API server.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	events   map[string]map[string]*calendar.Event // calendarID -> eventID -> event
	nextID   int
	requests map[string]int
	failures map[string][]failure
}

type failure struct {
	code   int
	reason string
}

func NewServer() *Server {
	s := &Server{}
	s.reset()
	s.Server = httptest.NewServer(http.HandlerFunc(s.handleRequest))
	return s
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	idx := strings.Index(r.URL.Path, "/calendars/")
	if idx == -1 {
		http.Error(w, "unsupported endpoint", http.StatusNotFound)
		return
	}
	parts := strings.Split(strings.Trim(r.URL.Path[idx+len("/calendars/"):], "/"), "/")
	if len(parts) < 2 || parts[1] != "events" {
		http.Error(w, "unsupported resource", http.StatusNotImplemented)
		return
	}
	calendarID := parts[0]

	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests[r.Method]++
	if f, ok := s.popFailure(r.Method); ok {
		writeError(w, f.code, f.reason)
		return
	}

	switch {
	case len(parts) == 2 && r.Method == http.MethodGet:
		s.listEvents(w, r, calendarID)
	case len(parts) == 2 && r.Method == http.MethodPost:
		s.insertEvent(w, r, calendarID)
	case len(parts) == 3 && r.Method == http.MethodGet:
		s.getEvent(w, calendarID, parts[2])
	case len(parts) == 3 && r.Method == http.MethodPut:
		s.updateEvent(w, r, calendarID, parts[2])
	default:
		writeError(w, http.StatusMethodNotAllowed, "methodNotAllowed")
	}
}

func (s *Server) insertEvent(w http.ResponseWriter, r *http.Request, calendarID string) {
	var event calendar.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, "parseError")
		return
	}

	event.Id = fmt.Sprintf("event%d", s.nextID)
	s.nextID++
	event.Status = "confirmed"
	event.Created = time.Now().UTC().Format(time.RFC3339)
	event.Updated = event.Created

	s.store(calendarID, &event)
	writeJSON(w, &event)
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request, calendarID string) {
	query := r.URL.Query()
	timeMin, _ := time.Parse(time.RFC3339, query.Get("timeMin"))
	timeMax, _ := time.Parse(time.RFC3339, query.Get("timeMax"))

	var events []*calendar.Event
	for _, evt := range s.events[calendarID] {
		if evt.Status == "cancelled" && query.Get("showDeleted") != "true" {
			continue
		}
		start, end := eventTime(evt.Start), eventTime(evt.End)
		// Same overlap rule as the real API: timeMin bounds the end,
		// timeMax bounds the start, both exclusive.
		if !timeMin.IsZero() && !end.IsZero() && !end.After(timeMin) {
			continue
		}
		if !timeMax.IsZero() && !start.Before(timeMax) {
			continue
		}
		events = append(events, evt)
	}

	sort.Slice(events, func(i, j int) bool {
		if query.Get("orderBy") == "startTime" {
			ti, tj := eventTime(events[i].Start), eventTime(events[j].Start)
			if !ti.Equal(tj) {
				return ti.Before(tj)
			}
		}
		return events[i].Id < events[j].Id
	})

	start, _ := strconv.Atoi(query.Get("pageToken"))
	if start > len(events) {
		start = len(events)
	}
	end := len(events)
	if n, err := strconv.Atoi(query.Get("maxResults")); err == nil && n > 0 && start+n < end {
		end = start + n
	}

	resp := &calendar.Events{
		Kind:    "calendar#events",
		Summary: calendarID,
		Items:   events[start:end],
	}
	if end < len(events) {
		resp.NextPageToken = strconv.Itoa(end)
	}
	writeJSON(w, resp)
}

func (s *Server) getEvent(w http.ResponseWriter, calendarID, eventID string) {
	event := s.events[calendarID][eventID]
	if event == nil {
		writeError(w, http.StatusNotFound, "notFound")
		return
	}
	writeJSON(w, event)
}

func (s *Server) updateEvent(w http.ResponseWriter, r *http.Request, calendarID, eventID string) {
	existing := s.events[calendarID][eventID]
	if existing == nil {
		writeError(w, http.StatusNotFound, "notFound")
		return
	}

	var event calendar.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, "parseError")
		return
	}

	// Update replaces the whole resource, only server side metadata survives.
	event.Id = eventID
	event.Status = existing.Status
	event.Created = existing.Created
	event.Updated = time.Now().UTC().Format(time.RFC3339)

	s.store(calendarID, &event)
	writeJSON(w, &event)
}

func (s *Server) store(calendarID string, event *calendar.Event) {
	if s.events[calendarID] == nil {
		s.events[calendarID] = make(map[string]*calendar.Event)
	}
	s.events[calendarID][event.Id] = event
}

func (s *Server) popFailure(method string) (failure, bool) {
	queue := s.failures[method]
	if len(queue) == 0 {
		return failure{}, false
	}
	s.failures[method] = queue[1:]
	return queue[0], true
}

// AddEvent stores event as if it had been created earlier. An empty Id is
// filled in.
func (s *Server) AddEvent(calendarID string, event *calendar.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.Id == "" {
		event.Id = fmt.Sprintf("event%d", s.nextID)
		s.nextID++
	}
	if event.Status == "" {
		event.Status = "confirmed"
	}
	s.store(calendarID, event)
}

// Events returns the events stored for calendarID ordered by start time.
func (s *Server) Events(calendarID string) []*calendar.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make([]*calendar.Event, 0, len(s.events[calendarID]))
	for _, evt := range s.events[calendarID] {
		events = append(events, evt)
	}
	sort.Slice(events, func(i, j int) bool {
		return eventTime(events[i].Start).Before(eventTime(events[j].Start))
	})
	return events
}

// FailRequests makes the next n requests with the given HTTP method fail
// with code and a single error reason, e.g. "rateLimitExceeded".
func (s *Server) FailRequests(method string, n, code int, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < n; i++ {
		s.failures[method] = append(s.failures[method], failure{code: code, reason: reason})
	}
}

// Requests returns how many requests were received for the HTTP method.
func (s *Server) Requests(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[method]
}

// Reset drops every event, pending failure and request count.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Server) reset() {
	s.events = make(map[string]map[string]*calendar.Event)
	s.nextID = 1
	s.requests = make(map[string]int)
	s.failures = make(map[string][]failure)
}

func eventTime(dt *calendar.EventDateTime) time.Time {
	if dt == nil {
		return time.Time{}
	}
	if dt.DateTime != "" {
		t, _ := time.Parse(time.RFC3339, dt.DateTime)
		return t
	}
	t, _ := time.Parse("2006-01-02", dt.Date)
	return t
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": reason,
			"errors": []map[string]string{
				{"reason": reason, "message": reason},
			},
		},
	})
}
