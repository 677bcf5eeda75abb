// Package googlecaltest runs a fake Google Calendar API v3 server for tests.
//
// It started from the drewfead/cali googlecaltest server and keeps its
// routing and in-memory storage. It differs in what the sync relies on:
//
//   - timeMin and timeMax are parsed as RFC3339 and an event is listed when
//     it overlaps the window, so offsets other than UTC compare correctly.
//   - Pages follow orderBy=startTime and carry the page offset in pageToken.
//   - PUT replaces the whole event but keeps Created and Status. PATCH and
//     DELETE are not served.
//   - FailRequests answers the next calls for a method with a Google API
//     JSON error body, and Requests counts calls per method.
//
// Only the calls lessonsync makes are implemented:
//
//   - List events: GET /calendars/{calendarId}/events (timeMin, timeMax,
//     orderBy=startTime, maxResults, pageToken)
//   - Insert event: POST /calendars/{calendarId}/events
//   - Get event: GET /calendars/{calendarId}/events/{eventId}
//   - Update event: PUT /calendars/{calendarId}/events/{eventId}
//
// Point a calendar.Service at it with option.WithEndpoint:
//
//	server := googlecaltest.NewServer()
//	defer server.Close()
//
//	svc, err := calendar.NewService(ctx,
//	    option.WithHTTPClient(server.Client()),
//	    option.WithEndpoint(server.URL))
//
// AddEvent seeds events, Events returns what's stored and FailRequests makes
// the next calls for a method answer with a Google API error.
package googlecaltest
