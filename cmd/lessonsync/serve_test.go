package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/guilherme-santos/lessonsync/internal/runner"
)

type fakeRunner struct {
	resp    runner.Response
	started chan struct{}
	release chan struct{}
}

func (f *fakeRunner) Run(context.Context) (runner.Response, error) {
	if f.started != nil {
		close(f.started)
		<-f.release
	}
	return f.resp, nil
}

func TestTrigger_Handler(t *testing.T) {
	tests := []struct {
		name            string
		method          string
		resp            runner.Response
		wantStatus      int
		wantContentType string
	}{
		{
			name:            "summary",
			method:          http.MethodPost,
			resp:            runner.Response{StatusCode: http.StatusOK, Body: `{"message":"Sync completed"}`},
			wantStatus:      http.StatusOK,
			wantContentType: "application/json",
		},
		{
			name:            "no lessons",
			method:          http.MethodPost,
			resp:            runner.Response{StatusCode: http.StatusOK, Body: "No lessons"},
			wantStatus:      http.StatusOK,
			wantContentType: "text/plain; charset=utf-8",
		},
		{
			name:            "upstream failure",
			method:          http.MethodPost,
			resp:            runner.Response{StatusCode: http.StatusBadGateway, Body: `{"message":"Sync failed"}`},
			wantStatus:      http.StatusBadGateway,
			wantContentType: "application/json",
		},
		{
			name:       "wrong method",
			method:     http.MethodGet,
			wantStatus: http.StatusMethodNotAllowed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &trigger{runner: &fakeRunner{resp: tt.resp}}

			rec := httptest.NewRecorder()
			tr.Handler(context.Background()).ServeHTTP(rec, httptest.NewRequest(tt.method, "/sync", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantContentType != "" {
				if got := rec.Header().Get("Content-Type"); got != tt.wantContentType {
					t.Errorf("content type = %q, want %q", got, tt.wantContentType)
				}
				if rec.Body.String() != tt.resp.Body {
					t.Errorf("body = %q, want %q", rec.Body.String(), tt.resp.Body)
				}
			}
		})
	}
}

func TestTrigger_OneRunAtATime(t *testing.T) {
	f := &fakeRunner{
		resp:    runner.Response{StatusCode: http.StatusOK, Body: "No lessons"},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	tr := &trigger{runner: f}

	done := make(chan struct{})
	go func() {
		defer close(done)
		tr.Run(context.Background())
	}()
	<-f.started

	resp, err := tr.Run(context.Background())
	if err != errBusy {
		t.Errorf("expected errBusy, got %v", err)
	}
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409, got %d", resp.StatusCode)
	}

	close(f.release)
	<-done
}
