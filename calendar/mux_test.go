package calendar_test

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/guilherme-santos/lessonsync/calendar"
	"github.com/guilherme-santos/lessonsync/calendar/ics"
	"github.com/guilherme-santos/lessonsync/internal"
	"github.com/guilherme-santos/lessonsync/internal/config"
)

func TestMux(t *testing.T) {
	mux := calendar.NewMux()
	mux.Register(config.ProviderICS, func(_ context.Context, cfg *config.Config) (internal.Provider, error) {
		return ics.NewStore(cfg.Calendar.ICSPath), nil
	})

	cfg := config.Default()
	cfg.Calendar.Provider = config.ProviderICS
	cfg.Calendar.ICSPath = filepath.Join(t.TempDir(), "lessons.ics")

	p, err := mux.Provider(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Provider() error = %v", err)
	}
	if _, ok := p.(*ics.Store); !ok {
		t.Errorf("expected *ics.Store, got %T", p)
	}

	cfg.Calendar.Provider = config.ProviderGoogle
	if _, err := mux.Provider(context.Background(), cfg); err == nil {
		t.Error("expected an error for an unregistered platform")
	}

	if got, want := mux.Platforms(), []string{"ics"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Platforms() = %v, want %v", got, want)
	}
}
