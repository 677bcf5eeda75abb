package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/guilherme-santos/lessonsync/calendar"
	"github.com/guilherme-santos/lessonsync/calendar/google"
	"github.com/guilherme-santos/lessonsync/calendar/ics"
	"github.com/guilherme-santos/lessonsync/internal"
	"github.com/guilherme-santos/lessonsync/internal/config"
	"github.com/guilherme-santos/lessonsync/internal/runner"
	"github.com/guilherme-santos/lessonsync/internal/schedule"
	"github.com/guilherme-santos/lessonsync/internal/sqlite"
	"github.com/guilherme-santos/lessonsync/internal/syncer"
)

func loadConfig() (*config.Config, *time.Location, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}
	return cfg, loc, nil
}

func newMux() *calendar.Mux {
	mux := calendar.NewMux()
	mux.Register(config.ProviderGoogle, newGoogleProvider)
	mux.Register(config.ProviderICS, newICSProvider)
	return mux
}

func newGoogleProvider(ctx context.Context, cfg *config.Config) (internal.Provider, error) {
	creds := google.Credentials{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURI,
		RefreshToken: cfg.Google.RefreshToken,
		Scopes:       cfg.Calendar.Scopes,
	}
	if cfg.Google.ServiceAccountFile != "" {
		key, err := os.ReadFile(cfg.Google.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("reading service account key: %v", err)
		}
		creds.ServiceAccountJSON = key
	}

	httpClient, err := google.HTTPClient(ctx, creds)
	if err != nil {
		return nil, err
	}

	var endpoint []string
	if cfg.Google.Endpoint != "" {
		endpoint = append(endpoint, cfg.Google.Endpoint)
	}
	client, err := google.NewClient(ctx, httpClient, cfg.Calendar.ID, endpoint...)
	if err != nil {
		return nil, fmt.Errorf("creating google client: %v", err)
	}
	return client, nil
}

func newICSProvider(_ context.Context, cfg *config.Config) (internal.Provider, error) {
	return ics.NewStore(cfg.Calendar.ICSPath), nil
}

func newMapper(cfg *config.Config, loc *time.Location) *internal.Mapper {
	mapper := internal.NewMapper(loc)
	mapper.ColorID = cfg.Calendar.ColorID
	if cfg.Calendar.FallbackSummary != "" {
		mapper.FallbackSummary = cfg.Calendar.FallbackSummary
	}
	return mapper
}

func newSyncer(ctx context.Context, cfg *config.Config, loc *time.Location) (*syncer.Syncer, error) {
	provider, err := newMux().Provider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s := syncer.New(provider, newMapper(cfg, loc))
	s.Concurrency = cfg.Calendar.Concurrency
	s.Calendar = internal.Calendar{Platform: cfg.Calendar.Provider, ID: cfg.Calendar.ID}
	if cfg.Calendar.Provider == config.ProviderICS {
		s.Calendar.ID = cfg.Calendar.ICSPath
	}
	return s, nil
}

func newScheduleClient(cfg *config.Config) *schedule.Client {
	return schedule.NewClient(cfg.Schedule.URL, &http.Client{Timeout: cfg.Schedule.Timeout})
}

// newRunner wires a runner for cfg. The returned func releases the history
// database, if one is configured.
func newRunner(ctx context.Context, cfg *config.Config, loc *time.Location) (*runner.Runner, func(), error) {
	s, err := newSyncer(ctx, cfg, loc)
	if err != nil {
		return nil, nil, err
	}
	r := runner.New(newScheduleClient(cfg), s, loc)

	if cfg.History.DSN == "" {
		return r, func() {}, nil
	}
	storage, db, err := openHistory(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	r.History = storage
	return r, func() { db.Close() }, nil
}

func openHistory(ctx context.Context, cfg *config.Config) (*sqlite.Storage, *sql.DB, error) {
	db, err := sql.Open(sqlite.DriverName, cfg.History.DSN)
	if err != nil {
		return nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("opening history %q: %v", cfg.History.DSN, err)
	}
	return sqlite.NewStorage(db), db, nil
}
