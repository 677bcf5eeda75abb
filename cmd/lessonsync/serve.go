package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v3"

	"github.com/guilherme-santos/lessonsync/internal"
	"github.com/guilherme-santos/lessonsync/internal/runner"
)

func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "sync on a cron schedule and, when listen is set, on POST /sync",
		Action: func(ctx context.Context, _ *cli.Command) error {
			cfg, loc, err := loadConfig()
			if err != nil {
				return err
			}

			r, closeHistory, err := newRunner(ctx, cfg, loc)
			if err != nil {
				return err
			}
			defer closeHistory()

			return serve(ctx, &trigger{runner: r}, cfg.Serve.Cron, cfg.Serve.Listen, loc)
		},
	}
}

func serve(ctx context.Context, t *trigger, spec, listen string, loc *time.Location) error {
	logger := internal.Logger(ctx)

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cronLogger{logger}),
	)
	if spec != "" {
		_, err := c.AddFunc(spec, func() {
			if _, err := t.Run(ctx); errors.Is(err, errBusy) {
				logger.Warn("Skipping scheduled sync, previous one still running")
			}
		})
		if err != nil {
			return err
		}
		logger.Info("Sync scheduled", "cron", spec, "timezone", loc.String())
	}
	c.Start()
	defer func() {
		<-c.Stop().Done()
	}()

	if listen == "" {
		<-ctx.Done()
		return nil
	}

	srv := &http.Server{
		Addr:              listen,
		Handler:           t.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening for sync requests", "addr", listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

var errBusy = errors.New("a sync is already running")

// trigger runs one sync at a time, whether started by cron or over HTTP.
type trigger struct {
	runner interface {
		Run(context.Context) (runner.Response, error)
	}
	mu sync.Mutex
}

func (t *trigger) Run(ctx context.Context) (runner.Response, error) {
	if !t.mu.TryLock() {
		return runner.Response{StatusCode: http.StatusConflict, Body: errBusy.Error()}, errBusy
	}
	defer t.mu.Unlock()

	return t.runner.Run(ctx)
}

// Handler serves POST /sync. Runs use baseCtx so a client hanging up
// doesn't abort writes half way.
func (t *trigger) Handler(baseCtx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sync", func(w http.ResponseWriter, r *http.Request) {
		resp, err := t.Run(baseCtx)
		if err != nil && !errors.Is(err, errBusy) {
			internal.Logger(baseCtx).Error("Sync failed", "error", err)
		}

		contentType := "application/json"
		if !strings.HasPrefix(resp.Body, "{") {
			contentType = "text/plain; charset=utf-8"
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(resp.StatusCode)
		w.Write([]byte(resp.Body))
	})
	return mux
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
