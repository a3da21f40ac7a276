package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nightmarlin/birthdays/cmd/birthdayserver/internal"
	"github.com/nightmarlin/birthdays/cmd/birthdayserver/internal/config"
)

func TestOpenStore_SQLite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := config.Config{
		DB:     config.DBConfig{Driver: config.DriverSQLite},
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "birthdays.db")},
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		t.Fatalf("open store: got error %v, want nil", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if _, err := store.LookupBirthday(ctx, "alice"); !errors.Is(err, internal.ErrNotFound) {
		t.Errorf("lookup: got error %v, want %v", err, internal.ErrNotFound)
	}

	b, err := internal.ParseBirthday("1990-01-01", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertBirthday(ctx, "alice", b); err != nil {
		t.Fatalf("upsert: got error %v, want nil", err)
	}
	if got, err := store.LookupBirthday(ctx, "alice"); err != nil || !got.Equal(b) {
		t.Errorf("lookup: got %v, %v, want %v, nil", got, err, b)
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if l := newLogger(config.Config{Env: config.EnvProduction}); l.Enabled(ctx, slog.LevelDebug) {
		t.Errorf("production logger: debug enabled, want info and above only")
	}
	if l := newLogger(config.Config{Env: "development"}); !l.Enabled(ctx, slog.LevelDebug) {
		t.Errorf("development logger: debug disabled, want enabled")
	}
}

func TestServe_DrainsInFlightRequests(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: got error %v, want nil", err)
	}

	var (
		started  = make(chan struct{})
		finished atomic.Bool
	)
	srv := &http.Server{
		Handler: http.HandlerFunc(
			func(w http.ResponseWriter, _ *http.Request) {
				close(started)
				time.Sleep(200 * time.Millisecond)
				finished.Store(true)
				_, _ = io.WriteString(w, "done")
			},
		),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	served := make(chan error, 1)
	go func() { served <- serve(ctx, srv, ln, 5*time.Second) }()

	type result struct {
		status int
		body   string
		err    error
	}
	responses := make(chan result, 1)
	go func() {
		client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
		resp, err := client.Get("http://" + ln.Addr().String() + "/")
		if err != nil {
			responses <- result{err: err}
			return
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		responses <- result{status: resp.StatusCode, body: string(body), err: err}
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("handler never started")
	}
	cancel()

	select {
	case err := <-served:
		if err != nil {
			t.Errorf("serve: got error %v, want nil", err)
		}
		if !finished.Load() {
			t.Errorf("serve returned before the in-flight request finished")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after shutdown")
	}

	res := <-responses
	if res.err != nil {
		t.Fatalf("request: got error %v, want nil", res.err)
	}
	if res.status != http.StatusOK || res.body != "done" {
		t.Errorf("response: got %d %q, want %d %q", res.status, res.body, http.StatusOK, "done")
	}
}
