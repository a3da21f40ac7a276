package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"

	"github.com/nightmarlin/birthdays/cmd/birthdayserver/internal"
	"github.com/nightmarlin/birthdays/cmd/birthdayserver/internal/config"
	"github.com/nightmarlin/birthdays/cmd/birthdayserver/internal/handlers"
	"github.com/nightmarlin/birthdays/cmd/birthdayserver/internal/postgres"
	"github.com/nightmarlin/birthdays/cmd/birthdayserver/internal/sqlite"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := run(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func run() (err error) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	slog.SetDefault(newLogger(cfg))

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, store.Close()) }()

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handlers.WithRequestLogging(handlers.NewMux(store.LookupBirthday, store.UpsertBirthday, time.Now)),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", srv.Addr, err)
	}

	slog.InfoContext(ctx, "starting server", slog.String("address", ln.Addr().String()), slog.String("env", cfg.Env))
	return serve(ctx, srv, ln, cfg.HTTP.ShutdownGrace)
}

// serve runs srv on ln until ctx is done, then shuts it down and waits up to
// grace for in-flight requests before returning.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, grace time.Duration) error {
	shutdown := make(chan error, 1)
	go func() {
		<-ctx.Done()
		slog.InfoContext(ctx, "shutting down server", slog.Duration("grace_period", grace))

		ctx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		shutdown <- srv.Shutdown(ctx)
	}()

	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("unexpected error while serving http: %w", err)
	}
	if err := <-shutdown; err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg config.Config) (internal.Store, error) {
	switch cfg.DB.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("initializing sqlite: %w", err)
		}
		slog.InfoContext(ctx, "using sqlite storage", slog.String("path", cfg.SQLite.Path))
		return db, nil

	default:
		pool, err := postgres.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, fmt.Errorf("connecting to db: %w", err)
		}
		db, err := postgres.New(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("initializing db: %w", err)
		}
		slog.InfoContext(
			ctx,
			"using postgres storage",
			slog.String("host", cfg.DB.Host),
			slog.String("database", cfg.DB.Name),
			slog.Bool("unix_socket", cfg.Production()),
		)
		return db, nil
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	if cfg.Production() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
