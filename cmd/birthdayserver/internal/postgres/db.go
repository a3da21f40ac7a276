package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nightmarlin/birthdays/cmd/birthdayserver/internal"
)

type DB struct {
	pool *pgxpool.Pool
}

// Connect opens a connection pool for dsn and checks that the server answers.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing dsn: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging db: %w", err)
	}
	return pool, nil
}

// New ensures the users table exists. The returned DB owns pool.
func New(ctx context.Context, pool *pgxpool.Pool) (*DB, error) {
	if _, err := pool.Exec(
		ctx,
		`create table if not exists users (username text primary key not null, date_of_birth date not null)`,
	); err != nil {
		return nil, fmt.Errorf("creating users table: %w", err)
	}
	return &DB{pool: pool}, nil
}

func (db *DB) UpsertBirthday(ctx context.Context, name internal.Name, birthday internal.Birthday) error {
	if err := pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(
			ctx,
			`insert into users ("username", "date_of_birth") values ($1::text, $2::date)
			on conflict ("username") do update set date_of_birth = excluded.date_of_birth`,
			name.String(),
			birthday.String(),
		)
		return err
	}); err != nil {
		return &internal.StorageError{Op: "upserting birthday", Err: err}
	}

	slog.DebugContext(
		ctx,
		"stored birthday",
		slog.String("name", name.String()),
		slog.String("date", birthday.String()),
	)
	return nil
}

func (db *DB) LookupBirthday(ctx context.Context, name internal.Name) (internal.Birthday, error) {
	var date time.Time
	if err := db.
		pool.
		QueryRow(ctx, `select "date_of_birth" from users where "username" = $1`, name.String()).
		Scan(&date); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return internal.Birthday{}, internal.ErrNotFound
		}
		return internal.Birthday{}, &internal.StorageError{Op: "looking up birthday", Err: err}
	}

	slog.DebugContext(
		ctx,
		"loaded birthday from db",
		slog.String("name", name.String()),
		slog.String("date", date.Format(internal.DateLayout)),
	)
	return internal.Birthday(internal.DateOf(date)), nil
}

func (db *DB) Close() error {
	db.pool.Close()
	return nil
}
