// Package sqlite stores birthdays in a single SQLite file, for running the
// server without a Postgres instance.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/multierr"

	"github.com/nightmarlin/birthdays/cmd/birthdayserver/internal"
)

type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) the database file at path and ensures the
// users table exists.
func Open(ctx context.Context, path string) (_ *DB, err error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, db.Close())
		}
	}()

	if _, err = db.ExecContext(
		ctx,
		`CREATE TABLE IF NOT EXISTS users (
			username      TEXT PRIMARY KEY NOT NULL,
			date_of_birth TEXT NOT NULL
		)`,
	); err != nil {
		return nil, fmt.Errorf("creating users table: %w", err)
	}
	return &DB{db: db}, nil
}

func (s *DB) UpsertBirthday(ctx context.Context, name internal.Name, birthday internal.Birthday) error {
	if err := s.upsert(ctx, name, birthday); err != nil {
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

func (s *DB) upsert(ctx context.Context, name internal.Name, birthday internal.Birthday) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, tx.Rollback())
		}
	}()

	if _, err = tx.ExecContext(
		ctx,
		`INSERT INTO users (username, date_of_birth) VALUES (?, ?)
		ON CONFLICT (username) DO UPDATE SET date_of_birth = excluded.date_of_birth`,
		name.String(),
		birthday.String(),
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *DB) LookupBirthday(ctx context.Context, name internal.Name) (internal.Birthday, error) {
	var raw string
	if err := s.db.
		QueryRowContext(ctx, `SELECT date_of_birth FROM users WHERE username = ?`, name.String()).
		Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return internal.Birthday{}, internal.ErrNotFound
		}
		return internal.Birthday{}, &internal.StorageError{Op: "looking up birthday", Err: err}
	}

	date, err := time.Parse(internal.DateLayout, raw)
	if err != nil {
		return internal.Birthday{}, &internal.StorageError{Op: "decoding stored birthday", Err: err}
	}

	slog.DebugContext(
		ctx,
		"loaded birthday from db",
		slog.String("name", name.String()),
		slog.String("date", raw),
	)
	return internal.Birthday(date), nil
}

func (s *DB) Close() error { return s.db.Close() }
