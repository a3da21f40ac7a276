package postgres_test

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nightmarlin/birthdays/cmd/birthdayserver/internal"
	"github.com/nightmarlin/birthdays/cmd/birthdayserver/internal/postgres"
	"github.com/nightmarlin/birthdays/cmd/birthdayserver/internal/testutil"
)

var pool *pgxpool.Pool

func TestMain(m *testing.M) {
	flag.Parse()

	var cleanup testutil.Cleanup
	if !testing.Short() {
		var err error
		pool, cleanup, err = testutil.TestWithPostgres(nil)
		if err != nil {
			// no docker daemon: the tests below skip themselves
			log.Printf("postgres unavailable: %v", err)
		}
	}

	code := m.Run()

	if cleanup != nil {
		if err := cleanup(); err != nil {
			log.Fatal(err)
		}
	}
	os.Exit(code)
}

func newDB(t *testing.T) *postgres.DB {
	t.Helper()
	if pool == nil {
		t.Skip("postgres container is not running")
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, pool)
	if err != nil {
		t.Fatalf("new: got error %v, want nil", err)
	}
	// New must be safe to run against an existing table.
	if _, err := postgres.New(ctx, pool); err != nil {
		t.Fatalf("second new: got error %v, want nil", err)
	}
	return db
}

func mustBirthday(t *testing.T, raw string) internal.Birthday {
	t.Helper()
	b, err := internal.ParseBirthday(raw, time.Now())
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return b
}

func TestDB_UpsertBirthday(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()

	t.Run(
		"insert then lookup",
		func(t *testing.T) {
			want := mustBirthday(t, "1990-01-01")
			if err := db.UpsertBirthday(ctx, "alice", want); err != nil {
				t.Fatalf("upsert: got error %v, want nil", err)
			}

			got, err := db.LookupBirthday(ctx, "alice")
			if err != nil {
				t.Fatalf("lookup: got error %v, want nil", err)
			}
			if !got.Equal(want) {
				t.Errorf("lookup: got %v, want %v", got, want)
			}
		},
	)

	t.Run(
		"second upsert overwrites the first",
		func(t *testing.T) {
			first, second := mustBirthday(t, "1980-05-05"), mustBirthday(t, "2000-02-29")
			for _, b := range []internal.Birthday{first, second, second} {
				if err := db.UpsertBirthday(ctx, "carol", b); err != nil {
					t.Fatalf("upsert %v: got error %v, want nil", b, err)
				}
			}

			got, err := db.LookupBirthday(ctx, "carol")
			if err != nil {
				t.Fatalf("lookup: got error %v, want nil", err)
			}
			if !got.Equal(second) {
				t.Errorf("lookup: got %v, want %v", got, second)
			}

			var count int
			if err := pool.QueryRow(ctx, `select count(*) from users where username = 'carol'`).Scan(&count); err != nil {
				t.Fatalf("count: %v", err)
			}
			if count != 1 {
				t.Errorf("rows for carol: got %d, want 1", count)
			}
		},
	)

	t.Run(
		"usernames are case sensitive",
		func(t *testing.T) {
			lower, upper := mustBirthday(t, "1970-01-01"), mustBirthday(t, "1971-01-01")
			if err := db.UpsertBirthday(ctx, "dave", lower); err != nil {
				t.Fatal(err)
			}
			if err := db.UpsertBirthday(ctx, "Dave", upper); err != nil {
				t.Fatal(err)
			}

			got, err := db.LookupBirthday(ctx, "dave")
			if err != nil {
				t.Fatal(err)
			}
			if !got.Equal(lower) {
				t.Errorf("lookup dave: got %v, want %v", got, lower)
			}
		},
	)
}

func TestDB_LookupBirthday(t *testing.T) {
	db := newDB(t)

	t.Run(
		"unknown name is not found",
		func(t *testing.T) {
			_, err := db.LookupBirthday(context.Background(), "bob")
			if !errors.Is(err, internal.ErrNotFound) {
				t.Errorf("lookup: got error %v, want %v", err, internal.ErrNotFound)
			}
		},
	)

	t.Run(
		"cancelled context is a storage error",
		func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := db.LookupBirthday(ctx, "alice")
			var se *internal.StorageError
			if !errors.As(err, &se) {
				t.Errorf("lookup: got error %v, want a *internal.StorageError", err)
			}
		},
	)
}
