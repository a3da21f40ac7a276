// Package testutil starts throwaway databases in Docker for integration
// tests.
package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaevor/go-nanoid"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"go.uber.org/multierr"
)

type Cleanup func() error

const (
	postgresExpireSeconds = 120

	containerNameCharacters   = "abcdefghijklmnopqrstuvwxyz"
	containerNameNanoIDLength = 16
)

// TestWithPostgres runs a postgres container and returns a pool connected to
// it. The caller must call the returned Cleanup once it is done.
func TestWithPostgres(pool *dockertest.Pool) (_ *pgxpool.Pool, _ Cleanup, err error) {
	if pool == nil {
		pool, err = dockertest.NewPool("")
		if err != nil {
			return nil, nil, fmt.Errorf("could not construct pool: %w", err)
		}
	}
	if err = pool.Client.Ping(); err != nil {
		return nil, nil, fmt.Errorf("could not connect to Docker: %w", err)
	}

	generateID, err := nanoid.CustomASCII(containerNameCharacters, containerNameNanoIDLength)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate container name: %w", err)
	}

	resource, err := pool.RunWithOptions(
		&dockertest.RunOptions{
			Name:       fmt.Sprintf("birthdays-postgres_%s", generateID()),
			Repository: "postgres",
			Tag:        "16-alpine",
			Env: []string{
				"POSTGRES_USER=postgres",
				"POSTGRES_PASSWORD=password",
				"POSTGRES_DB=birthdays",
			},
		},
		func(config *docker.HostConfig) {
			config.AutoRemove = true
			config.RestartPolicy = docker.RestartPolicy{Name: "no"}
		},
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to run postgres container: %w", err)
	}

	cleanup := func() error {
		if purgeErr := pool.Purge(resource); purgeErr != nil {
			return fmt.Errorf("failed to purge postgres container: %w", purgeErr)
		}
		return nil
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, cleanup())
		}
	}()

	if err = resource.Expire(postgresExpireSeconds); err != nil {
		return nil, nil, fmt.Errorf("failed to set expire time: %w", err)
	}

	dsn := fmt.Sprintf(
		"postgres://postgres:password@%s/birthdays?sslmode=disable",
		resource.GetHostPort("5432/tcp"),
	)

	var db *pgxpool.Pool
	pool.MaxWait = time.Minute
	err = pool.Retry(func() error {
		p, retryErr := pgxpool.New(context.Background(), dsn)
		if retryErr != nil {
			return retryErr
		}
		if retryErr = p.Ping(context.Background()); retryErr != nil {
			p.Close()
			return retryErr
		}
		db = p
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return db, func() error {
		db.Close()
		return cleanup()
	}, nil
}
