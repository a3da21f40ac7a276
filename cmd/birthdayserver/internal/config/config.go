// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvProduction = "production"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Env    string `env:"APP_ENV" env-default:"development"`
	DB     DBConfig
	SQLite SQLiteConfig
	HTTP   HTTPConfig
}

type DBConfig struct {
	Driver   string `env:"DB_DRIVER" env-default:"postgres"`
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASS"`
	Name     string `env:"DB_NAME"`
	// Host is a hostname in development and a Cloud SQL instance connection
	// name (project:region:instance) in production.
	Host      string `env:"DB_HOST"`
	Port      int    `env:"DB_PORT" env-default:"5432"`
	SocketDir string `env:"DB_SOCKET_DIR" env-default:"/cloudsql"`
}

type SQLiteConfig struct {
	Path string `env:"SQLITE_PATH" env-default:"birthdays.db"`
}

type HTTPConfig struct {
	Addr          string        `env:"HTTP_ADDR" env-default:":8080"`
	ReadTimeout   time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout  time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout   time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownGrace time.Duration `env:"SHUTDOWN_GRACE" env-default:"5s"`
}

// Load reads the configuration from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("reading env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.DB.Driver {
	case DriverSQLite:
		if c.SQLite.Path == "" {
			return errors.New("SQLITE_PATH is required when DB_DRIVER=sqlite")
		}
		return nil
	case DriverPostgres:
		var errs []error
		for _, f := range []struct{ env, v string }{
			{"DB_USER", c.DB.User},
			{"DB_NAME", c.DB.Name},
			{"DB_HOST", c.DB.Host},
		} {
			if f.v == "" {
				errs = append(errs, fmt.Errorf("%s is required when DB_DRIVER=postgres", f.env))
			}
		}
		return errors.Join(errs...)
	default:
		return fmt.Errorf("unknown DB_DRIVER %q: want %q or %q", c.DB.Driver, DriverPostgres, DriverSQLite)
	}
}

func (c Config) Production() bool { return c.Env == EnvProduction }

// PostgresDSN builds the connection string for the configured database. In
// production the server connects over the Cloud SQL unix socket
// <SocketDir>/<Host>; elsewhere it connects to Host:Port over TCP.
func (c Config) PostgresDSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DB.User, c.DB.Password),
		Path:   "/" + c.DB.Name,
	}
	if c.Production() {
		u.RawQuery = url.Values{"host": {path.Join(c.DB.SocketDir, c.DB.Host)}}.Encode()
	} else {
		u.Host = c.DB.Host + ":" + strconv.Itoa(c.DB.Port)
	}
	return u.String()
}
