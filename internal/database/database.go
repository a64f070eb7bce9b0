// Package database owns the Postgres pool, the embedded schema migrations and
// the numeric helpers shared by the pgx repositories.
package database

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config is read from DB_* variables.
type Config struct {
	Host            string        `env:"HOST" envDefault:"localhost"`
	Port            int           `env:"PORT" envDefault:"5432"`
	User            string        `env:"USER" envDefault:"nestmap"`
	Password        string        `env:"PASSWORD" envDefault:"localdev"`
	Database        string        `env:"NAME" envDefault:"nestmap"`
	SSLMode         string        `env:"SSL_MODE" envDefault:"disable"`
	MaxOpenConns    int32         `env:"MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int32         `env:"MAX_IDLE_CONNS" envDefault:"2"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
	ConnectRetries  uint64        `env:"CONNECT_RETRIES" envDefault:"5"`
	AutoMigrate     bool          `env:"AUTO_MIGRATE" envDefault:"true"`
}

// ConnectionString renders the config as a postgres:// URL. Credentials are
// escaped, so passwords may contain reserved characters.
func (c Config) ConnectionString() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   c.Host + ":" + strconv.Itoa(c.Port),
		Path:   "/" + c.Database,
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}
	return u.String()
}

// Connect opens a pool sized from cfg. The first ping is retried with
// exponential backoff so the services tolerate a database that is still
// starting.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		pc.MaxConns = cfg.MaxOpenConns
	}
	if cfg.MaxIdleConns > 0 && cfg.MaxIdleConns <= pc.MaxConns {
		pc.MinConns = cfg.MaxIdleConns
	}
	if cfg.ConnMaxLifetime > 0 {
		pc.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	return open(ctx, pc, cfg.ConnectRetries)
}

// ConnectURL opens a pool from a full connection URL with pgx defaults and no
// retries.
func ConnectURL(ctx context.Context, connURL string) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(connURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	return open(ctx, pc, 0)
}

func open(ctx context.Context, pc *pgxpool.Config, retries uint64) (*pgxpool.Pool, error) {
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	ping := func() error { return pool.Ping(ctx) }
	if err := backoff.Retry(ping, backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx)); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}
