package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/geocoder89/addressbook/internal/observability"
	"github.com/geocoder89/addressbook/internal/repo"
	"github.com/geocoder89/addressbook/internal/repo/postgres"
	"github.com/geocoder89/addressbook/internal/repo/sqlite"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type Options struct {
	AutoMigrate bool
	Metrics     *observability.Prom
}

// Open picks the backend from the DSN scheme: postgres:// or postgresql:// use pgx,
// sqlite:// and file: use SQLite.
func Open(ctx context.Context, dsn string, opts Options) (*repo.Store, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return openPostgres(ctx, dsn, opts)
	case strings.HasPrefix(dsn, "sqlite://"):
		return openSQLite(ctx, strings.TrimPrefix(dsn, "sqlite://"), opts)
	case strings.HasPrefix(dsn, "file:"):
		return openSQLite(ctx, dsn, opts)
	default:
		return nil, fmt.Errorf("unsupported database url scheme in %q", redact(dsn))
	}
}

func openPostgres(ctx context.Context, dsn string, opts Options) (*repo.Store, error) {
	pool, err := NewPool(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if opts.AutoMigrate {
		if err := migratePostgres(ctx, dsn); err != nil {
			pool.Close()
			return nil, err
		}
	}

	return &repo.Store{
		Users:    postgres.NewUsersRepo(pool, opts.Metrics),
		Contacts: postgres.NewContactsRepo(pool, opts.Metrics),
		Ping:     pool.Ping,
		Close:    pool.Close,
	}, nil
}

// goose talks database/sql, so migrations get their own short-lived handle
func migratePostgres(ctx context.Context, dsn string) error {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open postgres for migrations: %w", err)
	}
	defer sqlDB.Close()

	return Migrate(ctx, sqlDB, DialectPostgres)
}

func openSQLite(ctx context.Context, path string, opts Options) (*repo.Store, error) {
	sqlDB, err := OpenSQLite(ctx, path)
	if err != nil {
		return nil, err
	}

	if opts.AutoMigrate {
		if err := Migrate(ctx, sqlDB, DialectSQLite); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}

	return &repo.Store{
		Users:    sqlite.NewUsersRepo(sqlDB, opts.Metrics),
		Contacts: sqlite.NewContactsRepo(sqlDB, opts.Metrics),
		Ping:     sqlDB.PingContext,
		Close:    func() { _ = sqlDB.Close() },
	}, nil
}

// redact drops userinfo so credentials never reach logs or errors.
func redact(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		rest = "***@" + rest[at+1:]
	}
	return scheme + "://" + rest
}
