// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package userdb provides access to the user-facing PostgreSQL database
// holding the per-subject rows the erasure pipeline removes.
package userdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgx-contrib/pgxotel"

	"github.com/cardinalhq/scrubber/internal/dbopen"
	userdbmigrations "github.com/cardinalhq/scrubber/userdb/migrations"
)

// ConnectOption adjusts how ConnectToUserDB establishes the connection.
type ConnectOption func(*connectOptions)

type connectOptions struct {
	skipMigrationCheck bool
}

// SkipMigrationCheck disables the migration version check. The migrate
// command uses this to connect to a database it is about to bring up to
// date.
func SkipMigrationCheck() ConnectOption {
	return func(o *connectOptions) {
		o.skipMigrationCheck = true
	}
}

// ConnectToUserDB opens a pool against the user database configured by the
// USERDB_* environment variables and verifies the schema is at the expected
// migration version.
func ConnectToUserDB(ctx context.Context, opts ...ConnectOption) (*pgxpool.Pool, error) {
	var options connectOptions
	for _, opt := range opts {
		opt(&options)
	}

	connectionString, err := dbopen.GetDatabaseURLFromEnv("USERDB")
	if err != nil {
		return nil, errors.Join(dbopen.ErrDatabaseNotConfigured, fmt.Errorf("failed to get USERDB connection string: %w", err))
	}

	pool, err := newConnectionPool(ctx, connectionString)
	if err != nil {
		return nil, err
	}

	if !options.skipMigrationCheck {
		if err := userdbmigrations.CheckExpectedVersion(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("USERDB migration version check failed: %w", err)
		}
	}

	return pool, nil
}

// UserDBStore connects to the user database and wraps the pool in a Store.
func UserDBStore(ctx context.Context) (*Store, error) {
	pool, err := ConnectToUserDB(ctx)
	if err != nil {
		return nil, err
	}
	return NewStore(pool), nil
}

func newConnectionPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}

	cfg.ConnConfig.Tracer = &pgxotel.QueryTracer{
		Name: "userdb",
	}

	return pgxpool.NewWithConfig(ctx, cfg)
}
