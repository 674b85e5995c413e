// Package db provides the database driver factory.
package db

import (
	"github.com/pkg/errors"

	"github.com/reclaimhq/reclaim/internal/profile"
	"github.com/reclaimhq/reclaim/store"
	"github.com/reclaimhq/reclaim/store/db/postgres"
	"github.com/reclaimhq/reclaim/store/db/sqlite"
)

// NewDBDriver creates new db driver based on profile.
//
// PostgreSQL: full support, including the pgvector-backed embedding cache.
// SQLite: full matching/notification support; the embedding cache is
// unavailable (the semantic scorer falls back to per-pass memoization).
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.New("unknown db driver: only 'postgres' and 'sqlite' are supported")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
