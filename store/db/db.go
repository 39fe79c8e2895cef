// Package db selects the concrete database driver for a profile.
package db

import (
	"github.com/pkg/errors"

	"github.com/openclerk/contractsense/internal/profile"
	"github.com/openclerk/contractsense/store"
	"github.com/openclerk/contractsense/store/db/postgres"
	"github.com/openclerk/contractsense/store/db/sqlite"
)

// NewDBDriver creates a driver based on the profile's database type.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	switch profile.Driver {
	case "sqlite":
		return sqlite.NewDB(profile)
	case "postgres":
		return postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver %q", profile.Driver)
	}
}
