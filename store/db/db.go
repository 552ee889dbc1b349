package db

import (
	"github.com/pkg/errors"

	"github.com/hrygo/notescopilot/internal/profile"
	"github.com/hrygo/notescopilot/store"
	"github.com/hrygo/notescopilot/store/db/postgres"
	"github.com/hrygo/notescopilot/store/db/sqlite"
)

// NewDBDriver creates new db driver based on profile.
// Both drivers rank by full scan in the application, so search results are identical.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver %q: only 'postgres' and 'sqlite' are supported", profile.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
