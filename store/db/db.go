package db

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hrygo/interestgraph/store"
	"github.com/hrygo/interestgraph/store/db/sqlite"
)

// Cache driver names.
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// NewCacheDriver creates the cache driver selected in the profile.
func NewCacheDriver(ctx context.Context, driver string, s *store.Store) (store.CacheDriver, error) {
	switch driver {
	case DriverJSON, "":
		return store.NewJSONCacheDriver(s), nil
	case DriverSQLite:
		d, err := sqlite.NewDB(ctx, s.Path(store.CacheDBFile))
		if err != nil {
			return nil, errors.Wrap(err, "failed to create cache driver")
		}
		return d, nil
	default:
		return nil, errors.Errorf("unknown cache driver %q: only 'json' and 'sqlite' are supported", driver)
	}
}
