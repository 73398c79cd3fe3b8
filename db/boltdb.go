package db

import (
	"fmt"
	"path"

	"github.com/boltdb/bolt"
)

var ErrKeyNotFound = fmt.Errorf("key not found")

// Open opens the session database under confDir and returns a long-lived
// handle. The handle is passed to the components that need it; failure to
// open is a startup error.
func Open(confDir string) (*bolt.DB, error) {
	db, err := bolt.Open(path.Join(confDir, "bolt.db"), 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}
	return db, nil
}
