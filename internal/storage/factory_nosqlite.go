//go:build !sqlite

package storage

import "fmt"

// newSQLiteStore stands in for the sqlite backend in builds without the
// sqlite tag.
func newSQLiteStore(dbPath string) (Store, error) {
	return nil, fmt.Errorf("%w: %s store for %q needs a build with -tags sqlite", ErrBackendUnavailable, SQLiteStoreKind, dbPath)
}
