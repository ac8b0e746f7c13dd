package storage

import (
	"errors"
	"fmt"
)

const (
	MemoryStoreKind = "memory"
	SQLiteStoreKind = "sqlite"
)

// ErrBackendUnavailable reports a store kind that this binary was built
// without.
var ErrBackendUnavailable = errors.New("store backend unavailable")

// DefaultStoreKind is the backend used when none is configured.
func DefaultStoreKind() string {
	return MemoryStoreKind
}

func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", MemoryStoreKind:
		return NewMemoryStore(), nil
	case SQLiteStoreKind:
		return newSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
