// Package kvstore implements string-keyed persistence backends for the
// profile store: in-memory, a JSON file, and SQLite.
package kvstore

import (
	"context"
	"fmt"
)

// Store is a string-keyed get/set/delete mapping
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Backend names accepted by Open
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Open returns the backend named by driver. path is ignored for memory.
// The returned close function releases backend resources.
func Open(ctx context.Context, driver, path string) (Store, func() error, error) {
	noop := func() error { return nil }

	switch driver {
	case DriverMemory:
		return NewMemory(), noop, nil
	case "", DriverFile:
		f, err := NewFile(path)
		if err != nil {
			return nil, nil, err
		}
		return f, noop, nil
	case DriverSQLite:
		s, err := OpenSQLite(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
