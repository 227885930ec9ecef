// Package backend selects and constructs the persistence backend from
// configuration. The jsonfile backend is the default; sqlite suits
// installations that want a single database file instead of a directory
// of JSON collections.
package backend

import (
	"fmt"

	"finbook/internal/store"
	"finbook/internal/store/jsonfile"
	"finbook/internal/store/sqlite"
)

type Type string

const (
	JSONFile Type = "jsonfile"
	SQLite   Type = "sqlite"
)

// Config holds everything needed to construct any backend type.
type Config struct {
	Type Type

	// jsonfile specific
	DataDir string

	// sqlite specific
	SQLiteDBPath string
}

// Open constructs the configured store. Callers own Close.
func Open(cfg Config) (store.Store, error) {
	switch cfg.Type {
	case JSONFile, "":
		s, err := jsonfile.Open(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("open jsonfile backend: %w", err)
		}
		return s, nil
	case SQLite:
		s, err := sqlite.Open(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite backend: %w", err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Type)
}
