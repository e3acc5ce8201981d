// Package store persists the expense history as a whole: every Load reads the
// full history and every Save overwrites it.
package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/theirongolddev/farelog/internal/model"
)

// Backend names accepted by Open.
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

var (
	// ErrUnknownBackend is returned by Open for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown storage backend")
	// ErrMissingColumn is returned when a history file lacks a canonical column.
	ErrMissingColumn = errors.New("expense history: missing column")
)

// Store is the durable copy of the expense history. Implementations assume a
// single writer; concurrent Saves are last-write-wins.
type Store interface {
	// Load returns the full history in insertion order. A store that has never
	// been written returns an empty history, not an error.
	Load() ([]model.Expense, error)
	// Save replaces the durable history with expenses.
	Save(expenses []model.Expense) error
	Close() error
}

// Open returns the store for backend at path.
func Open(backend, path string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendCSV:
		return NewCSV(path), nil
	case BackendSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("%w %q (want %s or %s)", ErrUnknownBackend, backend, BackendCSV, BackendSQLite)
	}
}
