package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/farelog/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// SQLite keeps the history in a single table. It honours the same
// whole-history contract as CSV: Save replaces every row.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the history database at dbPath.
func OpenSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)")
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Load returns every row in insertion order.
func (s *SQLite) Load() ([]model.Expense, error) {
	rows, err := s.db.Query(`SELECT employee, source, destination, fare, date, month
		FROM expenses ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	expenses := []model.Expense{}
	for rows.Next() {
		var e model.Expense
		var fareStr, dateStr string
		if err := rows.Scan(&e.Employee, &e.Source, &e.Destination, &fareStr, &dateStr, &e.Month); err != nil {
			return nil, err
		}
		if e.Fare, err = decimal.NewFromString(fareStr); err != nil {
			return nil, fmt.Errorf("invalid fare %q: %w", fareStr, err)
		}
		if e.Date, err = model.ParseDate(dateStr); err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", dateStr, err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// Save replaces all rows with expenses inside one transaction.
func (s *SQLite) Save(expenses []model.Expense) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM expenses"); err != nil {
		return err
	}
	// Reset AUTOINCREMENT so ids keep mirroring history positions.
	if _, err := tx.Exec("DELETE FROM sqlite_sequence WHERE name = 'expenses'"); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO expenses
		(employee, source, destination, fare, date, month)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range expenses {
		_, err = stmt.Exec(e.Employee, e.Source, e.Destination, e.Fare.StringFixed(2), e.DateString(), e.Month)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
