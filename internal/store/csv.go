package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/farelog/internal/model"
)

// CSV keeps the history in a single comma-separated file with the columns
// Employee, Source, Destination, Fare, Date, Month.
type CSV struct {
	path string
}

// NewCSV returns a CSV store at path. The file is created on first Save.
func NewCSV(path string) *CSV {
	return &CSV{path: path}
}

// Load reads the whole file. A missing or empty file is an empty history.
func (c *CSV) Load() ([]model.Expense, error) {
	f, err := os.Open(c.path) //nolint:gosec // history path is configured by the local user
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Expense{}, nil
		}
		return nil, fmt.Errorf("opening history: %w", err)
	}
	defer func() { _ = f.Close() }()

	expenses, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("reading history %s: %w", c.path, err)
	}
	return expenses, nil
}

// Save overwrites the file with expenses. The rows are written to a temporary
// file in the same directory which then replaces the old file, so readers
// never see a half-written history.
func (c *CSV) Save(expenses []model.Expense) error {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating history dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp history: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if err := WriteCSV(tmp, expenses); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp history: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil { //nolint:gosec // history is a plain user document
		return fmt.Errorf("chmod history: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		return fmt.Errorf("replacing history: %w", err)
	}
	return nil
}

// Close is a no-op; the file is only open during Load and Save.
func (c *CSV) Close() error {
	return nil
}

// WriteCSV serializes expenses with the canonical header.
func WriteCSV(w io.Writer, expenses []model.Expense) error {
	cw := csv.NewWriter(w)

	records := make([][]string, 0, len(expenses)+1)
	records = append(records, model.Columns)
	for _, e := range expenses {
		records = append(records, []string{
			e.Employee,
			e.Source,
			e.Destination,
			e.Fare.StringFixed(2),
			e.DateString(),
			e.Month,
		})
	}

	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write CSV records: %w", err)
	}
	return nil
}

// ReadCSV parses a history written by WriteCSV. Columns are located by header
// name, so extra columns are ignored.
func ReadCSV(r io.Reader) ([]model.Expense, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []model.Expense{}, nil
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}
	for _, name := range model.Columns {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, name)
		}
	}

	expenses := make([]model.Expense, 0, len(records)-1)
	for n, rec := range records[1:] {
		e, err := parseRecord(rec, col)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n+2, err)
		}
		expenses = append(expenses, e)
	}
	return expenses, nil
}

func parseRecord(rec []string, col map[string]int) (model.Expense, error) {
	get := func(name string) string {
		if i := col[name]; i < len(rec) {
			return rec[i]
		}
		return ""
	}

	fare, err := decimal.NewFromString(get("Fare"))
	if err != nil {
		return model.Expense{}, fmt.Errorf("invalid fare %q", get("Fare"))
	}
	date, err := model.ParseDate(get("Date"))
	if err != nil {
		return model.Expense{}, fmt.Errorf("invalid date %q", get("Date"))
	}

	month := get("Month")
	if month == "" {
		month = model.MonthName(date)
	}

	return model.Expense{
		Employee:    get("Employee"),
		Source:      get("Source"),
		Destination: get("Destination"),
		Fare:        fare,
		Date:        date,
		Month:       month,
	}, nil
}
