// Package fare loads the static route fare table and answers lookups against it.
package fare

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Column names the fare file must carry, matched exactly.
const (
	ColumnSource      = "Source"
	ColumnDestination = "Destination"
	ColumnPrice       = "Price"
)

// utf8BOM is prepended to CSV files saved by spreadsheet applications.
const utf8BOM = "\ufeff"

// ErrMissingColumn is returned when the fare file lacks a required column.
var ErrMissingColumn = errors.New("fare table: missing column")

// Entry is one route and its price.
type Entry struct {
	Source      string          `json:"source"`
	Destination string          `json:"destination"`
	Price       decimal.Decimal `json:"price"`
}

// Table is an immutable fare lookup built once at startup.
type Table struct {
	entries      []Entry
	index        map[routeKey]int
	sources      []string
	destinations []string
}

type routeKey struct {
	source      string
	destination string
}

// New builds a table from entries. When a route appears more than once the
// first entry wins.
func New(entries []Entry) *Table {
	t := &Table{
		entries: make([]Entry, len(entries)),
		index:   make(map[routeKey]int, len(entries)),
	}
	copy(t.entries, entries)

	seenSrc := make(map[string]struct{})
	seenDst := make(map[string]struct{})
	for i, e := range t.entries {
		k := routeKey{e.Source, e.Destination}
		if _, ok := t.index[k]; !ok {
			t.index[k] = i
		}
		if _, ok := seenSrc[e.Source]; !ok {
			seenSrc[e.Source] = struct{}{}
			t.sources = append(t.sources, e.Source)
		}
		if _, ok := seenDst[e.Destination]; !ok {
			seenDst[e.Destination] = struct{}{}
			t.destinations = append(t.destinations, e.Destination)
		}
	}
	return t
}

// Supported reports whether path has an extension Load can read.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".csv":
		return true
	}
	return false
}

// Load reads a fare table from an .xlsx (first sheet) or .csv file.
func Load(path string) (*Table, error) {
	var (
		rows [][]string
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(path)
	case ".csv":
		rows, err = readCSV(path)
	default:
		return nil, fmt.Errorf("fare table %s: unsupported format (want .xlsx or .csv)", path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading fare table %s: %w", path, err)
	}

	entries, err := parseRows(rows)
	if err != nil {
		return nil, fmt.Errorf("parsing fare table %s: %w", path, err)
	}
	return New(entries), nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	// Raw values, so a number format on the Price column never alters the fare.
	return f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path) //nolint:gosec // fare path is configured by the local user
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return ParseCSV(f)
}

// ParseCSV reads raw CSV rows, tolerating ragged trailing cells.
func ParseCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	return cr.ReadAll()
}

func parseRows(rows [][]string) ([]Entry, error) {
	if len(rows) == 0 {
		return nil, errors.New("file is empty")
	}

	header := rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := col[h]; !dup {
			col[h] = i
		}
	}
	for _, name := range []string{ColumnSource, ColumnDestination, ColumnPrice} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, name)
		}
	}

	cell := func(row []string, name string) string {
		i := col[name]
		if i < len(row) {
			return row[i]
		}
		return ""
	}

	entries := make([]Entry, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		line := n + 2

		price, err := ParsePrice(cell(row, ColumnPrice))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		entries = append(entries, Entry{
			Source:      cell(row, ColumnSource),
			Destination: cell(row, ColumnDestination),
			Price:       price,
		})
	}
	return entries, nil
}

// ParsePrice parses a price cell such as "12.5" or "$1,250.00", rounded to cents.
func ParsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Zero, errors.New("empty price")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q", s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative price %q", s)
	}
	return d.Round(2), nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Lookup returns the price for an exact source/destination match.
func (t *Table) Lookup(source, destination string) (decimal.Decimal, bool) {
	i, ok := t.index[routeKey{source, destination}]
	if !ok {
		return decimal.Zero, false
	}
	return t.entries[i].Price, true
}

// Entries returns a copy of every row in file order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Sources returns distinct source stations in first-seen order.
func (t *Table) Sources() []string {
	return append([]string(nil), t.sources...)
}

// Destinations returns distinct destination stations in first-seen order.
func (t *Table) Destinations() []string {
	return append([]string(nil), t.destinations...)
}

// Len returns the number of rows in the table.
func (t *Table) Len() int {
	return len(t.entries)
}
