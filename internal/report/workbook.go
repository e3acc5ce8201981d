// Package report renders the expense history as an xlsx workbook with one
// sheet per employee.
package report

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/theirongolddev/farelog/internal/model"
	"github.com/theirongolddev/farelog/internal/pipeline"
)

const (
	// FileName is the suggested download name for the workbook.
	FileName = "total_expense_report.xlsx"
	// ContentType is the MIME type of the rendered workbook.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	defaultSheet  = "Sheet1"
	maxSheetName  = 31
	maxColWidth   = 255
	totalLabel    = "Total:"
	grandLabel    = "Grand Total:"
	fareColumn    = 4 // D
	labelColumn   = 3 // C
	titleFontSize = 20
)

// Options controls workbook formatting.
type Options struct {
	CurrencySymbol string
}

type styles struct {
	title, month, header, fare, total int
}

type sheetWriter struct {
	f      *excelize.File
	name   string
	row    int
	widths map[int]int
}

// Render builds the workbook in memory. Each employee gets a sheet with a
// title row, then per month a label row, a header row, one row per record
// and a totals row, and finally a grand-total row. An empty history yields a
// workbook holding only the blank placeholder sheet.
func Render(expenses []model.Expense, opts Options) ([]byte, error) {
	symbol := opts.CurrencySymbol
	if symbol == "" {
		symbol = model.DefaultCurrencySymbol
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	used := make(map[string]bool)
	for i, summary := range pipeline.AggregateEmployees(expenses) {
		name := uniqueSheetName(SanitizeSheetName(summary.Employee), used)

		if i == 0 {
			// Reuse the placeholder so the workbook never holds a blank sheet
			// alongside employee sheets.
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return nil, fmt.Errorf("naming sheet %q: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("creating sheet %q: %w", name, err)
		}

		w := &sheetWriter{f: f, name: name, widths: make(map[int]int)}
		if err := w.writeEmployee(summary, st, symbol); err != nil {
			return nil, fmt.Errorf("writing sheet %q: %w", name, err)
		}
		if err := w.fitColumns(); err != nil {
			return nil, fmt.Errorf("sizing sheet %q: %w", name, err)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encoding workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func newStyles(f *excelize.File) (styles, error) {
	var st styles
	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&st.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: titleFontSize}}},
		{&st.month, &excelize.Style{Font: &excelize.Font{Bold: true}}},
		{&st.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		}},
		{&st.fare, &excelize.Style{NumFmt: 2}}, // 0.00
		{&st.total, &excelize.Style{Font: &excelize.Font{Bold: true}}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return st, fmt.Errorf("creating style: %w", err)
		}
		*d.dst = id
	}
	return st, nil
}

func (w *sheetWriter) writeEmployee(s pipeline.EmployeeSummary, st styles, symbol string) error {
	w.row = 1
	if err := w.set(1, s.Employee, st.title, false); err != nil {
		return err
	}

	for _, mg := range s.Months {
		w.row += 2
		if err := w.set(1, mg.Month, st.month, true); err != nil {
			return err
		}

		w.row++
		for i, col := range model.Columns {
			if err := w.set(i+1, col, st.header, true); err != nil {
				return err
			}
		}

		for _, e := range mg.Expenses {
			w.row++
			cells := []string{e.Employee, e.Source, e.Destination, "", e.DateString(), e.Month}
			for i, v := range cells {
				if i+1 == fareColumn {
					continue
				}
				if err := w.set(i+1, v, 0, true); err != nil {
					return err
				}
			}
			if err := w.setFare(e, st.fare); err != nil {
				return err
			}
		}

		w.row++
		if err := w.setTotal(totalLabel, model.FormatMoney(mg.Total, symbol), st.total); err != nil {
			return err
		}
	}

	w.row += 2
	return w.setTotal(grandLabel, model.FormatMoney(s.Total, symbol), st.total)
}

func (w *sheetWriter) set(col int, value string, style int, measure bool) error {
	cell, err := excelize.CoordinatesToCellName(col, w.row)
	if err != nil {
		return err
	}
	if err := w.f.SetCellValue(w.name, cell, value); err != nil {
		return err
	}
	if style != 0 {
		if err := w.f.SetCellStyle(w.name, cell, cell, style); err != nil {
			return err
		}
	}
	if measure {
		w.measure(col, value)
	}
	return nil
}

func (w *sheetWriter) setFare(e model.Expense, style int) error {
	cell, err := excelize.CoordinatesToCellName(fareColumn, w.row)
	if err != nil {
		return err
	}
	if err := w.f.SetCellValue(w.name, cell, e.Fare.InexactFloat64()); err != nil {
		return err
	}
	if err := w.f.SetCellStyle(w.name, cell, cell, style); err != nil {
		return err
	}
	w.measure(fareColumn, e.Fare.StringFixed(2))
	return nil
}

func (w *sheetWriter) setTotal(label, amount string, style int) error {
	if err := w.set(labelColumn, label, style, true); err != nil {
		return err
	}
	return w.set(fareColumn, amount, style, true)
}

func (w *sheetWriter) measure(col int, value string) {
	if n := utf8.RuneCountInString(value); n > w.widths[col] {
		w.widths[col] = n
	}
}

// fitColumns sets each used column to its longest value plus two. The title
// row is excluded so a long employee name does not widen column A.
func (w *sheetWriter) fitColumns() error {
	for col, n := range w.widths {
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return err
		}
		width := float64(min(n+2, maxColWidth))
		if err := w.f.SetColWidth(w.name, name, name, width); err != nil {
			return err
		}
	}
	return nil
}

var sheetNameReplacer = strings.NewReplacer(
	"[", "_", "]", "_", ":", "_", "*", "_", "?", "_", "/", "_", `\`, "_",
)

// SanitizeSheetName maps an employee name onto the worksheet naming rules:
// forbidden characters become "_", leading and trailing apostrophes are
// dropped and the result is cut to 31 characters.
func SanitizeSheetName(name string) string {
	name = sheetNameReplacer.Replace(strings.TrimSpace(name))
	name = strings.Trim(name, "'")
	if utf8.RuneCountInString(name) > maxSheetName {
		name = string([]rune(name)[:maxSheetName])
		name = strings.TrimRight(name, "'")
	}
	if name == "" {
		name = "Employee"
	}
	// Excel reserves "History" and repairs any workbook that uses it.
	if strings.EqualFold(name, "history") {
		name += "_"
	}
	return name
}

// uniqueSheetName suffixes name until it differs, ignoring case, from every
// name in used, then records it.
func uniqueSheetName(name string, used map[string]bool) string {
	candidate := name
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		base := []rune(name)
		if keep := maxSheetName - utf8.RuneCountInString(suffix); len(base) > keep {
			base = base[:keep]
		}
		candidate = string(base) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}
