package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/theirongolddev/farelog/internal/model"
)

func rec(employee, fare string, day int) model.Expense {
	return model.NewExpense(employee, "StationA", "StationB",
		decimal.RequireFromString(fare), time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC))
}

func open(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func cell(t *testing.T, f *excelize.File, sheet, ref string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, ref, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("GetCellValue(%s!%s): %v", sheet, ref, err)
	}
	return v
}

func TestRender_MonthTotals(t *testing.T) {
	data, err := Render([]model.Expense{rec("Alice", "15.50", 20), rec("Alice", "10.00", 1)}, Options{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	f := open(t, data)

	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != "Alice" {
		t.Fatalf("sheets = %v, want [Alice]", sheets)
	}

	checks := map[string]string{
		"A1": "Alice",
		"A3": "March",
		"A4": "Employee",
		"D4": "Fare",
		"E5": "2024-03-01", // date-sorted
		"D5": "10",
		"E6": "2024-03-20",
		"C7": "Total:",
		"D7": "$25.50",
		"C9": "Grand Total:",
		"D9": "$25.50",
	}
	for ref, want := range checks {
		if got := cell(t, f, "Alice", ref); got != want {
			t.Errorf("%s = %q, want %q", ref, got, want)
		}
	}

	width, err := f.GetColWidth("Alice", "E")
	if err != nil {
		t.Fatal(err)
	}
	if width != float64(len("2024-03-01")+2) {
		t.Errorf("column E width = %v, want %d", width, len("2024-03-01")+2)
	}
}

func TestRender_EmptyHistory(t *testing.T) {
	data, err := Render(nil, Options{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	f := open(t, data)

	sheets := f.GetSheetList()
	if len(sheets) != 1 || sheets[0] != defaultSheet {
		t.Fatalf("sheets = %v, want only the placeholder", sheets)
	}
	if v := cell(t, f, defaultSheet, "A1"); v != "" {
		t.Errorf("placeholder A1 = %q, want empty", v)
	}
}

func TestRender_OneSheetPerEmployee(t *testing.T) {
	in := []model.Expense{
		rec(model.NormalizeEmployee("bob"), "1", 1),
		rec("Carol", "2", 2),
		rec(model.NormalizeEmployee("BOB"), "3", 3),
	}
	data, err := Render(in, Options{CurrencySymbol: "€"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	f := open(t, data)

	sheets := f.GetSheetList()
	if strings.Join(sheets, ",") != "Bob,Carol" {
		t.Fatalf("sheets = %v, want [Bob Carol]", sheets)
	}
	if got := cell(t, f, "Bob", "D7"); got != "€4.00" {
		t.Errorf("Bob total = %q, want €4.00", got)
	}
}

func TestRender_ReservedSheetName(t *testing.T) {
	data, err := Render([]model.Expense{rec("History", "5", 1)}, Options{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	f := open(t, data)

	if got := strings.Join(f.GetSheetList(), ","); got != "History_" {
		t.Fatalf("sheets = %q, want History_", got)
	}
	if got := cell(t, f, "History_", "A1"); got != "History" {
		t.Errorf("title = %q, want employee name History", got)
	}
}

func TestSanitizeSheetName(t *testing.T) {
	cases := map[string]string{
		"Alice":                                "Alice",
		"a/b:c*d?e[f]g\\h":                     "a_b_c_d_e_f_g_h",
		"'quoted'":                             "quoted",
		"   ":                                  "Employee",
		"History":                              "History_",
		"HISTORY":                              "HISTORY_",
		"Abcdefghijklmnopqrstuvwxyzabcdefghij": "Abcdefghijklmnopqrstuvwxyzabcde",
	}
	for in, want := range cases {
		if got := SanitizeSheetName(in); got != want {
			t.Errorf("SanitizeSheetName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUniqueSheetName(t *testing.T) {
	used := map[string]bool{}
	if got := uniqueSheetName("A_b", used); got != "A_b" {
		t.Errorf("first = %q", got)
	}
	if got := uniqueSheetName("a_B", used); got != "a_B (2)" {
		t.Errorf("case-insensitive collision = %q, want %q", got, "a_B (2)")
	}

	long := strings.Repeat("x", maxSheetName)
	uniqueSheetName(long, used)
	got := uniqueSheetName(long, used)
	if len(got) != maxSheetName || !strings.HasSuffix(got, " (2)") {
		t.Errorf("long collision = %q", got)
	}
}
