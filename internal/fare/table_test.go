package fare

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func writeCSV(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fare_data.csv")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCSV_Lookup(t *testing.T) {
	path := writeCSV(t,
		"Source,Destination,Price",
		"StationA,StationB,12.50",
		"StationB,StationA,12.5",
		"StationA,StationC,7",
	)

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if table.Len() != 3 {
		t.Fatalf("Len = %d, want 3", table.Len())
	}

	for _, e := range table.Entries() {
		got, ok := table.Lookup(e.Source, e.Destination)
		if !ok {
			t.Fatalf("Lookup(%s, %s) not found", e.Source, e.Destination)
		}
		if !got.Equal(e.Price) {
			t.Errorf("Lookup(%s, %s) = %s, want %s", e.Source, e.Destination, got, e.Price)
		}
	}

	price, _ := table.Lookup("StationA", "StationB")
	if !price.Equal(decimal.RequireFromString("12.50")) {
		t.Errorf("StationA->StationB = %s, want 12.50", price)
	}
}

func TestLookup_ExactMatchOnly(t *testing.T) {
	table := New([]Entry{
		{Source: "StationA", Destination: "StationB", Price: decimal.NewFromInt(10)},
	})

	misses := [][2]string{
		{"stationa", "StationB"},
		{"StationA ", "StationB"},
		{"StationB", "StationA"},
		{"", ""},
	}
	for _, m := range misses {
		if _, ok := table.Lookup(m[0], m[1]); ok {
			t.Errorf("Lookup(%q, %q) found, want not-found", m[0], m[1])
		}
	}
}

func TestNew_FirstDuplicateWins(t *testing.T) {
	table := New([]Entry{
		{Source: "A", Destination: "B", Price: decimal.NewFromInt(1)},
		{Source: "A", Destination: "B", Price: decimal.NewFromInt(2)},
	})

	got, ok := table.Lookup("A", "B")
	if !ok || !got.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("Lookup(A, B) = %s, %v; want 1, true", got, ok)
	}
}

func TestStations_FirstSeenOrder(t *testing.T) {
	table := New([]Entry{
		{Source: "North", Destination: "South"},
		{Source: "East", Destination: "South"},
		{Source: "North", Destination: "West"},
	})

	src := table.Sources()
	if strings.Join(src, ",") != "North,East" {
		t.Errorf("Sources = %v, want [North East]", src)
	}
	dst := table.Destinations()
	if strings.Join(dst, ",") != "South,West" {
		t.Errorf("Destinations = %v, want [South West]", dst)
	}
}

func TestLoad_MissingColumn(t *testing.T) {
	path := writeCSV(t,
		"From,Destination,Price",
		"A,B,1",
	)

	_, err := Load(path)
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("Load error = %v, want ErrMissingColumn", err)
	}
}

func TestLoad_BadPrice(t *testing.T) {
	path := writeCSV(t,
		"Source,Destination,Price",
		"A,B,cheap",
	)

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "row 2") {
		t.Fatalf("Load error = %v, want row 2 price error", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.xlsx")); err == nil {
		t.Fatal("expected error for missing fare file")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "fares.txt")); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestLoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fare_data.xlsx")

	f := excelize.NewFile()
	if err := f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Source", "Destination", "Price"}); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow("Sheet1", "A2", &[]interface{}{"StationA", "StationB", 12.5}); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow("Sheet1", "A4", &[]interface{}{"StationC", "StationA", 3}); err != nil {
		t.Fatal(err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("Len = %d, want 2 (blank row skipped)", table.Len())
	}

	price, ok := table.Lookup("StationA", "StationB")
	if !ok || !price.Equal(decimal.RequireFromString("12.50")) {
		t.Errorf("Lookup = %s, %v; want 12.50, true", price, ok)
	}
}

func TestLoadXLSX_IgnoresNumberFormat(t *testing.T) {
	euro := "[$€-2] #,##0.00"
	styles := map[string]*excelize.Style{
		"integer": {NumFmt: 1},
		"euro":    {CustomNumFmt: &euro},
	}

	for name, style := range styles {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "fare_data.xlsx")

			f := excelize.NewFile()
			if err := f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Source", "Destination", "Price"}); err != nil {
				t.Fatal(err)
			}
			if err := f.SetSheetRow("Sheet1", "A2", &[]interface{}{"StationA", "StationB", 12.5}); err != nil {
				t.Fatal(err)
			}
			id, err := f.NewStyle(style)
			if err != nil {
				t.Fatal(err)
			}
			if err := f.SetCellStyle("Sheet1", "C2", "C2", id); err != nil {
				t.Fatal(err)
			}
			if err := f.SaveAs(path); err != nil {
				t.Fatal(err)
			}
			_ = f.Close()

			table, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			price, ok := table.Lookup("StationA", "StationB")
			if !ok || !price.Equal(decimal.RequireFromString("12.50")) {
				t.Errorf("Lookup = %s, %v; want 12.50, true", price, ok)
			}
		})
	}
}

func TestLoadCSV_ByteOrderMark(t *testing.T) {
	path := writeCSV(t,
		"\ufeffSource,Destination,Price",
		"StationA,StationB,12.50",
	)

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := table.Lookup("StationA", "StationB"); !ok {
		t.Error("Lookup(StationA, StationB) not found")
	}
}

func TestParsePrice(t *testing.T) {
	cases := map[string]string{
		"12.5":     "12.5",
		" $1,250 ": "1250",
		"3.456":    "3.46",
		"0":        "0",
	}
	for in, want := range cases {
		got, err := ParsePrice(in)
		if err != nil {
			t.Fatalf("ParsePrice(%q): %v", in, err)
		}
		if !got.Equal(decimal.RequireFromString(want)) {
			t.Errorf("ParsePrice(%q) = %s, want %s", in, got, want)
		}
	}

	for _, bad := range []string{"", "-1", "abc"} {
		if _, err := ParsePrice(bad); err == nil {
			t.Errorf("ParsePrice(%q) expected error", bad)
		}
	}
}

func TestSupported(t *testing.T) {
	for path, want := range map[string]bool{
		"fare_data.xlsx": true,
		"FARES.CSV":      true,
		"fares.xlsm":     true,
		"fares.json":     false,
		"fares":          false,
	} {
		if got := Supported(path); got != want {
			t.Errorf("Supported(%q) = %v, want %v", path, got, want)
		}
	}
}
