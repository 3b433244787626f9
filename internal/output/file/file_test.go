package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/crimson-sun/cropcast/internal/model"
)

func testTable() *model.Table {
	return &model.Table{
		Header: []string{"Crop", "Area", model.DefaultPredictionColumn},
		Rows: [][]string{
			{"Rice", "150.5", "308.95"},
			{"Wheat", "10", "27"},
		},
	}
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"out.csv", FormatCSV},
		{"out.xlsx", FormatXLSX},
		{"OUT.XLSX", FormatXLSX},
		{"out", FormatCSV},
		{"out.txt", FormatCSV},
	}
	for _, tt := range tests {
		if got := FormatFor(tt.path); got != tt.want {
			t.Errorf("FormatFor(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"csv": FormatCSV, "XLSX": FormatXLSX, " xlsx ": FormatXLSX} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseFormat("parquet"); err == nil {
		t.Error("ParseFormat(parquet) should fail")
	}
}

func TestWithFormatOverridesExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pred.out")
	o, err := New(path, WithFormat(FormatXLSX))
	if err != nil {
		t.Fatal(err)
	}
	if o.Format() != FormatXLSX {
		t.Fatalf("Format() = %v, want xlsx", o.Format())
	}
	if err := o.Write(context.Background(), testTable()); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("output is not a workbook: %v", err)
	}
	defer f.Close()
	if v, _ := f.GetCellValue("Predictions", "A2"); v != "Rice" {
		t.Errorf("A2 = %q, want Rice", v)
	}
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pred.csv")
	o, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := o.Write(context.Background(), testTable()); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if err := o.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "Crop,Area,Predicted_Production (Tonnes)\nRice,150.5,308.95\nWheat,10,27\n"
	if string(data) != want {
		t.Errorf("got:\n%s\nwant:\n%s", data, want)
	}
}

func TestWriteReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pred.csv")
	if err := os.WriteFile(path, []byte("stale content that is longer than the table\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	o, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	small := &model.Table{Header: []string{"a"}, Rows: [][]string{{"1"}}}
	if err := o.Write(context.Background(), small); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "a\n1\n" {
		t.Errorf("file = %q, want %q", data, "a\n1\n")
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pred.xlsx")
	o, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if o.Format() != FormatXLSX {
		t.Fatalf("Format() = %v, want xlsx", o.Format())
	}
	if err := o.Write(context.Background(), testTable()); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows("Predictions")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[1][0] != "Rice" {
		t.Errorf("rows = %v", rows)
	}
}

func TestNewMissingDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "pred.csv"))
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestWriteCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pred.csv")
	o, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := o.Write(ctx, testTable()); err == nil {
		t.Fatal("expected error on cancelled context")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file should not exist, stat err = %v", err)
	}
}
