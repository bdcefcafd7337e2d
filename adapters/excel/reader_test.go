package excel

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"qmrisk/domain/core"

	"github.com/xuri/excelize/v2"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "samples.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "samples.xlsx")
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue("Sheet1", cell, v); err != nil {
				t.Fatalf("set cell %s: %v", cell, err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save fixture: %v", err)
	}
	return path
}

func TestReadSamples_CSV(t *testing.T) {
	path := writeCSV(t, "site,concentration\nA,12.5\nB,3.75\nC,0.8\n")

	got, err := NewSampleReader().ReadSamples(context.Background(), path, "concentration")
	if err != nil {
		t.Fatalf("ReadSamples: %v", err)
	}

	want := []float64{12.5, 3.75, 0.8}
	if len(got) != len(want) {
		t.Fatalf("got %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value %d: got %g, want %g", i, got[i], want[i])
		}
	}
}

func TestReadSamples_Workbook(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"date", "concentration"},
		{"2026-01-05", 120.0},
		{"2026-01-12", 88.5},
		{"2026-01-19", 430.25},
	})

	got, err := NewSampleReader().ReadSamples(context.Background(), path, "concentration")
	if err != nil {
		t.Fatalf("ReadSamples: %v", err)
	}

	want := []float64{120, 88.5, 430.25}
	if len(got) != len(want) {
		t.Fatalf("got %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value %d: got %g, want %g", i, got[i], want[i])
		}
	}
}

func TestReadSamples_HeaderMatchIgnoresCaseAndSpace(t *testing.T) {
	path := writeCSV(t, "Site, Concentration \nA,5\n")

	got, err := NewSampleReader().ReadSamples(context.Background(), path, "concentration")
	if err != nil {
		t.Fatalf("ReadSamples: %v", err)
	}
	if len(got) != 1 || got[0] != 5 {
		t.Fatalf("got %v, want [5]", got)
	}
}

func TestReadSamples_SkipsBlankCells(t *testing.T) {
	path := writeCSV(t, "site,concentration\nA,5\nB,\nC,7\n")

	got, err := NewSampleReader().ReadSamples(context.Background(), path, "concentration")
	if err != nil {
		t.Fatalf("ReadSamples: %v", err)
	}
	if len(got) != 2 || got[0] != 5 || got[1] != 7 {
		t.Fatalf("got %v, want [5 7]", got)
	}
}

func TestReadSamples_MissingColumn(t *testing.T) {
	path := writeCSV(t, "site,concentration\nA,5\n")

	_, err := NewSampleReader().ReadSamples(context.Background(), path, "turbidity")
	if err == nil {
		t.Fatal("expected error for missing column")
	}
	if !core.IsConfigurationError(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), `"turbidity"`) {
		t.Errorf("error should name the column: %v", err)
	}
}

func TestReadSamples_NonNumericCellCitesRow(t *testing.T) {
	path := writeCSV(t, "site,concentration\nA,5\nB,n/a\n")

	_, err := NewSampleReader().ReadSamples(context.Background(), path, "concentration")
	if err == nil {
		t.Fatal("expected error for non-numeric cell")
	}
	if !strings.Contains(err.Error(), "row 3") {
		t.Errorf("error should cite the offending row: %v", err)
	}
}

func TestReadSamples_HeaderOnly(t *testing.T) {
	path := writeCSV(t, "site,concentration\n")

	_, err := NewSampleReader().ReadSamples(context.Background(), path, "concentration")
	if err == nil {
		t.Fatal("expected error for header-only file")
	}
	if !core.IsConfigurationError(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestReadSamples_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.csv")

	_, err := NewSampleReader().ReadSamples(context.Background(), path, "concentration")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !core.IsConfigurationError(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
}
