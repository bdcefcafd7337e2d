package excel

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"qmrisk/domain/core"

	"github.com/xuri/excelize/v2"
)

// SampleReader reads numeric sample columns from monitoring workbooks,
// typically concentration series destined for empirical distributions.
// Both .xlsx and .csv files are handled; the extension decides.
type SampleReader struct{}

// NewSampleReader creates a sample reader
func NewSampleReader() *SampleReader {
	return &SampleReader{}
}

// ReadSamples returns the values of a named column, skipping the header row
// and blank cells. Non-numeric cells fail loudly with their row number.
func (r *SampleReader) ReadSamples(ctx context.Context, path string, column string) ([]float64, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, core.NewConfigurationErrorf("sample file", "%s: %v", path, err)
	}

	var rows [][]string
	var err error
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		rows, err = readCSVRows(path)
	} else {
		rows, err = readSheetRows(path)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, core.NewConfigurationErrorf("sample file", "%s needs a header row and at least one data row", path)
	}

	col := -1
	for j, header := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(header), strings.TrimSpace(column)) {
			col = j
			break
		}
	}
	if col < 0 {
		return nil, core.NewConfigurationErrorf("sample file", "%s has no column %q", path, column)
	}

	values := make([]float64, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if col >= len(row) {
			continue
		}
		cell := strings.TrimSpace(row[col])
		if cell == "" {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, core.NewConfigurationErrorf("sample file",
				"%s row %d: %q is not a number", path, i+1, cell)
		}
		values = append(values, v)
	}

	if len(values) == 0 {
		return nil, core.NewConfigurationErrorf("sample file", "%s column %q has no values", path, column)
	}
	return values, nil
}

func readSheetRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, core.NewConfigurationErrorf("sample file", "%s: %v", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, core.NewConfigurationErrorf("sample file", "%s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, core.NewConfigurationErrorf("sample file", "%s sheet %s: %v", path, sheets[0], err)
	}
	return rows, nil
}

func readCSVRows(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, core.NewConfigurationErrorf("sample file", "%s: %v", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, core.NewConfigurationErrorf("sample file", "%s: %v", path, err)
	}
	return rows, nil
}
