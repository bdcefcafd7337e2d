package ports

import "context"

// SampleReader defines the interface for extracting numeric sample columns
// from external workbooks, typically monitoring data destined for empirical
// distributions
type SampleReader interface {
	// ReadSamples returns the values of a named column from the first sheet
	// of the workbook at path, skipping the header row
	ReadSamples(ctx context.Context, path string, column string) ([]float64, error)
}
