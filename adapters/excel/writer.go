package excel

import (
	"fmt"

	"qmrisk/domain/risk"
	"qmrisk/internal/errors"

	"github.com/xuri/excelize/v2"
)

const (
	runSheet    = "Run"
	ladderSheet = "Risk Ladder"
	casesSheet  = "Case Counts"
)

// SummaryWriter exports run summaries as workbooks: one sheet of run
// parameters and headline statistics, one with the full percentile ladders,
// one with the simulated case counts.
type SummaryWriter struct{}

// NewSummaryWriter creates a summary writer
func NewSummaryWriter() *SummaryWriter {
	return &SummaryWriter{}
}

// WriteSummary writes one summary to path, overwriting any existing file
func (w *SummaryWriter) WriteSummary(path string, s *risk.Summary) error {
	if s == nil {
		return errors.InvalidInput("summary is required")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", runSheet); err != nil {
		return errors.Wrap(err, "rename run sheet")
	}
	if err := w.writeRunSheet(f, s); err != nil {
		return err
	}

	if _, err := f.NewSheet(ladderSheet); err != nil {
		return errors.Wrap(err, "create ladder sheet")
	}
	if err := w.writeLadderSheet(f, s); err != nil {
		return err
	}

	if _, err := f.NewSheet(casesSheet); err != nil {
		return errors.Wrap(err, "create case counts sheet")
	}
	if err := w.writeCasesSheet(f, s); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "save workbook %s", path)
	}
	return nil
}

func (w *SummaryWriter) writeRunSheet(f *excelize.File, s *risk.Summary) error {
	rows := []struct {
		label string
		value interface{}
	}{
		{"Run ID", s.RunID.String()},
		{"Scenario ID", s.ScenarioID.String()},
		{"Scenario", s.ScenarioName},
		{"Pathogen", s.Pathogen.String()},
		{"Scenario Hash", s.ScenarioHash.String()},
		{"Seed", s.Seed},
		{"Iterations", s.Iterations},
		{"Individuals", s.Individuals},
		{"Events Per Year", s.EventsPerYear},
		{"Population", s.Population},
		{"Per-Event Infection Mean", s.PerEventInfection.Mean},
		{"Per-Event Infection Median", s.PerEventInfection.Median},
		{"Per-Event Illness Mean", s.PerEventIllness.Mean},
		{"Annual Infection Median", s.AnnualInfection.Median},
		{"Annual Illness Median", s.AnnualIllness.Median},
		{"Expected Annual Cases", s.ExpectedAnnualCases},
		{"Runtime (ms)", s.RuntimeMS},
		{"Engine Version", s.EngineVersion},
		{"Fingerprint", s.Fingerprint.String()},
		{"Created", s.CreatedAt.String()},
	}
	for i, row := range rows {
		if err := setCell(f, runSheet, fmt.Sprintf("A%d", i+1), row.label); err != nil {
			return err
		}
		if err := setCell(f, runSheet, fmt.Sprintf("B%d", i+1), row.value); err != nil {
			return err
		}
	}
	return nil
}

func (w *SummaryWriter) writeLadderSheet(f *excelize.File, s *risk.Summary) error {
	headers := []string{"Percentile", "Per-Event Infection", "Per-Event Illness", "Annual Infection", "Annual Illness"}
	for j, h := range headers {
		cell, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			return errors.Wrap(err, "ladder sheet layout")
		}
		if err := setCell(f, ladderSheet, cell, h); err != nil {
			return err
		}
	}

	ladders := []risk.Ladder{
		s.PerEventInfection.Ladder,
		s.PerEventIllness.Ladder,
		s.AnnualInfection.Ladder,
		s.AnnualIllness.Ladder,
	}
	for i, entry := range s.PerEventInfection.Ladder {
		row := i + 2
		if err := setCell(f, ladderSheet, fmt.Sprintf("A%d", row), entry.Percentile); err != nil {
			return err
		}
		for j, ladder := range ladders {
			if i >= len(ladder) {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+2, row)
			if err != nil {
				return errors.Wrap(err, "ladder sheet layout")
			}
			if err := setCell(f, ladderSheet, cell, ladder[i].Value); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *SummaryWriter) writeCasesSheet(f *excelize.File, s *risk.Summary) error {
	rows := []struct {
		label string
		value float64
	}{
		{"Mean", s.CaseCounts.Mean},
		{"Median", s.CaseCounts.Median},
		{"Min", s.CaseCounts.Min},
		{"Max", s.CaseCounts.Max},
	}
	if err := setCell(f, casesSheet, "A1", "Statistic"); err != nil {
		return err
	}
	if err := setCell(f, casesSheet, "B1", "Cases Per Event"); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setCell(f, casesSheet, fmt.Sprintf("A%d", i+2), row.label); err != nil {
			return err
		}
		if err := setCell(f, casesSheet, fmt.Sprintf("B%d", i+2), row.value); err != nil {
			return err
		}
	}
	return nil
}

func setCell(f *excelize.File, sheet, cell string, value interface{}) error {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		return errors.Wrapf(err, "write %s!%s", sheet, cell)
	}
	return nil
}
