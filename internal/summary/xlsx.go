// =============================================================================
// Load Export - Summary Workbook
// =============================================================================
//
// This module writes project summaries to an XLSX workbook for people who
// review an export before importing it.
//
// SHEET LAYOUT ("Summary"):
//
//   | Project ID | Project | Loads | Total Tons | Revenue | CO2 Avoided (tons) |
//   |------------|---------|-------|------------|---------|--------------------|
//   | alpha      | Alpha   | 2     | 3.50       | 437.50  | 0.12               |
//   |            | All ... | 2     | 3.50       | 437.50  | 0.12               |
//
// Numbers are stored as numeric cells so the sheet can be re-totaled.
//
// =============================================================================

package summary

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// SheetName is the workbook's only sheet.
const SheetName = "Summary"

// WorkbookHeaders is the first row of the sheet.
var WorkbookHeaders = []any{"Project ID", "Project", "Loads", "Total Tons", "Revenue", "CO2 Avoided (tons)"}

// Workbook builds the summary workbook. The caller must Close it.
//
// PARAMETERS:
//   - summaries: One row each, in order.
//   - rate: Used for the totals row.
//
// RETURNS:
//   - The workbook.
//   - An error if a cell or style cannot be written.
func Workbook(summaries []ProjectSummary, rate decimal.Decimal) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &WorkbookHeaders); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	rows := append(append([]ProjectSummary(nil), summaries...), Total(summaries, rate))
	for i, s := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []any{
			s.ProjectID,
			s.ProjectName,
			s.LoadCount,
			s.Tons.Round(2).InexactFloat64(),
			s.RevenueAmount.InexactFloat64(),
			s.CO2Avoided.Round(2).InexactFloat64(),
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	last, _ := excelize.CoordinatesToCellName(len(WorkbookHeaders), len(rows)+1)
	first, _ := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err := f.SetCellStyle(SheetName, "A1", "F1", bold); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to style header: %w", err)
	}
	if err := f.SetCellStyle(SheetName, first, last, bold); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to style totals: %w", err)
	}
	if err := f.SetColWidth(SheetName, "A", "B", 24); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}
	if err := f.SetColWidth(SheetName, "C", "F", 16); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}

	return f, nil
}

// WriteWorkbook builds the workbook and writes it to w.
func WriteWorkbook(w io.Writer, summaries []ProjectSummary, rate decimal.Decimal) error {
	f, err := Workbook(summaries, rate)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SaveWorkbook builds the workbook and saves it at path.
func SaveWorkbook(path string, summaries []ProjectSummary, rate decimal.Decimal) error {
	f, err := Workbook(summaries, rate)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
