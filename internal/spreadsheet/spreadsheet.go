package spreadsheet

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"github.com/maltedev/parts-fitment-scraper/internal/models"
)

const defaultSheet = "Sheet1"

// ReadTable loads the first sheet of an .xlsx workbook. The first row is the
// header; every following row becomes a record keyed by header name. Short
// rows are padded with empty cells, as spreadsheet editors commonly drop
// trailing blanks.
func ReadTable(path string) (*models.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets: %s", path)
	}

	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	if len(raw) == 0 {
		return &models.Table{}, nil
	}

	table := &models.Table{
		Columns: raw[0],
		Rows:    make([]models.OutputRow, 0, len(raw)-1),
	}

	for _, cells := range raw[1:] {
		row := make(models.OutputRow, len(table.Columns))
		for i, col := range table.Columns {
			if i < len(cells) {
				row[col] = cells[i]
			} else {
				row[col] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// Writer overwrites one .xlsx file with the full table on every Write call.
// Cells are emitted in fixed column order so repeated writes of the same
// table produce the same workbook.
type Writer struct {
	path string
}

func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

func (w *Writer) Write(table *models.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, col := range table.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("failed to build header cell: %w", err)
		}
		if err := f.SetCellValue(defaultSheet, cell, col); err != nil {
			return fmt.Errorf("failed to write header %q: %w", col, err)
		}
	}

	for r, row := range table.Rows {
		for c, col := range table.Columns {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return fmt.Errorf("failed to build cell name: %w", err)
			}
			if err := f.SetCellValue(defaultSheet, cell, row[col]); err != nil {
				return fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	return nil
}

func (w *Writer) Path() string {
	return w.path
}
