package parser

import (
	"github.com/maltedev/parts-fitment-scraper/internal/models"
)

// ExpandRows flattens one page's extraction into output rows: one row per
// fitment, or a single row with empty fitment fields when the page listed
// none. Product fields are copied per row, and passthrough columns from the
// input are merged in last, never shadowing an extracted field.
func ExpandRows(product models.ProductRecord, fitments []models.FitmentRecord, passthrough map[string]string) []models.OutputRow {
	if len(fitments) == 0 {
		row := newRow(product)
		for _, col := range models.FitmentColumns {
			row[col] = ""
		}
		mergePassthrough(row, passthrough)
		return []models.OutputRow{row}
	}

	rows := make([]models.OutputRow, 0, len(fitments))
	for _, fitment := range fitments {
		row := newRow(product)
		for col, val := range fitment.Fields() {
			row[col] = val
		}
		mergePassthrough(row, passthrough)
		rows = append(rows, row)
	}

	return rows
}

func newRow(product models.ProductRecord) models.OutputRow {
	row := make(models.OutputRow, len(product)+len(models.FitmentColumns))
	for k, v := range product {
		row[k] = v
	}
	return row
}

func mergePassthrough(row models.OutputRow, passthrough map[string]string) {
	for k, v := range passthrough {
		if _, exists := row[k]; !exists {
			row[k] = v
		}
	}
}
