package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/parts-fitment-scraper/internal/models"
)

// extractFitments converts the fitment table into records, preserving
// document order. A row needs year, make and model cells to count; trim and
// engine may be missing. No table means no fitments, not an error.
func (p *MoparParser) extractFitments(doc *goquery.Document) []models.FitmentRecord {
	var fitments []models.FitmentRecord

	table := doc.Find("table.fitment-table").First()
	if table.Length() == 0 {
		return fitments
	}

	rows := table.Find("tr.fitment-row")
	if body := table.Find("tbody.fitment-table-body").First(); body.Length() > 0 {
		rows = body.Find("tr.fitment-row")
	}

	rows.Each(func(i int, row *goquery.Selection) {
		year := row.Find("td.fitment-year").First()
		make := row.Find("td.fitment-make").First()
		model := row.Find("td.fitment-model").First()

		if year.Length() == 0 || make.Length() == 0 || model.Length() == 0 {
			return
		}

		fitments = append(fitments, models.FitmentRecord{
			Year:   strings.TrimSpace(year.Text()),
			Make:   strings.TrimSpace(make.Text()),
			Model:  strings.TrimSpace(model.Text()),
			Trim:   cellText(row, "td.fitment-trim"),
			Engine: cellText(row, "td.fitment-engine"),
		})
	})

	return fitments
}

func cellText(row *goquery.Selection, selector string) string {
	cell := row.Find(selector).First()
	if cell.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(cell.Text())
}
