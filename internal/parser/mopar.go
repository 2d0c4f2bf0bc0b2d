package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/parts-fitment-scraper/internal/models"
)

// MoparParser extracts product fields and vehicle fitments from Mopar parts
// catalog pages.
type MoparParser struct {
	numericLabel *regexp.Regexp
}

func NewMoparParser() *MoparParser {
	return &MoparParser{
		numericLabel: regexp.MustCompile(`^\d+$`),
	}
}

// manufacturerMarker is matched against the exact text of <strong> elements.
const manufacturerMarker = "Genuine Mopar Parts"

func (p *MoparParser) ParseProductPage(html string) (models.ProductRecord, []models.FitmentRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return p.extractProductFields(doc), p.extractFitments(doc), nil
}

func (p *MoparParser) ExtractProductFields(html string) (models.ProductRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return p.extractProductFields(doc), nil
}

func (p *MoparParser) ExtractFitments(html string) ([]models.FitmentRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return p.extractFitments(doc), nil
}

func (p *MoparParser) extractProductFields(doc *goquery.Document) models.ProductRecord {
	record := make(models.ProductRecord)

	record[models.ColumnProductTitle] = strings.TrimSpace(doc.Find("h1.product-title").First().Text())
	record[models.ColumnProductSubtitle] = strings.TrimSpace(doc.Find("p.product-subtitle").First().Text())
	record[models.ColumnManufacturer] = p.extractManufacturer(doc)

	p.extractFieldLists(doc, record)

	if description := doc.Find("div.description_body").First(); description.Length() > 0 {
		record[models.ColumnDescription] = flattenText(description)
	}

	if notes := p.extractNotes(doc); notes != "" {
		record[models.ColumnNotes] = notes
	}

	if msrp := doc.Find("span.list-price-value").First(); msrp.Length() > 0 {
		record[models.ColumnMSRP] = strings.TrimSpace(msrp.Text())
	}

	if sale := doc.Find("strong.sale-price-value").First(); sale.Length() > 0 {
		record[models.ColumnSalePrice] = strings.TrimSpace(sale.Text())
	}

	return record.Filter()
}

func (p *MoparParser) extractManufacturer(doc *goquery.Document) string {
	marker := doc.Find("strong").FilterFunction(func(i int, s *goquery.Selection) bool {
		return strings.TrimSpace(s.Text()) == manufacturerMarker
	}).First()

	return strings.TrimSpace(marker.Text())
}

// extractFieldLists walks every field-list container on the page. Labels are
// cleaned of colons; pairs with an empty, purely numeric or currency label
// are malformed and skipped. A repeated label gets an occurrence suffix:
// the first keeps the bare name, the second becomes "name 2", and so on.
func (p *MoparParser) extractFieldLists(doc *goquery.Document, record models.ProductRecord) {
	seen := make(map[string]int)

	doc.Find("ul.field-list").Each(func(i int, list *goquery.Selection) {
		list.Find("li").Each(func(j int, item *goquery.Selection) {
			label := item.Find(".list-label").First()
			value := item.Find(".list-value, .sku-display").First()

			if label.Length() == 0 || value.Length() == 0 {
				return
			}

			name := strings.TrimSpace(strings.ReplaceAll(label.Text(), ":", ""))
			if name == "" || strings.HasPrefix(name, "$") || p.numericLabel.MatchString(name) {
				return
			}

			seen[name]++
			if seen[name] > 1 {
				name = fmt.Sprintf("%s %d", name, seen[name])
			}

			record[name] = strings.TrimSpace(value.Text())
		})
	})
}

func (p *MoparParser) extractNotes(doc *goquery.Document) string {
	var notes []string
	doc.Find("li.notes").Each(func(i int, s *goquery.Selection) {
		notes = append(notes, strings.TrimSpace(s.Text()))
	})
	return strings.Join(notes, " | ")
}

// flattenText joins the selection's descendant text with single spaces.
func flattenText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
