package parser

import (
	"github.com/maltedev/parts-fitment-scraper/internal/models"
)

type Parser interface {
	ParseProductPage(html string) (models.ProductRecord, []models.FitmentRecord, error)
	ExtractProductFields(html string) (models.ProductRecord, error)
	ExtractFitments(html string) ([]models.FitmentRecord, error)
}
