package scraper

import (
	"context"
	"errors"

	"github.com/maltedev/parts-fitment-scraper/internal/models"
)

var (
	// ErrTitleNotFound means the mandatory product-title wait timed out and
	// the page was abandoned.
	ErrTitleNotFound = errors.New("product title never appeared")
	// ErrURLColumnMissing means the input table lacks the configured URL
	// column. Fatal: no rows are processed.
	ErrURLColumnMissing = errors.New("URL column not found in input")
)

// PageResult is everything one page visit extracted.
type PageResult struct {
	Product  models.ProductRecord
	Fitments []models.FitmentRecord
}

// PageScraper visits one product URL in an isolated browser session and
// extracts its product and fitment data.
type PageScraper interface {
	ScrapePage(ctx context.Context, url string) (*PageResult, error)
}

// TableWriter persists the accumulated output table. Each call overwrites
// the previous contents (checkpoint semantics, not an append log).
type TableWriter interface {
	Write(table *models.Table) error
}

// Page visit outcomes passed to the Archiver.
const (
	PageStatusCompleted = "completed"
	PageStatusEmpty     = "empty"
	PageStatusFailed    = "failed"
)

// Archiver optionally records page outcomes and output rows in durable
// storage. Implementations must tolerate being called once per page.
type Archiver interface {
	RecordPage(ctx context.Context, url, status, errMsg string, fitments int) error
	ArchiveRows(ctx context.Context, url string, rows []models.OutputRow) error
}

// EventPublisher optionally emits a lifecycle event per completed page.
type EventPublisher interface {
	PublishPageScraped(ctx context.Context, url string, rowCount int, fitmentFound bool) error
}
