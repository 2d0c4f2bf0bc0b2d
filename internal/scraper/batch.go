package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/maltedev/parts-fitment-scraper/internal/models"
	"github.com/maltedev/parts-fitment-scraper/internal/parser"
	"github.com/maltedev/parts-fitment-scraper/internal/ratelimit"
)

// Orchestrator walks the input table row by row, scrapes each URL through
// the page scraper, expands the result into output rows and checkpoints the
// accumulated table every few successes. Strictly sequential: one page
// finishes (including teardown) before the next begins.
type Orchestrator struct {
	scraper         PageScraper
	writer          TableWriter
	limiter         *ratelimit.Limiter
	logger          *slog.Logger
	urlColumn       string
	checkpointEvery int

	// Optional sinks; nil disables them. Neither can fail the batch.
	archiver  Archiver
	publisher EventPublisher
}

// Summary reports what a batch run did.
type Summary struct {
	Processed int
	Succeeded int
	Failed    int
	Skipped   int
	Rows      int
}

type OrchestratorOption func(*Orchestrator)

func WithArchiver(a Archiver) OrchestratorOption {
	return func(o *Orchestrator) { o.archiver = a }
}

func WithPublisher(p EventPublisher) OrchestratorOption {
	return func(o *Orchestrator) { o.publisher = p }
}

func NewOrchestrator(scraper PageScraper, writer TableWriter, limiter *ratelimit.Limiter, urlColumn string, checkpointEvery int, opts ...OrchestratorOption) *Orchestrator {
	if checkpointEvery < 1 {
		checkpointEvery = 1
	}
	o := &Orchestrator{
		scraper:         scraper,
		writer:          writer,
		limiter:         limiter,
		logger:          slog.Default().With("component", "orchestrator"),
		urlColumn:       urlColumn,
		checkpointEvery: checkpointEvery,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run processes the whole input table. A missing URL column is the only
// fatal error; individual page failures are logged and counted.
func (o *Orchestrator) Run(ctx context.Context, input *models.Table) (*Summary, error) {
	if !hasColumn(input.Columns, o.urlColumn) {
		return nil, fmt.Errorf("%w: %q", ErrURLColumnMissing, o.urlColumn)
	}

	columns := o.outputColumns(input.Columns)
	summary := &Summary{}
	var accumulated []models.OutputRow

	total := len(input.Rows)
	for i, inputRow := range input.Rows {
		if err := ctx.Err(); err != nil {
			o.logger.Info("batch cancelled", "processed", summary.Processed)
			break
		}

		url := strings.TrimSpace(inputRow[o.urlColumn])
		if url == "" {
			o.logger.Info("skipping row: no URL", "row", i+1)
			summary.Skipped++
			continue
		}

		o.logger.Info("processing page", "row", i+1, "total", total, "url", url)

		result, err := o.scraper.ScrapePage(ctx, url)
		if err != nil {
			o.logger.Error("failed to extract page", "url", url, "error", err)
			summary.Processed++
			summary.Failed++
			o.recordPage(ctx, url, PageStatusFailed, err.Error(), 0)
			o.delayBeforeNext(ctx, i, total)
			continue
		}

		rows := parser.ExpandRows(result.Product, result.Fitments, inputRow)
		accumulated = append(accumulated, rows...)

		summary.Processed++
		summary.Succeeded++
		summary.Rows += len(rows)

		o.logger.Info("page extracted", "url", url, "fitments", len(result.Fitments), "rows", len(rows))

		status := PageStatusCompleted
		if len(result.Fitments) == 0 {
			status = PageStatusEmpty
		}
		o.recordPage(ctx, url, status, "", len(result.Fitments))
		o.archiveRows(ctx, url, rows)
		o.publishPageScraped(ctx, url, len(rows), len(result.Fitments) > 0)

		if summary.Succeeded%o.checkpointEvery == 0 {
			o.checkpoint(columns, accumulated, summary.Succeeded)
		}

		o.delayBeforeNext(ctx, i, total)
	}

	if len(accumulated) == 0 {
		o.logger.Warn("no data extracted", "processed", summary.Processed)
		return summary, nil
	}

	if err := o.writer.Write(&models.Table{Columns: columns, Rows: accumulated}); err != nil {
		return summary, fmt.Errorf("failed to write output: %w", err)
	}

	o.logger.Info("batch finished",
		"rows", len(accumulated),
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
	)

	return summary, nil
}

// outputColumns fixes the output column order: allow-listed product fields,
// the fitment fields, then input columns not already claimed.
func (o *Orchestrator) outputColumns(inputColumns []string) []string {
	columns := make([]string, 0, len(models.AllowedFields)+len(models.FitmentColumns)+len(inputColumns))
	columns = append(columns, models.AllowedFields...)
	columns = append(columns, models.FitmentColumns...)

	present := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		present[c] = struct{}{}
	}

	for _, c := range inputColumns {
		if _, ok := present[c]; !ok {
			present[c] = struct{}{}
			columns = append(columns, c)
		}
	}

	return columns
}

func (o *Orchestrator) checkpoint(columns []string, rows []models.OutputRow, succeeded int) {
	err := o.writer.Write(&models.Table{Columns: columns, Rows: rows})
	if err != nil {
		o.logger.Error("failed to save checkpoint", "error", err)
		return
	}
	o.logger.Info("progress saved", "successful_pages", succeeded, "total_rows", len(rows))
}

// delayBeforeNext paces consecutive page visits. No delay after the last row.
func (o *Orchestrator) delayBeforeNext(ctx context.Context, index, total int) {
	if index >= total-1 {
		return
	}
	if err := o.limiter.Wait(ctx); err != nil {
		o.logger.Debug("delay interrupted", "error", err)
	}
}

func (o *Orchestrator) recordPage(ctx context.Context, url, status, errMsg string, fitments int) {
	if o.archiver == nil {
		return
	}
	if err := o.archiver.RecordPage(ctx, url, status, errMsg, fitments); err != nil {
		o.logger.Error("failed to record page in archive", "url", url, "error", err)
	}
}

func (o *Orchestrator) archiveRows(ctx context.Context, url string, rows []models.OutputRow) {
	if o.archiver == nil {
		return
	}
	if err := o.archiver.ArchiveRows(ctx, url, rows); err != nil {
		o.logger.Error("failed to archive rows", "url", url, "error", err)
	}
}

func (o *Orchestrator) publishPageScraped(ctx context.Context, url string, rowCount int, fitmentFound bool) {
	if o.publisher == nil {
		return
	}
	if err := o.publisher.PublishPageScraped(ctx, url, rowCount, fitmentFound); err != nil {
		o.logger.Error("failed to publish event", "url", url, "error", err)
	}
}

func hasColumn(columns []string, name string) bool {
	for _, c := range columns {
		if c == name {
			return true
		}
	}
	return false
}
