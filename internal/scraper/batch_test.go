package scraper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/maltedev/parts-fitment-scraper/internal/models"
	"github.com/maltedev/parts-fitment-scraper/internal/ratelimit"
)

type fakePageScraper struct {
	results map[string]*PageResult
	errs    map[string]error
	visited []string
}

func (f *fakePageScraper) ScrapePage(ctx context.Context, url string) (*PageResult, error) {
	f.visited = append(f.visited, url)
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if result, ok := f.results[url]; ok {
		return result, nil
	}
	return &PageResult{Product: models.ProductRecord{}}, nil
}

type fakeWriter struct {
	writes []*models.Table
	err    error
}

func (f *fakeWriter) Write(table *models.Table) error {
	if f.err != nil {
		return f.err
	}
	// Snapshot: the orchestrator reuses its accumulator slice.
	copied := &models.Table{Columns: append([]string(nil), table.Columns...)}
	for _, row := range table.Rows {
		copied.Rows = append(copied.Rows, row.Clone())
	}
	f.writes = append(f.writes, copied)
	return nil
}

type recordedEvent struct {
	url          string
	rowCount     int
	fitmentFound bool
}

type fakePublisher struct {
	events []recordedEvent
}

func (f *fakePublisher) PublishPageScraped(ctx context.Context, url string, rowCount int, fitmentFound bool) error {
	f.events = append(f.events, recordedEvent{url, rowCount, fitmentFound})
	return nil
}

type archivedPage struct {
	url    string
	status string
}

type fakeArchiver struct {
	pages []archivedPage
	rows  map[string]int
	err   error
}

func (f *fakeArchiver) RecordPage(ctx context.Context, url, status, errMsg string, fitments int) error {
	if f.err != nil {
		return f.err
	}
	f.pages = append(f.pages, archivedPage{url, status})
	return nil
}

func (f *fakeArchiver) ArchiveRows(ctx context.Context, url string, rows []models.OutputRow) error {
	if f.err != nil {
		return f.err
	}
	if f.rows == nil {
		f.rows = make(map[string]int)
	}
	f.rows[url] = len(rows)
	return nil
}

func newTestOrchestrator(s PageScraper, w TableWriter, checkpointEvery int, opts ...OrchestratorOption) *Orchestrator {
	return NewOrchestrator(s, w, ratelimit.New(0, 0), "URL", checkpointEvery, opts...)
}

func inputTable(urls ...string) *models.Table {
	table := &models.Table{Columns: []string{"URL"}}
	for _, u := range urls {
		table.Rows = append(table.Rows, models.OutputRow{"URL": u})
	}
	return table
}

func TestRunMissingURLColumnIsFatal(t *testing.T) {
	o := newTestOrchestrator(&fakePageScraper{}, &fakeWriter{}, 10)

	input := &models.Table{
		Columns: []string{"Name"},
		Rows:    []models.OutputRow{{"Name": "x"}},
	}

	_, err := o.Run(context.Background(), input)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrURLColumnMissing)
}

func TestRunSkipsEmptyURLs(t *testing.T) {
	scraper := &fakePageScraper{
		results: map[string]*PageResult{
			"https://example.com/p/1": {Product: models.ProductRecord{"Product Title": "Oil Filter"}},
		},
	}
	writer := &fakeWriter{}
	o := newTestOrchestrator(scraper, writer, 10)

	summary, err := o.Run(context.Background(), inputTable("", "https://example.com/p/1", "   "))
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, []string{"https://example.com/p/1"}, scraper.visited)
}

func TestRunFailureContinuesBatch(t *testing.T) {
	scraper := &fakePageScraper{
		results: map[string]*PageResult{
			"https://example.com/p/2": {Product: models.ProductRecord{"Product Title": "Oil Filter"}},
		},
		errs: map[string]error{
			"https://example.com/p/1": errors.New("navigation timeout"),
		},
	}
	writer := &fakeWriter{}
	archiver := &fakeArchiver{}
	o := newTestOrchestrator(scraper, writer, 10, WithArchiver(archiver))

	summary, err := o.Run(context.Background(), inputTable(
		"https://example.com/p/1",
		"https://example.com/p/2",
	))
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Rows)

	require.Len(t, archiver.pages, 2)
	assert.Equal(t, PageStatusFailed, archiver.pages[0].status)
}

func TestRunCheckpointsEveryNSuccesses(t *testing.T) {
	results := make(map[string]*PageResult)
	var urls []string
	for _, u := range []string{"a", "b", "c", "d", "e"} {
		url := "https://example.com/p/" + u
		urls = append(urls, url)
		results[url] = &PageResult{Product: models.ProductRecord{"Product Title": "Part " + u}}
	}

	writer := &fakeWriter{}
	o := newTestOrchestrator(&fakePageScraper{results: results}, writer, 2)

	summary, err := o.Run(context.Background(), inputTable(urls...))
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Succeeded)

	// Checkpoints after success 2 and 4, plus the final flush.
	require.Len(t, writer.writes, 3)
	assert.Len(t, writer.writes[0].Rows, 2)
	assert.Len(t, writer.writes[1].Rows, 4)
	assert.Len(t, writer.writes[2].Rows, 5)
}

func TestNewOrchestratorClampsCheckpointInterval(t *testing.T) {
	results := map[string]*PageResult{
		"https://example.com/p/1": {Product: models.ProductRecord{"Product Title": "Oil Filter"}},
		"https://example.com/p/2": {Product: models.ProductRecord{"Product Title": "Brake Pad Set"}},
	}
	writer := &fakeWriter{}
	o := newTestOrchestrator(&fakePageScraper{results: results}, writer, 0)

	summary, err := o.Run(context.Background(), inputTable(
		"https://example.com/p/1",
		"https://example.com/p/2",
	))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Succeeded)

	// Clamped to 1: a checkpoint after every success, plus the final flush.
	require.Len(t, writer.writes, 3)
}

func TestRunCheckpointGrowsMonotonically(t *testing.T) {
	results := map[string]*PageResult{
		"https://example.com/p/1": {
			Product: models.ProductRecord{"Product Title": "Brake Pad Set"},
			Fitments: []models.FitmentRecord{
				{Year: "2020", Make: "Jeep", Model: "Wrangler"},
				{Year: "2021", Make: "Jeep", Model: "Wrangler"},
			},
		},
		"https://example.com/p/2": {
			Product: models.ProductRecord{"Product Title": "Oil Filter"},
		},
	}

	writer := &fakeWriter{}
	o := newTestOrchestrator(&fakePageScraper{results: results}, writer, 1)

	_, err := o.Run(context.Background(), inputTable(
		"https://example.com/p/1",
		"https://example.com/p/2",
	))
	require.NoError(t, err)

	// Every checkpoint contains all rows accumulated so far.
	require.GreaterOrEqual(t, len(writer.writes), 2)
	assert.Len(t, writer.writes[0].Rows, 2)
	last := writer.writes[len(writer.writes)-1]
	assert.Len(t, last.Rows, 3)
	assert.Equal(t, "Brake Pad Set", last.Rows[0]["Product Title"])
	assert.Equal(t, "Oil Filter", last.Rows[2]["Product Title"])
}

func TestRunOutputColumnOrder(t *testing.T) {
	results := map[string]*PageResult{
		"https://example.com/p/1": {Product: models.ProductRecord{"Product Title": "Oil Filter"}},
	}
	writer := &fakeWriter{}
	o := newTestOrchestrator(&fakePageScraper{results: results}, writer, 10)

	input := &models.Table{
		Columns: []string{"URL", "Notes", "Vendor Ref"},
		Rows:    []models.OutputRow{{"URL": "https://example.com/p/1", "Notes": "n", "Vendor Ref": "v"}},
	}

	_, err := o.Run(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, writer.writes, 1)

	columns := writer.writes[0].Columns
	expected := append([]string{}, models.AllowedFields...)
	expected = append(expected, models.FitmentColumns...)
	// "Notes" is already claimed by the allow-list; only unclaimed input
	// columns are appended, in input order.
	expected = append(expected, "URL", "Vendor Ref")
	assert.Equal(t, expected, columns)
}

func TestRunEndToEndBrakePadSet(t *testing.T) {
	url := "https://example.com/p/brake-pad-set"
	results := map[string]*PageResult{
		url: {
			Product: models.ProductRecord{
				"Product Title": "Brake Pad Set",
				"SKU":           "12345",
				"Condition":     "New",
			},
			Fitments: []models.FitmentRecord{
				{Year: "2020", Make: "Jeep", Model: "Wrangler", Trim: "Sport", Engine: "3.6L V6"},
			},
		},
	}

	writer := &fakeWriter{}
	publisher := &fakePublisher{}
	archiver := &fakeArchiver{}
	o := newTestOrchestrator(&fakePageScraper{results: results}, writer, 10,
		WithArchiver(archiver), WithPublisher(publisher))

	summary, err := o.Run(context.Background(), inputTable(url))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Rows)

	require.Len(t, writer.writes, 1)
	require.Len(t, writer.writes[0].Rows, 1)
	row := writer.writes[0].Rows[0]
	assert.Equal(t, "Brake Pad Set", row["Product Title"])
	assert.Equal(t, "12345", row["SKU"])
	assert.Equal(t, "New", row["Condition"])
	assert.Equal(t, "2020", row["Year"])
	assert.Equal(t, "Jeep", row["Make"])
	assert.Equal(t, "Wrangler", row["Model"])
	assert.Equal(t, "Sport", row["Body & Trim"])
	assert.Equal(t, "3.6L V6", row["Engine & Transmission"])

	require.Len(t, publisher.events, 1)
	assert.Equal(t, url, publisher.events[0].url)
	assert.Equal(t, 1, publisher.events[0].rowCount)
	assert.True(t, publisher.events[0].fitmentFound)

	require.Len(t, archiver.pages, 1)
	assert.Equal(t, PageStatusCompleted, archiver.pages[0].status)
	assert.Equal(t, 1, archiver.rows[url])
}

func TestRunArchiverFailureDoesNotFailBatch(t *testing.T) {
	results := map[string]*PageResult{
		"https://example.com/p/1": {Product: models.ProductRecord{"Product Title": "Oil Filter"}},
	}
	writer := &fakeWriter{}
	archiver := &fakeArchiver{err: errors.New("database unavailable")}
	o := newTestOrchestrator(&fakePageScraper{results: results}, writer, 10, WithArchiver(archiver))

	summary, err := o.Run(context.Background(), inputTable("https://example.com/p/1"))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	require.Len(t, writer.writes, 1)
}

func TestRunRecordsEmptyStatusWithoutFitments(t *testing.T) {
	results := map[string]*PageResult{
		"https://example.com/p/1": {Product: models.ProductRecord{"Product Title": "Decal Kit"}},
	}
	archiver := &fakeArchiver{}
	o := newTestOrchestrator(&fakePageScraper{results: results}, &fakeWriter{}, 10, WithArchiver(archiver))

	_, err := o.Run(context.Background(), inputTable("https://example.com/p/1"))
	require.NoError(t, err)

	require.Len(t, archiver.pages, 1)
	assert.Equal(t, PageStatusEmpty, archiver.pages[0].status)
}

func TestRunCancelledContextStopsEarly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scraper := &fakePageScraper{}
	o := newTestOrchestrator(scraper, &fakeWriter{}, 10)

	summary, err := o.Run(ctx, inputTable("https://example.com/p/1"))
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Processed)
	assert.Empty(t, scraper.visited)
}
