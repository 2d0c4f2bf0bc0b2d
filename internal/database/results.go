package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/maltedev/parts-fitment-scraper/internal/models"
)

// ScrapePage is one visited URL and its outcome. Status holds the caller's
// vocabulary (completed, empty, failed) and is stored verbatim.
type ScrapePage struct {
	URL          string     `db:"url"`
	Status       string     `db:"status"`
	ErrorMessage *string    `db:"error_message"`
	FitmentCount int        `db:"fitment_count"`
	ScrapedAt    time.Time  `db:"scraped_at"`
	UpdatedAt    *time.Time `db:"updated_at"`
}

// ResultStore archives page outcomes and extracted rows. It is a mirror of
// the batch run for later querying, not the source of truth — the output
// spreadsheet is.
type ResultStore struct {
	db *DB
}

func NewResultStore(db *DB) *ResultStore {
	return &ResultStore{db: db}
}

// EnsureSchema creates the archive tables when missing.
func (s *ResultStore) EnsureSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS scrape_page (
			url            TEXT PRIMARY KEY,
			status         TEXT NOT NULL,
			error_message  TEXT,
			fitment_count  INT NOT NULL DEFAULT 0,
			scraped_at     TIMESTAMPTZ NOT NULL,
			updated_at     TIMESTAMPTZ
		);
		CREATE TABLE IF NOT EXISTS scrape_row (
			id          BIGSERIAL PRIMARY KEY,
			page_url    TEXT NOT NULL REFERENCES scrape_page(url),
			fields      JSONB NOT NULL,
			archived_at TIMESTAMPTZ NOT NULL
		);`

	if _, err := s.db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// RecordPage upserts the outcome of one page visit. Re-scraping a URL in a
// later run overwrites the earlier outcome.
func (s *ResultStore) RecordPage(ctx context.Context, url, status, errMsg string, fitments int) error {
	var errVal *string
	if errMsg != "" {
		errVal = &errMsg
	}

	query := `
		INSERT INTO scrape_page (url, status, error_message, fitment_count, scraped_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (url) DO UPDATE
		SET status = EXCLUDED.status,
			error_message = EXCLUDED.error_message,
			fitment_count = EXCLUDED.fitment_count,
			updated_at = EXCLUDED.scraped_at`

	if _, err := s.db.pool.Exec(ctx, query, url, status, errVal, fitments, time.Now()); err != nil {
		return fmt.Errorf("failed to record page: %w", err)
	}

	return nil
}

// ArchiveRows stores the expanded output rows for a page. Rows from a
// previous run of the same URL are replaced, matching the checkpoint's
// overwrite semantics.
func (s *ResultStore) ArchiveRows(ctx context.Context, url string, rows []models.OutputRow) error {
	return s.db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM scrape_row WHERE page_url = $1`, url); err != nil {
			return fmt.Errorf("failed to clear previous rows: %w", err)
		}

		now := time.Now()
		for _, row := range rows {
			fields, err := json.Marshal(row)
			if err != nil {
				return fmt.Errorf("failed to marshal row: %w", err)
			}

			_, err = tx.Exec(ctx,
				`INSERT INTO scrape_row (page_url, fields, archived_at) VALUES ($1, $2, $3)`,
				url, fields, now)
			if err != nil {
				return fmt.Errorf("failed to insert row: %w", err)
			}
		}

		return nil
	})
}

// GetPage returns the recorded outcome for a URL, or nil when unseen.
func (s *ResultStore) GetPage(ctx context.Context, url string) (*ScrapePage, error) {
	query := `
		SELECT url, status, error_message, fitment_count, scraped_at, updated_at
		FROM scrape_page WHERE url = $1`

	page := &ScrapePage{}
	err := s.db.pool.QueryRow(ctx, query, url).Scan(
		&page.URL, &page.Status, &page.ErrorMessage,
		&page.FitmentCount, &page.ScrapedAt, &page.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}

	return page, nil
}
