package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/maltedev/parts-fitment-scraper/internal/browser"
	"github.com/maltedev/parts-fitment-scraper/internal/config"
	"github.com/maltedev/parts-fitment-scraper/internal/parser"
)

// Pauses giving the storefront's client-side rendering time to settle. The
// fitment table is populated asynchronously after tab clicks and scrolling.
const (
	settlePause    = 2 * time.Second
	preClickPause  = 1 * time.Second
	postClickPause = 5 * time.Second
)

// ProductScraper drives one isolated browser session per URL through the
// interaction sequence that forces the fitment table to render, then hands
// the document to the parser. Only navigation failure and the title wait are
// page-fatal; every other step is best-effort.
type ProductScraper struct {
	browserOpts *browser.Options
	parser      parser.Parser
	logger      *slog.Logger
	cfg         config.ScraperConfig
}

func NewProductScraper(opts *browser.Options, cfg config.ScraperConfig) *ProductScraper {
	return &ProductScraper{
		browserOpts: opts,
		parser:      parser.NewMoparParser(),
		logger:      slog.Default().With("component", "page_scraper"),
		cfg:         cfg,
	}
}

func (ps *ProductScraper) ScrapePage(ctx context.Context, url string) (*PageResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	session, err := browser.NewSession(ps.browserOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	if err := session.Navigate(url); err != nil {
		return nil, err
	}

	page := session.Page()

	// Mandatory: without a title the page never rendered.
	if _, err := page.WaitForSelector(".product-title", playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(ps.cfg.TitleTimeout.Milliseconds())),
	}); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTitleNotFound, url)
	}

	time.Sleep(settlePause)

	if ps.clickFitmentTab(page) {
		ps.logger.Info("clicked vehicle fitment tab", "url", url)
	}

	if ps.scrollToFitmentSection(page) {
		ps.logger.Info("scrolled to fitment section", "url", url)
	}

	ps.scrollIncrementally(page)

	if ps.clickFitmentExpander(page) {
		ps.logger.Info("clicked fitment expander", "url", url)
	}

	if !ps.waitForFitmentRows(page) {
		ps.logger.Warn("no fitment rows appeared after wait", "url", url)
	}

	html, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to get page content: %w", err)
	}

	product, fitments, err := ps.parser.ParseProductPage(html)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	if len(fitments) == 0 {
		ps.logger.Info("no valid fitment rows on page", "url", url)
	}

	return &PageResult{Product: product, Fitments: fitments}, nil
}

// clickFitmentTab reveals the vehicle fitment panel. Not every product page
// has the tab, so a miss is a note, not an error.
func (ps *ProductScraper) clickFitmentTab(page playwright.Page) bool {
	tab := page.Locator("#tab-vehicle-fitment-tab")
	if err := tab.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(ps.cfg.StepTimeout.Milliseconds())),
	}); err != nil {
		ps.logger.Debug("fitment tab not clickable", "error", err)
		return false
	}

	if err := tab.ScrollIntoViewIfNeeded(); err != nil {
		ps.logger.Debug("could not scroll fitment tab into view", "error", err)
		return false
	}

	time.Sleep(preClickPause)

	if err := tab.Click(); err != nil {
		ps.logger.Debug("failed to click fitment tab", "error", err)
		return false
	}

	time.Sleep(postClickPause)
	return true
}

func (ps *ProductScraper) scrollToFitmentSection(page playwright.Page) bool {
	section := page.Locator(".product-fitment")
	if err := section.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(ps.cfg.StepTimeout.Milliseconds())),
	}); err != nil {
		ps.logger.Debug("fitment section not found", "error", err)
		return false
	}

	if err := section.ScrollIntoViewIfNeeded(); err != nil {
		ps.logger.Debug("could not scroll to fitment section", "error", err)
		return false
	}

	time.Sleep(postClickPause)
	return true
}

// scrollIncrementally nudges the viewport down in fixed steps to trigger
// lazy-loaded content below the fold.
func (ps *ProductScraper) scrollIncrementally(page playwright.Page) {
	for i := 0; i < ps.cfg.ScrollCycles; i++ {
		if _, err := page.Evaluate(`window.scrollBy(0, 500)`); err != nil {
			ps.logger.Debug("scroll step failed", "step", i+1, "error", err)
			return
		}
		time.Sleep(ps.cfg.ScrollPause)
	}
}

// clickFitmentExpander expands collapsed fitment rows so every vehicle is in
// the DOM before parsing.
func (ps *ProductScraper) clickFitmentExpander(page playwright.Page) bool {
	expander := page.Locator(".fitment-expander")
	if err := expander.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(ps.cfg.StepTimeout.Milliseconds())),
	}); err != nil {
		ps.logger.Debug("no fitment expander on page", "error", err)
		return false
	}

	if err := expander.ScrollIntoViewIfNeeded(); err != nil {
		ps.logger.Debug("could not scroll expander into view", "error", err)
		return false
	}

	time.Sleep(preClickPause)

	if err := expander.Click(); err != nil {
		ps.logger.Debug("failed to click fitment expander", "error", err)
		return false
	}

	time.Sleep(postClickPause)
	return true
}

func (ps *ProductScraper) waitForFitmentRows(page playwright.Page) bool {
	_, err := page.WaitForSelector("tr.fitment-row", playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(ps.cfg.RowsTimeout.Milliseconds())),
	})
	return err == nil
}
