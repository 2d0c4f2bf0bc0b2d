package browser

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
)

// Session owns one browser process and one throwaway profile directory for a
// single page visit. Nothing (cookies, cache, local storage) survives Close,
// and profile directories never accumulate between visits.
type Session struct {
	pw         *playwright.Playwright
	context    playwright.BrowserContext
	page       playwright.Page
	profileDir string
	logger     *slog.Logger
}

type Options struct {
	Headless       bool
	Timeout        time.Duration
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	TimezoneID     string
	Locale         string
	ExtraHeaders   map[string]string
}

func DefaultOptions() *Options {
	return &Options{
		Headless:       true,
		Timeout:        30 * time.Second,
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		AcceptLanguage: "en-US,en;q=0.9",
		TimezoneID:     "America/Detroit",
		Locale:         "en-US",
		ExtraHeaders: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"Accept-Encoding": "gzip, deflate, br",
			"DNT":             "1",
		},
	}
}

// NewSession starts a fresh Chromium on a brand-new profile directory. On any
// launch failure everything started so far is torn down before returning.
func NewSession(opts *Options) (*Session, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	profileDir := filepath.Join(os.TempDir(), "chrome-profile-"+uuid.New().String())
	if err := os.MkdirAll(profileDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create profile directory: %w", err)
	}

	pw, err := playwright.Run()
	if err != nil {
		os.RemoveAll(profileDir)
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	headers := make(map[string]string, len(opts.ExtraHeaders)+1)
	for k, v := range opts.ExtraHeaders {
		headers[k] = v
	}
	if opts.AcceptLanguage != "" {
		headers["Accept-Language"] = opts.AcceptLanguage
	}

	launchOpts := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless:          playwright.Bool(opts.Headless),
		UserAgent:         &opts.UserAgent,
		AcceptDownloads:   playwright.Bool(false),
		JavaScriptEnabled: playwright.Bool(true),
		Locale:            &opts.Locale,
		TimezoneId:        &opts.TimezoneID,
		Viewport: &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		},
		ExtraHttpHeaders: headers,
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
			"--disable-setuid-sandbox",
			"--disable-gpu",
			"--window-size=1920,1080",
			"--start-maximized",
			"--ignore-certificate-errors",
		},
	}

	context, err := pw.Chromium.LaunchPersistentContext(profileDir, launchOpts)
	if err != nil {
		pw.Stop()
		os.RemoveAll(profileDir)
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	page, err := context.NewPage()
	if err != nil {
		context.Close()
		pw.Stop()
		os.RemoveAll(profileDir)
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	page.SetDefaultTimeout(float64(opts.Timeout.Milliseconds()))

	return &Session{
		pw:         pw,
		context:    context,
		page:       page,
		profileDir: profileDir,
		logger:     slog.Default().With("component", "browser"),
	}, nil
}

func (s *Session) Page() playwright.Page {
	return s.page
}

// Navigate loads the URL and returns once the DOM is ready. No retries: a
// page that fails to load is abandoned by the caller.
func (s *Session) Navigate(url string) error {
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(30000),
	})
	if err != nil {
		return fmt.Errorf("failed to navigate: %w", err)
	}
	return nil
}

// Close tears the session down on every exit path: browser context, the
// playwright driver, and the profile directory.
func (s *Session) Close() error {
	var errs []error

	if s.context != nil {
		if err := s.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close context: %w", err))
		}
	}

	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
	}

	if s.profileDir != "" {
		if err := os.RemoveAll(s.profileDir); err != nil {
			s.logger.Warn("could not remove profile directory", "dir", s.profileDir, "error", err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}

	return nil
}

// ProfileDir exposes the session's profile path, mainly for tests.
func (s *Session) ProfileDir() string {
	return s.profileDir
}
