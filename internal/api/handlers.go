package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/maltedev/parts-fitment-scraper/internal/models"
	"github.com/maltedev/parts-fitment-scraper/internal/parser"
	"github.com/maltedev/parts-fitment-scraper/internal/scraper"
)

type Handlers struct {
	scraper scraper.PageScraper
	logger  *slog.Logger
}

func NewHandlers(s scraper.PageScraper, logger *slog.Logger) *Handlers {
	return &Handlers{
		scraper: s,
		logger:  logger,
	}
}

// ScrapeRequest asks for one product page extraction.
type ScrapeRequest struct {
	URL string `json:"url"`
}

// ScrapeResponse carries the expanded output rows for one page.
type ScrapeResponse struct {
	Rows         []models.OutputRow `json:"rows"`
	RowCount     int                `json:"row_count"`
	FitmentFound bool               `json:"fitment_found"`
	Error        string             `json:"error,omitempty"`
}

// Scrape handles on-demand single-URL extraction requests.
func (h *Handlers) Scrape(w http.ResponseWriter, r *http.Request) {
	var req ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.URL == "" {
		h.respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	if u, err := url.Parse(req.URL); err != nil || !u.IsAbs() {
		h.respondError(w, http.StatusBadRequest, "url must be absolute")
		return
	}

	result, err := h.scraper.ScrapePage(r.Context(), req.URL)
	if err != nil {
		h.logger.Error("failed to scrape page", "url", req.URL, "error", err)
		h.respondJSON(w, http.StatusOK, ScrapeResponse{
			Rows:  []models.OutputRow{},
			Error: err.Error(),
		})
		return
	}

	rows := parser.ExpandRows(result.Product, result.Fitments, nil)

	h.respondJSON(w, http.StatusOK, ScrapeResponse{
		Rows:         rows,
		RowCount:     len(rows),
		FitmentFound: len(result.Fitments) > 0,
	})
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
