// Package scraper collects model pricing data from provider websites and
// ingests it into the knowledge store. Every failure mode falls back to a
// built-in seed snapshot, so a run always yields usable data.
package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/modelcost/modelcost/internal/knowledge"
	"github.com/modelcost/modelcost/internal/pricing"
)

const (
	// DefaultPricingURL is the page scraped for live OpenAI pricing.
	DefaultPricingURL = "https://openai.com/api/pricing"

	// UserAgent identifies polite scraping requests.
	UserAgent = "Mozilla/5.0 (compatible; modelcost/1.0)"

	// DefaultTimeout bounds a single page fetch.
	DefaultTimeout = 10 * time.Second
)

// Scraper fetches pricing pages and loads the results into a store.
type Scraper struct {
	store      *knowledge.Store
	httpClient *http.Client
	pricingURL string
	logger     *logrus.Logger
}

// New builds a scraper over the given store. A nil httpClient gets a
// default with a request timeout.
func New(store *knowledge.Store, httpClient *http.Client, logger *logrus.Logger) *Scraper {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Scraper{
		store:      store,
		httpClient: httpClient,
		pricingURL: DefaultPricingURL,
		logger:     logger,
	}
}

// Scrape attempts a live fetch of the pricing page and parses whatever
// pricing tables it can find. Any failure, including a page with no
// recognisable tables, falls back to SeedData.
func (s *Scraper) Scrape(ctx context.Context) []pricing.Raw {
	s.logger.WithField("url", s.pricingURL).Info("Attempting to scrape live pricing")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.pricingURL, nil)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to build pricing request, using seed data")
		return SeedData()
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to fetch pricing page, using seed data")
		return SeedData()
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			s.logger.WithError(closeErr).Warn("Failed to close response body")
		}
	}()

	if resp.StatusCode >= 400 {
		s.logger.WithField("status_code", resp.StatusCode).Warn("Pricing page returned an error, using seed data")
		return SeedData()
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to parse pricing page, using seed data")
		return SeedData()
	}

	rows := s.parsePricingTables(doc)
	if len(rows) == 0 {
		s.logger.Info("No pricing tables recognised on page, using seed data")
		return SeedData()
	}

	s.logger.WithField("models", len(rows)).Info("Parsed live pricing data")
	return rows
}

// parsePricingTables walks every table on the page looking for rows of
// the form "model | input price | output price". Providers change their
// markup often, so this is strictly best effort.
func (s *Scraper) parsePricingTables(doc *goquery.Document) []pricing.Raw {
	var rows []pricing.Raw

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			cells := tr.Find("td")
			if cells.Length() < 3 {
				return
			}

			model := strings.TrimSpace(cells.Eq(0).Text())
			input, okIn := parseDollars(cells.Eq(1).Text())
			output, okOut := parseDollars(cells.Eq(2).Text())
			if model == "" || !okIn || !okOut {
				return
			}

			rows = append(rows, pricing.Raw{
				Provider:              "OpenAI",
				ModelName:             strings.ToLower(strings.ReplaceAll(model, " ", "-")),
				ModelDisplayName:      strPtr(model),
				InputCostPer1MTokens:  floatPtr(input),
				OutputCostPer1MTokens: floatPtr(output),
				PricingURL:            strPtr(s.pricingURL),
			})
		})
	})

	return rows
}

// parseDollars extracts a non-negative dollar amount from cell text like
// "$2.50 / 1M tokens".
func parseDollars(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	i := strings.IndexByte(text, '$')
	if i < 0 {
		return 0, false
	}

	rest := text[i+1:]
	end := 0
	for end < len(rest) && (rest[end] >= '0' && rest[end] <= '9' || rest[end] == '.' || rest[end] == ',') {
		end++
	}
	if end == 0 {
		return 0, false
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(rest[:end], ",", ""), 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// Run scrapes (or falls back to seed data) and ingests the result into
// the knowledge store, returning how many entries were stored.
func (s *Scraper) Run(ctx context.Context) int {
	data := s.Scrape(ctx)
	if len(data) == 0 {
		s.logger.Warn("No pricing data to ingest")
		return 0
	}

	s.logger.WithField("entries", len(data)).Info("Ingesting pricing entries")
	count := s.store.Add(ctx, data)
	s.logger.WithField("stored", count).Info("Scraping complete")
	return count
}

// SaveToFile writes pricing data as indented JSON for inspection.
func (s *Scraper) SaveToFile(data []pricing.Raw, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode pricing data: %w", err)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("failed to write pricing data: %w", err)
	}

	s.logger.WithField("path", path).Info("Saved scraped data")
	return nil
}
