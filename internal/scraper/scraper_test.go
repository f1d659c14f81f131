package scraper

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelcost/modelcost/internal/embedding"
	"github.com/modelcost/modelcost/internal/knowledge"
	"github.com/modelcost/modelcost/internal/pricing"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testStore(t *testing.T) *knowledge.Store {
	t.Helper()

	store, err := knowledge.Open(t.TempDir(), knowledge.DefaultCollection, embedding.NewLocal(), quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSeedDataIsValid(t *testing.T) {
	seed := SeedData()
	require.Len(t, seed, 8)

	records, errs := pricing.NormalizeBatch(seed)
	assert.Empty(t, errs)
	assert.Len(t, records, 8)

	names := map[string]bool{}
	for _, rec := range records {
		assert.Equal(t, "OpenAI", rec.Provider)
		assert.False(t, names[rec.ModelName], "duplicate model %s", rec.ModelName)
		names[rec.ModelName] = true
	}
	assert.True(t, names["gpt-4o"])
	assert.True(t, names["dall-e-3"])
}

func TestScrapeFallsBackOnUnreachableHost(t *testing.T) {
	sc := New(testStore(t), nil, quietLogger())
	sc.pricingURL = "http://127.0.0.1:1/pricing"

	data := sc.Scrape(context.Background())
	assert.Len(t, data, len(SeedData()))
}

func TestScrapeFallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sc := New(testStore(t), srv.Client(), quietLogger())
	sc.pricingURL = srv.URL

	data := sc.Scrape(context.Background())
	assert.Len(t, data, len(SeedData()))
}

func TestScrapeFallsBackWhenNoTables(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><p>No pricing here</p></body></html>"))
	}))
	defer srv.Close()

	sc := New(testStore(t), srv.Client(), quietLogger())
	sc.pricingURL = srv.URL

	data := sc.Scrape(context.Background())
	assert.Len(t, data, len(SeedData()))
}

func TestScrapeParsesPricingTable(t *testing.T) {
	page := `<html><body><table>
		<tr><th>Model</th><th>Input</th><th>Output</th></tr>
		<tr><td>GPT 4o</td><td>$2.50 / 1M tokens</td><td>$10.00 / 1M tokens</td></tr>
		<tr><td>GPT 4o mini</td><td>$0.15</td><td>$0.60</td></tr>
		<tr><td>broken row</td><td>n/a</td><td>n/a</td></tr>
	</table></body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	sc := New(testStore(t), srv.Client(), quietLogger())
	sc.pricingURL = srv.URL

	data := sc.Scrape(context.Background())
	require.Len(t, data, 2)

	assert.Equal(t, "gpt-4o", data[0].ModelName)
	assert.Equal(t, 2.5, *data[0].InputCostPer1MTokens)
	assert.Equal(t, 10.0, *data[0].OutputCostPer1MTokens)
	assert.Equal(t, "gpt-4o-mini", data[1].ModelName)
	assert.Equal(t, 0.15, *data[1].InputCostPer1MTokens)
}

func TestRunIngestsIntoStore(t *testing.T) {
	store := testStore(t)
	sc := New(store, nil, quietLogger())
	sc.pricingURL = "http://127.0.0.1:1/pricing"

	count := sc.Run(context.Background())
	assert.Equal(t, 8, count)
	assert.Equal(t, 8, store.Stats().TotalModels)
	assert.Equal(t, []string{"OpenAI"}, store.Providers())
}

func TestParseDollars(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"$2.50 / 1M tokens", 2.5, true},
		{"$0.15", 0.15, true},
		{"  $1,250.00 per month ", 1250, true},
		{"free", 0, false},
		{"$", 0, false},
		{"2.50", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseDollars(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		if tt.wantOK {
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
}

func TestSaveToFile(t *testing.T) {
	sc := New(testStore(t), nil, quietLogger())
	path := filepath.Join(t.TempDir(), "out", "pricing.json")

	require.NoError(t, sc.SaveToFile(SeedData(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raws []pricing.Raw
	require.NoError(t, json.Unmarshal(data, &raws))
	assert.Len(t, raws, 8)
}
