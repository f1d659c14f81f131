package knowledge

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelcost/modelcost/internal/embedding"
	"github.com/modelcost/modelcost/internal/pricing"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(t.TempDir(), DefaultCollection, embedding.NewLocal(), quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func rawEntry(provider, model string, in, out float64) pricing.Raw {
	return pricing.Raw{
		Provider:              provider,
		ModelName:             model,
		InputCostPer1MTokens:  &in,
		OutputCostPer1MTokens: &out,
	}
}

func TestAddAndQueryRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	added := store.Add(ctx, []pricing.Raw{
		rawEntry("OpenAI", "gpt-4o", 2.5, 10),
		rawEntry("OpenAI", "gpt-4o-mini", 0.15, 0.6),
	})
	require.Equal(t, 2, added)

	results, err := store.Query(ctx, "gpt-4o pricing", 5, "")
	require.NoError(t, err)
	require.NotEmpty(t, results)

	for _, res := range results {
		assert.Equal(t, "OpenAI", res.Metadata.Provider)
		assert.GreaterOrEqual(t, res.Distance, float64(0))
	}
}

func TestQueryIdenticalTextNearZeroDistance(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	raw := rawEntry("OpenAI", "gpt-4o", 2.5, 10)
	require.Equal(t, 1, store.Add(ctx, []pricing.Raw{raw}))

	rec, err := pricing.Normalize(raw)
	require.NoError(t, err)

	results, err := store.Query(ctx, pricing.ToText(rec), 1, "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 0, results[0].Distance, 1e-3)
}

func TestQueryResultsSortedByDistance(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	store.Add(ctx, []pricing.Raw{
		rawEntry("OpenAI", "gpt-4o", 2.5, 10),
		rawEntry("OpenAI", "gpt-3.5-turbo", 0.5, 1.5),
		rawEntry("OpenAI", "text-embedding-3-small", 0.02, 0),
	})

	results, err := store.Query(ctx, "cheap embedding model", 3, "")
	require.NoError(t, err)
	require.True(t, len(results) >= 2)

	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i-1].Distance, results[i].Distance)
	}
}

func TestQueryBlankTextFails(t *testing.T) {
	store := openTestStore(t)

	for _, text := range []string{"", "   ", "\t\n", "  "} {
		_, err := store.Query(context.Background(), text, 5, "")
		assert.ErrorIs(t, err, ErrEmptyQuery, "query %q", text)
	}
}

func TestQueryEmptyStoreReturnsNoResults(t *testing.T) {
	store := openTestStore(t)

	results, err := store.Query(context.Background(), "anything", 5, "")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestQueryClampsResultCount(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	store.Add(ctx, []pricing.Raw{rawEntry("OpenAI", "gpt-4o", 2.5, 10)})

	results, err := store.Query(ctx, "gpt", 50, "")
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestQueryProviderFilter(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	store.Add(ctx, []pricing.Raw{
		rawEntry("OpenAI", "gpt-4o", 2.5, 10),
		rawEntry("Anthropic", "claude-sonnet", 3, 15),
	})

	results, err := store.Query(ctx, "model pricing", 5, "Anthropic")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, res := range results {
		assert.Equal(t, "Anthropic", res.Metadata.Provider)
	}
}

func TestAddSkipsInvalidEntries(t *testing.T) {
	store := openTestStore(t)

	bad := rawEntry("", "nameless", 1, 1)
	added := store.Add(context.Background(), []pricing.Raw{
		rawEntry("OpenAI", "gpt-4o", 2.5, 10),
		bad,
	})

	assert.Equal(t, 1, added)
	assert.Equal(t, 1, store.Stats().TotalModels)
}

func TestIDsStayUniqueForRepeatedModel(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	store.Add(ctx, []pricing.Raw{rawEntry("OpenAI", "gpt-4o", 2.5, 10)})
	store.Add(ctx, []pricing.Raw{rawEntry("OpenAI", "gpt-4o", 2.4, 9.5)})

	models := store.Models("OpenAI")
	require.Len(t, models, 2)
	assert.NotEqual(t, models[0].ID, models[1].ID)
}

func TestProvidersSortedDistinct(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	store.Add(ctx, []pricing.Raw{
		rawEntry("OpenAI", "gpt-4o", 2.5, 10),
		rawEntry("Anthropic", "claude-sonnet", 3, 15),
		rawEntry("OpenAI", "gpt-4o-mini", 0.15, 0.6),
	})

	assert.Equal(t, []string{"Anthropic", "OpenAI"}, store.Providers())
}

func TestDeleteByProvider(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	store.Add(ctx, []pricing.Raw{
		rawEntry("OpenAI", "gpt-4o", 2.5, 10),
		rawEntry("Anthropic", "claude-sonnet", 3, 15),
	})

	assert.True(t, store.DeleteByProvider(ctx, "OpenAI"))
	assert.Equal(t, []string{"Anthropic"}, store.Providers())

	assert.False(t, store.DeleteByProvider(ctx, "OpenAI"))
}

func TestDeleteByProviderKeepsCatalogOnStorageFailure(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, DefaultCollection, embedding.NewLocal(), quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	store.Add(ctx, []pricing.Raw{
		rawEntry("OpenAI", "gpt-4o", 2.5, 10),
		rawEntry("Anthropic", "claude-sonnet", 3, 15),
	})

	// Swap every persisted document gob for a non-empty directory so the
	// backing store cannot remove it and the delete fails partway.
	err = filepath.WalkDir(filepath.Join(dir, "chromem.gob"), func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".gob" {
			return err
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		if err := os.MkdirAll(path, 0700); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(path, "blocker"), []byte("x"), 0600)
	})
	require.NoError(t, err)

	assert.False(t, store.DeleteByProvider(ctx, "OpenAI"))

	models := store.Models("")
	require.Len(t, models, 2)
	assert.Len(t, store.Models("OpenAI"), 1)
	assert.Len(t, store.Models("Anthropic"), 1)
	assert.Equal(t, []string{"Anthropic", "OpenAI"}, store.Providers())
}

func TestClear(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	store.Add(ctx, []pricing.Raw{rawEntry("OpenAI", "gpt-4o", 2.5, 10)})
	store.Clear(ctx)

	assert.Zero(t, store.Stats().TotalModels)

	results, err := store.Query(ctx, "gpt", 5, "")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStats(t *testing.T) {
	store := openTestStore(t)

	store.Add(context.Background(), []pricing.Raw{
		rawEntry("OpenAI", "gpt-4o", 2.5, 10),
		rawEntry("Anthropic", "claude-sonnet", 3, 15),
	})

	stats := store.Stats()
	assert.Equal(t, 2, stats.TotalModels)
	assert.Equal(t, 2, stats.ProviderCount)
	assert.Equal(t, DefaultCollection, stats.CollectionName)
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	logger := quietLogger()
	embed := embedding.NewLocal()

	store, err := Open(dir, DefaultCollection, embed, logger)
	require.NoError(t, err)
	store.Add(context.Background(), []pricing.Raw{rawEntry("OpenAI", "gpt-4o", 2.5, 10)})
	require.NoError(t, store.Close())

	reopened, err := Open(dir, DefaultCollection, embed, logger)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	assert.Equal(t, 1, reopened.Stats().TotalModels)

	results, err := reopened.Query(context.Background(), "gpt-4o pricing", 1, "")
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestClosestProvider(t *testing.T) {
	store := openTestStore(t)

	store.Add(context.Background(), []pricing.Raw{rawEntry("OpenAI", "gpt-4o", 2.5, 10)})

	suggestion, ok := store.ClosestProvider("openai")
	assert.True(t, ok)
	assert.Equal(t, "OpenAI", suggestion)
}
