// Package knowledge owns the embedded-document collection that backs every
// pricing query. It is the only component allowed to mutate the
// collection; all other packages receive results as values.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	chromem "github.com/philippgille/chromem-go"
	"github.com/sahilm/fuzzy"
	"github.com/sirupsen/logrus"

	"github.com/modelcost/modelcost/internal/embedding"
	"github.com/modelcost/modelcost/internal/pricing"
)

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "pricing_models"

// ErrEmptyQuery is returned when a similarity query has blank text.
var ErrEmptyQuery = errors.New("knowledge: query text cannot be empty")

// Metadata is the projection of a pricing record stored alongside each
// embedded document. It carries everything the ranker needs so that
// candidate scoring never has to re-read full records.
type Metadata struct {
	ID                      string  `json:"id"`
	Provider                string  `json:"provider"`
	ModelName               string  `json:"model_name"`
	InputCost               float64 `json:"input_cost"`
	OutputCost              float64 `json:"output_cost"`
	ContextWindow           *int    `json:"context_window"`
	SupportsFunctionCalling bool    `json:"supports_function_calling"`
	SupportsVision          bool    `json:"supports_vision"`
	SupportsJSONMode        bool    `json:"supports_json_mode"`
	LastUpdated             string  `json:"last_updated"`
}

// Result is one similarity match: the embedded document, its metadata
// projection, and the vector distance (ascending distance = closer).
type Result struct {
	Document string   `json:"document"`
	Metadata Metadata `json:"metadata"`
	Distance float64  `json:"distance"`
}

// Stats summarises the collection.
type Stats struct {
	TotalModels      int      `json:"total_models"`
	Providers        []string `json:"providers"`
	ProviderCount    int      `json:"provider_count"`
	CollectionName   string   `json:"collection_name"`
	PersistDirectory string   `json:"persist_directory"`
}

// Store wraps a persisted chromem collection plus a catalog sidecar.
// chromem cannot enumerate documents, so the catalog keeps the metadata
// projections (in insertion order) and the ID sequence across restarts.
type Store struct {
	dir            string
	collectionName string
	logger         *logrus.Logger
	embed          embedding.Func

	mu         sync.RWMutex
	db         *chromem.DB
	collection *chromem.Collection
	entries    []Metadata
	nextSeq    uint64

	lock *flock.Flock
}

type catalogFile struct {
	NextSeq uint64     `json:"next_seq"`
	Entries []Metadata `json:"entries"`
}

// Open creates or reopens the collection under dir. The directory is
// locked for the lifetime of the store so two processes cannot interleave
// writes to the same collection files.
func Open(dir, collectionName string, embed embedding.Func, logger *logrus.Logger) (*Store, error) {
	if collectionName == "" {
		collectionName = DefaultCollection
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, "store.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock store directory: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("store directory %s is locked by another process", dir)
	}

	db, err := chromem.NewPersistentDB(filepath.Join(dir, "chromem.gob"), false)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("failed to open chromem DB: %w", err)
	}

	collection, err := db.GetOrCreateCollection(collectionName, nil, noOpEmbeddingFunc())
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("failed to open collection: %w", err)
	}

	s := &Store{
		dir:            dir,
		collectionName: collectionName,
		logger:         logger,
		embed:          embed,
		db:             db,
		collection:     collection,
		lock:           lock,
	}
	s.loadCatalog()

	logger.WithFields(logrus.Fields{
		"dir":        dir,
		"collection": collectionName,
		"documents":  len(s.entries),
	}).Debug("Knowledge store opened")

	return s, nil
}

// Close releases the store directory lock.
func (s *Store) Close() error {
	return s.lock.Unlock()
}

// noOpEmbeddingFunc guards against chromem computing embeddings itself;
// every document and query carries a pre-computed vector.
func noOpEmbeddingFunc() chromem.EmbeddingFunc {
	return func(_ context.Context, _ string) ([]float32, error) {
		return nil, fmt.Errorf("embeddings must be pre-computed")
	}
}

// Add normalises each raw entry, embeds its text form, and appends it to
// the collection. Invalid entries are skipped with a logged warning;
// re-ingesting an existing (provider, model) pair adds a new entry rather
// than replacing the old one. Returns the number actually added.
func (s *Store) Add(ctx context.Context, raws []pricing.Raw) int {
	if len(raws) == 0 {
		s.logger.Warn("No pricing data provided")
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var docs []chromem.Document
	var added []Metadata

	for i, raw := range raws {
		rec, err := pricing.Normalize(raw)
		if err != nil {
			s.logger.WithError(err).WithField("entry", i).Warn("Skipping invalid pricing entry")
			continue
		}

		text := pricing.ToText(rec)
		vec, err := s.embed(ctx, text)
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"provider": rec.Provider,
				"model":    rec.ModelName,
			}).Warn("Skipping entry, embedding failed")
			continue
		}

		// Sequence-based IDs stay collision-free under rapid and
		// concurrent ingestion, unlike wall-clock timestamps.
		s.nextSeq++
		meta := Metadata{
			ID:                      fmt.Sprintf("%s_%s_%d", rec.Provider, rec.ModelName, s.nextSeq),
			Provider:                rec.Provider,
			ModelName:               rec.ModelName,
			InputCost:               rec.InputCostPer1MTokens,
			OutputCost:              rec.OutputCostPer1MTokens,
			ContextWindow:           rec.ContextWindow,
			SupportsFunctionCalling: rec.SupportsFunctionCalling,
			SupportsVision:          rec.SupportsVision,
			SupportsJSONMode:        rec.SupportsJSONMode,
			LastUpdated:             rec.LastUpdated,
		}

		docs = append(docs, chromem.Document{
			ID:        meta.ID,
			Content:   text,
			Metadata:  metaToMap(meta),
			Embedding: vec,
		})
		added = append(added, meta)
	}

	if len(docs) == 0 {
		s.logger.Warn("No valid pricing entries to add")
		return 0
	}

	if err := s.collection.AddDocuments(ctx, docs, 1); err != nil {
		s.logger.WithError(err).Warn("Failed to add documents to collection")
		return 0
	}

	s.entries = append(s.entries, added...)
	s.saveCatalog()

	s.logger.WithField("count", len(docs)).Info("Added pricing entries to knowledge store")
	return len(docs)
}

// Query embeds the text with the same function used at ingestion and
// returns the k nearest documents, optionally restricted to one provider.
// A blank query is an error; an empty collection or an unavailable
// backing store yields an empty result set, never a failure.
func (s *Store) Query(ctx context.Context, text string, k int, providerFilter string) ([]Result, error) {
	if isBlank(text) {
		return nil, ErrEmptyQuery
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// chromem rejects nResults larger than the (filtered) document
	// count, so clamp against the catalog.
	available := len(s.entries)
	var where map[string]string
	if providerFilter != "" {
		where = map[string]string{"provider": providerFilter}
		available = 0
		for _, e := range s.entries {
			if e.Provider == providerFilter {
				available++
			}
		}
	}
	if available == 0 {
		return []Result{}, nil
	}
	if k > available {
		k = available
	}
	if k <= 0 {
		return []Result{}, nil
	}

	vec, err := s.embed(ctx, text)
	if err != nil {
		s.logger.WithError(err).Warn("Query embedding failed, returning no results")
		return []Result{}, nil
	}

	matches, err := s.collection.QueryEmbedding(ctx, vec, k, where, nil)
	if err != nil {
		s.logger.WithError(err).Warn("Collection query failed, returning no results")
		return []Result{}, nil
	}

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		results = append(results, Result{
			Document: m.Content,
			Metadata: metaFromMap(m.ID, m.Metadata),
			Distance: 1 - float64(m.Similarity),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	return results, nil
}

// Providers returns the distinct provider names, sorted.
func (s *Store) Providers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.providersLocked()
}

func (s *Store) providersLocked() []string {
	seen := make(map[string]bool)
	providers := make([]string, 0)
	for _, e := range s.entries {
		if !seen[e.Provider] {
			seen[e.Provider] = true
			providers = append(providers, e.Provider)
		}
	}
	sort.Strings(providers)
	return providers
}

// Models returns the metadata projections in insertion order, optionally
// filtered by provider.
func (s *Store) Models(provider string) []Metadata {
	s.mu.RLock()
	defer s.mu.RUnlock()

	models := make([]Metadata, 0, len(s.entries))
	for _, e := range s.entries {
		if provider == "" || e.Provider == provider {
			models = append(models, e)
		}
	}
	return models
}

// DeleteByProvider removes every entry for the given provider, reporting
// whether anything was removed.
func (s *Store) DeleteByProvider(ctx context.Context, provider string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining := make([]Metadata, 0, len(s.entries))
	removed := 0
	for _, e := range s.entries {
		if e.Provider == provider {
			removed++
		} else {
			remaining = append(remaining, e)
		}
	}
	if removed == 0 {
		s.logger.WithField("provider", provider).Info("No entries found for provider")
		return false
	}

	if err := s.collection.Delete(ctx, map[string]string{"provider": provider}, nil); err != nil {
		s.logger.WithError(err).Warn("Failed to delete provider entries")
		return false
	}

	s.entries = remaining
	s.saveCatalog()

	s.logger.WithFields(logrus.Fields{"provider": provider, "removed": removed}).
		Info("Deleted provider entries")
	return true
}

// Clear drops the entire collection. The ID sequence keeps counting so
// documents added afterwards can never collide with stale persisted state.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteCollection(s.collectionName); err != nil {
		s.logger.WithError(err).Warn("Failed to delete collection")
	}

	collection, err := s.db.GetOrCreateCollection(s.collectionName, nil, noOpEmbeddingFunc())
	if err != nil {
		s.logger.WithError(err).Warn("Failed to recreate collection")
		return
	}

	s.collection = collection
	s.entries = nil
	s.saveCatalog()
	s.logger.Info("Knowledge store cleared")
}

// Stats summarises the collection contents.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	providers := s.providersLocked()
	return Stats{
		TotalModels:      len(s.entries),
		Providers:        providers,
		ProviderCount:    len(providers),
		CollectionName:   s.collectionName,
		PersistDirectory: s.dir,
	}
}

// ClosestProvider fuzzy-matches name against the known providers, for
// "did you mean" suggestions when a filter comes up empty.
func (s *Store) ClosestProvider(name string) (string, bool) {
	providers := s.Providers()
	matches := fuzzy.Find(name, providers)
	if len(matches) == 0 {
		return "", false
	}
	return providers[matches[0].Index], true
}

func metaToMap(m Metadata) map[string]string {
	out := map[string]string{
		"provider":                  m.Provider,
		"model_name":                m.ModelName,
		"input_cost":                strconv.FormatFloat(m.InputCost, 'f', -1, 64),
		"output_cost":               strconv.FormatFloat(m.OutputCost, 'f', -1, 64),
		"supports_function_calling": strconv.FormatBool(m.SupportsFunctionCalling),
		"supports_vision":           strconv.FormatBool(m.SupportsVision),
		"supports_json_mode":        strconv.FormatBool(m.SupportsJSONMode),
		"last_updated":              m.LastUpdated,
	}
	if m.ContextWindow != nil {
		out["context_window"] = strconv.Itoa(*m.ContextWindow)
	}
	return out
}

func metaFromMap(id string, m map[string]string) Metadata {
	meta := Metadata{
		ID:          id,
		Provider:    m["provider"],
		ModelName:   m["model_name"],
		LastUpdated: m["last_updated"],
	}
	meta.InputCost, _ = strconv.ParseFloat(m["input_cost"], 64)
	meta.OutputCost, _ = strconv.ParseFloat(m["output_cost"], 64)
	meta.SupportsFunctionCalling, _ = strconv.ParseBool(m["supports_function_calling"])
	meta.SupportsVision, _ = strconv.ParseBool(m["supports_vision"])
	meta.SupportsJSONMode, _ = strconv.ParseBool(m["supports_json_mode"])
	if cw, ok := m["context_window"]; ok {
		if n, err := strconv.Atoi(cw); err == nil {
			meta.ContextWindow = &n
		}
	}
	return meta
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
