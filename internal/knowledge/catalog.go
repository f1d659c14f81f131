package knowledge

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const catalogName = "catalog.json"

// loadCatalog restores the metadata projections and the ID sequence from
// the sidecar file. A missing or unreadable catalog means an empty store;
// the next Add rewrites it.
func (s *Store) loadCatalog() {
	data, err := os.ReadFile(filepath.Join(s.dir, catalogName))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.WithError(err).Warn("Failed to read store catalog, starting empty")
		}
		return
	}

	var cat catalogFile
	if err := json.Unmarshal(data, &cat); err != nil {
		s.logger.WithError(err).Warn("Failed to parse store catalog, starting empty")
		return
	}

	s.entries = cat.Entries
	s.nextSeq = cat.NextSeq
}

// saveCatalog persists the catalog atomically: write to a temp file in
// the same directory, then rename over the old one.
func (s *Store) saveCatalog() {
	cat := catalogFile{NextSeq: s.nextSeq, Entries: s.entries}
	data, err := json.Marshal(cat)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to encode store catalog")
		return
	}

	path := filepath.Join(s.dir, catalogName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		s.logger.WithError(err).Warn("Failed to write store catalog")
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		s.logger.WithError(err).Warn("Failed to replace store catalog")
	}
}
