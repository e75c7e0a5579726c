// Package store loads the site population the engine evaluates. The
// dataset is mostly static: it is read once at startup and indexed in
// memory; the engine never writes back.
package store

import (
	"context"

	"github.com/terrasift/terrasift/internal/site"
)

// Store is the dataset boundary.
type Store interface {
	LoadSites(ctx context.Context) ([]site.Record, error)
	Close() error
}

// MemoryStore serves a fixed record slice; used in tests and when no
// database is configured.
type MemoryStore struct {
	records []site.Record
}

func NewMemoryStore(records []site.Record) *MemoryStore {
	return &MemoryStore{records: records}
}

func (s *MemoryStore) LoadSites(context.Context) ([]site.Record, error) {
	return s.records, nil
}

func (s *MemoryStore) Close() error { return nil }
