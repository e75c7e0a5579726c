package site

import (
	"context"
	"fmt"
	"sync"
)

// Provider is the attribute boundary the engine evaluates against. Cheap is
// O(1) and always available; Extended is memoized and may fail per site,
// which callers treat as "attribute unavailable" rather than aborting a run.
type Provider interface {
	Cheap(id ID) (*Attributes, bool)
	Extended(ctx context.Context, id ID) (*ExtendedAttributes, error)
	IDs() []ID
}

// ComputeExtendedFn derives the expensive attributes for one site.
type ComputeExtendedFn func(ctx context.Context, id ID, attrs *Attributes) (*ExtendedAttributes, error)

// CachedProvider serves cheap attributes from an in-memory index and derives
// extended attributes on first access with compute-once-per-id semantics:
// concurrent callers for the same id share a single computation.
type CachedProvider struct {
	records map[ID]*Attributes
	ids     []ID
	compute ComputeExtendedFn

	mu      sync.Mutex
	entries map[ID]*cacheEntry
}

type cacheEntry struct {
	ready chan struct{}
	ext   *ExtendedAttributes
	err   error
}

// NewCachedProvider indexes the loaded records. Non-habitable sites are kept
// in the index but excluded from IDs, which is the eligible population the
// engine iterates.
func NewCachedProvider(records []Record, compute ComputeExtendedFn) *CachedProvider {
	p := &CachedProvider{
		records: make(map[ID]*Attributes, len(records)),
		compute: compute,
		entries: make(map[ID]*cacheEntry),
	}
	for i := range records {
		r := &records[i]
		p.records[r.ID] = &r.Attrs
		if r.Attrs.Habitable {
			p.ids = append(p.ids, r.ID)
		}
	}
	return p
}

func (p *CachedProvider) Cheap(id ID) (*Attributes, bool) {
	a, ok := p.records[id]
	return a, ok
}

// IDs returns the eligible site ids in load order. Callers must not mutate
// the returned slice.
func (p *CachedProvider) IDs() []ID {
	return p.ids
}

// Extended returns the memoized expensive attributes, computing them on
// first access. The claim-or-wait entry guarantees the computation runs at
// most once per id even under concurrent access.
func (p *CachedProvider) Extended(ctx context.Context, id ID) (*ExtendedAttributes, error) {
	p.mu.Lock()
	if e, ok := p.entries[id]; ok {
		p.mu.Unlock()
		select {
		case <-e.ready:
			return e.ext, e.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	e := &cacheEntry{ready: make(chan struct{})}
	p.entries[id] = e
	p.mu.Unlock()

	attrs, ok := p.records[id]
	if !ok {
		e.err = fmt.Errorf("unknown site %d", id)
	} else {
		e.ext, e.err = p.compute(ctx, id, attrs)
	}

	// A cancellation is not a property of the site; drop the entry so a
	// later run can retry instead of inheriting the stale error.
	if e.err != nil && ctx.Err() != nil {
		p.mu.Lock()
		delete(p.entries, id)
		p.mu.Unlock()
	}
	close(e.ready)
	return e.ext, e.err
}
