package core

// lookup.go resolves a file extension to the mime types that own it.
//
// Results are memoized per normalized extension in an expirable LRU. Every
// registry write that can change a result invalidates the affected entries
// while still holding the registry write lock, and lookups hold the read
// lock, so a cached answer always reflects a fully applied write.

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lookupCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mimereg_lookup_cache_hits_total",
		Help: "Extension lookups answered from the lookup index.",
	})
	lookupCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mimereg_lookup_cache_misses_total",
		Help: "Extension lookups that had to query the store.",
	})
)

// FindByExtension returns the distinct mime types owning extension, ordered
// by type then subType. "jpg" and ".jpg" resolve identically. A blank
// extension is a ValidationError; an unknown one yields an empty result.
func (r *Registry) FindByExtension(ctx context.Context, extension string) ([]MimeType, error) {
	const op = "lookup"
	trimmed := strings.TrimSpace(extension)
	if trimmed == "" {
		return nil, validationErr(op, EntityFileExtension, extension, "extension", "is required")
	}
	ext := NormalizeExtension(trimmed)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.index != nil {
		if cached, ok := r.index.Get(ext); ok {
			lookupCacheHits.Inc()
			return cloneMimeTypes(cached), nil
		}
		lookupCacheMisses.Inc()
	}

	var found []MimeType
	err := r.store.View(ctx, func(q Querier) error {
		var err error
		found, err = q.MimeTypesByExtension(ctx, ext)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", op, ext, err)
	}
	found = distinctSorted(found)

	if r.index != nil {
		r.index.Add(ext, found)
	}
	return cloneMimeTypes(found), nil
}

// invalidate drops cached lookups for the given extensions.
// Callers hold the write lock.
func (r *Registry) invalidate(extensions ...string) {
	if r.index == nil {
		return
	}
	for _, ext := range extensions {
		if ext != "" {
			r.index.Remove(ext)
		}
	}
}

// purgeIndex drops every cached lookup. Callers hold the write lock.
func (r *Registry) purgeIndex() {
	if r.index != nil {
		r.index.Purge()
	}
}

// distinctSorted removes duplicate IDs and orders by type then subType.
func distinctSorted(in []MimeType) []MimeType {
	seen := make(map[int]bool, len(in))
	out := make([]MimeType, 0, len(in))
	for _, m := range in {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].SubType < out[j].SubType
	})
	return out
}

// cloneMimeTypes deep-copies in, including the audit pointers, so callers
// cannot mutate cached results.
func cloneMimeTypes(in []MimeType) []MimeType {
	out := make([]MimeType, len(in))
	for i, m := range in {
		if m.UpdatedBy != nil {
			by := *m.UpdatedBy
			m.UpdatedBy = &by
		}
		if m.UpdatedDate != nil {
			at := *m.UpdatedDate
			m.UpdatedDate = &at
		}
		out[i] = m
	}
	return out
}
