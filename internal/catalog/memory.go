package catalog

import (
	"context"
	"slices"
	"sort"
)

// MemoryCatalog is an in-memory Catalog for tests and the CLI demo.
type MemoryCatalog struct {
	items []ContentItem
}

// NewMemoryCatalog creates a catalog over a fixed item set.
func NewMemoryCatalog(items []ContentItem) *MemoryCatalog {
	owned := slices.Clone(items)
	sort.Slice(owned, func(i, j int) bool { return owned[i].ID < owned[j].ID })
	return &MemoryCatalog{items: owned}
}

// ListAvailableContent returns items matching the filters, ordered by ID.
func (c *MemoryCatalog) ListAvailableContent(_ context.Context, f Filters) ([]ContentItem, error) {
	var out []ContentItem
	for _, item := range c.items {
		if f.Subject != "" && item.Subject != f.Subject {
			continue
		}
		if f.MinDifficulty > 0 && item.Difficulty < f.MinDifficulty {
			continue
		}
		if f.MaxDifficulty > 0 && item.Difficulty > f.MaxDifficulty {
			continue
		}
		if len(f.ContentTypes) > 0 && !slices.Contains(f.ContentTypes, item.ContentType) {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}
