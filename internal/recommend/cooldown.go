package recommend

import (
	"time"

	"github.com/pathwise/pathwise/internal/catalog"
	"github.com/pathwise/pathwise/internal/profile"
)

// filterCooldown drops content the user interacted with inside the
// window. Shared across all algorithms so exclusion is consistent; no
// scorer applies its own cool-down.
func filterCooldown(items []catalog.ContentItem, p *profile.UserContentProfile, now time.Time, window time.Duration) []catalog.ContentItem {
	out := make([]catalog.ContentItem, 0, len(items))
	for _, item := range items {
		if p.SeenWithin(item.ID, now, window) {
			continue
		}
		out = append(out, item)
	}
	return out
}
