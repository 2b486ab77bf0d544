package index

import (
	"sync"
	"time"

	"github.com/huymai96/package-confirmation-app/pkg/models"
	"github.com/huymai96/package-confirmation-app/pkg/normalizers"
)

// Holder keeps the currently published index in memory. Lookups read the
// published copy directly; Publish swaps the whole map at once so readers
// never observe a half-built index.
type Holder struct {
	mu          sync.RWMutex
	index       models.TrackingIndex
	publishedAt time.Time
}

func NewHolder() *Holder {
	return &Holder{index: models.TrackingIndex{}}
}

// Publish replaces the live index.
func (h *Holder) Publish(idx models.TrackingIndex) {
	if idx == nil {
		idx = models.TrackingIndex{}
	}
	h.mu.Lock()
	h.index = idx
	h.publishedAt = time.Now().UTC()
	h.mu.Unlock()
}

// Lookup resolves a raw tracking value against the published index. The
// input is normalized with the same rule used at build time, so scanner
// input with spaces or dashes still matches.
func (h *Holder) Lookup(raw string) (*models.TrackingEntry, bool) {
	key := normalizers.Tracking(raw)
	if key == "" {
		return nil, false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	entry, ok := h.index[key]
	return entry, ok
}

// Size returns the entry count of the published index.
func (h *Holder) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.index)
}

// PublishedAt returns when the live index was last swapped in. Zero when
// nothing has been published yet.
func (h *Holder) PublishedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.publishedAt
}

// Snapshot returns the live index map. Callers must treat it as read-only.
func (h *Holder) Snapshot() models.TrackingIndex {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.index
}
