// Package index merges extracted tracking entries into the lookup index
// and holds the currently published copy for the scan station.
package index

import (
	"context"
	"sort"

	"github.com/Gobusters/ectologger"

	"github.com/huymai96/package-confirmation-app/pkg/models"
	"github.com/huymai96/package-confirmation-app/pkg/normalizers"
	"github.com/huymai96/package-confirmation-app/pkg/tracing"
)

// Merger combines per-manifest entries into one TrackingIndex.
type Merger struct {
	logger ectologger.Logger
}

func NewMerger(logger ectologger.Logger) *Merger {
	return &Merger{logger: logger}
}

// Merge folds entry batches into a single index and then runs the
// enrichment pass against the order-status table.
//
// Batches must arrive in precedence order: combined/master files first,
// per-manifest files after. Within that order the last write wins per
// tracking key, so granular data overlays the consolidated base without
// any timestamp comparison. Enrichment happens only after every batch is
// folded in, so it always reflects the final PO for each key.
func (m *Merger) Merge(ctx context.Context, batches [][]*models.TrackingEntry, orders models.OrderStatusTable) models.TrackingIndex {
	ctx, span := tracing.StartSpan(ctx, "index.Merger.Merge")
	defer span.End()

	merged := make(models.TrackingIndex)
	for _, batch := range batches {
		for _, entry := range batch {
			if entry == nil || entry.TrackingKey == "" {
				continue
			}
			merged[entry.TrackingKey] = entry
		}
	}

	enriched := 0
	for _, entry := range merged {
		digits := normalizers.DigitsOnly(entry.PurchaseOrder)
		rec, ok := orders[digits]
		if !ok {
			continue
		}
		entry.Department = rec.Department
		entry.DueDate = rec.DueDate
		entry.Status = rec.Status
		entry.PipelineFlag = rec.PipelineFlag
		enriched++
	}

	m.logger.WithContext(ctx).WithFields(map[string]any{
		"entries":  len(merged),
		"enriched": enriched,
		"orders":   len(orders),
	}).Info("merged tracking index")

	return merged
}

// SortBatches orders manifest files for merging: combined masters first,
// then everything else, each group ordered by filename for deterministic
// runs.
func SortBatches(files []models.ManifestFile) []models.ManifestFile {
	sorted := make([]models.ManifestFile, len(files))
	copy(sorted, files)
	sort.SliceStable(sorted, func(i, j int) bool {
		ci, cj := sorted[i].SourceType.IsCombined(), sorted[j].SourceType.IsCombined()
		if ci != cj {
			return ci
		}
		return sorted[i].Filename < sorted[j].Filename
	})
	return sorted
}
