package index

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huymai96/package-confirmation-app/pkg/models"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func entry(key, po string) *models.TrackingEntry {
	return &models.TrackingEntry{TrackingKey: key, PurchaseOrder: po, SourceType: models.SourceSanmar}
}

func TestMerge_LastWriteWins(t *testing.T) {
	batchA := []*models.TrackingEntry{entry("1Z100", "111")}
	batchB := []*models.TrackingEntry{entry("1Z100", "222")}

	idx := NewMerger(testLogger()).Merge(context.Background(), [][]*models.TrackingEntry{batchA, batchB}, nil)

	require.Len(t, idx, 1)
	assert.Equal(t, "222", idx["1Z100"].PurchaseOrder)
}

func TestMerge_EnrichmentJoinsOnPODigits(t *testing.T) {
	batches := [][]*models.TrackingEntry{{
		entry("1Z999AA10123456784", "7654321B"),
		entry("1Z200", "no digits"),
	}}
	orders := models.OrderStatusTable{
		"7654321": {
			PurchaseOrderDigits: "7654321",
			Department:          "Embroidery",
			DueDate:             "Sat, Jun 01",
			Status:              "Pipelined",
			PipelineFlag:        models.PipelineFlagPipelined,
		},
	}

	idx := NewMerger(testLogger()).Merge(context.Background(), batches, orders)

	enriched := idx["1Z999AA10123456784"]
	assert.Equal(t, "Embroidery", enriched.Department)
	assert.Equal(t, "Sat, Jun 01", enriched.DueDate)
	assert.Equal(t, "Pipelined", enriched.Status)
	assert.Equal(t, models.PipelineFlagPipelined, enriched.PipelineFlag)

	assert.Empty(t, idx["1Z200"].Department)
}

func TestMerge_EnrichmentUsesFinalPO(t *testing.T) {
	// The base layer's PO matches an order, but the overlay replaces the PO
	// with one that does not. Enrichment must follow the final PO.
	base := []*models.TrackingEntry{entry("1Z300", "7654321")}
	overlay := []*models.TrackingEntry{entry("1Z300", "9999999")}
	orders := models.OrderStatusTable{
		"7654321": {PurchaseOrderDigits: "7654321", Department: "Embroidery"},
	}

	idx := NewMerger(testLogger()).Merge(context.Background(), [][]*models.TrackingEntry{base, overlay}, orders)

	assert.Empty(t, idx["1Z300"].Department)
}

func TestMerge_SkipsNilAndKeylessEntries(t *testing.T) {
	batches := [][]*models.TrackingEntry{{nil, {TrackingKey: ""}, entry("1Z400", "1")}}

	idx := NewMerger(testLogger()).Merge(context.Background(), batches, nil)

	assert.Len(t, idx, 1)
}

func TestSortBatches_CombinedFirst(t *testing.T) {
	files := []models.ManifestFile{
		{Filename: "sanmar_0602.csv", SourceType: models.SourceSanmar},
		{Filename: "ss_combined.xlsx", SourceType: models.SourceSSCombined},
		{Filename: "inbound_0601.csv", SourceType: models.SourceInbound},
		{Filename: "sanmar_combined.xlsx", SourceType: models.SourceSanmarCombined},
	}

	sorted := SortBatches(files)

	assert.Equal(t, "sanmar_combined.xlsx", sorted[0].Filename)
	assert.Equal(t, "ss_combined.xlsx", sorted[1].Filename)
	assert.Equal(t, "inbound_0601.csv", sorted[2].Filename)
	assert.Equal(t, "sanmar_0602.csv", sorted[3].Filename)
}

func TestHolder_PublishAndLookup(t *testing.T) {
	h := NewHolder()

	_, ok := h.Lookup("1Z999AA10123456784")
	assert.False(t, ok)

	h.Publish(models.TrackingIndex{
		"1Z999AA10123456784": entry("1Z999AA10123456784", "7654321B"),
	})

	got, ok := h.Lookup(" 1z 999-aa1.0123456784 ")
	require.True(t, ok)
	assert.Equal(t, "7654321B", got.PurchaseOrder)

	assert.Equal(t, 1, h.Size())
	assert.False(t, h.PublishedAt().IsZero())

	_, ok = h.Lookup("")
	assert.False(t, ok)
}
