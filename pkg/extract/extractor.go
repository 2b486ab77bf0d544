// Package extract walks manifest rows and emits normalized tracking
// entries, one strategy per source kind.
package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/huymai96/package-confirmation-app/pkg/manifest"
	"github.com/huymai96/package-confirmation-app/pkg/models"
	"github.com/huymai96/package-confirmation-app/pkg/normalizers"
	"github.com/huymai96/package-confirmation-app/pkg/schema"
	"github.com/huymai96/package-confirmation-app/pkg/tracing"
)

// ciOrderPattern finds a CustomInk order number embedded in an inbound
// reference token: a 7 to 10 digit run immediately followed by the
// package-suffix letter.
var ciOrderPattern = regexp.MustCompile(`(\d{7,10})[A-Za-z]`)

// missingValue is how upstream exports spell an absent cell.
const missingValue = "nan"

// minTrackingLen is the shortest raw tracking cell worth indexing. At five
// characters or fewer the cell is an order count or a column artifact.
const minTrackingLen = 6

// positionalScanCols bounds the inbound fallback scan across each row.
const positionalScanCols = 10

var longDigitPattern = regexp.MustCompile(`^\d{12,}`)

// Extractor turns raw manifest bytes into tracking entries.
type Extractor struct {
	logger ectologger.Logger
}

func New(logger ectologger.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract parses one manifest and emits its tracking entries. A manifest
// with no detectable tracking column yields zero entries, not an error,
// except inbound files which fall back to a positional scan.
func (e *Extractor) Extract(ctx context.Context, file models.ManifestFile, data []byte) ([]*models.TrackingEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "extract.Extractor.Extract")
	defer span.End()

	table, err := manifest.ReadTable(file.Filename, data, file.SourceType)
	if err != nil {
		return nil, err
	}

	return e.ExtractTable(ctx, file, table), nil
}

// ExtractTable emits tracking entries from an already parsed table. Used by
// the build orchestrator, which parses each manifest once and shares the
// table with the combined-master projection.
func (e *Extractor) ExtractTable(ctx context.Context, file models.ManifestFile, table *manifest.Table) []*models.TrackingEntry {
	assignment := schema.Detect(table.Headers, schema.RulesFor(file.SourceType))

	if !assignment.HasTracking() {
		if file.SourceType.Base() == models.SourceInbound {
			return e.extractInboundPositional(ctx, file, table)
		}
		e.logger.WithContext(ctx).WithFields(map[string]any{
			"filename": file.Filename,
			"type":     file.SourceType,
			"headers":  table.Headers,
		}).Warn("no tracking column detected, skipping manifest")
		return nil
	}

	entries := make([]*models.TrackingEntry, 0, len(table.Rows))
	for _, row := range table.Rows {
		key, ok := trackingKey(cell(row, assignment.Column(schema.RoleTracking)))
		if !ok {
			continue
		}
		entries = append(entries, e.buildEntry(file, assignment, row, key))
	}

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"filename": file.Filename,
		"type":     file.SourceType,
		"entries":  len(entries),
	}).Info("extracted manifest")

	return entries
}

// buildEntry maps one accepted row into a TrackingEntry using the detected
// columns for the manifest's source kind.
func (e *Extractor) buildEntry(file models.ManifestFile, assignment schema.Assignment, row []string, key string) *models.TrackingEntry {
	entry := &models.TrackingEntry{
		TrackingKey:       key,
		SourceType:        file.SourceType.Base(),
		SourceFile:        file.Filename,
		PurchaseOrder:     strings.TrimSpace(cell(row, assignment.Column(schema.RolePurchaseOrder))),
		CustomerOrShipper: strings.TrimSpace(cell(row, assignment.Column(schema.RoleCustomer))),
		ShipDate:          strings.TrimSpace(cell(row, assignment.Column(schema.RoleShipDate))),
	}

	if file.SourceType.Base() == models.SourceInbound {
		e.resolveInboundReference(entry, cell(row, assignment.Column(schema.RolePurchaseOrder)))
	}

	return entry
}

// resolveInboundReference splits the free-text reference on "|" and scans
// each token for an embedded CustomInk order number. The first hit becomes
// the entry's PO so the enrichment pass can match it against the
// order-status table.
func (e *Extractor) resolveInboundReference(entry *models.TrackingEntry, reference string) {
	entry.ShipperName = entry.CustomerOrShipper

	var tokens []string
	for _, token := range strings.Split(reference, "|") {
		if token = strings.TrimSpace(token); token != "" {
			tokens = append(tokens, token)
		}
	}
	entry.ReferenceTokens = tokens

	for _, token := range tokens {
		if m := ciOrderPattern.FindStringSubmatch(token); m != nil {
			entry.PurchaseOrder = m[1]
			return
		}
	}
}

// extractInboundPositional handles inbound files without a recognizable
// header: every row's first columns are scanned for UPS-style or long
// numeric tracking values, with fixed reference and shipper positions.
func (e *Extractor) extractInboundPositional(ctx context.Context, file models.ManifestFile, table *manifest.Table) []*models.TrackingEntry {
	var entries []*models.TrackingEntry

	rows := append([][]string{table.Headers}, table.Rows...)
	for _, row := range rows {
		for col := 0; col < len(row) && col < positionalScanCols; col++ {
			val := normalizers.Tracking(row[col])
			if len(val) < 10 {
				continue
			}
			if !strings.HasPrefix(val, "1Z") && !longDigitPattern.MatchString(val) {
				continue
			}

			entry := &models.TrackingEntry{
				TrackingKey:       val,
				SourceType:        models.SourceInbound,
				SourceFile:        file.Filename,
				PurchaseOrder:     strings.TrimSpace(cell(row, 1)),
				CustomerOrShipper: strings.TrimSpace(cell(row, 4)),
			}
			e.resolveInboundReference(entry, cell(row, 1))
			entries = append(entries, entry)
		}
	}

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"filename": file.Filename,
		"entries":  len(entries),
	}).Info("extracted inbound manifest by positional scan")

	return entries
}

// trackingKey applies the shared row-skip rule and normalizes the cell.
func trackingKey(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.EqualFold(trimmed, missingValue) || len(trimmed) < minTrackingLen {
		return "", false
	}
	key := normalizers.Tracking(trimmed)
	if key == "" {
		return "", false
	}
	return key, true
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}
