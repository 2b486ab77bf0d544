// Package projection rebuilds the per-source combined master manifests:
// a deduplicated, time-windowed consolidation of the original rows used as
// the base layer for future builds and as an offline backup.
package projection

import (
	"context"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/xuri/excelize/v2"

	"github.com/huymai96/package-confirmation-app/pkg/manifest"
	"github.com/huymai96/package-confirmation-app/pkg/models"
	"github.com/huymai96/package-confirmation-app/pkg/normalizers"
	"github.com/huymai96/package-confirmation-app/pkg/schema"
	"github.com/huymai96/package-confirmation-app/pkg/tracing"
)

// DefaultWindowDays is the rolling window a combined master covers.
const DefaultWindowDays = 10

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
}

// Projector consolidates parsed manifest tables into one master table per
// source kind.
type Projector struct {
	logger     ectologger.Logger
	windowDays int
	now        func() time.Time
}

func NewProjector(logger ectologger.Logger, windowDays int) *Projector {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &Projector{
		logger:     logger,
		windowDays: windowDays,
		now:        time.Now,
	}
}

// Project consolidates tables of one source kind, in the order given, into
// a single master table. Column layout follows the first table. Rows
// outside the rolling date window are dropped; rows without a parseable
// ship date count as today and stay. Duplicate tracking numbers keep their
// first occurrence.
func (p *Projector) Project(ctx context.Context, source models.SourceType, tables []*manifest.Table) *manifest.Table {
	ctx, span := tracing.StartSpan(ctx, "projection.Projector.Project")
	defer span.End()

	today := dateOnly(p.now().UTC())
	windowStart := today.AddDate(0, 0, -p.windowDays)

	var result *manifest.Table
	seen := make(map[string]bool)
	dropped := 0

	for _, table := range tables {
		if table == nil || len(table.Headers) == 0 {
			continue
		}
		if result == nil {
			result = &manifest.Table{Headers: table.Headers}
		}

		assignment := schema.Detect(table.Headers, schema.RulesFor(source))
		trackingCol := assignment.Column(schema.RoleTracking)
		if trackingCol < 0 {
			continue
		}
		dateCol := assignment.Column(schema.RoleShipDate)
		if dateCol < 0 {
			dateCol = assignment.Column(schema.RoleDueDate)
		}

		for _, row := range table.Rows {
			key := normalizers.Tracking(cell(row, trackingCol))
			if key == "" || seen[key] {
				continue
			}

			rowDate := parseRowDate(cell(row, dateCol), today)
			if rowDate.Before(windowStart) || rowDate.After(today) {
				dropped++
				continue
			}

			seen[key] = true
			result.Rows = append(result.Rows, row)
		}
	}

	if result == nil {
		result = &manifest.Table{}
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"source":  source,
		"rows":    len(result.Rows),
		"dropped": dropped,
	}).Info("projected combined master")

	return result
}

// EncodeWorkbook serializes a projected table as a single-sheet workbook,
// the format the combined masters are stored in. Sources whose feed carries
// a banner row get one back, so re-parsing the master with that source's
// header offset lands on the real header.
func EncodeWorkbook(source models.SourceType, table *manifest.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetList()[0]
	writeRow := func(rowIdx int, values []string) error {
		cellName, err := excelize.CoordinatesToCellName(1, rowIdx)
		if err != nil {
			return err
		}
		row := make([]any, len(values))
		for i, v := range values {
			row[i] = v
		}
		return f.SetSheetRow(sheet, cellName, &row)
	}

	rowIdx := 1
	if manifest.HeaderRowOffset(source) > 0 {
		if err := writeRow(rowIdx, []string{string(source.Base()) + " combined manifest"}); err != nil {
			return nil, err
		}
		rowIdx++
	}

	if err := writeRow(rowIdx, table.Headers); err != nil {
		return nil, err
	}
	for _, row := range table.Rows {
		rowIdx++
		if err := writeRow(rowIdx, row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func parseRowDate(raw string, fallback time.Time) time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		return fallback
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return dateOnly(t)
		}
	}
	return fallback
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}
