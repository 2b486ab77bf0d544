// Package orderstatus builds the purchase-order enrichment table from the
// CustomInk order-status workbook.
package orderstatus

import (
	"context"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/huymai96/package-confirmation-app/pkg/manifest"
	"github.com/huymai96/package-confirmation-app/pkg/models"
	"github.com/huymai96/package-confirmation-app/pkg/normalizers"
	"github.com/huymai96/package-confirmation-app/pkg/schema"
	"github.com/huymai96/package-confirmation-app/pkg/tracing"
)

// MinPODigits is the shortest digit run accepted as an order key. Shorter
// runs are style numbers and quantities, not order numbers.
const MinPODigits = 7

// dueDateDisplayLayout is the short weekday form shown on the scan station.
const dueDateDisplayLayout = "Mon, Jan 02"

var dueDateInputLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"Jan 2, 2006",
}

// Builder parses order-status workbooks into OrderStatusTables.
type Builder struct {
	logger ectologger.Logger
}

func NewBuilder(logger ectologger.Logger) *Builder {
	return &Builder{logger: logger}
}

// Build parses one order-status workbook. Rows whose order number reduces
// to fewer than MinPODigits digits are dropped. The last row with a given
// digit key wins.
func (b *Builder) Build(ctx context.Context, filename string, data []byte) (models.OrderStatusTable, error) {
	ctx, span := tracing.StartSpan(ctx, "orderstatus.Builder.Build")
	defer span.End()

	table, err := manifest.ReadTable(filename, data, models.SourceCustomInk)
	if err != nil {
		return nil, err
	}

	return b.BuildFromTable(ctx, filename, table), nil
}

// BuildFromTable builds the enrichment table from an already parsed
// workbook, so a batch run can parse each CustomInk file once and feed it
// to both extraction and enrichment.
func (b *Builder) BuildFromTable(ctx context.Context, filename string, table *manifest.Table) models.OrderStatusTable {
	assignment := schema.Detect(table.Headers, schema.OrderStatusRules)
	poCol := assignment.Column(schema.RolePurchaseOrder)
	if poCol < 0 {
		b.logger.WithContext(ctx).WithFields(map[string]any{
			"filename": filename,
			"headers":  table.Headers,
		}).Warn("no order number column detected, skipping order-status file")
		return models.OrderStatusTable{}
	}

	deptCol := assignment.Column(schema.RoleDepartment)
	dueCol := assignment.Column(schema.RoleDueDate)
	statusCol := assignment.Column(schema.RoleStatus)

	result := make(models.OrderStatusTable)
	for _, row := range table.Rows {
		digits := normalizers.DigitsOnly(cell(row, poCol))
		if len(digits) < MinPODigits {
			continue
		}

		status := strings.TrimSpace(cell(row, statusCol))
		result[digits] = models.OrderStatusRecord{
			PurchaseOrderDigits: digits,
			Department:          strings.TrimSpace(cell(row, deptCol)),
			DueDate:             FormatDueDate(cell(row, dueCol)),
			Status:              status,
			PipelineFlag:        PipelineFlag(status),
		}
	}

	b.logger.WithContext(ctx).WithFields(map[string]any{
		"filename": filename,
		"orders":   len(result),
	}).Info("built order-status table")

	return result
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// PipelineFlag derives the scan-station flag from free-text order status.
func PipelineFlag(status string) string {
	lower := strings.ToLower(status)
	if strings.Contains(lower, "on hold") {
		return models.PipelineFlagOnHold
	}
	if strings.Contains(lower, "pipeline") || strings.Contains(lower, "pending") {
		return models.PipelineFlagPipelined
	}
	return models.PipelineFlagNone
}

// FormatDueDate reformats a parseable due date to the short weekday display
// form. Unparseable values pass through unchanged.
func FormatDueDate(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}
	for _, layout := range dueDateInputLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(dueDateDisplayLayout)
		}
	}
	return value
}
