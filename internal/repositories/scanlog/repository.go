// Package scanlog persists point-of-scan events for audit.
package scanlog

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/huymai96/package-confirmation-app/pkg/database"
	"github.com/huymai96/package-confirmation-app/pkg/models"
	"github.com/huymai96/package-confirmation-app/pkg/tracing"
)

const scanEventsTable = "scan_events"

var scanStruct = database.NewStruct(new(models.ScanRecord))

// Repository handles scan event persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Insert records one scan event. The returned record carries the generated
// id and timestamp.
func (r *Repository) Insert(ctx context.Context, scan models.ScanRecord) (*models.ScanRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "scanlog.Repository.Insert")
	defer span.End()

	scan.ID = uuid.NewString()
	if scan.ScannedAt.IsZero() {
		scan.ScannedAt = time.Now().UTC()
	}

	ib := scanStruct.InsertInto(scanEventsTable, scan)

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to insert scan event")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to record scan")
	}

	return &scan, nil
}

// Recent returns the newest scan events, most recent first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]models.ScanRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "scanlog.Repository.Recent")
	defer span.End()

	if limit <= 0 {
		limit = 100
	}

	sb := scanStruct.SelectFrom(scanEventsTable)
	sb.OrderBy("scanned_at").Desc()
	sb.Limit(limit)

	query, args := sb.Build()
	var scans []models.ScanRecord
	if err := r.db.SelectContext(ctx, &scans, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list scan events")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list scans")
	}
	return scans, nil
}
