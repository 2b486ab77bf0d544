// Package indexsnapshot persists published tracking indexes so the lookup
// service can reload the latest one on startup.
package indexsnapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/huymai96/package-confirmation-app/pkg/database"
	"github.com/huymai96/package-confirmation-app/pkg/models"
	"github.com/huymai96/package-confirmation-app/pkg/tracing"
)

// keepSnapshots is how many published snapshots stay behind for rollback.
const keepSnapshots = 5

// Row is one stored index snapshot.
type Row struct {
	ID          uuid.UUID                            `db:"id"`
	Entries     database.JSONB[models.TrackingIndex] `db:"entries"`
	EntryCount  int                                  `db:"entry_count"`
	PublishedAt time.Time                            `db:"published_at"`
}

// Repository handles index snapshot persistence
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

// Save stores a new snapshot and prunes the ones past the retention count,
// in one transaction so the table never holds a partial publish.
func (r *Repository) Save(ctx context.Context, idx models.TrackingIndex) error {
	ctx, span := tracing.StartSpan(ctx, "indexsnapshot.Repository.Save")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"method":  "Save",
		"entries": len(idx),
	})

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		log.WithError(err).Error("Failed to start transaction")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to save index snapshot")
	}
	defer tx.Rollback(ctx)

	ib := database.NewInsertBuilder()
	ib.InsertInto("index_snapshots").
		Cols("id", "entries", "entry_count", "published_at").
		Values(uuid.New(), database.JSONB[models.TrackingIndex]{Data: idx}, len(idx), time.Now().UTC())

	query, args := ib.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		log.WithError(err).Error("Failed to save index snapshot")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to save index snapshot")
	}

	db := database.NewDeleteBuilder()
	db.DeleteFrom("index_snapshots").
		Where(fmt.Sprintf("id NOT IN (SELECT id FROM index_snapshots ORDER BY published_at DESC LIMIT %d)", keepSnapshots))

	query, args = db.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		log.WithError(err).Error("Failed to prune old index snapshots")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to save index snapshot")
	}

	if err := tx.Commit(ctx); err != nil {
		log.WithError(err).Error("Failed to commit index snapshot")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to save index snapshot")
	}

	log.Debug("Saved index snapshot")
	return nil
}

// Latest returns the most recently published snapshot, or nil when none
// has been published yet.
func (r *Repository) Latest(ctx context.Context) (*Row, error) {
	ctx, span := tracing.StartSpan(ctx, "indexsnapshot.Repository.Latest")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("id", "entries", "entry_count", "published_at")
	sb.From("index_snapshots")
	sb.OrderBy("published_at").Desc()
	sb.Limit(1)

	query, args := sb.Build()
	var row Row
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to load latest index snapshot")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load index snapshot")
	}
	return &row, nil
}
