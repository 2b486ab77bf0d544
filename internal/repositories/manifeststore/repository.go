// Package manifeststore persists raw manifest files in Postgres so the
// store survives restarts and the indexer can fetch them by URL.
package manifeststore

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/huymai96/package-confirmation-app/pkg/database"
	"github.com/huymai96/package-confirmation-app/pkg/tracing"
)

// Row is one stored manifest. Content is omitted from list queries.
type Row struct {
	ID         uuid.UUID `db:"id"`
	Filename   string    `db:"filename"`
	SourceType string    `db:"source_type"`
	Size       int64     `db:"size"`
	Content    []byte    `db:"content"`
	UploadedAt time.Time `db:"uploaded_at"`
}

// Repository handles manifest blob persistence
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

// Insert stores a new manifest blob.
func (r *Repository) Insert(ctx context.Context, filename, sourceType string, content []byte) (*Row, error) {
	ctx, span := tracing.StartSpan(ctx, "manifeststore.Repository.Insert")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"method":   "Insert",
		"filename": filename,
		"type":     sourceType,
	})

	row := &Row{
		ID:         uuid.New(),
		Filename:   filename,
		SourceType: sourceType,
		Size:       int64(len(content)),
		Content:    content,
		UploadedAt: time.Now().UTC(),
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("manifests")
	sb.Cols("id", "filename", "source_type", "size", "content", "uploaded_at")
	sb.Values(row.ID, row.Filename, row.SourceType, row.Size, row.Content, row.UploadedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.WithError(err).Error("Failed to insert manifest")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to store manifest")
	}

	log.Debug("Stored manifest")
	return row, nil
}

// List returns metadata for every stored manifest, newest first. Content is
// not loaded.
func (r *Repository) List(ctx context.Context) ([]Row, error) {
	ctx, span := tracing.StartSpan(ctx, "manifeststore.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "filename", "source_type", "size", "uploaded_at")
	sb.From("manifests")
	sb.OrderBy("uploaded_at").Desc()

	query, args := sb.Build()
	var rows []Row
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list manifests")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list manifests")
	}
	return rows, nil
}

// GetContent loads one manifest blob by id.
func (r *Repository) GetContent(ctx context.Context, id uuid.UUID) (*Row, error) {
	ctx, span := tracing.StartSpan(ctx, "manifeststore.Repository.GetContent")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "filename", "source_type", "size", "content", "uploaded_at")
	sb.From("manifests")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var row Row
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPError(http.StatusNotFound, "manifest not found")
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to load manifest")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load manifest")
	}
	return &row, nil
}

// Delete removes one manifest by id.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "manifeststore.Repository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom("manifests")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete manifest")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete manifest")
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, "manifest not found")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": id}).Debug("Deleted manifest")
	return nil
}
