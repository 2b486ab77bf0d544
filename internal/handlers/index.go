package handlers

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/huymai96/package-confirmation-app/pkg/index"
	"github.com/huymai96/package-confirmation-app/pkg/models"
	"github.com/huymai96/package-confirmation-app/pkg/utils"
)

// SnapshotRepo persists published indexes across restarts.
type SnapshotRepo interface {
	Save(ctx context.Context, idx models.TrackingIndex) error
}

// IndexHandler accepts newly built tracking indexes and serves the current
// one back. Publishing swaps the in-memory index atomically and persists a
// snapshot so restarts pick up where they left off.
type IndexHandler struct {
	holder    *index.Holder
	snapshots SnapshotRepo
	logger    ectologger.Logger
}

func NewIndexHandler(holder *index.Holder, snapshots SnapshotRepo, logger ectologger.Logger) *IndexHandler {
	return &IndexHandler{
		holder:    holder,
		snapshots: snapshots,
		logger:    logger,
	}
}

// PublishIndexRequest wraps the index the build run pushes up.
type PublishIndexRequest struct {
	Index models.TrackingIndex `json:"index" validate:"required"`
}

// PublishIndexResponse reports the accepted entry count.
type PublishIndexResponse struct {
	Entries int `json:"entries"`
}

// RegisterRoutes registers the index routes
func (h *IndexHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/upload-index", h.Publish)
	g.GET("/upload-index", h.Get)
}

// Publish handles POST /upload-index
func (h *IndexHandler) Publish(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[PublishIndexRequest](c)
	if err != nil {
		return err
	}

	h.holder.Publish(req.Index)

	if h.snapshots != nil {
		if err := h.snapshots.Save(ctx, req.Index); err != nil {
			// The in-memory swap already happened; lookups serve the new
			// index even if the snapshot write failed.
			h.logger.WithContext(ctx).WithError(err).Warn("failed to persist index snapshot")
		}
	}

	h.logger.WithContext(ctx).WithFields(map[string]any{
		"entries": len(req.Index),
	}).Info("published tracking index")

	return SuccessResponse(c, PublishIndexResponse{Entries: len(req.Index)})
}

// Get handles GET /upload-index, returning the currently served index.
func (h *IndexHandler) Get(c echo.Context) error {
	if h.holder.PublishedAt().IsZero() {
		return NotFound("no tracking index published")
	}
	return SuccessResponse(c, PublishIndexRequest{Index: h.holder.Snapshot()})
}
