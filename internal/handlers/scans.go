package handlers

import (
	"context"
	"strconv"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	appcontext "github.com/huymai96/package-confirmation-app/pkg/context"
	"github.com/huymai96/package-confirmation-app/pkg/events"
	"github.com/huymai96/package-confirmation-app/pkg/models"
	"github.com/huymai96/package-confirmation-app/pkg/scanlog"
	"github.com/huymai96/package-confirmation-app/pkg/utils"
)

// ScanRepo is the slice of the scan log the handler uses.
type ScanRepo interface {
	Insert(ctx context.Context, scan models.ScanRecord) (*models.ScanRecord, error)
	Recent(ctx context.Context, limit int) ([]models.ScanRecord, error)
}

// ScanHandler records point-of-scan events from the warehouse stations.
// The CSV appender mirrors each record to the station-side audit file and
// may be nil.
type ScanHandler struct {
	repo     ScanRepo
	appender *scanlog.Appender
	emitter  *events.Emitter
	logger   ectologger.Logger
}

func NewScanHandler(repo ScanRepo, appender *scanlog.Appender, emitter *events.Emitter, logger ectologger.Logger) *ScanHandler {
	return &ScanHandler{
		repo:     repo,
		appender: appender,
		emitter:  emitter,
		logger:   logger,
	}
}

// RecordScanRequest is one station scan.
type RecordScanRequest struct {
	Tracking string `json:"tracking" validate:"required"`
	PO       string `json:"po"`
	Customer string `json:"customer"`
	Source   string `json:"source"`
}

// RegisterRoutes registers the scan routes
func (h *ScanHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/scans", h.Record)
	g.GET("/scans", h.Recent)
}

// Record handles POST /scans
func (h *ScanHandler) Record(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[RecordScanRequest](c)
	if err != nil {
		return err
	}

	scan, err := h.repo.Insert(ctx, models.ScanRecord{
		Tracking: req.Tracking,
		PO:       req.PO,
		Customer: req.Customer,
		Source:   req.Source,
		Station:  appcontext.GetStationID(ctx),
	})
	if err != nil {
		return err
	}

	if h.appender != nil {
		if err := h.appender.Append(*scan); err != nil {
			h.logger.WithContext(ctx).WithError(err).Warn("failed to append scan to audit file")
		}
	}

	if h.emitter != nil {
		if err := h.emitter.EmitScanRecorded(ctx, scan); err != nil {
			h.logger.WithContext(ctx).WithError(err).Warn("failed to emit scan event")
		}
	}

	return CreatedResponse(c, scan)
}

// Recent handles GET /scans?limit=
func (h *ScanHandler) Recent(c echo.Context) error {
	ctx := c.Request().Context()

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return BadRequest("limit must be a non-negative integer")
		}
		limit = parsed
	}

	scans, err := h.repo.Recent(ctx, limit)
	if err != nil {
		return err
	}

	return SuccessResponse(c, map[string]any{"scans": scans})
}
