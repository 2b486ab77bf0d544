package handlers

import (
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	appcontext "github.com/huymai96/package-confirmation-app/pkg/context"
	"github.com/huymai96/package-confirmation-app/pkg/index"
	"github.com/huymai96/package-confirmation-app/pkg/models"
)

// LookupHandler answers scan-station tracking lookups from the in-memory
// index. Misses return found=false with HTTP 200; the station treats any
// non-200 as a store outage, not a miss.
type LookupHandler struct {
	holder *index.Holder
	logger ectologger.Logger
}

func NewLookupHandler(holder *index.Holder, logger ectologger.Logger) *LookupHandler {
	return &LookupHandler{
		holder: holder,
		logger: logger,
	}
}

// RegisterRoutes registers the lookup routes
func (h *LookupHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/label-lookup", h.Lookup)
}

// Lookup handles GET /label-lookup?action=lookup&tracking=...
func (h *LookupHandler) Lookup(c echo.Context) error {
	ctx := c.Request().Context()

	switch c.QueryParam("action") {
	case "health":
		return SuccessResponse(c, map[string]any{
			"status":  "ok",
			"entries": h.holder.Size(),
		})
	case "lookup", "":
	default:
		return BadRequest("unknown action: " + c.QueryParam("action"))
	}

	tracking := c.QueryParam("tracking")
	if tracking == "" {
		return BadRequest("missing tracking parameter")
	}

	entry, found := h.holder.Lookup(tracking)
	if !found {
		h.logger.WithContext(ctx).WithFields(map[string]any{
			"tracking": tracking,
			"station":  appcontext.GetStationID(ctx),
		}).Info("lookup miss")
		return SuccessResponse(c, models.LookupResponse{Found: false, Tracking: tracking})
	}

	return SuccessResponse(c, models.LookupResponse{
		Found:         true,
		Tracking:      tracking,
		TrackingEntry: entry,
	})
}
