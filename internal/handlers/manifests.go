package handlers

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/huymai96/package-confirmation-app/internal/repositories/manifeststore"
	"github.com/huymai96/package-confirmation-app/pkg/models"
	"github.com/huymai96/package-confirmation-app/pkg/utils"
)

// ManifestRepo is the slice of the manifest repository the handler uses.
type ManifestRepo interface {
	Insert(ctx context.Context, filename, sourceType string, content []byte) (*manifeststore.Row, error)
	List(ctx context.Context) ([]manifeststore.Row, error)
	GetContent(ctx context.Context, id uuid.UUID) (*manifeststore.Row, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ManifestHandler serves manifest blob storage: the upload scripts push
// spreadsheets here and the indexer lists and fetches them back.
type ManifestHandler struct {
	repo    ManifestRepo
	baseURL string
	logger  ectologger.Logger
}

func NewManifestHandler(repo ManifestRepo, baseURL string, logger ectologger.Logger) *ManifestHandler {
	return &ManifestHandler{
		repo:    repo,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// UploadManifestRequest is the base64 JSON upload body.
type UploadManifestRequest struct {
	Type     string `json:"type" validate:"required"`
	Filename string `json:"filename" validate:"required"`
	Data     string `json:"data" validate:"required"`
}

// UploadManifestResponse echoes back the stored file's metadata.
type UploadManifestResponse struct {
	Manifest models.ManifestFile `json:"manifest"`
}

// RegisterRoutes registers the manifest routes
func (h *ManifestHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/manifests", h.List)
	g.GET("/manifests/blob/:id", h.GetBlob)
	g.POST("/manifests", h.Upload)
	g.DELETE("/manifests", h.Delete)
}

// List handles GET /manifests?action=list
func (h *ManifestHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	if action := c.QueryParam("action"); action != "" && action != "list" {
		return BadRequest("unknown action: " + action)
	}

	rows, err := h.repo.List(ctx)
	if err != nil {
		return err
	}

	manifests := make([]models.ManifestFile, 0, len(rows))
	for _, row := range rows {
		manifests = append(manifests, h.toManifestFile(row))
	}

	return SuccessResponse(c, models.ManifestListResponse{Manifests: manifests})
}

// GetBlob handles GET /manifests/blob/:id, returning the raw file bytes.
func (h *ManifestHandler) GetBlob(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	row, err := h.repo.GetContent(ctx, id)
	if err != nil {
		return err
	}

	c.Response().Header().Set("Content-Disposition", `attachment; filename="`+row.Filename+`"`)
	return c.Blob(http.StatusOK, echo.MIMEOctetStream, row.Content)
}

// Upload handles POST /manifests
func (h *ManifestHandler) Upload(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[UploadManifestRequest](c)
	if err != nil {
		return err
	}

	if !models.IsValidSourceType(req.Type) {
		return BadRequest("unknown manifest type: " + req.Type)
	}

	content, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		return BadRequest("data must be base64 encoded")
	}
	if len(content) == 0 {
		return BadRequest("manifest is empty")
	}

	row, err := h.repo.Insert(ctx, req.Filename, req.Type, content)
	if err != nil {
		return err
	}

	return SuccessResponse(c, UploadManifestResponse{Manifest: h.toManifestFile(*row)})
}

// Delete handles DELETE /manifests?url=... The url parameter is the blob
// URL handed out by List; only its trailing id matters.
func (h *ManifestHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	rawURL := c.QueryParam("url")
	if rawURL == "" {
		return BadRequest("missing url parameter")
	}

	segments := strings.Split(strings.TrimRight(rawURL, "/"), "/")
	id, err := uuid.Parse(segments[len(segments)-1])
	if err != nil {
		return BadRequest("url does not reference a stored manifest")
	}

	if err := h.repo.Delete(ctx, id); err != nil {
		return err
	}

	return SuccessResponse(c, map[string]string{"deleted": rawURL})
}

func (h *ManifestHandler) toManifestFile(row manifeststore.Row) models.ManifestFile {
	return models.ManifestFile{
		Filename:   row.Filename,
		SourceType: models.SourceType(row.SourceType),
		URL:        h.baseURL + "/api/manifests/blob/" + row.ID.String(),
		Size:       row.Size,
		UploadedAt: row.UploadedAt,
	}
}
