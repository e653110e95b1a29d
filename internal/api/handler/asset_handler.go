package handler

import (
	"mime"
	"net/http"
	"path"

	"github.com/labstack/echo/v4"

	"github.com/alphabeta/chapter-portal/internal/core/domain"
	"github.com/alphabeta/chapter-portal/internal/core/ports"
)

// AssetHandler serves uploaded files publicly.
type AssetHandler struct {
	assets ports.AssetStore
}

func NewAssetHandler(assets ports.AssetStore) *AssetHandler {
	return &AssetHandler{assets: assets}
}

// Serve handles GET /assets/:name.
//
// @Summary      Download an uploaded asset
// @Tags         assets
// @Produce      octet-stream
// @Param        name  path  string  true  "Asset name"
// @Success      200
// @Failure      404   {object}  errorResponse
// @Router       /assets/{name} [get]
func (h *AssetHandler) Serve(c echo.Context) error {
	if h.assets == nil {
		return domain.ErrNotFound
	}
	name := path.Base(c.Param("name"))
	rc, err := h.assets.Open(c.Request().Context(), name)
	if err != nil {
		return err
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	c.Response().Header().Set("Cache-Control", "public, max-age=86400")
	return c.Stream(http.StatusOK, contentType, rc)
}
