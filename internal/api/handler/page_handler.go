package handler

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"github.com/alphabeta/chapter-portal/internal/core/domain"
)

// mdRenderer leaves WithUnsafe unset, so raw HTML in page content is escaped.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// PageHandler serves the content pages.
type PageHandler struct{}

func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

// List handles GET /v1/pages.
//
// @Summary      List content pages
// @Tags         pages
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.ContentPage
// @Router       /v1/pages [get]
func (h *PageHandler) List(c echo.Context) error {
	p, err := ctxPortal(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p.Pages.List())
}

// Get handles GET /v1/pages/:id.
//
// @Summary      Get a content page
// @Tags         pages
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Page id"
// @Success      200  {object}  domain.ContentPage
// @Failure      404  {object}  errorResponse
// @Router       /v1/pages/{id} [get]
func (h *PageHandler) Get(c echo.Context) error {
	p, err := ctxPortal(c)
	if err != nil {
		return err
	}
	page, ok := p.Pages.Get(c.Param("id"))
	if !ok {
		return domain.ErrNotFound
	}
	return c.JSON(http.StatusOK, page)
}

// HTML handles GET /v1/pages/:id/html, rendering the markdown content.
//
// @Summary      Render a content page
// @Tags         pages
// @Produce      html
// @Security     BearerAuth
// @Param        id   path      string  true  "Page id"
// @Success      200  {string}  string
// @Failure      404  {object}  errorResponse
// @Router       /v1/pages/{id}/html [get]
func (h *PageHandler) HTML(c echo.Context) error {
	p, err := ctxPortal(c)
	if err != nil {
		return err
	}
	page, ok := p.Pages.Get(c.Param("id"))
	if !ok {
		return domain.ErrNotFound
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(page.Content), &buf); err != nil {
		return err
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// Put handles PUT /v1/pages/:id, creating the page when it does not exist.
//
// @Summary      Create or update a content page
// @Tags         pages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Page id"
// @Param        body  body      upsertPageRequest  true  "Page"
// @Success      200   {object}  domain.ContentPage
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/pages/{id} [put]
func (h *PageHandler) Put(c echo.Context) error {
	p, err := ctxPortal(c)
	if err != nil {
		return err
	}
	var req upsertPageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	page, err := p.Pages.Upsert(c.Request().Context(), c.Param("id"), req.Title, req.Content)
	if err != nil {
		return err
	}
	// Reserved pages back the settings snapshot.
	if page.ID == domain.SettingChapterName || page.ID == domain.SettingLogoURL {
		p.Settings.Refresh()
	}
	return c.JSON(http.StatusOK, page)
}

// Delete handles DELETE /v1/pages/:id. Deleting a reserved page restores
// the setting's default.
//
// @Summary      Delete a content page
// @Tags         pages
// @Security     BearerAuth
// @Param        id   path  string  true  "Page id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/pages/{id} [delete]
func (h *PageHandler) Delete(c echo.Context) error {
	p, err := ctxPortal(c)
	if err != nil {
		return err
	}
	id := c.Param("id")
	if err := p.Pages.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	if id == domain.SettingChapterName || id == domain.SettingLogoURL {
		p.Settings.Refresh()
	}
	return c.NoContent(http.StatusNoContent)
}
