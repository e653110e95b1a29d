package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

const maxLogoBytes = 2 << 20

type SettingsHandler struct{}

func NewSettingsHandler() *SettingsHandler {
	return &SettingsHandler{}
}

// Get handles GET /v1/settings.
//
// @Summary      Application settings
// @Tags         settings
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Settings
// @Router       /v1/settings [get]
func (h *SettingsHandler) Get(c echo.Context) error {
	p, err := ctxPortal(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p.Settings.Get())
}

// Patch handles PATCH /v1/settings.
//
// @Summary      Update settings
// @Tags         settings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      settingsRequest  true  "Settings to change"
// @Success      200   {object}  domain.Settings
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /v1/settings [patch]
func (h *SettingsHandler) Patch(c echo.Context) error {
	p, err := ctxPortal(c)
	if err != nil {
		return err
	}
	var req settingsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	settings, err := p.Settings.Update(c.Request().Context(), req.patch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settings)
}

// Logo handles POST /v1/settings/logo with a multipart "file" field.
//
// @Summary      Upload the chapter logo
// @Tags         settings
// @Accept       mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "Logo image"
// @Success      200   {object}  domain.Settings
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      413   {object}  errorResponse
// @Router       /v1/settings/logo [post]
func (h *SettingsHandler) Logo(c echo.Context) error {
	p, err := ctxPortal(c)
	if err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	if fh.Size > maxLogoBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "logo exceeds 2MB")
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxLogoBytes+1))
	if err != nil {
		return err
	}
	if len(data) > maxLogoBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "logo exceeds 2MB")
	}

	settings, err := p.Settings.UploadLogo(c.Request().Context(), fh.Filename, data)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settings)
}
