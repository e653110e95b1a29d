package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/alphabeta/chapter-portal/internal/core/domain"
	"github.com/alphabeta/chapter-portal/internal/core/service"
)

// EntityStore is the part of a portal store the CRUD handlers use.
type EntityStore[T any] interface {
	List() []T
	Get(id string) (T, bool)
	Add(ctx context.Context, rec T) (T, error)
	Update(ctx context.Context, id string, patch domain.Patcher) (T, error)
	Delete(ctx context.Context, id string) error
}

// EntityHandler serves one roster collection. Patch is the JSON body of a
// partial update.
type EntityHandler[T any, Patch domain.Patcher] struct {
	store  func(*service.Portal) EntityStore[T]
	filter func(echo.Context, []T) ([]T, error)
}

func NewEntityHandler[T any, Patch domain.Patcher](store func(*service.Portal) EntityStore[T]) *EntityHandler[T, Patch] {
	return &EntityHandler[T, Patch]{store: store}
}

// WithFilter narrows List results, typically by query parameter.
func (h *EntityHandler[T, Patch]) WithFilter(filter func(echo.Context, []T) ([]T, error)) *EntityHandler[T, Patch] {
	h.filter = filter
	return h
}

// List handles GET /v1/{collection}.
//
// @Summary      List a collection
// @Tags         roster
// @Produce      json
// @Security     BearerAuth
// @Param        collection  path      string  true  "members, organizers, affiliates, honor-roll, timeline or users"
// @Success      200         {array}   object
// @Failure      401         {object}  errorResponse
// @Router       /v1/{collection} [get]
func (h *EntityHandler[T, Patch]) List(c echo.Context) error {
	p, err := ctxPortal(c)
	if err != nil {
		return err
	}
	items := h.store(p).List()
	if h.filter != nil {
		if items, err = h.filter(c, items); err != nil {
			return err
		}
	}
	return c.JSON(http.StatusOK, items)
}

// Get handles GET /v1/{collection}/:id.
//
// @Summary      Get a record
// @Tags         roster
// @Produce      json
// @Security     BearerAuth
// @Param        collection  path      string  true  "Collection"
// @Param        id          path      string  true  "Record id"
// @Success      200         {object}  object
// @Failure      404         {object}  errorResponse
// @Router       /v1/{collection}/{id} [get]
func (h *EntityHandler[T, Patch]) Get(c echo.Context) error {
	p, err := ctxPortal(c)
	if err != nil {
		return err
	}
	rec, ok := h.store(p).Get(c.Param("id"))
	if !ok {
		return domain.ErrNotFound
	}
	return c.JSON(http.StatusOK, rec)
}

// Create handles POST /v1/{collection}. Admin only.
//
// @Summary      Create a record
// @Tags         roster
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        collection  path      string  true  "Collection"
// @Success      201         {object}  object
// @Failure      403         {object}  errorResponse
// @Failure      422         {object}  errorResponse
// @Failure      502         {object}  errorResponse
// @Router       /v1/{collection} [post]
func (h *EntityHandler[T, Patch]) Create(c echo.Context) error {
	p, err := ctxPortal(c)
	if err != nil {
		return err
	}
	var rec T
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	added, err := h.store(p).Add(c.Request().Context(), rec)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, added)
}

// Patch handles PATCH /v1/{collection}/:id. Absent keys are left alone and
// null clears a text field. Admin only.
//
// @Summary      Update a record
// @Tags         roster
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        collection  path      string  true  "Collection"
// @Param        id          path      string  true  "Record id"
// @Success      200         {object}  object
// @Failure      403         {object}  errorResponse
// @Failure      404         {object}  errorResponse
// @Failure      422         {object}  errorResponse
// @Router       /v1/{collection}/{id} [patch]
func (h *EntityHandler[T, Patch]) Patch(c echo.Context) error {
	p, err := ctxPortal(c)
	if err != nil {
		return err
	}
	var patch Patch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	updated, err := h.store(p).Update(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /v1/{collection}/:id. Admin only.
//
// @Summary      Delete a record
// @Tags         roster
// @Security     BearerAuth
// @Param        collection  path      string  true  "Collection"
// @Param        id          path      string  true  "Record id"
// @Success      204
// @Failure      403         {object}  errorResponse
// @Failure      404         {object}  errorResponse
// @Failure      409         {object}  errorResponse
// @Router       /v1/{collection}/{id} [delete]
func (h *EntityHandler[T, Patch]) Delete(c echo.Context) error {
	p, err := ctxPortal(c)
	if err != nil {
		return err
	}
	if err := h.store(p).Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
