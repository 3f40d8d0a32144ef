package httpx

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"journal.evalgo.org/auth"
	"journal.evalgo.org/text"
)

// TextHandler exposes text-page endpoints.
type TextHandler struct {
	store *text.Store
}

// NewTextHandler creates a text-page handler.
func NewTextHandler(store *text.Store) *TextHandler {
	return &TextHandler{store: store}
}

// RegisterRoutes adds text-page endpoints to the server. The manuscript is
// carried in the body on writes and in the manuscript_id query parameter
// on page reads and deletes.
func (h *TextHandler) RegisterRoutes(e *echo.Echo) {
	mutate := auth.Require(auth.ResourceTexts, auth.OpUpdate)

	e.GET("/text", h.handleList)
	e.GET("/text/manuscript/:id", h.handleListByManuscript)
	e.GET("/text/:page", h.handleGet)
	e.PUT("/text/create", h.handleCreate,
		auth.Require(auth.ResourceTexts, auth.OpCreate))
	e.PUT("/text/update", h.handleUpdate, mutate)
	e.DELETE("/text/:page", h.handleDelete,
		auth.Require(auth.ResourceTexts, auth.OpDelete))
}

// textRequest is the body of the text mutation endpoints.
type textRequest struct {
	ManuscriptID string `json:"manuscript_id"`
	PageNumber   string `json:"pageNumber"`
	Title        string `json:"title"`
	Text         string `json:"text"`
}

// handleList returns all text pages keyed by page number.
func (h *TextHandler) handleList(c echo.Context) error {
	pages, err := h.store.ReadAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pages)
}

// handleListByManuscript returns the ordered pages of one manuscript.
func (h *TextHandler) handleListByManuscript(c echo.Context) error {
	pages, err := h.store.ReadByManuscript(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pages)
}

// handleGet returns one page.
func (h *TextHandler) handleGet(c echo.Context) error {
	page, err := h.store.ReadOne(c.Request().Context(),
		c.QueryParam("manuscript_id"), c.Param("page"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// handleCreate adds a page.
func (h *TextHandler) handleCreate(c echo.Context) error {
	var req textRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	page, err := h.store.Create(c.Request().Context(),
		req.ManuscriptID, req.PageNumber, req.Title, req.Text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// handleUpdate replaces title and text of a page.
func (h *TextHandler) handleUpdate(c echo.Context) error {
	var req textRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	page, err := h.store.Update(c.Request().Context(),
		req.ManuscriptID, req.PageNumber, req.Title, req.Text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// handleDelete removes one page.
func (h *TextHandler) handleDelete(c echo.Context) error {
	if err := h.store.Delete(c.Request().Context(),
		c.QueryParam("manuscript_id"), c.Param("page")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"deleted": c.Param("page")})
}
