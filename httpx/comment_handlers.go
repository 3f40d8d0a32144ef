package httpx

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"journal.evalgo.org/auth"
	"journal.evalgo.org/comments"
)

// CommentHandler exposes comment endpoints.
type CommentHandler struct {
	store *comments.Store
}

// NewCommentHandler creates a comment handler.
func NewCommentHandler(store *comments.Store) *CommentHandler {
	return &CommentHandler{store: store}
}

// RegisterRoutes adds comment endpoints to the server.
func (h *CommentHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/comments", h.handleList)
	e.GET("/comments/manuscript/:id", h.handleListByManuscript)
	e.GET("/comments/:id", h.handleGet)
	e.POST("/comments/create", h.handleCreate,
		auth.Require(auth.ResourceComments, auth.OpCreate))
	e.PUT("/comments/update", h.handleUpdate,
		auth.Require(auth.ResourceComments, auth.OpUpdate))
	e.DELETE("/comments/:id", h.handleDelete,
		auth.Require(auth.ResourceComments, auth.OpDelete))
}

// handleList returns all comments keyed by identifier.
func (h *CommentHandler) handleList(c echo.Context) error {
	list, err := h.store.ReadAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// handleGet returns one comment.
func (h *CommentHandler) handleGet(c echo.Context) error {
	comment, err := h.store.ReadOne(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, comment)
}

// handleListByManuscript returns the comments on one manuscript, oldest
// first.
func (h *CommentHandler) handleListByManuscript(c echo.Context) error {
	list, err := h.store.ReadByManuscript(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// handleCreate attaches a comment to a manuscript. The commenter defaults
// to the authenticated caller.
func (h *CommentHandler) handleCreate(c echo.Context) error {
	var req struct {
		ManuscriptID string `json:"manuscript_id"`
		EditorID     string `json:"editor_id,omitempty"`
		Text         string `json:"text"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.EditorID == "" {
		if user, ok := auth.GetUser(c); ok {
			req.EditorID = user.ID
		}
	}
	comment, err := h.store.Create(c.Request().Context(),
		req.ManuscriptID, req.EditorID, req.Text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, comment)
}

// handleUpdate replaces the text of a comment.
func (h *CommentHandler) handleUpdate(c echo.Context) error {
	var req struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	comment, err := h.store.Update(c.Request().Context(), req.ID, req.Text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, comment)
}

// handleDelete removes a comment.
func (h *CommentHandler) handleDelete(c echo.Context) error {
	id := c.Param("id")
	if err := h.store.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"deleted": id})
}
