package httpx

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"journal.evalgo.org/auth"
	"journal.evalgo.org/common"
	"journal.evalgo.org/manuscripts"
)

// ManuscriptHandler exposes manuscript endpoints including the state
// transitions.
type ManuscriptHandler struct {
	store *manuscripts.Store
}

// NewManuscriptHandler creates a manuscript handler.
func NewManuscriptHandler(store *manuscripts.Store) *ManuscriptHandler {
	return &ManuscriptHandler{store: store}
}

// RegisterRoutes adds manuscript endpoints to the server. Submission is
// open; state transitions are authorized per action inside the handler.
func (h *ManuscriptHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/manuscript", h.handleList)
	e.GET("/manuscript/valid_actions/:state", h.handleValidActions)
	e.GET("/manuscript/editor_actions", h.handleEditorActions)
	e.GET("/manuscript/referee_actions", h.handleRefereeActions)
	e.GET("/manuscript/:id", h.handleGet)
	e.PUT("/manuscript/create", h.handleCreate)
	e.PUT("/manuscript/update", h.handleUpdate,
		auth.Require(auth.ResourceManuscripts, auth.OpUpdate))
	e.PUT("/manuscript/update_state", h.handleUpdateState)
	e.DELETE("/manuscript/:id", h.handleDelete,
		auth.Require(auth.ResourceManuscripts, auth.OpDelete))
}

// handleList returns all manuscripts keyed by identifier.
func (h *ManuscriptHandler) handleList(c echo.Context) error {
	list, err := h.store.ReadAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// handleGet returns one manuscript.
func (h *ManuscriptHandler) handleGet(c echo.Context) error {
	m, err := h.store.ReadOne(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

// handleCreate submits a manuscript.
func (h *ManuscriptHandler) handleCreate(c echo.Context) error {
	var req manuscripts.CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	m, err := h.store.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

// handleUpdate changes the descriptive fields of a manuscript.
func (h *ManuscriptHandler) handleUpdate(c echo.Context) error {
	var req struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Author      string `json:"author"`
		AuthorEmail string `json:"author_email"`
		Abstract    string `json:"abstract"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	m, err := h.store.Update(c.Request().Context(),
		req.ID, req.Title, req.Author, req.AuthorEmail, req.Abstract)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

// handleUpdateState runs one action against a manuscript. Authorization
// depends on the action, so it happens here rather than in route
// middleware.
func (h *ManuscriptHandler) handleUpdateState(c echo.Context) error {
	var req struct {
		ID      string             `json:"id"`
		Action  manuscripts.Action `json:"action"`
		Referee string             `json:"referee,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if !manuscripts.IsValidAction(req.Action) {
		return common.E(common.KindInvalidArgument, "invalid action: %s", req.Action)
	}

	ctx := c.Request().Context()
	m, err := h.store.ReadOne(ctx, req.ID)
	if err != nil {
		return err
	}
	user, _ := auth.GetUser(c)
	if err := auth.AuthorizeTransition(user, m, req.Action); err != nil {
		return err
	}

	m, err = h.store.UpdateState(ctx, req.ID, req.Action, req.Referee)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

// handleDelete removes a manuscript and its text pages.
func (h *ManuscriptHandler) handleDelete(c echo.Context) error {
	m, err := h.store.Delete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

// handleValidActions returns the actions legal from a state.
func (h *ManuscriptHandler) handleValidActions(c echo.Context) error {
	state := manuscripts.State(c.Param("state"))
	if !manuscripts.IsValidState(state) {
		return common.E(common.KindInvalidArgument, "invalid state: %s", state)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"state":   state,
		"actions": manuscripts.LegalActions(state),
	})
}

// handleEditorActions returns the actions restricted to editors.
func (h *ManuscriptHandler) handleEditorActions(c echo.Context) error {
	return c.JSON(http.StatusOK, manuscripts.EditorActions())
}

// handleRefereeActions returns the actions available to referees.
func (h *ManuscriptHandler) handleRefereeActions(c echo.Context) error {
	return c.JSON(http.StatusOK, manuscripts.RefereeActions())
}
