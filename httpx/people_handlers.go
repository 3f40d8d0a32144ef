package httpx

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"journal.evalgo.org/auth"
	"journal.evalgo.org/people"
)

// PeopleHandler exposes person endpoints.
type PeopleHandler struct {
	store *people.Store
}

// NewPeopleHandler creates a person handler.
func NewPeopleHandler(store *people.Store) *PeopleHandler {
	return &PeopleHandler{store: store}
}

// RegisterRoutes adds person endpoints to the server.
func (h *PeopleHandler) RegisterRoutes(e *echo.Echo) {
	mutate := auth.Require(auth.ResourcePeople, auth.OpUpdate)

	e.GET("/people", h.handleList)
	e.GET("/people/masthead", h.handleMasthead)
	e.GET("/people/:id", h.handleGet)
	e.POST("/people/create", h.handleCreate, auth.RequirePersonCreate(h.store))
	e.PUT("/people/:id", h.handleUpdate, mutate)
	e.DELETE("/people/:id", h.handleDelete,
		auth.Require(auth.ResourcePeople, auth.OpDelete))
	e.PUT("/people/add_role", h.handleAddRole, mutate)
	e.DELETE("/people/delete_role", h.handleDeleteRole, mutate)
}

// handleList returns all persons keyed by identifier.
func (h *PeopleHandler) handleList(c echo.Context) error {
	persons, err := h.store.ReadAll(c.Request().Context())
	if err != nil {
		return err
	}
	out := make(map[string]*people.Person, len(persons))
	for id, p := range persons {
		out[id] = p.Sanitized()
	}
	return c.JSON(http.StatusOK, out)
}

// handleMasthead returns the editorial staff grouped by person.
func (h *PeopleHandler) handleMasthead(c echo.Context) error {
	masthead, err := h.store.Masthead(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, masthead)
}

// handleGet returns one person by stable ID or email.
func (h *PeopleHandler) handleGet(c echo.Context) error {
	person, err := h.store.ReadOne(c.Request().Context(),
		people.ParseIdentifier(c.Param("id")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, person.Sanitized())
}

// handleCreate registers a person.
func (h *PeopleHandler) handleCreate(c echo.Context) error {
	var req people.CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	person, err := h.store.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, person.Sanitized())
}

// handleUpdate changes name, affiliation, and optionally bio.
func (h *PeopleHandler) handleUpdate(c echo.Context) error {
	var req struct {
		Name        string  `json:"name"`
		Affiliation string  `json:"affiliation"`
		Bio         *string `json:"bio,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	person, err := h.store.Update(c.Request().Context(),
		people.ParseIdentifier(c.Param("id")), req.Name, req.Affiliation, req.Bio)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, person.Sanitized())
}

// handleDelete removes a person and returns the deleted record.
func (h *PeopleHandler) handleDelete(c echo.Context) error {
	person, err := h.store.Delete(c.Request().Context(),
		people.ParseIdentifier(c.Param("id")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, person.Sanitized())
}

// roleRequest is the body of the role mutation endpoints.
type roleRequest struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// handleAddRole adds a role to a person.
func (h *PeopleHandler) handleAddRole(c echo.Context) error {
	var req roleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	person, err := h.store.AddRole(c.Request().Context(),
		people.ParseIdentifier(req.ID), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, person.Sanitized())
}

// handleDeleteRole removes a role from a person.
func (h *PeopleHandler) handleDeleteRole(c echo.Context) error {
	var req roleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	person, err := h.store.DeleteRole(c.Request().Context(),
		people.ParseIdentifier(req.ID), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, person.Sanitized())
}
