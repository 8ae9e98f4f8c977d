package hissession

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	manager *Manager
}

func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/his/sessions", h.AcquireSession)
	api.DELETE("/his/sessions/:username", h.ReleaseSession)
}

type acquireRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) AcquireSession(c echo.Context) error {
	var req acquireRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Username == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	}

	sess, err := h.manager.Acquire(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrExternalAuth) {
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusCreated, sess)
}

func (h *Handler) ReleaseSession(c echo.Context) error {
	username := c.Param("username")
	if username == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username is required")
	}
	if err := h.manager.Release(c.Request().Context(), username); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
