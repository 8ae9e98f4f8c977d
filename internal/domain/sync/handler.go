package sync

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lis/lis/internal/domain/hissession"
	"github.com/lis/lis/internal/domain/patient"
	"github.com/lis/lis/internal/domain/tracking"
	"github.com/lis/lis/internal/platform/auth"
	"github.com/lis/lis/internal/platform/his"
)

type Handler struct {
	orch *Orchestrator
}

func NewHandler(orch *Orchestrator) *Handler {
	return &Handler{orch: orch}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/service-requests/:code/save-to-local", h.SaveToLocal)
}

type saveRequest struct {
	Username   string `json:"username"`
	RoomCode   string `json:"room_code"`
	SampleCode string `json:"sample_code"`
}

func (h *Handler) SaveToLocal(c echo.Context) error {
	orderCode := c.Param("code")

	// The caller's upstream identity: an explicit body hint wins, then the
	// session username for external callers, then the local username. With
	// none of the three, the newest system session is used.
	var req saveRequest
	_ = c.Bind(&req)
	username := req.Username
	if p := auth.PrincipalFromContext(c.Request().Context()); p != nil && username == "" {
		username = p.ExternalUsername
		if username == "" {
			username = p.Username
		}
	}

	hints := tracking.Hints{RoomCode: req.RoomCode, SampleCode: req.SampleCode}
	result, err := h.orch.Run(c.Request().Context(), orderCode, username, hints)
	if err != nil {
		return saveHTTPError(result, err)
	}
	return c.JSON(http.StatusOK, result)
}

func saveHTTPError(result *Result, err error) *echo.HTTPError {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, hissession.ErrNoActiveSession),
		errors.Is(err, hissession.ErrSessionExpired),
		errors.Is(err, hissession.ErrRefreshFailed):
		status = http.StatusUnauthorized
	case errors.Is(err, his.ErrOrderNotFound):
		status = http.StatusNotFound
	case errors.Is(err, his.ErrUpstreamCall):
		status = http.StatusBadGateway
	case errors.Is(err, patient.ErrInvalidSnapshot),
		errors.Is(err, patient.ErrInvalidDateOfBirth):
		status = http.StatusBadRequest
	case errors.Is(err, tracking.ErrAlreadyTracked):
		status = http.StatusConflict
	}

	if result == nil || result.Step == "" {
		return echo.NewHTTPError(status, err.Error())
	}
	return echo.NewHTTPError(status, map[string]interface{}{
		"message": err.Error(),
		"step":    result.Step,
	})
}
