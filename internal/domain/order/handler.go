package order

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lis/lis/internal/domain/patient"
	"github.com/lis/lis/internal/platform/his"
	"github.com/lis/lis/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/service-requests", h.ListOrders)
	api.GET("/service-requests/:code", h.GetOrder)
	api.POST("/service-requests", h.CreateOrder)
	api.POST("/service-requests/sync", h.SyncOrder)
	api.POST("/service-requests/sync/bulk", h.BulkSyncOrders)
}

func (h *Handler) ListOrders(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetOrder(c echo.Context) error {
	sr, err := h.svc.GetByCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	return c.JSON(http.StatusOK, sr)
}

func (h *Handler) CreateOrder(c echo.Context) error {
	snap, err := readSnapshot(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sr, err := h.svc.Create(c.Request().Context(), snap)
	if err != nil {
		if errors.Is(err, ErrOrderExists) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return syncHTTPError(err)
	}
	return c.JSON(http.StatusCreated, sr)
}

func (h *Handler) SyncOrder(c echo.Context) error {
	snap, err := readSnapshot(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result, err := h.svc.Synchronize(c.Request().Context(), snap)
	if err != nil {
		return syncHTTPError(err)
	}
	status := http.StatusOK
	if result.IsNew {
		status = http.StatusCreated
	}
	return c.JSON(status, result)
}

func (h *Handler) BulkSyncOrders(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "expected a JSON array of orders")
	}

	snaps := make([]*his.OrderSnapshot, 0, len(raws))
	for _, raw := range raws {
		snap, err := his.ParseOrderSnapshot(raw)
		if err != nil {
			// Carried through so the bulk result reports it per entry.
			snaps = append(snaps, nil)
			continue
		}
		snaps = append(snaps, snap)
	}
	return c.JSON(http.StatusOK, h.svc.BulkSynchronize(c.Request().Context(), snaps))
}

func readSnapshot(c echo.Context) (*his.OrderSnapshot, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, err
	}
	return his.ParseOrderSnapshot(body)
}

func syncHTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, patient.ErrInvalidSnapshot),
		errors.Is(err, patient.ErrInvalidDateOfBirth):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
