package api

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"AgroPulse/internal/domain/models"
	domrepo "AgroPulse/internal/domain/repository"
	xhttp "AgroPulse/pkg/http"
	xlogger "AgroPulse/pkg/logger"
)

// DeviceHandler serves the IoT device registry. A successful reading
// update is broadcast to realtime subscribers as an iot_update event.
type DeviceHandler struct {
	logger      *xlogger.Logger
	store       domrepo.DeviceStore
	broadcaster domrepo.Broadcaster
}

func NewDeviceHandler(logger *xlogger.Logger, store domrepo.DeviceStore, broadcaster domrepo.Broadcaster) *DeviceHandler {
	return &DeviceHandler{logger: logger, store: store, broadcaster: broadcaster}
}

func (h *DeviceHandler) Register(g *echo.Group) {
	g.GET("/devices", h.List)
	g.GET("/devices/:id", h.Get)
	g.POST("/devices", h.Create)
	g.PUT("/devices/:id/reading", h.UpdateReading)
}

func (h *DeviceHandler) List(c echo.Context) error {
	devices, err := h.store.List(c.Request().Context())
	if err != nil {
		h.logger.Error("list devices", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, devices, int64(len(devices)))
}

func (h *DeviceHandler) Get(c echo.Context) error {
	d, err := h.store.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domrepo.ErrNotFound) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundError("device not found"))
		}
		h.logger.Error("get device", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, d)
}

func (h *DeviceHandler) Create(c echo.Context) error {
	req := &models.CreateDeviceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	d, err := h.store.Create(c.Request().Context(), models.IotDevice{Name: req.Name, Type: req.Type})
	if err != nil {
		h.logger.Error("create device", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, d)
}

func (h *DeviceHandler) UpdateReading(c echo.Context) error {
	req := &models.UpdateReadingRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if req.Moisture == nil && req.Temp == nil && req.WeightKg == nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("at least one reading field is required"))
	}

	reading := models.Reading{Moisture: req.Moisture, Temp: req.Temp, WeightKg: req.WeightKg}
	d, err := h.store.UpdateReading(c.Request().Context(), c.Param("id"), reading)
	if err != nil {
		if errors.Is(err, domrepo.ErrNotFound) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundError("device not found"))
		}
		h.logger.Error("update reading", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	h.broadcaster.Broadcast(models.NewIotUpdate(d.ID, d.CurrentReading, time.Now()))
	return xhttp.SuccessResponse(c, d)
}
