package api

import (
	"errors"

	"github.com/labstack/echo/v4"

	"AgroPulse/internal/domain/models"
	domrepo "AgroPulse/internal/domain/repository"
	"AgroPulse/internal/usecase"
	xhttp "AgroPulse/pkg/http"
	xlogger "AgroPulse/pkg/logger"
)

// MarketHandler serves the analytics surface: history, forecast,
// volatility, and combined signals.
type MarketHandler struct {
	logger  *xlogger.Logger
	signals *usecase.MarketSignals
}

func NewMarketHandler(logger *xlogger.Logger, signals *usecase.MarketSignals) *MarketHandler {
	return &MarketHandler{logger: logger, signals: signals}
}

func (h *MarketHandler) Register(g *echo.Group) {
	g.GET("/market/price-history", h.PriceHistory)
	g.GET("/market/forecast", h.Forecast)
	g.GET("/market/volatility", h.Volatility)
	g.GET("/market/signals", h.Signals)
}

func (h *MarketHandler) PriceHistory(c echo.Context) error {
	req := &models.PriceHistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	pts, err := h.signals.PriceHistory(c.Request().Context(), req.Product, req.Range)
	if err != nil {
		return h.storeError(c, "price history", req.Product, err)
	}
	return xhttp.ListResponse(c, pts, int64(len(pts)))
}

func (h *MarketHandler) Forecast(c echo.Context) error {
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	fc, err := h.signals.Forecast(c.Request().Context(), req.Product, req.Days)
	if err != nil {
		return h.storeError(c, "forecast", req.Product, err)
	}
	return xhttp.ListResponse(c, fc, int64(len(fc)))
}

func (h *MarketHandler) Volatility(c echo.Context) error {
	req := &models.VolatilityRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	vol, err := h.signals.Volatility(c.Request().Context(), req.Product, req.Range)
	if err != nil {
		return h.storeError(c, "volatility", req.Product, err)
	}
	return xhttp.SuccessResponse(c, vol)
}

func (h *MarketHandler) Signals(c echo.Context) error {
	req := &models.SignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	out, err := h.signals.Signals(c.Request().Context(), req.Product, req.Days, req.Range)
	if err != nil {
		return h.storeError(c, "signals", req.Product, err)
	}
	return xhttp.SuccessResponse(c, out)
}

func (h *MarketHandler) storeError(c echo.Context, op, product string, err error) error {
	if errors.Is(err, domrepo.ErrNotFound) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("unknown product %q", product))
	}
	h.logger.Error(op+" usecase error", xlogger.Error(err), xlogger.String("product", product))
	return xhttp.AppErrorResponse(c, err)
}
