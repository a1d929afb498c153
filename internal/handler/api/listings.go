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

// ListingHandler serves marketplace listings. A successful create is
// broadcast to realtime subscribers as a new_listing event.
type ListingHandler struct {
	logger      *xlogger.Logger
	store       domrepo.ListingStore
	broadcaster domrepo.Broadcaster
}

func NewListingHandler(logger *xlogger.Logger, store domrepo.ListingStore, broadcaster domrepo.Broadcaster) *ListingHandler {
	return &ListingHandler{logger: logger, store: store, broadcaster: broadcaster}
}

func (h *ListingHandler) Register(g *echo.Group) {
	g.GET("/listings", h.List)
	g.GET("/listings/:id", h.Get)
	g.POST("/listings", h.Create)
	g.PUT("/listings/:id", h.Update)
	g.DELETE("/listings/:id", h.Delete)
}

func (h *ListingHandler) List(c echo.Context) error {
	listings, err := h.store.List(c.Request().Context())
	if err != nil {
		h.logger.Error("list listings", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, listings, int64(len(listings)))
}

func (h *ListingHandler) Get(c echo.Context) error {
	l, err := h.store.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domrepo.ErrNotFound) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundError("listing not found"))
		}
		h.logger.Error("get listing", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, l)
}

func (h *ListingHandler) Create(c echo.Context) error {
	req := &models.CreateListingRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	l, err := h.store.Create(c.Request().Context(), models.Listing{
		Product:      req.Product,
		Seller:       req.Seller,
		QuantityTons: req.QuantityTons,
		PricePerTon:  req.PricePerTon,
		Location:     models.Location{Region: req.Region, Province: req.Province},
		Quality:      models.Quality{Grade: req.Grade, Moisture: req.Moisture, Protein: req.Protein},
	})
	if err != nil {
		h.logger.Error("create listing", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	h.broadcaster.Broadcast(models.NewListingEvent(&l, time.Now()))
	return xhttp.CreatedResponse(c, l)
}

func (h *ListingHandler) Update(c echo.Context) error {
	req := &models.CreateListingRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	l, err := h.store.Update(c.Request().Context(), models.Listing{
		ID:           c.Param("id"),
		Product:      req.Product,
		Seller:       req.Seller,
		QuantityTons: req.QuantityTons,
		PricePerTon:  req.PricePerTon,
		Location:     models.Location{Region: req.Region, Province: req.Province},
		Quality:      models.Quality{Grade: req.Grade, Moisture: req.Moisture, Protein: req.Protein},
	})
	if err != nil {
		if errors.Is(err, domrepo.ErrNotFound) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundError("listing not found"))
		}
		h.logger.Error("update listing", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, l)
}

func (h *ListingHandler) Delete(c echo.Context) error {
	if err := h.store.Delete(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, domrepo.ErrNotFound) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundError("listing not found"))
		}
		h.logger.Error("delete listing", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.NoContentResponse(c)
}
