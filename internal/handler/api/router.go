package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"AgroPulse/internal/realtime"
	xhttp "AgroPulse/pkg/http"
)

// Router aggregates all API handlers plus the realtime endpoint into
// one route set.
type Router struct {
	market   *MarketHandler
	listings *ListingHandler
	devices  *DeviceHandler
	hub      *realtime.Hub
}

func NewRouter(market *MarketHandler, listings *ListingHandler, devices *DeviceHandler, hub *realtime.Hub) *Router {
	return &Router{market: market, listings: listings, devices: devices, hub: hub}
}

// RegisterRoutes implements the server handler contract.
func (r *Router) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	r.market.Register(g)
	r.listings.Register(g)
	r.devices.Register(g)

	e.GET("/ws", r.hub.ServeWS)
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"clients": r.hub.Clients(),
		})
	})
}

var _ xhttp.Handler = (*Router)(nil)
