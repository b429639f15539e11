// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"zonetaxi/internal/http/handlers"
	"zonetaxi/internal/http/middleware"
)

// NewRouter builds the gin engine. /health and /metrics are public; every
// /api route needs a bearer token.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(d.Log), middleware.Logging(d.Log))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api", middleware.Auth(d.Verifier))
	driverOnly := middleware.RequireRole(middleware.RoleDriver, middleware.RoleAdmin)
	adminOnly := middleware.RequireRole(middleware.RoleAdmin)

	loc := handlers.NewLocationHandler(d.Zones, d.Vehicles, d.Locations, d.Pricing, d.Validator)
	api.GET("/zones", loc.ListZones)
	api.GET("/zones/find", loc.FindZone)
	api.GET("/zones/at", loc.ZoneAt)
	api.GET("/zones/:id", loc.GetZone)
	api.GET("/vehicles", loc.Vehicles)
	api.GET("/fares/estimate", loc.EstimateFare)
	api.PUT("/positions", loc.UpdatePosition)

	passenger := handlers.NewPassengerHandler(d.Rides)
	api.POST("/rides", passenger.RequestRide)
	api.GET("/rides/active", passenger.Active)

	drv := handlers.NewDriverHandler(d.Drivers, d.Rides)
	api.GET("/rides/pending", driverOnly, drv.ListPending)
	api.POST("/rides/:id/accept", driverOnly, drv.Accept)
	api.POST("/rides/:id/start", driverOnly, drv.Start)
	api.POST("/rides/:id/complete", driverOnly, drv.Complete)
	api.POST("/drivers", driverOnly, drv.Register)
	api.GET("/drivers/me", driverOnly, drv.Me)
	api.PUT("/drivers/me/status", driverOnly, drv.SetStatus)
	api.PUT("/drivers/me/vehicles", driverOnly, drv.SetVehicles)
	api.PUT("/drivers/me/device-token", driverOnly, drv.SetDeviceToken)

	rides := handlers.NewRideHandler(d.Rides, d.Dispatch)
	api.GET("/rides/:id", rides.Get)
	api.GET("/rides/:id/events", rides.Events)
	api.POST("/rides/:id/cancel", rides.Cancel)
	api.GET("/rides/:id/dispatch", adminOnly, rides.DispatchStatus)

	ratings := handlers.NewRatingHandler(d.Ratings)
	api.POST("/rides/:id/ratings", ratings.Rate)
	api.GET("/rides/:id/ratings", ratings.List)

	community := handlers.NewCommunityHandler(d.Rides, d.Pricing, d.Ledger)
	api.GET("/communities/:id/stats", adminOnly, community.Stats)
	api.GET("/communities/:id/rates", community.Rates)
	api.PUT("/communities/:id/rates", adminOnly, community.SetRates)
	api.GET("/accounts/:id/balance", community.Balance)
	api.POST("/accounts/:id/credit", adminOnly, community.Credit)

	if d.Hub != nil {
		ws := handlers.NewWSHandler(d.Hub, d.Drivers)
		api.GET("/drivers/me/ws", driverOnly, ws.Connect)
	}
	return r
}
