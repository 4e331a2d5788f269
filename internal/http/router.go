// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"carpool/internal/http/handlers"
	"carpool/internal/http/middleware"
	"carpool/internal/modules/booking"
	"carpool/internal/modules/pricing"
	"carpool/internal/modules/ride"
)

type RouterDeps struct {
	Rides     *ride.Service
	Bookings  *booking.Service
	Pricing   *pricing.Service
	JWTSecret string
	Log       *zap.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(deps.Log))
	r.Use(middleware.Logging(deps.Log))

	rideHandler := handlers.NewRideHandler(deps.Rides)
	bookingHandler := handlers.NewBookingHandler(deps.Bookings)
	pricingHandler := handlers.NewPricingHandler(deps.Pricing)

	// Search and ride details are public; everything that acts on behalf
	// of a user requires a verified token.
	r.GET("/api/rides/search", rideHandler.Search)
	r.GET("/api/rides/quote", pricingHandler.Quote)

	auth := r.Group("/", middleware.Auth(deps.JWTSecret))
	auth.POST("/api/rides", rideHandler.Create)
	auth.GET("/api/rides/mine", rideHandler.Mine)
	auth.PUT("/api/rides/:id", rideHandler.Update)
	auth.POST("/api/rides/:id/start", rideHandler.Start)
	auth.POST("/api/rides/:id/complete", rideHandler.Complete)
	auth.POST("/api/rides/:id/cancel", rideHandler.Cancel)

	auth.POST("/api/bookings", bookingHandler.Book)
	auth.GET("/api/bookings/mine", bookingHandler.Mine)
	auth.POST("/api/bookings/:id/cancel", bookingHandler.Cancel)

	r.GET("/api/rides/:id", rideHandler.Get)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
