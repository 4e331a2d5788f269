// README: Pricing handler for route quotes.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/modules/pricing"
)

type PricingHandler struct {
	pricing *pricing.Service
}

func NewPricingHandler(svc *pricing.Service) *PricingHandler {
	return &PricingHandler{pricing: svc}
}

// Quote suggests a per-seat price for a route before the driver posts it.
func (h *PricingHandler) Quote(c *gin.Context) {
	origin := c.Query("source")
	destination := c.Query("destination")
	if origin == "" || destination == "" {
		writeError(c, http.StatusBadRequest, "source and destination are required")
		return
	}
	q, err := h.pricing.QuoteRoute(c.Request.Context(), origin, destination, c.QueryArray("waypoint"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{
		"route": map[string]any{
			"distance_km":      q.DistanceKm,
			"duration_minutes": q.DurationMinutes,
		},
		"suggested_price_per_seat": q.SuggestedPerSeat.Amount,
		"currency":                 q.SuggestedPerSeat.Currency,
		"total_estimated_earnings": q.PotentialEarnings.Amount,
	})
}
