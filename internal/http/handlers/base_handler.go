// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/modules/booking"
	"carpool/internal/modules/pricing"
	"carpool/internal/modules/ride"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeDomainError maps module sentinel errors onto HTTP status codes.
// Validation errors carry their field map through to the client.
func writeDomainError(c *gin.Context, err error) {
	var verr *ride.ValidationError
	if errors.As(err, &verr) {
		writeJSON(c, http.StatusBadRequest, errorResponse{Error: verr.Error(), Fields: verr.Fields})
		return
	}
	switch {
	case errors.Is(err, ride.ErrBadRequest), errors.Is(err, booking.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ride.ErrNotFound), errors.Is(err, booking.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ride.ErrForbidden), errors.Is(err, booking.ErrForbidden):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, ride.ErrInvalidState), errors.Is(err, ride.ErrConflict),
		errors.Is(err, ride.ErrHasBookings),
		errors.Is(err, booking.ErrInvalidState), errors.Is(err, booking.ErrConflict),
		errors.Is(err, booking.ErrRideNotOpen), errors.Is(err, booking.ErrSeatsUnavailable):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, ride.ErrRouteUnverifiable), errors.Is(err, pricing.ErrNoRoute):
		writeError(c, http.StatusBadGateway, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
