// README: Booking handlers for booking seats and cancelling.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"carpool/internal/http/middleware"
	"carpool/internal/modules/booking"
	"carpool/internal/types"
)

type BookingHandler struct {
	bookings *booking.Service
}

func NewBookingHandler(svc *booking.Service) *BookingHandler {
	return &BookingHandler{bookings: svc}
}

type bookingResponse struct {
	ID          string `json:"id"`
	RideID      string `json:"ride_id"`
	PassengerID string `json:"passenger_id"`
	Seats       int    `json:"seats"`
	TotalAmount int64  `json:"total_amount"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
	Payment     string `json:"payment_status"`
	Pickup      string `json:"pickup_location,omitempty"`
	Dropoff     string `json:"dropoff_location,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func toBookingResponse(b *booking.Booking) bookingResponse {
	return bookingResponse{
		ID:          string(b.ID),
		RideID:      string(b.RideID),
		PassengerID: string(b.PassengerID),
		Seats:       b.Seats,
		TotalAmount: b.TotalAmount.Amount,
		Currency:    b.TotalAmount.Currency,
		Status:      string(b.Status),
		Payment:     string(b.PaymentStatus),
		Pickup:      b.Pickup,
		Dropoff:     b.Dropoff,
		CreatedAt:   b.CreatedAt.Format(time.RFC3339),
	}
}

type bookReq struct {
	RideID  string `json:"ride_id"`
	Seats   int    `json:"seats"`
	Pickup  string `json:"pickup_location"`
	Dropoff string `json:"dropoff_location"`
}

func (h *BookingHandler) Book(c *gin.Context) {
	var req bookReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	b, err := h.bookings.Book(c.Request.Context(), booking.BookCommand{
		RideID:      types.ID(req.RideID),
		PassengerID: types.ID(c.GetString(middleware.UserIDKey)),
		Seats:       req.Seats,
		Pickup:      req.Pickup,
		Dropoff:     req.Dropoff,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, toBookingResponse(b))
}

type cancelBookingReq struct {
	Reason string `json:"reason"`
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	var req cancelBookingReq
	_ = c.ShouldBindJSON(&req)
	err := h.bookings.Cancel(c.Request.Context(), booking.CancelCommand{
		BookingID:   types.ID(c.Param("id")),
		PassengerID: types.ID(c.GetString(middleware.UserIDKey)),
		Reason:      req.Reason,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"status": booking.StatusCancelled})
}

func (h *BookingHandler) Mine(c *gin.Context) {
	list, err := h.bookings.ListByPassenger(c.Request.Context(), types.ID(c.GetString(middleware.UserIDKey)))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	out := make([]bookingResponse, 0, len(list))
	for _, b := range list {
		out = append(out, toBookingResponse(b))
	}
	writeJSON(c, http.StatusOK, map[string]any{"bookings": out})
}
