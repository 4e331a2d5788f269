package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"carpool/internal/http/middleware"
	"carpool/internal/modules/booking"
	"carpool/internal/modules/ride"
	"carpool/internal/types"
)

// stubBookingRepo is an in-memory booking.Repository.
type stubBookingRepo struct {
	bookings map[types.ID]*booking.Booking
}

func newStubBookingRepo() *stubBookingRepo {
	return &stubBookingRepo{bookings: make(map[types.ID]*booking.Booking)}
}

func (m *stubBookingRepo) Create(_ context.Context, b *booking.Booking) error {
	m.bookings[b.ID] = b
	return nil
}

func (m *stubBookingRepo) Get(_ context.Context, id types.ID) (*booking.Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	return b, nil
}

func (m *stubBookingRepo) UpdateStatus(_ context.Context, id types.ID, from, to booking.Status, version int, cancelledBy *types.ID, reason *string) (bool, error) {
	b, ok := m.bookings[id]
	if !ok || b.Status != from || b.StatusVersion != version {
		return false, nil
	}
	b.Status = to
	b.StatusVersion++
	b.CancelledBy = cancelledBy
	b.CancelReason = reason
	return true, nil
}

func (m *stubBookingRepo) ListByPassenger(_ context.Context, passengerID types.ID) ([]*booking.Booking, error) {
	var out []*booking.Booking
	for _, b := range m.bookings {
		if b.PassengerID == passengerID {
			out = append(out, b)
		}
	}
	return out, nil
}

// stubSeatLedger backs the booking service's ride-side seat accounting.
type stubSeatLedger struct {
	ride *ride.Ride
}

func (m *stubSeatLedger) Get(_ context.Context, id types.ID) (*ride.Ride, error) {
	if m.ride == nil || m.ride.ID != id {
		return nil, ride.ErrNotFound
	}
	cp := *m.ride
	return &cp, nil
}

func (m *stubSeatLedger) ReserveSeats(_ context.Context, _ types.ID, n int) (bool, error) {
	if m.ride.BookedSeats+n > m.ride.AvailableSeats {
		return false, nil
	}
	m.ride.BookedSeats += n
	return true, nil
}

func (m *stubSeatLedger) ReleaseSeats(_ context.Context, _ types.ID, n int) error {
	m.ride.BookedSeats -= n
	return nil
}

func newBookingTestRouter(repo *stubBookingRepo, ledger *stubSeatLedger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewBookingHandler(booking.NewService(repo, ledger))

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if user := c.GetHeader("X-Test-User"); user != "" {
			c.Set(middleware.UserIDKey, user)
		}
	})
	r.POST("/api/bookings", h.Book)
	r.POST("/api/bookings/:id/cancel", h.Cancel)
	r.GET("/api/bookings/mine", h.Mine)
	return r
}

func bookableRide() *ride.Ride {
	return &ride.Ride{
		ID:             "ride-1",
		DriverID:       "driver-1",
		DepartureTime:  time.Now().Add(3 * time.Hour),
		AvailableSeats: 4,
		BookedSeats:    2,
		PricePerSeat:   types.Money{Amount: 100, Currency: "USD"},
		Status:         ride.StatusActive,
	}
}

func TestBookEndpoint_OK(t *testing.T) {
	repo := newStubBookingRepo()
	ledger := &stubSeatLedger{ride: bookableRide()}
	r := newBookingTestRouter(repo, ledger)

	w := doRequest(t, r, http.MethodPost, "/api/bookings", "passenger-1",
		`{"ride_id": "ride-1", "seats": 2, "pickup_location": "corner of 5th"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", w.Code, w.Body.String())
	}

	var resp struct {
		ID          string `json:"id"`
		PassengerID string `json:"passenger_id"`
		TotalAmount int64  `json:"total_amount"`
		Status      string `json:"status"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.PassengerID != "passenger-1" {
		t.Errorf("passenger_id = %q, want the authenticated caller", resp.PassengerID)
	}
	if resp.TotalAmount != 200 {
		t.Errorf("total_amount = %d, want 200", resp.TotalAmount)
	}
	if resp.Status != string(booking.StatusConfirmed) {
		t.Errorf("status = %q, want confirmed", resp.Status)
	}
	if ledger.ride.BookedSeats != 4 {
		t.Errorf("ride booked seats = %d, want 4", ledger.ride.BookedSeats)
	}
}

func TestBookEndpoint_SeatsUnavailable(t *testing.T) {
	r := newBookingTestRouter(newStubBookingRepo(), &stubSeatLedger{ride: bookableRide()})
	w := doRequest(t, r, http.MethodPost, "/api/bookings", "passenger-1",
		`{"ride_id": "ride-1", "seats": 3}`)
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409 (body %s)", w.Code, w.Body.String())
	}
}

func TestBookEndpoint_UnknownRide(t *testing.T) {
	r := newBookingTestRouter(newStubBookingRepo(), &stubSeatLedger{ride: bookableRide()})
	w := doRequest(t, r, http.MethodPost, "/api/bookings", "passenger-1",
		`{"ride_id": "ghost", "seats": 1}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 (body %s)", w.Code, w.Body.String())
	}
}

func TestCancelBookingEndpoint(t *testing.T) {
	repo := newStubBookingRepo()
	repo.bookings["b1"] = &booking.Booking{
		ID:          "b1",
		RideID:      "ride-1",
		PassengerID: "passenger-1",
		Seats:       2,
		Status:      booking.StatusConfirmed,
	}
	ledger := &stubSeatLedger{ride: bookableRide()}
	r := newBookingTestRouter(repo, ledger)

	w := doRequest(t, r, http.MethodPost, "/api/bookings/b1/cancel", "passenger-1",
		`{"reason": "change of plans"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
	if repo.bookings["b1"].Status != booking.StatusCancelled {
		t.Errorf("status = %s, want cancelled", repo.bookings["b1"].Status)
	}
	if ledger.ride.BookedSeats != 0 {
		t.Errorf("ride booked seats = %d, want 0 after release", ledger.ride.BookedSeats)
	}

	// Someone else's booking stays put.
	w = doRequest(t, r, http.MethodPost, "/api/bookings/b1/cancel", "intruder", "")
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}
