package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"carpool/internal/modules/ride"
	"carpool/internal/types"
)

// ---------------------------------------------------------------------------
// In-memory mocks
// ---------------------------------------------------------------------------

type mockRides struct {
	ride      *ride.Ride
	getErr    error
	reserveOK bool
	reserved  int
	released  int
}

func (m *mockRides) Get(_ context.Context, id types.ID) (*ride.Ride, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.ride == nil || m.ride.ID != id {
		return nil, ride.ErrNotFound
	}
	cp := *m.ride
	return &cp, nil
}

func (m *mockRides) ReserveSeats(_ context.Context, _ types.ID, n int) (bool, error) {
	if !m.reserveOK {
		return false, nil
	}
	m.reserved += n
	m.ride.BookedSeats += n
	return true, nil
}

func (m *mockRides) ReleaseSeats(_ context.Context, _ types.ID, n int) error {
	m.released += n
	if m.ride != nil {
		m.ride.BookedSeats -= n
	}
	return nil
}

type mockRepo struct {
	bookings  map[types.ID]*Booking
	createErr error
}

func newMockRepo(bookings ...*Booking) *mockRepo {
	m := &mockRepo{bookings: make(map[types.ID]*Booking)}
	for _, b := range bookings {
		m.bookings[b.ID] = b
	}
	return m
}

func (m *mockRepo) Create(_ context.Context, b *Booking) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.bookings[b.ID] = b
	return nil
}

func (m *mockRepo) Get(_ context.Context, id types.ID) (*Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id types.ID, from, to Status, version int, cancelledBy *types.ID, reason *string) (bool, error) {
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

func (m *mockRepo) ListByPassenger(_ context.Context, passengerID types.ID) ([]*Booking, error) {
	var out []*Booking
	for _, b := range m.bookings {
		if b.PassengerID == passengerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func openRide() *ride.Ride {
	return &ride.Ride{
		ID:             "ride-1",
		DriverID:       "driver-1",
		DepartureTime:  time.Now().Add(2 * time.Hour),
		AvailableSeats: 4,
		BookedSeats:    1,
		PricePerSeat:   types.Money{Amount: 100, Currency: "USD"},
		Status:         ride.StatusActive,
	}
}

// ---------------------------------------------------------------------------
// Book
// ---------------------------------------------------------------------------

func TestBook_ReservesSeatsAndPrices(t *testing.T) {
	rides := &mockRides{ride: openRide(), reserveOK: true}
	repo := newMockRepo()
	svc := NewService(repo, rides)

	b, err := svc.Book(context.Background(), BookCommand{
		RideID:      "ride-1",
		PassengerID: "passenger-1",
		Seats:       2,
		Pickup:      "corner of 5th",
		Dropoff:     "airport",
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if b.TotalAmount.Amount != 200 {
		t.Errorf("TotalAmount = %d, want 200 (100 x 2 seats)", b.TotalAmount.Amount)
	}
	if b.Status != StatusConfirmed || b.PaymentStatus != PaymentPending {
		t.Errorf("status = %s/%s, want confirmed/pending", b.Status, b.PaymentStatus)
	}
	if rides.reserved != 2 {
		t.Errorf("reserved %d seats on the ride, want 2", rides.reserved)
	}
	if _, err := repo.Get(context.Background(), b.ID); err != nil {
		t.Errorf("booking not persisted: %v", err)
	}
}

func TestBook_RejectsOversell(t *testing.T) {
	r := openRide() // 4 available, 1 booked: 3 remain
	rides := &mockRides{ride: r, reserveOK: true}
	svc := NewService(newMockRepo(), rides)

	_, err := svc.Book(context.Background(), BookCommand{RideID: "ride-1", PassengerID: "p", Seats: 4})
	if !errors.Is(err, ErrSeatsUnavailable) {
		t.Fatalf("err = %v, want ErrSeatsUnavailable", err)
	}
	if rides.reserved != 0 {
		t.Errorf("reserved %d seats for a rejected booking", rides.reserved)
	}
}

// A concurrent booking can win the seats between our read and our claim;
// the conditional update failing must surface as seats-unavailable.
func TestBook_LostSeatRace(t *testing.T) {
	rides := &mockRides{ride: openRide(), reserveOK: false}
	svc := NewService(newMockRepo(), rides)

	_, err := svc.Book(context.Background(), BookCommand{RideID: "ride-1", PassengerID: "p", Seats: 1})
	if !errors.Is(err, ErrSeatsUnavailable) {
		t.Fatalf("err = %v, want ErrSeatsUnavailable", err)
	}
}

func TestBook_RideNotOpen(t *testing.T) {
	for _, status := range []ride.Status{ride.StatusInProgress, ride.StatusCompleted, ride.StatusCancelled} {
		r := openRide()
		r.Status = status
		svc := NewService(newMockRepo(), &mockRides{ride: r, reserveOK: true})

		_, err := svc.Book(context.Background(), BookCommand{RideID: "ride-1", PassengerID: "p", Seats: 1})
		if !errors.Is(err, ErrRideNotOpen) {
			t.Errorf("status %s: err = %v, want ErrRideNotOpen", status, err)
		}
	}
}

func TestBook_DriverCannotBookOwnRide(t *testing.T) {
	svc := NewService(newMockRepo(), &mockRides{ride: openRide(), reserveOK: true})
	_, err := svc.Book(context.Background(), BookCommand{RideID: "ride-1", PassengerID: "driver-1", Seats: 1})
	if !errors.Is(err, ErrBadRequest) {
		t.Fatalf("err = %v, want ErrBadRequest", err)
	}
}

// If persisting the booking fails after the seats were claimed, the claim
// is rolled back.
func TestBook_ReleasesSeatsWhenPersistFails(t *testing.T) {
	rides := &mockRides{ride: openRide(), reserveOK: true}
	repo := newMockRepo()
	repo.createErr = errors.New("disk on fire")
	svc := NewService(repo, rides)

	_, err := svc.Book(context.Background(), BookCommand{RideID: "ride-1", PassengerID: "p", Seats: 2})
	if err == nil {
		t.Fatal("expected persistence error")
	}
	if rides.released != 2 {
		t.Errorf("released %d seats after failed persist, want 2", rides.released)
	}
}

// ---------------------------------------------------------------------------
// Cancel
// ---------------------------------------------------------------------------

func confirmedBooking() *Booking {
	return &Booking{
		ID:          "booking-1",
		RideID:      "ride-1",
		PassengerID: "passenger-1",
		Seats:       2,
		TotalAmount: types.Money{Amount: 200, Currency: "USD"},
		Status:      StatusConfirmed,
	}
}

func TestCancel_ReleasesSeats(t *testing.T) {
	rides := &mockRides{ride: openRide()}
	repo := newMockRepo(confirmedBooking())
	svc := NewService(repo, rides)

	err := svc.Cancel(context.Background(), CancelCommand{
		BookingID:   "booking-1",
		PassengerID: "passenger-1",
		Reason:      "change of plans",
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if rides.released != 2 {
		t.Errorf("released %d seats, want 2", rides.released)
	}
	b := repo.bookings["booking-1"]
	if b.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", b.Status)
	}
	if b.CancelReason == nil || *b.CancelReason != "change of plans" {
		t.Errorf("CancelReason = %v, want recorded", b.CancelReason)
	}
}

func TestCancel_OnlyOwningPassenger(t *testing.T) {
	svc := NewService(newMockRepo(confirmedBooking()), &mockRides{ride: openRide()})
	err := svc.Cancel(context.Background(), CancelCommand{BookingID: "booking-1", PassengerID: "someone-else"})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestCancel_TwiceIsInvalid(t *testing.T) {
	rides := &mockRides{ride: openRide()}
	svc := NewService(newMockRepo(confirmedBooking()), rides)
	cmd := CancelCommand{BookingID: "booking-1", PassengerID: "passenger-1"}

	if err := svc.Cancel(context.Background(), cmd); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	if err := svc.Cancel(context.Background(), cmd); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second cancel: err = %v, want ErrInvalidState", err)
	}
	if rides.released != 2 {
		t.Errorf("released %d seats total, want 2 (no double release)", rides.released)
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusPending, StatusCompleted, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
