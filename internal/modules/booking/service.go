// README: Booking service implements seat reservation and cancellation.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"carpool/internal/modules/ride"
	"carpool/internal/types"
)

var (
	ErrBadRequest       = errors.New("bad request")
	ErrNotFound         = errors.New("booking not found")
	ErrInvalidState     = errors.New("invalid state transition")
	ErrConflict         = errors.New("booking state conflict")
	ErrForbidden        = errors.New("booking belongs to another passenger")
	ErrRideNotOpen      = errors.New("ride is not open for booking")
	ErrSeatsUnavailable = errors.New("not enough seats available")
)

// Rides is the slice of the ride catalog the booking flow needs: a record
// read plus the atomic seat accounting operations.
type Rides interface {
	Get(ctx context.Context, id types.ID) (*ride.Ride, error)
	ReserveSeats(ctx context.Context, id types.ID, n int) (bool, error)
	ReleaseSeats(ctx context.Context, id types.ID, n int) error
}

type Repository interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id types.ID) (*Booking, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, cancelledBy *types.ID, reason *string) (bool, error)
	ListByPassenger(ctx context.Context, passengerID types.ID) ([]*Booking, error)
}

type Service struct {
	store Repository
	rides Rides
}

func NewService(store Repository, rides Rides) *Service {
	return &Service{store: store, rides: rides}
}

type BookCommand struct {
	RideID      types.ID
	PassengerID types.ID
	Seats       int
	Pickup      string
	Dropoff     string
}

// Book reserves seats on an open ride. The seat claim is a conditional
// update on the ride row, so two passengers racing for the last seats
// cannot both win.
func (s *Service) Book(ctx context.Context, cmd BookCommand) (*Booking, error) {
	if cmd.RideID.IsZero() || cmd.PassengerID.IsZero() {
		return nil, fmt.Errorf("%w: missing ride or passenger", ErrBadRequest)
	}
	if cmd.Seats < 1 {
		return nil, fmt.Errorf("%w: seats must be at least 1", ErrBadRequest)
	}

	r, err := s.rides.Get(ctx, cmd.RideID)
	if err != nil {
		return nil, err
	}
	if r.Status != ride.StatusActive {
		return nil, ErrRideNotOpen
	}
	if r.DriverID == cmd.PassengerID {
		return nil, fmt.Errorf("%w: drivers cannot book their own ride", ErrBadRequest)
	}
	if r.RemainingSeats() < cmd.Seats {
		return nil, ErrSeatsUnavailable
	}

	ok, err := s.rides.ReserveSeats(ctx, cmd.RideID, cmd.Seats)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSeatsUnavailable
	}

	b := &Booking{
		ID:            types.NewID(),
		RideID:        cmd.RideID,
		PassengerID:   cmd.PassengerID,
		Seats:         cmd.Seats,
		TotalAmount:   r.PricePerSeat.Times(int64(cmd.Seats)),
		Status:        StatusConfirmed,
		PaymentStatus: PaymentPending,
		Pickup:        cmd.Pickup,
		Dropoff:       cmd.Dropoff,
		CreatedAt:     time.Now(),
	}
	if err := s.store.Create(ctx, b); err != nil {
		// The seats were already claimed; give them back before failing.
		_ = s.rides.ReleaseSeats(ctx, cmd.RideID, cmd.Seats)
		return nil, err
	}
	return b, nil
}

type CancelCommand struct {
	BookingID   types.ID
	PassengerID types.ID
	Reason      string
}

// Cancel releases the booked seats back to the ride.
func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) error {
	b, err := s.store.Get(ctx, cmd.BookingID)
	if err != nil {
		return err
	}
	if b.PassengerID != cmd.PassengerID {
		return ErrForbidden
	}
	if !CanTransition(b.Status, StatusCancelled) {
		return ErrInvalidState
	}
	var reason *string
	if cmd.Reason != "" {
		reason = &cmd.Reason
	}
	ok, err := s.store.UpdateStatus(ctx, b.ID, b.Status, StatusCancelled, b.StatusVersion, &cmd.PassengerID, reason)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return s.rides.ReleaseSeats(ctx, b.RideID, b.Seats)
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Booking, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListByPassenger(ctx context.Context, passengerID types.ID) ([]*Booking, error) {
	return s.store.ListByPassenger(ctx, passengerID)
}
