// README: Ride catalog backed by PostgreSQL.
package ride

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"carpool/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const rideColumns = `
	id, driver_id, source_address, source_lat, source_lng,
	destination_address, destination_lat, destination_lng,
	departure_time, available_seats, booked_seats,
	price_per_seat, currency, distance_km, duration_minutes,
	waypoints, route_verified, status, status_version, created_at`

func (s *Store) Create(ctx context.Context, r *Ride) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO rides (
			id, driver_id, source_address, source_lat, source_lng,
			destination_address, destination_lat, destination_lng,
			departure_time, available_seats, booked_seats,
			price_per_seat, currency, distance_km, duration_minutes,
			waypoints, route_verified, status, status_version, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8,
			$9, $10, $11,
			$12, $13, $14, $15,
			$16, $17, $18, $19, $20
		)`,
		string(r.ID),
		string(r.DriverID),
		r.SourceAddress, r.Source.Lat, r.Source.Lng,
		r.DestinationAddress, r.Destination.Lat, r.Destination.Lng,
		r.DepartureTime,
		r.AvailableSeats,
		r.BookedSeats,
		r.PricePerSeat.Amount,
		r.PricePerSeat.Currency,
		r.DistanceKm,
		r.DurationMinutes,
		r.Waypoints,
		r.RouteVerified,
		string(r.Status),
		r.StatusVersion,
		r.CreatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Ride, error) {
	row := s.db.QueryRow(ctx, `SELECT`+rideColumns+` FROM rides WHERE id = $1`, string(id))
	r, err := scanRide(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// FindActive is the structural filter behind Search: open rides with enough
// remaining capacity departing inside the window. A nil until means "from
// now on". Ordering matches the service's final sort so results are stable
// even before geographic filtering.
func (s *Store) FindActive(ctx context.Context, seatsAtLeast int, from time.Time, until *time.Time) ([]*Ride, error) {
	rows, err := s.db.Query(ctx, `
		SELECT`+rideColumns+`
		FROM rides
		WHERE status = 'active'
		  AND available_seats - booked_seats >= $1
		  AND departure_time >= $2
		  AND ($3::timestamptz IS NULL OR departure_time < $3)
		ORDER BY departure_time ASC, id ASC`,
		seatsAtLeast, from, until,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRides(rows)
}

func (s *Store) ListByDriver(ctx context.Context, driverID types.ID) ([]*Ride, error) {
	rows, err := s.db.Query(ctx, `
		SELECT`+rideColumns+`
		FROM rides
		WHERE driver_id = $1
		ORDER BY departure_time DESC`,
		string(driverID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRides(rows)
}

// Update rewrites the driver-editable fields. The service guarantees the
// ride has no bookings before calling this.
func (s *Store) Update(ctx context.Context, r *Ride) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE rides
		SET departure_time = $2,
		    available_seats = $3,
		    price_per_seat = $4,
		    currency = $5
		WHERE id = $1 AND booked_seats = 0`,
		string(r.ID),
		r.DepartureTime,
		r.AvailableSeats,
		r.PricePerSeat.Amount,
		r.PricePerSeat.Currency,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE rides
		SET status = $1,
		    status_version = status_version + 1
		WHERE id = $2 AND status = $3 AND status_version = $4`,
		string(to),
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ReserveSeats atomically claims n seats on an open ride. Returns false
// when the ride is gone, closed, or short on capacity — the guard in the
// WHERE clause is what prevents overselling under concurrent bookings.
func (s *Store) ReserveSeats(ctx context.Context, id types.ID, n int) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE rides
		SET booked_seats = booked_seats + $2
		WHERE id = $1
		  AND status = 'active'
		  AND booked_seats + $2 <= available_seats`,
		string(id), n,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ReleaseSeats gives n seats back after a booking is cancelled.
func (s *Store) ReleaseSeats(ctx context.Context, id types.ID, n int) error {
	_, err := s.db.Exec(ctx, `
		UPDATE rides
		SET booked_seats = GREATEST(booked_seats - $2, 0)
		WHERE id = $1`,
		string(id), n,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row rowScanner) (*Ride, error) {
	var r Ride
	err := row.Scan(
		&r.ID, &r.DriverID, &r.SourceAddress, &r.Source.Lat, &r.Source.Lng,
		&r.DestinationAddress, &r.Destination.Lat, &r.Destination.Lng,
		&r.DepartureTime, &r.AvailableSeats, &r.BookedSeats,
		&r.PricePerSeat.Amount, &r.PricePerSeat.Currency,
		&r.DistanceKm, &r.DurationMinutes,
		&r.Waypoints, &r.RouteVerified, &r.Status, &r.StatusVersion, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func collectRides(rows pgx.Rows) ([]*Ride, error) {
	var out []*Ride
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
