// README: Booking store backed by PostgreSQL.
package booking

import (
	"context"
	"database/sql"
	"errors"

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

const bookingColumns = `
	id, ride_id, passenger_id, seats, total_amount, currency,
	status, status_version, payment_status, pickup_location, dropoff_location,
	cancelled_by, cancelled_at, cancellation_reason, created_at`

func (s *Store) Create(ctx context.Context, b *Booking) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO bookings (
			id, ride_id, passenger_id, seats, total_amount, currency,
			status, status_version, payment_status, pickup_location, dropoff_location,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		string(b.ID),
		string(b.RideID),
		string(b.PassengerID),
		b.Seats,
		b.TotalAmount.Amount,
		b.TotalAmount.Currency,
		string(b.Status),
		b.StatusVersion,
		string(b.PaymentStatus),
		b.Pickup,
		b.Dropoff,
		b.CreatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Booking, error) {
	row := s.db.QueryRow(ctx, `SELECT`+bookingColumns+` FROM bookings WHERE id = $1`, string(id))
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, cancelledBy *types.ID, reason *string) (bool, error) {
	var by *string
	if cancelledBy != nil {
		v := string(*cancelledBy)
		by = &v
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET status = $1,
		    status_version = status_version + 1,
		    cancelled_by = CASE WHEN $1 = 'cancelled' THEN $2 ELSE cancelled_by END,
		    cancelled_at = CASE WHEN $1 = 'cancelled' THEN NOW() ELSE cancelled_at END,
		    cancellation_reason = CASE WHEN $1 = 'cancelled' THEN $3 ELSE cancellation_reason END
		WHERE id = $4 AND status = $5 AND status_version = $6`,
		string(to),
		by,
		reason,
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) ListByPassenger(ctx context.Context, passengerID types.ID) ([]*Booking, error) {
	rows, err := s.db.Query(ctx, `
		SELECT`+bookingColumns+`
		FROM bookings
		WHERE passenger_id = $1
		ORDER BY created_at DESC`,
		string(passengerID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*Booking, error) {
	var b Booking
	var cancelledBy sql.NullString
	var cancelledAt sql.NullTime
	var cancelReason sql.NullString

	err := row.Scan(
		&b.ID, &b.RideID, &b.PassengerID, &b.Seats,
		&b.TotalAmount.Amount, &b.TotalAmount.Currency,
		&b.Status, &b.StatusVersion, &b.PaymentStatus,
		&b.Pickup, &b.Dropoff,
		&cancelledBy, &cancelledAt, &cancelReason, &b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if cancelledBy.Valid {
		v := types.ID(cancelledBy.String)
		b.CancelledBy = &v
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		b.CancelledAt = &t
	}
	if cancelReason.Valid {
		b.CancelReason = &cancelReason.String
	}
	return &b, nil
}
