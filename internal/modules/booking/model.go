// README: Booking aggregate and status definitions.
package booking

import (
	"time"

	"carpool/internal/types"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentRefunded  PaymentStatus = "refunded"
	PaymentFailed    PaymentStatus = "failed"
)

// AllowedTransitions represents the booking state flow as code.
var AllowedTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

type Booking struct {
	ID            types.ID
	RideID        types.ID
	PassengerID   types.ID
	Seats         int
	TotalAmount   types.Money
	Status        Status
	StatusVersion int
	PaymentStatus PaymentStatus
	Pickup        string
	Dropoff       string
	CancelledBy   *types.ID
	CancelledAt   *time.Time
	CancelReason  *string
	CreatedAt     time.Time
}
