// README: Pricing rate definition and quote result types.
package pricing

import "carpool/internal/types"

// Rate is the linear fare model: base fare plus a per-kilometre charge,
// both in whole currency units.
type Rate struct {
	BaseFare int64
	PerKm    int64
	Currency string
}

// DefaultRate applies when no rate row has been configured.
var DefaultRate = Rate{BaseFare: 5, PerKm: 8, Currency: "USD"}

// Quote is a suggested per-seat price for a route, with the provider's
// route metrics it was derived from.
type Quote struct {
	DistanceKm       float64
	DurationMinutes  int
	SuggestedPerSeat types.Money
	// PotentialEarnings assumes a full car of four passengers.
	PotentialEarnings types.Money
}
