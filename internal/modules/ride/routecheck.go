// README: Route check compares client-submitted route metrics against the
// directions provider and decides which values to trust.
package ride

import (
	"context"
	"math"
)

// RouteProvider is the directions backend consulted for authoritative
// route metrics. Implemented by internal/maps.
type RouteProvider interface {
	GetRoute(ctx context.Context, origin, destination string, waypoints []string) (distanceKm float64, durationMin int, err error)
}

// RouteMetrics is a transient distance/duration pair; one instance holds
// the client's claim, another the provider's answer.
type RouteMetrics struct {
	DistanceKm      float64
	DurationMinutes int
}

type CheckReason string

const (
	ReasonOK                  CheckReason = "ok"
	ReasonOutOfTolerance      CheckReason = "out_of_tolerance"
	ReasonDegenerateRoute     CheckReason = "degenerate_route"
	ReasonProviderUnavailable CheckReason = "provider_unavailable"
)

// Fixed policy constants. Duration gets a wider band than distance since
// traffic conditions vary at request time.
const (
	distanceTolerance = 0.10
	durationTolerance = 0.15
)

// CheckOutcome is the result of one route check. Authoritative is filled
// whenever the provider answered, valid or not, so the caller can always
// override client-submitted values.
type CheckOutcome struct {
	Valid         bool
	Reason        CheckReason
	Authoritative RouteMetrics
	DistanceDiff  float64
	DurationDiff  float64
}

// CheckRoute asks the provider for the real route and compares it to the
// client's claim within the tolerance bands. Provider failures are
// reported as an outcome, not an error; the caller owns the fallback
// policy (and any retries).
func CheckRoute(ctx context.Context, provider RouteProvider, origin, destination string, waypoints []string, client RouteMetrics) CheckOutcome {
	distanceKm, durationMin, err := provider.GetRoute(ctx, origin, destination, waypoints)
	if err != nil {
		return CheckOutcome{Valid: false, Reason: ReasonProviderUnavailable}
	}

	authoritative := RouteMetrics{DistanceKm: distanceKm, DurationMinutes: durationMin}

	// A zero-length or zero-duration route (origin == destination) would
	// make the ratios below divide by zero. Reject it outright.
	if distanceKm == 0 || durationMin == 0 {
		return CheckOutcome{Valid: false, Reason: ReasonDegenerateRoute, Authoritative: authoritative}
	}

	distanceDiff := math.Abs(distanceKm-client.DistanceKm) / distanceKm
	durationDiff := math.Abs(float64(durationMin-client.DurationMinutes)) / float64(durationMin)

	out := CheckOutcome{
		Authoritative: authoritative,
		DistanceDiff:  distanceDiff,
		DurationDiff:  durationDiff,
	}
	if distanceDiff <= distanceTolerance && durationDiff <= durationTolerance {
		out.Valid = true
		out.Reason = ReasonOK
	} else {
		out.Reason = ReasonOutOfTolerance
	}
	return out
}
