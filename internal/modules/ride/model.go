// README: Ride record, status flow, and search criteria/result types.
package ride

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"carpool/internal/types"
)

type Status string

const (
	StatusActive     Status = "active"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// AllowedTransitions represents the ride state flow as code.
var AllowedTransitions = map[Status][]Status{
	StatusActive:     {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted},
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

type Ride struct {
	ID                 types.ID
	DriverID           types.ID
	SourceAddress      string
	Source             types.Point
	DestinationAddress string
	Destination        types.Point
	DepartureTime      time.Time
	AvailableSeats     int
	BookedSeats        int
	PricePerSeat       types.Money
	DistanceKm         float64
	DurationMinutes    int
	Waypoints          []string
	// RouteVerified records whether the stored distance/duration were
	// confirmed against the directions provider at creation time.
	RouteVerified bool
	Status        Status
	StatusVersion int
	CreatedAt     time.Time
}

func (r *Ride) RemainingSeats() int {
	return r.AvailableSeats - r.BookedSeats
}

const (
	DefaultSeats    = 1
	MaxSeats        = 8
	DefaultRadiusKm = 5.0
	MaxRadiusKm     = 50.0
)

// SearchCriteria is a rider's request: both trip endpoints, an optional
// calendar date, a seat count, and the proximity radius for each leg.
type SearchCriteria struct {
	Origin      types.Point
	Destination types.Point
	Date        *time.Time
	Seats       int
	RadiusKm    float64
}

// Normalize fills in the documented defaults for omitted fields.
func (c *SearchCriteria) Normalize() {
	if c.Seats == 0 {
		c.Seats = DefaultSeats
	}
	if c.RadiusKm == 0 {
		c.RadiusKm = DefaultRadiusKm
	}
}

// Validate checks the criteria ranges. A non-nil result means the search
// must not proceed; the catalog is never queried with bad criteria.
func (c SearchCriteria) Validate() *ValidationError {
	v := &ValidationError{}
	if !c.Origin.InRange() {
		v.add("origin", "latitude must be in [-90,90] and longitude in [-180,180]")
	}
	if !c.Destination.InRange() {
		v.add("destination", "latitude must be in [-90,90] and longitude in [-180,180]")
	}
	if c.Seats < 1 || c.Seats > MaxSeats {
		v.add("seats", fmt.Sprintf("must be between 1 and %d", MaxSeats))
	}
	if c.RadiusKm <= 0 || c.RadiusKm > MaxRadiusKm {
		v.add("radius", fmt.Sprintf("must be greater than 0 and at most %g km", MaxRadiusKm))
	}
	if len(v.Fields) == 0 {
		return nil
	}
	return v
}

// ValidationError carries a field-keyed message map for malformed input.
type ValidationError struct {
	Fields map[string]string
}

func (v *ValidationError) add(field, msg string) {
	if v.Fields == nil {
		v.Fields = make(map[string]string)
	}
	v.Fields[field] = msg
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "invalid search criteria: " + strings.Join(keys, ", ")
}

// SearchResult is a matched ride enriched with per-leg distances and the
// total fare for the requested seat count. Computed fresh per search,
// never persisted.
type SearchResult struct {
	Ride                  *Ride
	OriginDistanceKm      float64
	DestinationDistanceKm float64
	RemainingSeats        int
	TotalFare             types.Money
}
