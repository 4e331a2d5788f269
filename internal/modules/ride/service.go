// README: Ride service implements search matching, creation with route
// verification, and status transitions.
package ride

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"carpool/internal/config"
	"carpool/internal/types"
)

var (
	ErrBadRequest        = errors.New("bad request")
	ErrNotFound          = errors.New("ride not found")
	ErrInvalidState      = errors.New("invalid state transition")
	ErrConflict          = errors.New("ride state conflict")
	ErrForbidden         = errors.New("ride belongs to another driver")
	ErrHasBookings       = errors.New("ride has existing bookings")
	ErrRouteUnverifiable = errors.New("route could not be verified")
)

// Catalog is the ride persistence boundary. FindActive is the cheap,
// indexed structural filter; geographic filtering happens in Search.
type Catalog interface {
	Create(ctx context.Context, r *Ride) error
	Get(ctx context.Context, id types.ID) (*Ride, error)
	Update(ctx context.Context, r *Ride) error
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int) (bool, error)
	FindActive(ctx context.Context, seatsAtLeast int, from time.Time, until *time.Time) ([]*Ride, error)
	ListByDriver(ctx context.Context, driverID types.ID) ([]*Ride, error)
}

type Pricing interface {
	Estimate(ctx context.Context, distanceKm float64) (types.Money, error)
}

type Service struct {
	store   Catalog
	routes  RouteProvider
	pricing Pricing
	cfg     config.RouteConfig
	log     *zap.Logger
}

func NewService(store Catalog, routes RouteProvider, pricing Pricing, cfg config.RouteConfig, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, routes: routes, pricing: pricing, cfg: cfg, log: log}
}

type CreateCommand struct {
	DriverID           types.ID
	SourceAddress      string
	Source             types.Point
	DestinationAddress string
	Destination        types.Point
	DepartureTime      time.Time
	AvailableSeats     int
	// PricePerSeat of zero means "suggest one from the route distance".
	PricePerSeat    types.Money
	Waypoints       []string
	DistanceKm      float64
	DurationMinutes int
}

// Create verifies the client-submitted route against the directions
// provider before persisting. On a tolerance mismatch the provider's
// metrics silently replace the client's; on provider failure the
// AllowUnverified config flag decides between rejecting the ride and
// persisting it with unverified client data.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Ride, error) {
	switch {
	case cmd.DriverID.IsZero():
		return nil, fmt.Errorf("%w: missing driver", ErrBadRequest)
	case cmd.SourceAddress == "" || cmd.DestinationAddress == "":
		return nil, fmt.Errorf("%w: missing addresses", ErrBadRequest)
	case !cmd.Source.InRange() || !cmd.Destination.InRange():
		return nil, fmt.Errorf("%w: coordinates out of range", ErrBadRequest)
	case cmd.AvailableSeats < 1 || cmd.AvailableSeats > MaxSeats:
		return nil, fmt.Errorf("%w: seats must be between 1 and %d", ErrBadRequest, MaxSeats)
	case !cmd.DepartureTime.After(time.Now()):
		return nil, fmt.Errorf("%w: departure time must be in the future", ErrBadRequest)
	}

	metrics := RouteMetrics{DistanceKm: cmd.DistanceKm, DurationMinutes: cmd.DurationMinutes}
	verified := false

	outcome := CheckRoute(ctx, s.routes, cmd.SourceAddress, cmd.DestinationAddress, cmd.Waypoints, metrics)
	switch outcome.Reason {
	case ReasonProviderUnavailable:
		if !s.cfg.AllowUnverified {
			return nil, ErrRouteUnverifiable
		}
		s.log.Warn("directions provider unavailable, persisting unverified route",
			zap.String("driver_id", string(cmd.DriverID)))
	case ReasonDegenerateRoute:
		return nil, fmt.Errorf("%w: origin and destination resolve to the same point", ErrBadRequest)
	case ReasonOutOfTolerance:
		s.log.Info("client route metrics out of tolerance, using provider values",
			zap.Float64("distance_diff", outcome.DistanceDiff),
			zap.Float64("duration_diff", outcome.DurationDiff))
		metrics = outcome.Authoritative
		verified = true
	default:
		verified = true
	}

	price := cmd.PricePerSeat
	if price.Amount <= 0 {
		suggested, err := s.pricing.Estimate(ctx, metrics.DistanceKm)
		if err != nil {
			return nil, fmt.Errorf("suggest price: %w", err)
		}
		price = suggested
	}

	r := &Ride{
		ID:                 types.NewID(),
		DriverID:           cmd.DriverID,
		SourceAddress:      cmd.SourceAddress,
		Source:             cmd.Source,
		DestinationAddress: cmd.DestinationAddress,
		Destination:        cmd.Destination,
		DepartureTime:      cmd.DepartureTime,
		AvailableSeats:     cmd.AvailableSeats,
		PricePerSeat:       price,
		DistanceKm:         metrics.DistanceKm,
		DurationMinutes:    metrics.DurationMinutes,
		Waypoints:          cmd.Waypoints,
		RouteVerified:      verified,
		Status:             StatusActive,
		CreatedAt:          time.Now(),
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Search matches a rider's criteria against open rides: the catalog does
// the indexed structural filter (status, seat capacity, time window), then
// every candidate is measured with the Haversine formula on both trip
// endpoints. A ride whose pickup is near but whose drop-off is far is not
// a match.
func (s *Service) Search(ctx context.Context, criteria SearchCriteria) ([]SearchResult, error) {
	criteria.Normalize()
	if verr := criteria.Validate(); verr != nil {
		return nil, verr
	}

	from, until := departureWindow(criteria.Date)
	candidates, err := s.store.FindActive(ctx, criteria.Seats, from, until)
	if err != nil {
		return nil, fmt.Errorf("ride catalog: %w", err)
	}

	results := make([]SearchResult, 0, len(candidates))
	for _, c := range candidates {
		// The catalog query already filters on remaining capacity, but a
		// stale or lax row must never surface an unbookable ride.
		if c.RemainingSeats() < criteria.Seats {
			continue
		}
		originDist := haversineKm(criteria.Origin, c.Source)
		destDist := haversineKm(criteria.Destination, c.Destination)
		if originDist > criteria.RadiusKm || destDist > criteria.RadiusKm {
			continue
		}
		results = append(results, SearchResult{
			Ride:                  c,
			OriginDistanceKm:      originDist,
			DestinationDistanceKm: destDist,
			RemainingSeats:        c.RemainingSeats(),
			TotalFare:             c.PricePerSeat.Times(int64(criteria.Seats)),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i].Ride, results[j].Ride
		if !a.DepartureTime.Equal(b.DepartureTime) {
			return a.DepartureTime.Before(b.DepartureTime)
		}
		return a.ID < b.ID
	})
	return results, nil
}

// departureWindow maps an optional calendar date onto the catalog query
// bounds: the date's full day, or "from now on" when no date was given.
func departureWindow(date *time.Time) (time.Time, *time.Time) {
	if date == nil {
		return time.Now(), nil
	}
	y, m, d := date.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, date.Location())
	until := from.Add(24 * time.Hour)
	return from, &until
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Ride, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListByDriver(ctx context.Context, driverID types.ID) ([]*Ride, error) {
	return s.store.ListByDriver(ctx, driverID)
}

type UpdateCommand struct {
	RideID         types.ID
	DriverID       types.ID
	DepartureTime  time.Time
	AvailableSeats int
	PricePerSeat   types.Money
}

// Update lets the driver adjust departure, seats, or price — but only
// while nobody has booked.
func (s *Service) Update(ctx context.Context, cmd UpdateCommand) (*Ride, error) {
	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return nil, err
	}
	if r.DriverID != cmd.DriverID {
		return nil, ErrForbidden
	}
	if r.BookedSeats > 0 {
		return nil, ErrHasBookings
	}
	if r.Status != StatusActive {
		return nil, ErrInvalidState
	}
	if !cmd.DepartureTime.IsZero() {
		if !cmd.DepartureTime.After(time.Now()) {
			return nil, fmt.Errorf("%w: departure time must be in the future", ErrBadRequest)
		}
		r.DepartureTime = cmd.DepartureTime
	}
	if cmd.AvailableSeats != 0 {
		if cmd.AvailableSeats < 1 || cmd.AvailableSeats > MaxSeats {
			return nil, fmt.Errorf("%w: seats must be between 1 and %d", ErrBadRequest, MaxSeats)
		}
		r.AvailableSeats = cmd.AvailableSeats
	}
	if cmd.PricePerSeat.Amount > 0 {
		r.PricePerSeat = cmd.PricePerSeat
	}
	if err := s.store.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) Start(ctx context.Context, id, driverID types.ID) error {
	return s.transition(ctx, id, driverID, StatusInProgress)
}

func (s *Service) Complete(ctx context.Context, id, driverID types.ID) error {
	return s.transition(ctx, id, driverID, StatusCompleted)
}

func (s *Service) Cancel(ctx context.Context, id, driverID types.ID) error {
	return s.transition(ctx, id, driverID, StatusCancelled)
}

func (s *Service) transition(ctx context.Context, id, driverID types.ID, to Status) error {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if r.DriverID != driverID {
		return ErrForbidden
	}
	if !CanTransition(r.Status, to) {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, r.ID, r.Status, to, r.StatusVersion)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}
