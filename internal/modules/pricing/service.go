// README: Pricing service computes fare estimates and route quotes.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"

	"carpool/internal/types"
)

var ErrNoRoute = errors.New("unable to calculate route")

// RateSource supplies the configured fare rate. ErrNoRate means nothing is
// configured and the default applies.
type RateSource interface {
	GetRate(ctx context.Context) (Rate, error)
}

// RouteProvider is the directions backend used for quotes.
type RouteProvider interface {
	GetRoute(ctx context.Context, origin, destination string, waypoints []string) (distanceKm float64, durationMin int, err error)
}

type Service struct {
	rates  RateSource
	routes RouteProvider
}

func NewService(rates RateSource, routes RouteProvider) *Service {
	return &Service{rates: rates, routes: routes}
}

// estimateFare rounds base + distance*perKm to the nearest whole currency
// unit. Callers guarantee a non-negative distance.
func estimateFare(distanceKm float64, rate Rate) int64 {
	return int64(math.Round(float64(rate.BaseFare) + distanceKm*float64(rate.PerKm)))
}

// Estimate derives a suggested per-seat price from trip distance.
func (s *Service) Estimate(ctx context.Context, distanceKm float64) (types.Money, error) {
	rate, err := s.rate(ctx)
	if err != nil {
		return types.Money{}, err
	}
	return types.Money{Amount: estimateFare(distanceKm, rate), Currency: rate.Currency}, nil
}

// QuoteRoute looks up the route and suggests a per-seat price for it,
// along with what a full car would earn the driver.
func (s *Service) QuoteRoute(ctx context.Context, origin, destination string, waypoints []string) (Quote, error) {
	distanceKm, durationMin, err := s.routes.GetRoute(ctx, origin, destination, waypoints)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: %v", ErrNoRoute, err)
	}
	suggested, err := s.Estimate(ctx, distanceKm)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		DistanceKm:        distanceKm,
		DurationMinutes:   durationMin,
		SuggestedPerSeat:  suggested,
		PotentialEarnings: suggested.Times(4),
	}, nil
}

func (s *Service) rate(ctx context.Context) (Rate, error) {
	if s.rates == nil {
		return DefaultRate, nil
	}
	rate, err := s.rates.GetRate(ctx)
	if errors.Is(err, ErrNoRate) {
		return DefaultRate, nil
	}
	if err != nil {
		return Rate{}, err
	}
	return rate, nil
}
