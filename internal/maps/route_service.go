package maps

import (
	"context"
	"fmt"
	"math"

	"googlemaps.github.io/maps"
)

// RouteService handles interactions with the Google Maps Directions API.
type RouteService struct {
	client *maps.Client
}

// NewRouteService creates a new RouteService with the given API key.
func NewRouteService(apiKey string) (*RouteService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &RouteService{client: client}, nil
}

// GetRoute returns the driving distance in kilometres and duration in whole
// minutes for a trip from origin to destination through the given
// waypoints. Distance and duration are summed over all legs, so a route
// with waypoints reports the full path, not just the first leg.
func (s *RouteService) GetRoute(ctx context.Context, origin, destination string, waypoints []string) (float64, int, error) {
	r := &maps.DirectionsRequest{
		Origin:      origin,
		Destination: destination,
		Waypoints:   waypoints,
		Mode:        maps.TravelModeDriving,
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return 0, 0, fmt.Errorf("maps api error: %w", err)
	}

	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return 0, 0, fmt.Errorf("no route found")
	}

	meters := 0
	var duration float64
	for _, leg := range routes[0].Legs {
		meters += leg.Distance.Meters
		duration += leg.Duration.Minutes()
	}

	return float64(meters) / 1000.0, int(math.Round(duration)), nil
}
