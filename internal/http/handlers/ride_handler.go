// README: Ride handlers for create/search/get/update and status changes.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"carpool/internal/http/middleware"
	"carpool/internal/modules/ride"
	"carpool/internal/types"
)

type RideHandler struct {
	rides *ride.Service
}

func NewRideHandler(svc *ride.Service) *RideHandler {
	return &RideHandler{rides: svc}
}

type rideResponse struct {
	ID              string   `json:"id"`
	DriverID        string   `json:"driver_id"`
	SourceAddress   string   `json:"source_address"`
	SourceLat       float64  `json:"source_lat"`
	SourceLng       float64  `json:"source_lng"`
	DestAddress     string   `json:"destination_address"`
	DestLat         float64  `json:"destination_lat"`
	DestLng         float64  `json:"destination_lng"`
	DepartureTime   string   `json:"departure_time"`
	AvailableSeats  int      `json:"available_seats"`
	BookedSeats     int      `json:"booked_seats"`
	SeatsRemaining  int      `json:"available_seats_remaining"`
	PricePerSeat    int64    `json:"price_per_seat"`
	Currency        string   `json:"currency"`
	DistanceKm      float64  `json:"distance_km"`
	DurationMinutes int      `json:"duration_minutes"`
	Waypoints       []string `json:"waypoints"`
	RouteVerified   bool     `json:"route_verified"`
	Status          string   `json:"status"`
}

func toRideResponse(r *ride.Ride) rideResponse {
	return rideResponse{
		ID:              string(r.ID),
		DriverID:        string(r.DriverID),
		SourceAddress:   r.SourceAddress,
		SourceLat:       r.Source.Lat,
		SourceLng:       r.Source.Lng,
		DestAddress:     r.DestinationAddress,
		DestLat:         r.Destination.Lat,
		DestLng:         r.Destination.Lng,
		DepartureTime:   r.DepartureTime.Format(time.RFC3339),
		AvailableSeats:  r.AvailableSeats,
		BookedSeats:     r.BookedSeats,
		SeatsRemaining:  r.RemainingSeats(),
		PricePerSeat:    r.PricePerSeat.Amount,
		Currency:        r.PricePerSeat.Currency,
		DistanceKm:      r.DistanceKm,
		DurationMinutes: r.DurationMinutes,
		Waypoints:       r.Waypoints,
		RouteVerified:   r.RouteVerified,
		Status:          string(r.Status),
	}
}

type createRideReq struct {
	SourceAddress      string   `json:"source_address"`
	SourceLat          float64  `json:"source_lat"`
	SourceLng          float64  `json:"source_lng"`
	DestinationAddress string   `json:"destination_address"`
	DestinationLat     float64  `json:"destination_lat"`
	DestinationLng     float64  `json:"destination_lng"`
	DepartureTime      string   `json:"departure_time"`
	AvailableSeats     int      `json:"available_seats"`
	PricePerSeat       int64    `json:"price_per_seat"`
	Waypoints          []string `json:"waypoints"`
	DistanceKm         float64  `json:"distance_km"`
	DurationMinutes    int      `json:"duration_minutes"`
}

func (h *RideHandler) Create(c *gin.Context) {
	var req createRideReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	departure, err := time.Parse(time.RFC3339, req.DepartureTime)
	if err != nil {
		writeError(c, http.StatusBadRequest, "departure_time must be RFC3339")
		return
	}
	r, err := h.rides.Create(c.Request.Context(), ride.CreateCommand{
		DriverID:           types.ID(c.GetString(middleware.UserIDKey)),
		SourceAddress:      req.SourceAddress,
		Source:             types.Point{Lat: req.SourceLat, Lng: req.SourceLng},
		DestinationAddress: req.DestinationAddress,
		Destination:        types.Point{Lat: req.DestinationLat, Lng: req.DestinationLng},
		DepartureTime:      departure,
		AvailableSeats:     req.AvailableSeats,
		PricePerSeat:       types.Money{Amount: req.PricePerSeat, Currency: "USD"},
		Waypoints:          req.Waypoints,
		DistanceKm:         req.DistanceKm,
		DurationMinutes:    req.DurationMinutes,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, toRideResponse(r))
}

type searchResultResponse struct {
	rideResponse
	SourceDistanceKm float64 `json:"source_distance_km"`
	DestDistanceKm   float64 `json:"dest_distance_km"`
	TotalFare        int64   `json:"total_fare"`
}

func (h *RideHandler) Search(c *gin.Context) {
	criteria, ok := parseSearchCriteria(c)
	if !ok {
		return
	}
	results, err := h.rides.Search(c.Request.Context(), criteria)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	out := make([]searchResultResponse, 0, len(results))
	for _, res := range results {
		out = append(out, searchResultResponse{
			rideResponse:     toRideResponse(res.Ride),
			SourceDistanceKm: res.OriginDistanceKm,
			DestDistanceKm:   res.DestinationDistanceKm,
			TotalFare:        res.TotalFare.Amount,
		})
	}
	writeJSON(c, http.StatusOK, map[string]any{"count": len(out), "rides": out})
}

// parseSearchCriteria reads the rider's query params; range validation
// itself belongs to the ride module.
func parseSearchCriteria(c *gin.Context) (ride.SearchCriteria, bool) {
	var criteria ride.SearchCriteria

	lat, err1 := strconv.ParseFloat(c.Query("source_lat"), 64)
	lng, err2 := strconv.ParseFloat(c.Query("source_lng"), 64)
	dlat, err3 := strconv.ParseFloat(c.Query("destination_lat"), 64)
	dlng, err4 := strconv.ParseFloat(c.Query("destination_lng"), 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		writeError(c, http.StatusBadRequest, "source and destination coordinates are required")
		return criteria, false
	}
	criteria.Origin = types.Point{Lat: lat, Lng: lng}
	criteria.Destination = types.Point{Lat: dlat, Lng: dlng}

	if v := c.Query("date"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return criteria, false
		}
		criteria.Date = &d
	}
	if v := c.Query("passengers"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(c, http.StatusBadRequest, "passengers must be an integer")
			return criteria, false
		}
		criteria.Seats = n
	}
	if v := c.Query("radius"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(c, http.StatusBadRequest, "radius must be a number")
			return criteria, false
		}
		criteria.RadiusKm = r
	}
	return criteria, true
}

func (h *RideHandler) Get(c *gin.Context) {
	r, err := h.rides.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toRideResponse(r))
}

type updateRideReq struct {
	DepartureTime  string `json:"departure_time"`
	AvailableSeats int    `json:"available_seats"`
	PricePerSeat   int64  `json:"price_per_seat"`
}

func (h *RideHandler) Update(c *gin.Context) {
	var req updateRideReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	cmd := ride.UpdateCommand{
		RideID:         types.ID(c.Param("id")),
		DriverID:       types.ID(c.GetString(middleware.UserIDKey)),
		AvailableSeats: req.AvailableSeats,
	}
	if req.DepartureTime != "" {
		departure, err := time.Parse(time.RFC3339, req.DepartureTime)
		if err != nil {
			writeError(c, http.StatusBadRequest, "departure_time must be RFC3339")
			return
		}
		cmd.DepartureTime = departure
	}
	if req.PricePerSeat > 0 {
		cmd.PricePerSeat = types.Money{Amount: req.PricePerSeat, Currency: "USD"}
	}
	r, err := h.rides.Update(c.Request.Context(), cmd)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toRideResponse(r))
}

func (h *RideHandler) Mine(c *gin.Context) {
	rides, err := h.rides.ListByDriver(c.Request.Context(), types.ID(c.GetString(middleware.UserIDKey)))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	out := make([]rideResponse, 0, len(rides))
	for _, r := range rides {
		out = append(out, toRideResponse(r))
	}
	writeJSON(c, http.StatusOK, map[string]any{"rides": out})
}

func (h *RideHandler) Start(c *gin.Context) {
	h.changeStatus(c, h.rides.Start, ride.StatusInProgress)
}

func (h *RideHandler) Complete(c *gin.Context) {
	h.changeStatus(c, h.rides.Complete, ride.StatusCompleted)
}

func (h *RideHandler) Cancel(c *gin.Context) {
	h.changeStatus(c, h.rides.Cancel, ride.StatusCancelled)
}

func (h *RideHandler) changeStatus(c *gin.Context, fn func(ctx context.Context, id, driverID types.ID) error, to ride.Status) {
	err := fn(c.Request.Context(), types.ID(c.Param("id")), types.ID(c.GetString(middleware.UserIDKey)))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"status": to})
}
