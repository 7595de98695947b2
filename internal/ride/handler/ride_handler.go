package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"campus-rides/internal/ride/domain"
	"campus-rides/internal/ride/service"
	"campus-rides/pkg/apperr"
	"campus-rides/pkg/auth"
	"campus-rides/pkg/httpjson"
	"campus-rides/pkg/logger"
)

// RideHandler handles HTTP requests for rides
type RideHandler struct {
	createRide      *service.CreateRideUseCase
	bookRide        *service.BookRideUseCase
	cancelBooking   *service.CancelBookingUseCase
	removePassenger *service.RemovePassengerUseCase
	updateStatus    *service.UpdateStatusUseCase
	searchRides     *service.SearchRidesUseCase
	getRide         *service.GetRideUseCase
	listPassengers  *service.ListPassengersUseCase
	listUserRides   *service.ListUserRidesUseCase
	logger          logger.Logger
}

// NewRideHandler creates a new ride handler
func NewRideHandler(
	createRide *service.CreateRideUseCase,
	bookRide *service.BookRideUseCase,
	cancelBooking *service.CancelBookingUseCase,
	removePassenger *service.RemovePassengerUseCase,
	updateStatus *service.UpdateStatusUseCase,
	searchRides *service.SearchRidesUseCase,
	getRide *service.GetRideUseCase,
	listPassengers *service.ListPassengersUseCase,
	listUserRides *service.ListUserRidesUseCase,
	logger logger.Logger,
) *RideHandler {
	return &RideHandler{
		createRide:      createRide,
		bookRide:        bookRide,
		cancelBooking:   cancelBooking,
		removePassenger: removePassenger,
		updateStatus:    updateStatus,
		searchRides:     searchRides,
		getRide:         getRide,
		listPassengers:  listPassengers,
		listUserRides:   listUserRides,
		logger:          logger,
	}
}

// CreateRideRequest represents the HTTP request for offering a ride
type CreateRideRequest struct {
	Origin        string             `json:"origin"`
	Destination   string             `json:"destination"`
	DepartureTime time.Time          `json:"departure_time"`
	Seats         int                `json:"seats"`
	Price         float64            `json:"price"`
	Details       domain.RideDetails `json:"details"`
}

// CreateRide handles POST /rides
func (h *RideHandler) CreateRide(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetClaims(r.Context())
	if !ok {
		httpjson.WriteError(w, apperr.Unauthorized("missing claims"))
		return
	}

	var req CreateRideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, apperr.Invalid("invalid request body"))
		return
	}

	cmd := service.CreateRideCommand{
		DriverID:      claims.UserID,
		Origin:        req.Origin,
		Destination:   req.Destination,
		DepartureTime: req.DepartureTime,
		Seats:         req.Seats,
		Price:         req.Price,
		Details:       req.Details,
	}

	ride, err := h.createRide.Execute(r.Context(), cmd)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}

	httpjson.WriteJSON(w, http.StatusCreated, ride)
}

// GetRide handles GET /rides/{ride_id}
func (h *RideHandler) GetRide(w http.ResponseWriter, r *http.Request) {
	ride, err := h.getRide.Execute(r.Context(), r.PathValue("ride_id"))
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, ride)
}

// SearchRides handles GET /rides
func (h *RideHandler) SearchRides(w http.ResponseWriter, r *http.Request) {
	q, err := parseSearchQuery(r)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}

	page, err := h.searchRides.Execute(r.Context(), q)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, page)
}

// BookRide handles POST /rides/{ride_id}/bookings
func (h *RideHandler) BookRide(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetClaims(r.Context())
	if !ok {
		httpjson.WriteError(w, apperr.Unauthorized("missing claims"))
		return
	}

	ride, err := h.bookRide.Execute(r.Context(), service.BookRideCommand{
		RideID:      r.PathValue("ride_id"),
		PassengerID: claims.UserID,
	})
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, ride)
}

// CancelBooking handles DELETE /rides/{ride_id}/bookings
func (h *RideHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetClaims(r.Context())
	if !ok {
		httpjson.WriteError(w, apperr.Unauthorized("missing claims"))
		return
	}

	ride, err := h.cancelBooking.Execute(r.Context(), service.CancelBookingCommand{
		RideID:      r.PathValue("ride_id"),
		PassengerID: claims.UserID,
	})
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, ride)
}

// RemovePassenger handles DELETE /rides/{ride_id}/passengers/{passenger_id}
func (h *RideHandler) RemovePassenger(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetClaims(r.Context())
	if !ok {
		httpjson.WriteError(w, apperr.Unauthorized("missing claims"))
		return
	}

	ride, err := h.removePassenger.Execute(r.Context(), service.RemovePassengerCommand{
		RideID:      r.PathValue("ride_id"),
		DriverID:    claims.UserID,
		PassengerID: r.PathValue("passenger_id"),
	})
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, ride)
}

// UpdateStatusRequest represents the HTTP request for a lifecycle transition
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /rides/{ride_id}/status
func (h *RideHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetClaims(r.Context())
	if !ok {
		httpjson.WriteError(w, apperr.Unauthorized("missing claims"))
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, apperr.Invalid("invalid request body"))
		return
	}

	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}

	ride, err := h.updateStatus.Execute(r.Context(), service.UpdateStatusCommand{
		RideID:    r.PathValue("ride_id"),
		DriverID:  claims.UserID,
		NewStatus: status,
	})
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, ride)
}

// ListPassengers handles GET /rides/{ride_id}/passengers
func (h *RideHandler) ListPassengers(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetClaims(r.Context())
	if !ok {
		httpjson.WriteError(w, apperr.Unauthorized("missing claims"))
		return
	}

	passengers, err := h.listPassengers.Execute(r.Context(), r.PathValue("ride_id"), claims.UserID)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"passengers": passengers,
		"count":      len(passengers),
	})
}

// ListMyRides handles GET /users/me/rides
func (h *RideHandler) ListMyRides(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetClaims(r.Context())
	if !ok {
		httpjson.WriteError(w, apperr.Unauthorized("missing claims"))
		return
	}

	statuses, err := parseStatuses(r.URL.Query().Get("status"))
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}

	page, err := h.listUserRides.Execute(r.Context(), service.ListUserRidesCommand{
		UserID:   claims.UserID,
		AsDriver: r.URL.Query().Get("role") == "driver",
		Statuses: statuses,
		Page:     queryInt(r, "page", 0),
		PageSize: queryInt(r, "page_size", 0),
	})
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, page)
}

// parseSearchQuery reads the ride search filters from query parameters.
func parseSearchQuery(r *http.Request) (domain.SearchQuery, error) {
	values := r.URL.Query()
	q := domain.SearchQuery{
		Origin:      values.Get("origin"),
		Destination: values.Get("destination"),
		IncludeFull: values.Get("include_full") == "true",
		IncludePast: values.Get("include_past") == "true",
		Page:        queryInt(r, "page", 0),
		PageSize:    queryInt(r, "page_size", 0),
		SortBy:      values.Get("sort_by"),
		SortDesc:    values.Get("sort_desc") == "true",
	}

	if s := values.Get("depart_from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return q, apperr.Invalid("depart_from must be RFC 3339")
		}
		q.DepartFrom = &t
	}
	if s := values.Get("depart_to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return q, apperr.Invalid("depart_to must be RFC 3339")
		}
		q.DepartTo = &t
	}
	if s := values.Get("max_price"); s != "" {
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return q, apperr.Invalid("max_price must be a number")
		}
		q.MaxPrice = &p
	}
	if s := values.Get("min_seats"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return q, apperr.Invalid("min_seats must be an integer")
		}
		q.MinSeats = &n
	}

	statuses, err := parseStatuses(values.Get("status"))
	if err != nil {
		return q, err
	}
	q.Statuses = statuses

	return q, nil
}

// parseStatuses splits a comma-separated status filter.
func parseStatuses(raw string) ([]domain.RideStatus, error) {
	if raw == "" {
		return nil, nil
	}
	var statuses []domain.RideStatus
	for _, part := range strings.Split(raw, ",") {
		status, err := domain.ParseStatus(part)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func queryInt(r *http.Request, key string, fallback int) int {
	if s := r.URL.Query().Get(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}
