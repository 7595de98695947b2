package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"campus-rides/internal/rating/domain"
	"campus-rides/internal/rating/service"
	"campus-rides/pkg/apperr"
	"campus-rides/pkg/auth"
	"campus-rides/pkg/httpjson"
	"campus-rides/pkg/logger"
)

// RatingHandler handles HTTP requests for ratings
type RatingHandler struct {
	submitRating *service.SubmitRatingUseCase
	listRatings  *service.ListRatingsUseCase
	logger       logger.Logger
}

// NewRatingHandler creates a new rating handler
func NewRatingHandler(
	submitRating *service.SubmitRatingUseCase,
	listRatings *service.ListRatingsUseCase,
	logger logger.Logger,
) *RatingHandler {
	return &RatingHandler{
		submitRating: submitRating,
		listRatings:  listRatings,
		logger:       logger,
	}
}

// SubmitRatingRequest represents the HTTP request for rating a counterparty
type SubmitRatingRequest struct {
	RideID   string `json:"ride_id"`
	ToUserID string `json:"to_user_id"`
	Score    int    `json:"score"`
	Comment  string `json:"comment,omitempty"`
}

// SubmitRating handles POST /ratings
func (h *RatingHandler) SubmitRating(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetClaims(r.Context())
	if !ok {
		httpjson.WriteError(w, apperr.Unauthorized("missing claims"))
		return
	}

	var req SubmitRatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, apperr.Invalid("invalid request body"))
		return
	}

	rating, err := h.submitRating.Execute(r.Context(), service.SubmitRatingCommand{
		RideID:     req.RideID,
		FromUserID: claims.UserID,
		ToUserID:   req.ToUserID,
		Score:      req.Score,
		Comment:    req.Comment,
	})
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusCreated, rating)
}

// HasRated handles GET /rides/{ride_id}/ratings/check
func (h *RatingHandler) HasRated(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetClaims(r.Context())
	if !ok {
		httpjson.WriteError(w, apperr.Unauthorized("missing claims"))
		return
	}

	toUserID := r.URL.Query().Get("to_user_id")
	if toUserID == "" {
		httpjson.WriteError(w, apperr.Invalid("to_user_id is required"))
		return
	}

	rated, err := h.listRatings.HasRated(r.Context(), r.PathValue("ride_id"), claims.UserID, toUserID)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, map[string]bool{"rated": rated})
}

// RideRatings handles GET /rides/{ride_id}/ratings
func (h *RatingHandler) RideRatings(w http.ResponseWriter, r *http.Request) {
	ratings, err := h.listRatings.ForRide(r.Context(), r.PathValue("ride_id"))
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ratings": ratings,
		"count":   len(ratings),
	})
}

// UserRatings handles GET /users/{user_id}/ratings
func (h *RatingHandler) UserRatings(w http.ResponseWriter, r *http.Request) {
	page, err := h.listRatings.ReceivedBy(r.Context(), r.PathValue("user_id"), pageFrom(r))
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, page)
}

// MyGivenRatings handles GET /users/me/ratings/given
func (h *RatingHandler) MyGivenRatings(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetClaims(r.Context())
	if !ok {
		httpjson.WriteError(w, apperr.Unauthorized("missing claims"))
		return
	}

	page, err := h.listRatings.GivenBy(r.Context(), claims.UserID, pageFrom(r))
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, page)
}

func pageFrom(r *http.Request) domain.Page {
	var page domain.Page
	if n, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		page.Number = n
	}
	if n, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil {
		page.Size = n
	}
	return page
}
