package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"campus-rides/internal/notification/domain"
	"campus-rides/internal/notification/service"
	"campus-rides/pkg/apperr"
	"campus-rides/pkg/auth"
	"campus-rides/pkg/httpjson"
	"campus-rides/pkg/logger"
)

// NotificationHandler handles HTTP requests for notifications
type NotificationHandler struct {
	dispatcher *service.Dispatcher
	logger     logger.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(dispatcher *service.Dispatcher, logger logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// List handles GET /notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetClaims(r.Context())
	if !ok {
		httpjson.WriteError(w, apperr.Unauthorized("missing claims"))
		return
	}

	var page domain.Page
	if n, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		page.Number = n
	}
	if n, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil {
		page.Size = n
	}

	notifications, total, err := h.dispatcher.ListForUser(r.Context(), claims.UserID, page)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	if notifications == nil {
		notifications = []*domain.Notification{}
	}
	httpjson.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notifications,
		"total_count":   total,
	})
}

// UnreadCount handles GET /notifications/unread-count
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetClaims(r.Context())
	if !ok {
		httpjson.WriteError(w, apperr.Unauthorized("missing claims"))
		return
	}

	count, err := h.dispatcher.UnreadCount(r.Context(), claims.UserID)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, map[string]int64{"unread_count": count})
}

// MarkRead handles POST /notifications/{notification_id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetClaims(r.Context())
	if !ok {
		httpjson.WriteError(w, apperr.Unauthorized("missing claims"))
		return
	}

	if err := h.dispatcher.MarkRead(r.Context(), r.PathValue("notification_id"), claims.UserID); err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, map[string]string{"message": "notification marked as read"})
}

// MarkAllRead handles POST /notifications/read-all
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetClaims(r.Context())
	if !ok {
		httpjson.WriteError(w, apperr.Unauthorized("missing claims"))
		return
	}

	updated, err := h.dispatcher.MarkAllRead(r.Context(), claims.UserID)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

// GetPreferences handles GET /notifications/preferences
func (h *NotificationHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetClaims(r.Context())
	if !ok {
		httpjson.WriteError(w, apperr.Unauthorized("missing claims"))
		return
	}

	pref := h.dispatcher.GetPreferences(r.Context(), claims.UserID)
	httpjson.WriteJSON(w, http.StatusOK, pref)
}

// UpdatePreferences handles PUT /notifications/preferences
func (h *NotificationHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetClaims(r.Context())
	if !ok {
		httpjson.WriteError(w, apperr.Unauthorized("missing claims"))
		return
	}

	var pref domain.NotificationPreference
	if err := json.NewDecoder(r.Body).Decode(&pref); err != nil {
		httpjson.WriteError(w, apperr.Invalid("invalid request body"))
		return
	}
	pref.UserID = claims.UserID

	if err := h.dispatcher.UpdatePreferences(r.Context(), pref); err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, pref)
}
