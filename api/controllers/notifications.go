package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dukaanhq/dukaan-backend/api/responses"
	"github.com/dukaanhq/dukaan-backend/api/validators"
	notificationsvc "github.com/dukaanhq/dukaan-backend/internal/notifications"
	"github.com/dukaanhq/dukaan-backend/pkg/db/models"
	"github.com/dukaanhq/dukaan-backend/pkg/logger"
	"github.com/dukaanhq/dukaan-backend/pkg/pagination"
)

// ListNotifications serves stock alerts, newest first.
func ListNotifications(svc notificationsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor, err := validators.ParseQueryCursor(r, "cursor")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unreadOnly, err := validators.ParseQueryBool(r, "unread_only")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		notifications, next, err := svc.List(r.Context(), notificationsvc.ListNotificationsInput{
			UnreadOnly: unreadOnly,
			Limit:      limit,
			Cursor:     cursor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]notificationResponse, 0, len(notifications))
		for i := range notifications {
			items = append(items, newNotificationResponse(&notifications[i]))
		}
		responses.WriteSuccess(w, newPageResponse(items, next))
	}
}

func MarkNotificationRead(svc notificationsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		notificationID, err := validators.ParsePathUUID(chi.URLParam(r, "notificationId"), "notificationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.MarkRead(r.Context(), notificationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "read"})
	}
}

func MarkAllNotificationsRead(svc notificationsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		affected, err := svc.MarkAllRead(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "read", "affected": affected})
	}
}

// UnreadNotificationCount powers the alert badge on the storefront.
func UnreadNotificationCount(svc notificationsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := svc.CountUnread(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"unread": count})
	}
}

type notificationResponse struct {
	ID        uuid.UUID  `json:"id"`
	Type      string     `json:"type"`
	Message   string     `json:"message"`
	ProductID *uuid.UUID `json:"product_id,omitempty"`
	Read      bool       `json:"read"`
	CreatedAt time.Time  `json:"created_at"`
}

func newNotificationResponse(notification *models.Notification) notificationResponse {
	return notificationResponse{
		ID:        notification.ID,
		Type:      string(notification.Type),
		Message:   notification.Message,
		ProductID: notification.ProductID,
		Read:      notification.Read,
		CreatedAt: notification.CreatedAt,
	}
}
