package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/leave-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
)

const sseKeepaliveInterval = 30 * time.Second

// NotificationHandler serves the in-app inbox and its live feed.
type NotificationHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	UnreadCount(w http.ResponseWriter, r *http.Request)
	MarkAsRead(w http.ResponseWriter, r *http.Request)
	MarkAllAsRead(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)

	GetSSEToken(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

type notificationHandlerImpl struct {
	notifService notification.Service
	jwtService   jwt.Service
}

func NewNotificationHandler(notifService notification.Service, jwtService jwt.Service) NotificationHandler {
	return &notificationHandlerImpl{
		notifService: notifService,
		jwtService:   jwtService,
	}
}

// inboxOwner answers 401 when the verified token names no user.
func inboxOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return "", false
	}
	return userID, true
}

// List pages through the caller's inbox, newest first
func (h *notificationHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := inboxOwner(w, r)
	if !ok {
		return
	}

	page, err := h.notifService.GetNotifications(r.Context(), notification.ListNotificationsRequest{
		UserID:     userID,
		Page:       getIntQueryParam(r, "page", 1),
		PageSize:   getIntQueryParam(r, "page_size", 20),
		UnreadOnly: getBoolQueryParam(r, "unread_only", false),
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	meta := &response.Meta{Page: page.Page, Limit: page.PageSize, TotalItems: int64(page.Total)}
	if page.PageSize > 0 {
		meta.TotalPages = (page.Total + page.PageSize - 1) / page.PageSize
	}
	response.SuccessWithMeta(w, page, meta)
}

func (h *notificationHandlerImpl) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := inboxOwner(w, r)
	if !ok {
		return
	}

	unread, err := h.notifService.GetUnreadCount(r.Context(), userID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, notification.UnreadCountResponse{UnreadCount: unread})
}

// MarkAsRead flags the listed notifications; ids owned by someone else are ignored
func (h *notificationHandlerImpl) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := inboxOwner(w, r)
	if !ok {
		return
	}

	var req notification.MarkAsReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if err := h.notifService.MarkAsRead(r.Context(), userID, req); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Notifications marked as read", nil)
}

func (h *notificationHandlerImpl) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := inboxOwner(w, r)
	if !ok {
		return
	}

	if err := h.notifService.MarkAllAsRead(r.Context(), userID); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "All notifications marked as read", nil)
}

func (h *notificationHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := inboxOwner(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Notification ID is required", nil)
		return
	}

	if err := h.notifService.Delete(r.Context(), userID, id); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Notification deleted", nil)
}

// GetSSEToken trades the bearer token for one the browser can put in a stream URL
func (h *notificationHandlerImpl) GetSSEToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := inboxOwner(w, r)
	if !ok {
		return
	}

	token, expiresIn, err := h.jwtService.GenerateSSEToken(userID)
	if err != nil {
		response.InternalServerError(w, "Failed to generate SSE token")
		return
	}
	response.Success(w, notification.SSETokenResponse{Token: token, ExpiresIn: expiresIn})
}

// eventStream frames values as server-sent events and pushes each one out immediately.
type eventStream struct {
	w http.ResponseWriter
	f http.Flusher
}

func openEventStream(w http.ResponseWriter) (*eventStream, bool) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	return &eventStream{w: w, f: f}, true
}

// emit reports write failures only; a payload that cannot be encoded is logged and skipped.
func (s *eventStream) emit(name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("dropping unencodable stream event", "event", name, "error", err)
		return nil
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}

// Stream relays the caller's new notifications until the client goes away.
// The token comes from GetSSEToken because EventSource cannot set headers.
func (h *notificationHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		response.Unauthorized(w, "Missing token")
		return
	}
	userID, err := h.jwtService.ValidateSSEToken(token)
	if err != nil {
		response.Unauthorized(w, "Invalid token")
		return
	}

	stream, ok := openEventStream(w)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	events, unsubscribe := h.notifService.Subscribe(r.Context(), userID)
	defer unsubscribe()

	if err := stream.emit("connected", map[string]string{"status": "connected", "user_id": userID}); err != nil {
		return
	}

	ping := time.NewTicker(sseKeepaliveInterval)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case now := <-ping.C:
			if stream.emit("ping", map[string]int64{"timestamp": now.Unix()}) != nil {
				return
			}
		case ev, open := <-events:
			if !open {
				return
			}
			if stream.emit(ev.Event, ev.Data) != nil {
				return
			}
		}
	}
}
