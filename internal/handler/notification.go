package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Mariet12/Electro-sub001/internal/domain/notification"
)

type notificationDTO struct {
	ID        string    `json:"id"`
	SenderID  *string   `json:"senderId,omitempty"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	OrderID   *string   `json:"orderId,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

func toNotificationDTO(n notification.Notification) notificationDTO {
	return notificationDTO{
		ID:        n.ID,
		SenderID:  n.SenderID,
		Title:     n.Title,
		Message:   n.Message,
		Status:    n.Status,
		OrderID:   n.OrderID,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	list, err := h.notifications.ListByReceiver(r.Context(), uid)
	if err != nil {
		respondDomainErr(w, r, err)
		return
	}
	out := make([]notificationDTO, len(list))
	for i, n := range list {
		out[i] = toNotificationDTO(n)
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) unreadCount(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	count, err := h.notifications.UnreadCount(r.Context(), uid)
	if err != nil {
		respondDomainErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"unread": count})
}

func (h *Handler) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.notifications.MarkRead(r.Context(), chi.URLParam(r, "notificationID"), uid); err != nil {
		respondDomainErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type registerDeviceRequest struct {
	Token string `json:"token"`
}

func (h *Handler) registerDevice(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req registerDeviceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Token == "" {
		respondErr(w, http.StatusBadRequest, "token required")
		return
	}

	if err := h.notifications.RegisterToken(r.Context(), uid, req.Token); err != nil {
		respondDomainErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
