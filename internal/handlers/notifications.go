package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"freshkeeper/internal/db"
	"freshkeeper/internal/registry"
)

// Stream opens the recipient's push channel and serves it as a
// text/event-stream response. The connection is held open until the client
// disconnects, a write fails, the channel is evicted, or the fixed
// lifetime elapses.
func (h *Handler) Stream(c echo.Context) error {
	id := recipientID(c)
	ch := h.registry.Open(id)
	defer h.registry.Release(ch)

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	lifetime := time.NewTimer(registry.ChannelLifetime)
	defer lifetime.Stop()

	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case <-lifetime.C:
			slog.Info("push channel lifetime reached", "recipient_id", id)
			return nil
		case <-ch.Done():
			return nil
		case ev := <-ch.Events():
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, ev.Data); err != nil {
				slog.Warn("push write failed, closing channel", "error", err, "recipient_id", id)
				return nil
			}
			w.Flush()
		}
	}
}

func (h *Handler) ListNotifications(c echo.Context) error {
	notifications, err := h.notifications.ListByRecipient(c.Request().Context(), recipientID(c), getPage(c), getPageSize(c))
	if err != nil {
		slog.Error("Failed to list notifications", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list notifications"})
	}
	return c.JSON(http.StatusOK, notifications)
}

func (h *Handler) UnreadCount(c echo.Context) error {
	count, err := h.notifications.UnreadCount(c.Request().Context(), recipientID(c))
	if err != nil {
		slog.Error("Failed to count unread notifications", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to count unread notifications"})
	}
	return c.JSON(http.StatusOK, map[string]int{"unread": count})
}

func (h *Handler) MarkNotificationRead(c echo.Context) error {
	err := h.notifications.MarkRead(c.Request().Context(), c.Param("id"), recipientID(c))
	switch {
	case errors.Is(err, db.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Notification not found"})
	case errors.Is(err, db.ErrAccessDenied):
		return c.JSON(http.StatusForbidden, map[string]string{"error": "Access denied"})
	case err != nil:
		slog.Error("Failed to mark notification read", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to mark notification read"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) MarkAllNotificationsRead(c echo.Context) error {
	if err := h.notifications.MarkAllRead(c.Request().Context(), recipientID(c)); err != nil {
		slog.Error("Failed to mark all notifications read", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to mark all notifications read"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DeleteNotification(c echo.Context) error {
	err := h.notifications.Delete(c.Request().Context(), c.Param("id"), recipientID(c))
	switch {
	case errors.Is(err, db.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Notification not found"})
	case errors.Is(err, db.ErrAccessDenied):
		return c.JSON(http.StatusForbidden, map[string]string{"error": "Access denied"})
	case err != nil:
		slog.Error("Failed to delete notification", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete notification"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ConnectionCount reports how many push channels are currently open.
func (h *Handler) ConnectionCount(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]int{"connections": h.registry.Count()})
}
