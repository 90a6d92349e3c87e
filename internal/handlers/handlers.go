// Package handlers holds the echo HTTP surface. The Handler owns its
// collaborators explicitly; nothing here reaches global state.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"freshkeeper/internal/db"
	"freshkeeper/internal/dispatch"
	"freshkeeper/internal/registry"
)

type Handler struct {
	users         *db.UserStore
	notifications *db.NotificationStore
	pantry        *db.PantryStore
	registry      *registry.Registry
	dispatcher    *dispatch.Dispatcher
}

func New(users *db.UserStore, notifications *db.NotificationStore, pantry *db.PantryStore, reg *registry.Registry, dispatcher *dispatch.Dispatcher) *Handler {
	return &Handler{
		users:         users,
		notifications: notifications,
		pantry:        pantry,
		registry:      reg,
		dispatcher:    dispatcher,
	}
}

func (h *Handler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// recipientID reads the authenticated recipient set by the JWT middleware.
func recipientID(c echo.Context) int64 {
	return c.Get("user_id").(int64)
}

func getPage(c echo.Context) int {
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p >= 0 {
		return p
	}
	return 0
}

func getPageSize(c echo.Context) int {
	if s, err := strconv.Atoi(c.QueryParam("size")); err == nil && s > 0 && s <= 100 {
		return s
	}
	return db.DefaultPageSize
}
