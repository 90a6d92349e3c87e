package routes

import (
	"github.com/labstack/echo/v4"

	"freshkeeper/internal/auth"
	"freshkeeper/internal/handlers"
)

func SetupRoutes(api *echo.Group, h *handlers.Handler) {
	// Public routes
	api.GET("/health", h.HealthCheck)

	// Auth routes with rate limiting
	authGroup := api.Group("/auth")
	authGroup.Use(auth.RateLimitMiddleware)
	authGroup.POST("/signup", h.Signup)
	authGroup.POST("/login", h.Login)

	// Protected routes
	api.Use(auth.JWTMiddleware)

	notifications := api.Group("/notifications")
	notifications.GET("/stream", h.Stream)
	notifications.GET("", h.ListNotifications)
	notifications.GET("/unread-count", h.UnreadCount)
	notifications.PATCH("/:id/read", h.MarkNotificationRead)
	notifications.PATCH("/read-all", h.MarkAllNotificationsRead)
	notifications.DELETE("/:id", h.DeleteNotification)

	pantry := api.Group("/pantry")
	pantry.POST("", h.CreatePantryItem)
	pantry.GET("", h.ListPantryItems)
	pantry.DELETE("/:id", h.DeletePantryItem)

	// Producer surface for the surrounding application
	events := api.Group("/internal/events")
	events.POST("/like", h.LikeEvent)
	events.POST("/complaint", h.ComplaintEvent)

	admin := api.Group("/admin")
	admin.GET("/connections", h.ConnectionCount)
}
