package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"freshkeeper/internal/auth"
	"freshkeeper/internal/dispatch"
)

// The event endpoints are the producer surface: the surrounding
// application (like handling, complaint filing) feeds domain events into
// the dispatcher through them.

type LikeEventRequest struct {
	RecipeOwnerID int64  `json:"recipe_owner_id" validate:"required"`
	RecipeTitle   string `json:"recipe_title" validate:"required"`
	LikerName     string `json:"liker_name" validate:"required"`
}

type ComplaintEventRequest struct {
	ComplainantName string `json:"complainant_name" validate:"required"`
	Subject         string `json:"subject" validate:"required"`
}

func (h *Handler) LikeEvent(c echo.Context) error {
	var req LikeEventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := auth.Validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	err := h.dispatcher.NotifyLike(c.Request().Context(), req.RecipeOwnerID, req.LikerName, req.RecipeTitle)
	if errors.Is(err, dispatch.ErrRecipientNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Recipient not found"})
	}
	if err != nil {
		slog.Error("Failed to dispatch like notification", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to dispatch notification"})
	}
	return c.NoContent(http.StatusAccepted)
}

func (h *Handler) ComplaintEvent(c echo.Context) error {
	var req ComplaintEventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := auth.Validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	err := h.dispatcher.NotifyComplaint(c.Request().Context(), req.ComplainantName, req.Subject)
	if errors.Is(err, dispatch.ErrRecipientNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Administrative recipient not found"})
	}
	if err != nil {
		slog.Error("Failed to dispatch complaint notification", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to dispatch notification"})
	}
	return c.NoContent(http.StatusAccepted)
}
