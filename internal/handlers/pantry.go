package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"freshkeeper/internal/db"
)

type CreatePantryItemRequest struct {
	IngredientName string    `json:"ingredient_name" validate:"required"`
	ExpirationDate time.Time `json:"expiration_date" validate:"required"`
}

func (h *Handler) CreatePantryItem(c echo.Context) error {
	var req CreatePantryItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if req.IngredientName == "" || req.ExpirationDate.IsZero() {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "ingredient_name and expiration_date are required"})
	}

	item, err := h.pantry.CreateItem(c.Request().Context(), recipientID(c), req.IngredientName, req.ExpirationDate)
	if err != nil {
		slog.Error("Failed to create pantry item", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create pantry item"})
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *Handler) ListPantryItems(c echo.Context) error {
	items, err := h.pantry.ListByOwner(c.Request().Context(), recipientID(c))
	if err != nil {
		slog.Error("Failed to list pantry items", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list pantry items"})
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) DeletePantryItem(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid item ID"})
	}

	err = h.pantry.DeleteItem(c.Request().Context(), id, recipientID(c))
	switch {
	case errors.Is(err, db.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Pantry item not found"})
	case errors.Is(err, db.ErrAccessDenied):
		return c.JSON(http.StatusForbidden, map[string]string{"error": "Access denied"})
	case err != nil:
		slog.Error("Failed to delete pantry item", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete pantry item"})
	}
	return c.NoContent(http.StatusNoContent)
}
