package handlers

import (
	"log/slog"
	"net/http"

	"EstateMarket/middleware"
	"EstateMarket/models"
	"EstateMarket/services"
	"EstateMarket/utils"

	"github.com/labstack/echo/v4"
)

type WishlistController struct {
	service *services.WishlistService
	logger  *slog.Logger
}

func NewWishlistController(service *services.WishlistService, logger *slog.Logger) *WishlistController {
	return &WishlistController{service: service, logger: resolveLogger(logger)}
}

func (wc *WishlistController) AddToWishlist(c echo.Context) error {
	var req models.WishlistRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, wc.logger, err)
	}
	propertyID, ok := utils.ParseObjectID(req.PropertyID)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid property ID"})
	}
	entry, err := wc.service.Add(c.Request().Context(), middleware.SessionFrom(c), propertyID)
	if err != nil {
		return respondError(c, wc.logger, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"insertedId": entry.ID,
		"entry":      entry,
	})
}

func (wc *WishlistController) GetWishlist(c echo.Context) error {
	entries, err := wc.service.List(c.Request().Context(), middleware.SessionFrom(c), c.QueryParam("email"))
	if err != nil {
		return respondError(c, wc.logger, err)
	}
	return c.JSON(http.StatusOK, entries)
}

func (wc *WishlistController) GetWishlistProperty(c echo.Context) error {
	id, err := idParam(c, "wishlist")
	if err != nil {
		return respondError(c, wc.logger, err)
	}
	item, err := wc.service.Get(c.Request().Context(), middleware.SessionFrom(c), id)
	if err != nil {
		return respondError(c, wc.logger, err)
	}
	return c.JSON(http.StatusOK, item)
}

func (wc *WishlistController) RemoveFromWishlist(c echo.Context) error {
	id, err := idParam(c, "wishlist")
	if err != nil {
		return respondError(c, wc.logger, err)
	}
	if err := wc.service.Remove(c.Request().Context(), middleware.SessionFrom(c), id); err != nil {
		return respondError(c, wc.logger, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":      "Removed from wishlist",
		"deletedCount": 1,
	})
}
