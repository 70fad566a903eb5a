package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"EstateMarket/middleware"
	"EstateMarket/models"
	"EstateMarket/services"
	"EstateMarket/utils"

	"github.com/labstack/echo/v4"
)

type ReviewController struct {
	service *services.ReviewService
	logger  *slog.Logger
}

func NewReviewController(service *services.ReviewService, logger *slog.Logger) *ReviewController {
	return &ReviewController{service: service, logger: resolveLogger(logger)}
}

func (rc *ReviewController) CreateReview(c echo.Context) error {
	var req models.ReviewRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, rc.logger, err)
	}
	review, err := rc.service.Create(c.Request().Context(), middleware.SessionFrom(c), req)
	if err != nil {
		return respondError(c, rc.logger, err)
	}
	return c.JSON(http.StatusCreated, review)
}

func (rc *ReviewController) GetPropertyReviews(c echo.Context) error {
	propertyID, ok := utils.ParseObjectID(c.QueryParam("propertyId"))
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid property ID"})
	}
	reviews, err := rc.service.ListByProperty(c.Request().Context(), propertyID)
	if err != nil {
		return respondError(c, rc.logger, err)
	}
	return c.JSON(http.StatusOK, reviews)
}

func (rc *ReviewController) GetLatestReviews(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	reviews, err := rc.service.Latest(c.Request().Context(), limit)
	if err != nil {
		return respondError(c, rc.logger, err)
	}
	return c.JSON(http.StatusOK, reviews)
}

func (rc *ReviewController) GetMyReviews(c echo.Context) error {
	reviews, err := rc.service.ListMine(c.Request().Context(), middleware.SessionFrom(c), c.QueryParam("email"))
	if err != nil {
		return respondError(c, rc.logger, err)
	}
	return c.JSON(http.StatusOK, reviews)
}

func (rc *ReviewController) GetAllReviews(c echo.Context) error {
	reviews, err := rc.service.ListAll(c.Request().Context(), middleware.SessionFrom(c))
	if err != nil {
		return respondError(c, rc.logger, err)
	}
	return c.JSON(http.StatusOK, reviews)
}

func (rc *ReviewController) DeleteReview(c echo.Context) error {
	id, err := idParam(c, "review")
	if err != nil {
		return respondError(c, rc.logger, err)
	}
	if err := rc.service.Delete(c.Request().Context(), middleware.SessionFrom(c), id); err != nil {
		return respondError(c, rc.logger, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":      "Review deleted successfully",
		"deletedCount": 1,
	})
}
