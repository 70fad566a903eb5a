package handlers

import (
	"log/slog"
	"net/http"

	"EstateMarket/middleware"
	"EstateMarket/models"
	"EstateMarket/services"

	"github.com/labstack/echo/v4"
)

type PaymentController struct {
	service *services.PaymentService
	logger  *slog.Logger
}

func NewPaymentController(service *services.PaymentService, logger *slog.Logger) *PaymentController {
	return &PaymentController{service: service, logger: resolveLogger(logger)}
}

func (pc *PaymentController) CreatePaymentIntent(c echo.Context) error {
	var req models.PaymentIntentRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, pc.logger, err)
	}
	resp, err := pc.service.CreateIntent(c.Request().Context(), middleware.SessionFrom(c), req)
	if err != nil {
		return respondError(c, pc.logger, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// ConfirmPayment is safe to retry with the same transaction id.
func (pc *PaymentController) ConfirmPayment(c echo.Context) error {
	propertyID, err := idParam(c, "property")
	if err != nil {
		return respondError(c, pc.logger, err)
	}
	var req models.PayRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, pc.logger, err)
	}
	result, err := pc.service.Confirm(c.Request().Context(), middleware.SessionFrom(c), propertyID, req)
	if err != nil {
		return respondError(c, pc.logger, err)
	}
	return c.JSON(http.StatusOK, result)
}
