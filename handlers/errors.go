package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"EstateMarket/services"
	"EstateMarket/utils"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errBadBody = errors.New("Invalid request body")

func statusFor(err error) int {
	var validation *utils.ValidationError
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &validation), errors.Is(err, errBadBody), errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrOfferOutOfRange), errors.Is(err, services.ErrAmountMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrUnauthenticated), errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden), errors.Is(err, services.ErrFraudulentUser):
		return http.StatusForbidden
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrPropertyNotFound),
		errors.Is(err, services.ErrWishlistNotFound),
		errors.Is(err, services.ErrOfferNotFound),
		errors.Is(err, services.ErrReviewNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrAlreadyWishlisted),
		errors.Is(err, services.ErrDuplicateOffer),
		errors.Is(err, services.ErrPropertyCommitted),
		errors.Is(err, services.ErrPropertyRejected),
		errors.Is(err, services.ErrPropertySold),
		errors.Is(err, services.ErrPropertyUnavailable),
		errors.Is(err, services.ErrCheckoutInProgress),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrTransactionConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrPaymentIncomplete):
		return http.StatusPaymentRequired
	case errors.As(err, &httpErr):
		return httpErr.Code
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the {"error": msg} body. Unexpected failures are
// logged and reported with a generic message.
func respondError(c echo.Context, logger *slog.Logger, err error) error {
	status := statusFor(err)
	message := err.Error()
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		}
	}
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			"event", "request_failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			"error", err.Error(),
		)
		message = "Internal server error"
	}
	return c.JSON(status, map[string]string{"error": message})
}

// bind decodes and validates a request body.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errBadBody
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	return nil
}

// idParam parses the :id path parameter. label names the resource in the
// error message.
func idParam(c echo.Context, label string) (primitive.ObjectID, error) {
	id, ok := utils.ParseObjectID(c.Param("id"))
	if !ok {
		return primitive.NilObjectID, &echo.HTTPError{Code: http.StatusBadRequest, Message: "Invalid " + label + " ID"}
	}
	return id, nil
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
