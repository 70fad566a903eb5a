package handlers

import (
	"log/slog"
	"net/http"

	"EstateMarket/middleware"
	"EstateMarket/models"
	"EstateMarket/services"

	"github.com/labstack/echo/v4"
)

type OfferController struct {
	service *services.OfferService
	logger  *slog.Logger
}

func NewOfferController(service *services.OfferService, logger *slog.Logger) *OfferController {
	return &OfferController{service: service, logger: resolveLogger(logger)}
}

func (oc *OfferController) CreateOffer(c echo.Context) error {
	var req models.OfferRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, oc.logger, err)
	}
	offer, err := oc.service.Create(c.Request().Context(), middleware.SessionFrom(c), req)
	if err != nil {
		return respondError(c, oc.logger, err)
	}
	return c.JSON(http.StatusCreated, offer)
}

// GetBuyerOffers backs the buyer's "property bought" view.
func (oc *OfferController) GetBuyerOffers(c echo.Context) error {
	if role := c.QueryParam("role"); role != "" && role != string(models.RoleUser) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "role must be user"})
	}
	offers, err := oc.service.ListForBuyer(c.Request().Context(), middleware.SessionFrom(c), c.QueryParam("email"))
	if err != nil {
		return respondError(c, oc.logger, err)
	}
	return c.JSON(http.StatusOK, offers)
}

func (oc *OfferController) GetAgentOffers(c echo.Context) error {
	offers, err := oc.service.ListForAgent(c.Request().Context(), middleware.SessionFrom(c), c.QueryParam("email"))
	if err != nil {
		return respondError(c, oc.logger, err)
	}
	return c.JSON(http.StatusOK, offers)
}

func (oc *OfferController) GetSoldProperties(c echo.Context) error {
	offers, err := oc.service.ListSold(c.Request().Context(), middleware.SessionFrom(c), c.QueryParam("agentEmail"))
	if err != nil {
		return respondError(c, oc.logger, err)
	}
	return c.JSON(http.StatusOK, offers)
}

func (oc *OfferController) AcceptOffer(c echo.Context) error {
	id, err := idParam(c, "offer")
	if err != nil {
		return respondError(c, oc.logger, err)
	}
	var req models.AcceptOfferRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, oc.logger, err)
	}
	offer, err := oc.service.Accept(c.Request().Context(), middleware.SessionFrom(c), id, req)
	if err != nil {
		return respondError(c, oc.logger, err)
	}
	return c.JSON(http.StatusOK, offer)
}

func (oc *OfferController) RejectOffer(c echo.Context) error {
	id, err := idParam(c, "offer")
	if err != nil {
		return respondError(c, oc.logger, err)
	}
	offer, err := oc.service.Reject(c.Request().Context(), middleware.SessionFrom(c), id)
	if err != nil {
		return respondError(c, oc.logger, err)
	}
	return c.JSON(http.StatusOK, offer)
}
