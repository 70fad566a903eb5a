package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"EstateMarket/middleware"
	"EstateMarket/models"
	"EstateMarket/services"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PropertyController struct {
	service *services.PropertyService
	logger  *slog.Logger
}

func NewPropertyController(service *services.PropertyService, logger *slog.Logger) *PropertyController {
	return &PropertyController{service: service, logger: resolveLogger(logger)}
}

func (pc *PropertyController) CreateProperty(c echo.Context) error {
	var req models.PropertyRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, pc.logger, err)
	}
	property, err := pc.service.Add(c.Request().Context(), middleware.SessionFrom(c), req)
	if err != nil {
		return respondError(c, pc.logger, err)
	}
	return c.JSON(http.StatusCreated, property)
}

// ListProperties serves the public catalog: verified listings filtered by
// location, sorted by price, and paginated.
func (pc *PropertyController) ListProperties(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	filter := models.PropertyFilter{
		Location: c.QueryParam("location"),
		Sort:     c.QueryParam("sort"),
		Page:     page,
		Limit:    limit,
	}
	properties, err := pc.service.ListPublic(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, pc.logger, err)
	}
	return c.JSON(http.StatusOK, properties)
}

func (pc *PropertyController) ListAdvertised(c echo.Context) error {
	properties, err := pc.service.ListAdvertised(c.Request().Context())
	if err != nil {
		return respondError(c, pc.logger, err)
	}
	return c.JSON(http.StatusOK, properties)
}

func (pc *PropertyController) GetProperty(c echo.Context) error {
	id, err := idParam(c, "property")
	if err != nil {
		return respondError(c, pc.logger, err)
	}
	property, err := pc.service.Get(c.Request().Context(), middleware.SessionFrom(c), id)
	if err != nil {
		return respondError(c, pc.logger, err)
	}
	return c.JSON(http.StatusOK, property)
}

func (pc *PropertyController) GetPropertyForEdit(c echo.Context) error {
	id, err := idParam(c, "property")
	if err != nil {
		return respondError(c, pc.logger, err)
	}
	property, err := pc.service.GetForEdit(c.Request().Context(), middleware.SessionFrom(c), id)
	if err != nil {
		return respondError(c, pc.logger, err)
	}
	return c.JSON(http.StatusOK, property)
}

func (pc *PropertyController) MyAddedProperties(c echo.Context) error {
	properties, err := pc.service.ListByAgent(c.Request().Context(), middleware.SessionFrom(c), c.QueryParam("email"))
	if err != nil {
		return respondError(c, pc.logger, err)
	}
	return c.JSON(http.StatusOK, properties)
}

func (pc *PropertyController) UpdateProperty(c echo.Context) error {
	id, err := idParam(c, "property")
	if err != nil {
		return respondError(c, pc.logger, err)
	}
	var req models.PropertyRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, pc.logger, err)
	}
	property, err := pc.service.Update(c.Request().Context(), middleware.SessionFrom(c), id, req)
	if err != nil {
		return respondError(c, pc.logger, err)
	}
	return c.JSON(http.StatusOK, property)
}

func (pc *PropertyController) DeleteProperty(c echo.Context) error {
	id, err := idParam(c, "property")
	if err != nil {
		return respondError(c, pc.logger, err)
	}
	if err := pc.service.Delete(c.Request().Context(), middleware.SessionFrom(c), id); err != nil {
		return respondError(c, pc.logger, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":      "Property deleted successfully",
		"deletedCount": 1,
	})
}

func (pc *PropertyController) ListAllProperties(c echo.Context) error {
	properties, err := pc.service.ListAll(c.Request().Context(), middleware.SessionFrom(c))
	if err != nil {
		return respondError(c, pc.logger, err)
	}
	return c.JSON(http.StatusOK, properties)
}

func (pc *PropertyController) VerifyProperty(c echo.Context) error {
	return pc.adminAction(c, pc.service.Verify)
}

func (pc *PropertyController) RejectProperty(c echo.Context) error {
	return pc.adminAction(c, pc.service.Reject)
}

func (pc *PropertyController) AdvertiseProperty(c echo.Context) error {
	return pc.adminAction(c, pc.service.Advertise)
}

type propertyAction func(ctx context.Context, sess services.Session, id primitive.ObjectID) (models.Property, error)

func (pc *PropertyController) adminAction(c echo.Context, action propertyAction) error {
	id, err := idParam(c, "property")
	if err != nil {
		return respondError(c, pc.logger, err)
	}
	property, err := action(c.Request().Context(), middleware.SessionFrom(c), id)
	if err != nil {
		return respondError(c, pc.logger, err)
	}
	return c.JSON(http.StatusOK, property)
}
