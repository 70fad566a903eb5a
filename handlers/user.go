package handlers

import (
	"log/slog"
	"net/http"

	"EstateMarket/middleware"
	"EstateMarket/models"
	"EstateMarket/services"

	"github.com/labstack/echo/v4"
)

type UserController struct {
	service *services.UserService
	logger  *slog.Logger
}

func NewUserController(service *services.UserService, logger *slog.Logger) *UserController {
	return &UserController{service: service, logger: resolveLogger(logger)}
}

func (uc *UserController) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, uc.logger, err)
	}
	resp, err := uc.service.Register(c.Request().Context(), req)
	if err != nil {
		return respondError(c, uc.logger, err)
	}
	return c.JSON(http.StatusCreated, resp)
}

func (uc *UserController) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, uc.logger, err)
	}
	resp, err := uc.service.Login(c.Request().Context(), req)
	if err != nil {
		return respondError(c, uc.logger, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (uc *UserController) GetRole(c echo.Context) error {
	resp, err := uc.service.GetRole(c.Request().Context(), middleware.SessionFrom(c), c.Param("email"))
	if err != nil {
		return respondError(c, uc.logger, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (uc *UserController) GetProfile(c echo.Context) error {
	user, err := uc.service.Me(c.Request().Context(), middleware.SessionFrom(c))
	if err != nil {
		return respondError(c, uc.logger, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (uc *UserController) UpdateProfile(c echo.Context) error {
	var req models.UpdateUserRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, uc.logger, err)
	}
	user, err := uc.service.UpdateMe(c.Request().Context(), middleware.SessionFrom(c), req)
	if err != nil {
		return respondError(c, uc.logger, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (uc *UserController) GetAllUsers(c echo.Context) error {
	users, err := uc.service.List(c.Request().Context(), middleware.SessionFrom(c))
	if err != nil {
		return respondError(c, uc.logger, err)
	}
	return c.JSON(http.StatusOK, users)
}

func (uc *UserController) GetUser(c echo.Context) error {
	id, err := idParam(c, "user")
	if err != nil {
		return respondError(c, uc.logger, err)
	}
	user, err := uc.service.Get(c.Request().Context(), middleware.SessionFrom(c), id)
	if err != nil {
		return respondError(c, uc.logger, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (uc *UserController) UpdateUser(c echo.Context) error {
	id, err := idParam(c, "user")
	if err != nil {
		return respondError(c, uc.logger, err)
	}
	var req models.UpdateUserRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, uc.logger, err)
	}
	user, err := uc.service.Update(c.Request().Context(), middleware.SessionFrom(c), id, req)
	if err != nil {
		return respondError(c, uc.logger, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (uc *UserController) UpdateRole(c echo.Context) error {
	id, err := idParam(c, "user")
	if err != nil {
		return respondError(c, uc.logger, err)
	}
	var req models.UpdateRoleRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, uc.logger, err)
	}
	user, err := uc.service.SetRole(c.Request().Context(), middleware.SessionFrom(c), id, req.Role)
	if err != nil {
		return respondError(c, uc.logger, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (uc *UserController) MarkFraud(c echo.Context) error {
	id, err := idParam(c, "user")
	if err != nil {
		return respondError(c, uc.logger, err)
	}
	user, err := uc.service.MarkFraud(c.Request().Context(), middleware.SessionFrom(c), id)
	if err != nil {
		return respondError(c, uc.logger, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (uc *UserController) DeleteUser(c echo.Context) error {
	id, err := idParam(c, "user")
	if err != nil {
		return respondError(c, uc.logger, err)
	}
	if err := uc.service.Delete(c.Request().Context(), middleware.SessionFrom(c), id); err != nil {
		return respondError(c, uc.logger, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "User deleted successfully",
	})
}
