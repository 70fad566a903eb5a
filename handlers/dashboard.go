package handlers

import (
	"context"
	"net/http"
	"time"

	"EstateMarket/middleware"
	"EstateMarket/models"

	"github.com/labstack/echo/v4"
)

func DashboardMenu(c echo.Context) error {
	sess := middleware.SessionFrom(c)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"role":  sess.Role,
		"items": models.DashboardMenu(sess.Role),
	})
}

// Pinger is a dependency the health check pings.
type Pinger func(ctx context.Context) error

type HealthController struct {
	checks map[string]Pinger
}

func NewHealthController(checks map[string]Pinger) *HealthController {
	return &HealthController{checks: checks}
}

func (hc *HealthController) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(hc.checks))
	for name, ping := range hc.checks {
		if err := ping(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}
	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	return c.JSON(status, map[string]interface{}{
		"status":       state,
		"dependencies": deps,
		"time":         time.Now().UTC(),
	})
}
