package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bolingo/onboarding-bot/internal/api/middleware"
	"github.com/bolingo/onboarding-bot/internal/core/initdata"
)

// ctxIdentity extracts the identity verified by the InitData middleware.
// A missing or zero identity means the route was mounted without it.
func ctxIdentity(c echo.Context) (initdata.Identity, error) {
	id, ok := c.Get(middleware.ContextKeyIdentity).(initdata.Identity)
	if !ok || id.ID == 0 {
		return initdata.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "missing verified identity")
	}
	return id, nil
}
