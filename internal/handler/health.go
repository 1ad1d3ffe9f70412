package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is the plain-text liveness check.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Status is the JSON liveness message served under /api.
func Status(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "Servidor RoomLock activo"})
}
