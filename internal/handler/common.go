package handler // handler translates HTTP requests into service calls

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/roomlock/roomlock-server/internal/apperrors"
	"github.com/roomlock/roomlock-server/internal/middleware"
)

// requestTimeout bounds the database work of a single request.
const requestTimeout = 5 * time.Second

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// getUserID extracts the authenticated user id stored by JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get(middleware.ContextUserID).(type) {
	case uint64:
		if t != 0 {
			return t, nil
		}
	case int64:
		if t > 0 {
			return uint64(t), nil
		}
	case float64:
		if t > 0 {
			return uint64(t), nil
		}
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil && n != 0 {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// parseID parses a positive numeric id.
func parseID(raw string) (uint64, bool) {
	n, err := strconv.ParseUint(raw, 10, 64)
	return n, err == nil && n != 0
}

func unauthenticated(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "No autenticado"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// respond writes the {message, data} envelope.  A nil data is omitted.
func respond(c echo.Context, status int, message string, data any) error {
	body := echo.Map{"message": message}
	if data != nil {
		body["data"] = data
	}
	return c.JSON(status, body)
}

// respondError maps service errors to their HTTP status.  Anything that is
// not an AppError is an unexpected failure and is logged.
func respondError(c echo.Context, err error) error {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.NewInternalError("Error interno del servidor", err)
	}
	if appErr.Type == apperrors.ErrorTypeInternal {
		log.Error().Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
			Msg("request failed")
	}
	return c.JSON(appErr.Status(), echo.Map{"error": appErr.Message})
}
