package router // router wires middleware and handlers onto the Echo instance

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/roomlock/roomlock-server/internal/handler"
	"github.com/roomlock/roomlock-server/internal/metrics"
	"github.com/roomlock/roomlock-server/internal/middleware"
)

// Options carries the cross-cutting settings of the HTTP stack.
type Options struct {
	JWTSecret   string
	CORSOrigins []string
	UploadDir   string
	UploadURL   string // path prefix the upload directory is served under
	BodyLimit   string // e.g. "6M"

	// RateLimit, AuthRateLimit and Cache are optional; nil disables them.
	// AuthRateLimit applies to login and registration on top of RateLimit.
	RateLimit     echo.MiddlewareFunc
	AuthRateLimit echo.MiddlewareFunc
	Cache         echo.MiddlewareFunc
}

// Handlers groups every HTTP handler of the API.
type Handlers struct {
	Auth          *handler.AuthHandler
	Announcements *handler.AnnouncementHandler
	Favorites     *handler.FavoriteHandler
	Reservations  *handler.ReservationHandler
	Messages      *handler.MessageHandler
	Reviews       *handler.ReviewHandler
}

// New builds the Echo instance with the global middleware chain and all
// routes registered.
func New(opts Options, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	bodyLimit := opts.BodyLimit
	if bodyLimit == "" {
		bodyLimit = "6M"
	}
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger())
	e.Use(echomw.Recover())
	e.Use(metrics.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: opts.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echomw.BodyLimit(bodyLimit))

	RegisterRoutes(e, opts)

	api := e.Group("/api")
	if opts.RateLimit != nil {
		api.Use(opts.RateLimit)
	}
	api.GET("/status", handler.Status)

	auth := middleware.JWTAuth(opts.JWTSecret)
	RegisterAuth(api, h.Auth, auth, opts.AuthRateLimit)
	RegisterAnnouncements(api, h.Announcements, h.Reviews, auth, opts.Cache)
	RegisterFavorites(api, h.Favorites, auth)
	RegisterReservations(api, h.Reservations, auth)
	RegisterMessages(api, h.Messages, auth)
	return e
}

// RegisterRoutes registers the unauthenticated infrastructure endpoints.
func RegisterRoutes(e *echo.Echo, opts Options) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	if opts.UploadDir != "" {
		prefix := opts.UploadURL
		if prefix == "" {
			prefix = "/uploads"
		}
		e.Static(prefix, opts.UploadDir)
	}
}
