package router

import (
	"github.com/labstack/echo/v4"

	"github.com/roomlock/roomlock-server/internal/handler"
	"github.com/roomlock/roomlock-server/internal/middleware"
	"github.com/roomlock/roomlock-server/internal/model"
)

// RegisterAuth mounts /api/auth.  Register and login are public and go
// through the credential limiter when one is set; /me needs a token.
func RegisterAuth(api *echo.Group, a *handler.AuthHandler, auth, limit echo.MiddlewareFunc) {
	g := api.Group("/auth")
	g.POST("/register", a.Register, optional(limit)...)
	g.POST("/login", a.Login, optional(limit)...)
	g.GET("/me", a.Me, auth)
}

// RegisterAnnouncements mounts the catalogue and its reviews.  Only the
// public listing goes through the response cache; the detail view counts
// visits and must reach the handler.
func RegisterAnnouncements(api *echo.Group, a *handler.AnnouncementHandler, r *handler.ReviewHandler, auth, cache echo.MiddlewareFunc) {
	g := api.Group("/announcements")
	g.GET("", a.List, optional(cache)...)
	g.GET("/my-announcements", a.MyAnnouncements, auth, middleware.RequireRole(model.RoleOwner, model.RoleAdmin))
	g.GET("/:id", a.Get)
	g.GET("/:id/reviews", r.List)
	g.POST("/:id/reviews", r.Add, auth)
}

func RegisterFavorites(api *echo.Group, f *handler.FavoriteHandler, auth echo.MiddlewareFunc) {
	g := api.Group("/favorites", auth)
	g.GET("", f.List)
	g.POST("", f.Add)
	g.DELETE("/:announcementId", f.Remove)
	g.GET("/:announcementId/check", f.Check)
}

func RegisterReservations(api *echo.Group, r *handler.ReservationHandler, auth echo.MiddlewareFunc) {
	api.POST("/reservations", r.Create, auth)
}

// RegisterMessages mounts the conversation endpoints.  Participation is
// checked by the service, not by role.
func RegisterMessages(api *echo.Group, m *handler.MessageHandler, auth echo.MiddlewareFunc) {
	g := api.Group("/messages", auth)
	g.GET("/conversations", m.Conversations)
	g.GET("/conversation/:reservationId", m.Conversation)
	g.POST("/send", m.Send)
}

// optional drops nil middleware so disabled features can be passed through.
func optional(mws ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(mws))
	for _, mw := range mws {
		if mw != nil {
			out = append(out, mw)
		}
	}
	return out
}
