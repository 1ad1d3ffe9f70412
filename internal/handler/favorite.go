package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/roomlock/roomlock-server/internal/model"
)

// FavoriteService is the favorites API used by FavoriteHandler.
type FavoriteService interface {
	Add(ctx context.Context, userID, announcementID uint64) (model.Favorite, error)
	Remove(ctx context.Context, userID, announcementID uint64) error
	List(ctx context.Context, userID uint64) ([]model.FavoriteAnnouncement, error)
	IsFavorite(ctx context.Context, userID, announcementID uint64) (bool, error)
}

type FavoriteHandler struct {
	Favorites FavoriteService
}

func NewFavoriteHandler(s FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{Favorites: s}
}

type addFavoriteReq struct {
	AnnouncementID uint64 `json:"announcement_id"`
}

func (h *FavoriteHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthenticated(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := h.Favorites.List(ctx, uid)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Favoritos obtenidos exitosamente", list)
}

func (h *FavoriteHandler) Add(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthenticated(c)
	}
	var req addFavoriteReq
	if err := c.Bind(&req); err != nil || req.AnnouncementID == 0 {
		return badRequest(c, "ID de anuncio requerido")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	fav, err := h.Favorites.Add(ctx, uid, req.AnnouncementID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusCreated, "Agregado a favoritos", fav)
}

func (h *FavoriteHandler) Remove(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthenticated(c)
	}
	annID, ok := parseID(c.Param("announcementId"))
	if !ok {
		return badRequest(c, "ID de anuncio inválido")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Favorites.Remove(ctx, uid, annID); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Eliminado de favoritos", nil)
}

func (h *FavoriteHandler) Check(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthenticated(c)
	}
	annID, ok := parseID(c.Param("announcementId"))
	if !ok {
		return badRequest(c, "ID de anuncio inválido")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	fav, err := h.Favorites.IsFavorite(ctx, uid, annID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Estado de favorito obtenido", echo.Map{"is_favorite": fav})
}
