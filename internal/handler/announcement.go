package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/roomlock/roomlock-server/internal/model"
)

// AnnouncementService is the catalogue API used by AnnouncementHandler.
type AnnouncementService interface {
	ListAll(ctx context.Context, f model.AnnouncementFilter) ([]model.Announcement, error)
	ListFeatured(ctx context.Context, limit int) ([]model.Announcement, error)
	Get(ctx context.Context, id uint64) (model.Announcement, error)
	ListForOwner(ctx context.Context, ownerID uint64) (model.OwnerDashboard, error)
}

type AnnouncementHandler struct {
	Announcements AnnouncementService
}

func NewAnnouncementHandler(s AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{Announcements: s}
}

// List serves GET /api/announcements.  A bare ?limit=N returns the N
// newest listings; any filter switches to the filtered catalogue.
func (h *AnnouncementHandler) List(c echo.Context) error {
	f, err := parseFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	var list []model.Announcement
	if f.Limit > 0 && !hasFilters(f) {
		list, err = h.Announcements.ListFeatured(ctx, f.Limit)
	} else {
		list, err = h.Announcements.ListAll(ctx, f)
	}
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Anuncios obtenidos exitosamente", list)
}

func (h *AnnouncementHandler) Get(c echo.Context) error {
	id, ok := parseID(c.Param("id"))
	if !ok {
		return badRequest(c, "ID de anuncio inválido")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	a, err := h.Announcements.Get(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Anuncio obtenido exitosamente", a)
}

// MyAnnouncements serves the owner dashboard.
func (h *AnnouncementHandler) MyAnnouncements(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthenticated(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	d, err := h.Announcements.ListForOwner(ctx, uid)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Anuncios del propietario obtenidos exitosamente", d)
}

type filterError string

func (e filterError) Error() string { return string(e) }

func parseFilter(c echo.Context) (model.AnnouncementFilter, error) {
	f := model.AnnouncementFilter{
		District: strings.TrimSpace(c.QueryParam("district")),
		Query:    strings.TrimSpace(c.QueryParam("q")),
		Service:  strings.TrimSpace(c.QueryParam("service")),
	}
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return f, filterError("Límite inválido")
		}
		f.Limit = n
	}
	var err error
	if f.MinPrice, err = priceParam(c, "min_price"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = priceParam(c, "max_price"); err != nil {
		return f, err
	}
	return f, nil
}

func priceParam(c echo.Context, name string) (*float64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil, filterError("Precio inválido")
	}
	return &v, nil
}

func hasFilters(f model.AnnouncementFilter) bool {
	return f.District != "" || f.Query != "" || f.Service != "" || f.MinPrice != nil || f.MaxPrice != nil
}
