package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/roomlock/roomlock-server/internal/model"
)

// ReservationService is the contact API used by ReservationHandler.
type ReservationService interface {
	CreateOrGet(ctx context.Context, studentID, announcementID uint64) (model.ReservationDetail, error)
}

type ReservationHandler struct {
	Reservations ReservationService
}

func NewReservationHandler(s ReservationService) *ReservationHandler {
	return &ReservationHandler{Reservations: s}
}

type createReservationReq struct {
	AnnouncementID uint64 `json:"announcement_id"`
}

// Create opens (or returns the existing) conversation with the owner.
// Both outcomes answer 200.
func (h *ReservationHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthenticated(c)
	}
	var req createReservationReq
	if err := c.Bind(&req); err != nil || req.AnnouncementID == 0 {
		return badRequest(c, "ID de anuncio requerido")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	r, err := h.Reservations.CreateOrGet(ctx, uid, req.AnnouncementID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Reserva creada/obtenida exitosamente", r)
}
