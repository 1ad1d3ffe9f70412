package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/roomlock/roomlock-server/internal/model"
	"github.com/roomlock/roomlock-server/internal/service"
	"github.com/roomlock/roomlock-server/internal/storage"
)

// ReviewService is the review API used by ReviewHandler.
type ReviewService interface {
	List(ctx context.Context, announcementID uint64) ([]model.ReviewView, error)
	Add(ctx context.Context, in service.AddReviewInput) (model.ReviewView, error)
}

type ReviewHandler struct {
	Reviews ReviewService
}

func NewReviewHandler(s ReviewService) *ReviewHandler {
	return &ReviewHandler{Reviews: s}
}

func (h *ReviewHandler) List(c echo.Context) error {
	annID, ok := parseID(c.Param("id"))
	if !ok {
		return badRequest(c, "ID de anuncio inválido")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := h.Reviews.List(ctx, annID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Reviews obtenidos exitosamente", list)
}

// Add accepts multipart/form-data with rating, comment and an optional
// image file.
func (h *ReviewHandler) Add(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthenticated(c)
	}
	annID, ok := parseID(c.Param("id"))
	if !ok {
		return badRequest(c, "ID de anuncio inválido")
	}
	rating, err := strconv.Atoi(strings.TrimSpace(c.FormValue("rating")))
	if err != nil {
		return badRequest(c, service.MsgInvalidRating)
	}

	in := service.AddReviewInput{
		UserID:         uid,
		AnnouncementID: annID,
		Rating:         rating,
		Comment:        c.FormValue("comment"),
	}
	fh, err := c.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	case err != nil:
		return badRequest(c, "Archivo inválido")
	default:
		f, err := fh.Open()
		if err != nil {
			return badRequest(c, "Archivo inválido")
		}
		defer f.Close()
		in.Image = &storage.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Size:        fh.Size,
			Body:        f,
		}
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	v, err := h.Reviews.Add(ctx, in)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusCreated, "Review agregado exitosamente", v)
}
