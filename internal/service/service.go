// Package service holds the business rules of the marketplace.  Services
// depend on small store interfaces implemented by the repository package
// and return *apperrors.AppError values that handlers map to HTTP codes.
package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/roomlock/roomlock-server/internal/apperrors"
	"github.com/roomlock/roomlock-server/internal/metrics"
	"github.com/roomlock/roomlock-server/internal/queue"
)

// Client-facing messages.
const (
	MsgInternal             = "Error interno del servidor"
	MsgIncompleteData       = "Datos incompletos"
	MsgDuplicateEmail       = "El correo ya está registrado"
	MsgInvalidEmail         = "Correo inválido"
	MsgInvalidRole          = "Rol inválido"
	MsgPasswordTooLong      = "La contraseña es demasiado larga"
	MsgInvalidCredentials   = "Credenciales inválidas"
	MsgUserNotFound         = "Usuario no encontrado"
	MsgAnnouncementNotFound = "Anuncio no encontrado"
	MsgInvalidPriceRange    = "Rango de precios inválido"
	MsgAlreadyFavorited     = "Ya está en favoritos"
	MsgNotFavorited         = "No está en favoritos"
	MsgSelfContact          = "No puedes contactar tu propio anuncio"
	MsgConversationNotFound = "Conversación no encontrada"
	MsgReservationNotFound  = "Reserva no encontrada"
	MsgAccessDenied         = "No tienes acceso a esta conversación"
	MsgMessageTooLong       = "El mensaje es demasiado largo"
	MsgInvalidRating        = "Calificación debe estar entre 1 y 5"
	MsgCommentRequired      = "Comentario es requerido"
	MsgDuplicateReview      = "Ya has publicado una reseña para este anuncio"
	MsgInvalidImageType     = "Solo se permiten imágenes (jpeg, jpg, png, gif, webp)"
	MsgImageTooLarge        = "La imagen no debe superar 5MB"
)

// EventPublisher hands domain events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

// AnnouncementOwners resolves the owner of an announcement.  It returns
// repository.ErrNotFound for unknown ids.
type AnnouncementOwners interface {
	OwnerOf(ctx context.Context, id uint64) (uint64, error)
}

// publish is best-effort: failures are logged and counted, never returned.
func publish(ctx context.Context, p EventPublisher, ev queue.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, ev); err != nil {
		metrics.RecordPublishFailure()
		log.Warn().Err(err).Str("event", ev.Type).Msg("event publish failed")
	}
}

func internalError(op string, err error) error {
	return apperrors.NewInternalError(MsgInternal, fmt.Errorf("%s: %w", op, err))
}
