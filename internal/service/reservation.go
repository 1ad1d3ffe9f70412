package service

import (
	"context"
	"errors"
	"time"

	"github.com/roomlock/roomlock-server/internal/apperrors"
	"github.com/roomlock/roomlock-server/internal/metrics"
	"github.com/roomlock/roomlock-server/internal/model"
	"github.com/roomlock/roomlock-server/internal/queue"
	"github.com/roomlock/roomlock-server/internal/repository"
)

// ReservationStore persists contact reservations.
type ReservationStore interface {
	CreateOrGetContact(ctx context.Context, studentID, announcementID uint64) (uint64, bool, error)
	GetDetail(ctx context.Context, id uint64) (model.ReservationDetail, error)
	GetAccess(ctx context.Context, id uint64) (model.ReservationAccess, error)
}

type ReservationService struct {
	reservations  ReservationStore
	announcements AnnouncementOwners
	events        EventPublisher
}

func NewReservationService(reservations ReservationStore, announcements AnnouncementOwners, events EventPublisher) *ReservationService {
	return &ReservationService{reservations: reservations, announcements: announcements, events: events}
}

// CreateOrGet returns the single contact reservation between the student
// and the announcement, creating it on first contact.  Repeated calls
// return the same id.
func (s *ReservationService) CreateOrGet(ctx context.Context, studentID, announcementID uint64) (model.ReservationDetail, error) {
	ownerID, err := s.announcements.OwnerOf(ctx, announcementID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.ReservationDetail{}, apperrors.NewNotFoundError(MsgAnnouncementNotFound)
		}
		return model.ReservationDetail{}, internalError("load announcement", err)
	}
	if ownerID == studentID {
		return model.ReservationDetail{}, apperrors.NewValidationError(MsgSelfContact)
	}

	id, created, err := s.reservations.CreateOrGetContact(ctx, studentID, announcementID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.ReservationDetail{}, apperrors.NewNotFoundError(MsgAnnouncementNotFound)
		}
		return model.ReservationDetail{}, internalError("create reservation", err)
	}
	detail, err := s.reservations.GetDetail(ctx, id)
	if err != nil {
		return model.ReservationDetail{}, internalError("load reservation", err)
	}

	if created {
		metrics.RecordDomainEvent(metrics.KindReservationCreated)
		publish(ctx, s.events, queue.Event{
			Type:           queue.EventReservationCreated,
			ReservationID:  id,
			AnnouncementID: announcementID,
			ActorID:        studentID,
			RecipientID:    ownerID,
			OccurredAt:     time.Now().UTC(),
		})
	}
	return detail, nil
}
