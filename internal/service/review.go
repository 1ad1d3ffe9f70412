package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/roomlock/roomlock-server/internal/apperrors"
	"github.com/roomlock/roomlock-server/internal/metrics"
	"github.com/roomlock/roomlock-server/internal/model"
	"github.com/roomlock/roomlock-server/internal/queue"
	"github.com/roomlock/roomlock-server/internal/repository"
	"github.com/roomlock/roomlock-server/internal/storage"
)

// ReviewStore persists reviews.
type ReviewStore interface {
	ListByAnnouncement(ctx context.Context, announcementID uint64) ([]model.ReviewView, error)
	CreateWithReservation(ctx context.Context, rv *model.Review) error
}

// ImageStore stores review images.
type ImageStore interface {
	Validate(up storage.Upload) error
	Save(up storage.Upload) (string, error)
	Delete(url string) error
}

// UserLookup resolves users by id.
type UserLookup interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

type ReviewService struct {
	reviews       ReviewStore
	announcements AnnouncementOwners
	users         UserLookup
	images        ImageStore
	events        EventPublisher
}

func NewReviewService(reviews ReviewStore, announcements AnnouncementOwners, users UserLookup, images ImageStore, events EventPublisher) *ReviewService {
	return &ReviewService{reviews: reviews, announcements: announcements, users: users, images: images, events: events}
}

// AddReviewInput is a review submission.  Image is optional.
type AddReviewInput struct {
	UserID         uint64
	AnnouncementID uint64
	Rating         int
	Comment        string
	Image          *storage.Upload
}

// List returns the announcement's reviews, newest first.
func (s *ReviewService) List(ctx context.Context, announcementID uint64) ([]model.ReviewView, error) {
	list, err := s.reviews.ListByAnnouncement(ctx, announcementID)
	if err != nil {
		return nil, internalError("list reviews", err)
	}
	if list == nil {
		list = []model.ReviewView{}
	}
	return list, nil
}

// Add validates and stores a review together with its anchoring
// reservation.  One review per user and announcement.
func (s *ReviewService) Add(ctx context.Context, in AddReviewInput) (model.ReviewView, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return model.ReviewView{}, apperrors.NewValidationError(MsgInvalidRating)
	}
	comment := strings.TrimSpace(in.Comment)
	if comment == "" {
		return model.ReviewView{}, apperrors.NewValidationError(MsgCommentRequired)
	}
	if in.Image != nil {
		if err := s.validateImage(*in.Image); err != nil {
			return model.ReviewView{}, err
		}
	}
	if _, err := s.announcements.OwnerOf(ctx, in.AnnouncementID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.ReviewView{}, apperrors.NewNotFoundError(MsgAnnouncementNotFound)
		}
		return model.ReviewView{}, internalError("load announcement", err)
	}
	author, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return model.ReviewView{}, internalError("load author", err)
	}

	rv := model.Review{
		UserID:         in.UserID,
		AnnouncementID: in.AnnouncementID,
		Stars:          in.Rating,
		Comment:        comment,
	}
	if in.Image != nil {
		url, err := s.images.Save(*in.Image)
		if err != nil {
			if vErr := imageError(err); vErr != nil {
				return model.ReviewView{}, vErr
			}
			return model.ReviewView{}, internalError("store image", err)
		}
		rv.ImageURL = &url
	}

	if err := s.reviews.CreateWithReservation(ctx, &rv); err != nil {
		s.discardImage(rv.ImageURL)
		switch {
		case errors.Is(err, repository.ErrDuplicateReview):
			return model.ReviewView{}, apperrors.NewConflictError(MsgDuplicateReview)
		case errors.Is(err, repository.ErrNotFound):
			return model.ReviewView{}, apperrors.NewNotFoundError(MsgAnnouncementNotFound)
		}
		return model.ReviewView{}, internalError("create review", err)
	}

	metrics.RecordDomainEvent(metrics.KindReviewCreated)
	publish(ctx, s.events, queue.Event{
		Type:           queue.EventReviewCreated,
		ReservationID:  rv.ReservationID,
		AnnouncementID: rv.AnnouncementID,
		ActorID:        rv.UserID,
		ReviewID:       rv.ID,
		Rating:         rv.Stars,
		OccurredAt:     time.Now().UTC(),
	})
	return model.ReviewView{
		ID:        rv.ID,
		User:      author.Name,
		Rating:    rv.Stars,
		Comment:   rv.Comment,
		ImageURL:  rv.ImageURL,
		Date:      model.SpanishLongDate(rv.CreatedAt),
		CreatedAt: rv.CreatedAt,
	}, nil
}

func (s *ReviewService) validateImage(up storage.Upload) error {
	if s.images == nil {
		return apperrors.NewValidationError(MsgInvalidImageType)
	}
	if err := s.images.Validate(up); err != nil {
		if vErr := imageError(err); vErr != nil {
			return vErr
		}
		return internalError("validate image", err)
	}
	return nil
}

func (s *ReviewService) discardImage(url *string) {
	if url == nil || s.images == nil {
		return
	}
	if err := s.images.Delete(*url); err != nil {
		log.Warn().Err(err).Str("url", *url).Msg("discard review image failed")
	}
}

// imageError maps storage validation errors, or returns nil for others.
func imageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrUnsupportedType):
		return apperrors.NewValidationError(MsgInvalidImageType)
	case errors.Is(err, storage.ErrTooLarge):
		return apperrors.NewValidationError(MsgImageTooLarge)
	}
	return nil
}
