package service

import (
	"context"
	"errors"

	"github.com/roomlock/roomlock-server/internal/apperrors"
	"github.com/roomlock/roomlock-server/internal/metrics"
	"github.com/roomlock/roomlock-server/internal/model"
	"github.com/roomlock/roomlock-server/internal/repository"
)

// FavoriteStore persists favorites.
type FavoriteStore interface {
	Add(ctx context.Context, userID, announcementID uint64) (model.Favorite, error)
	Remove(ctx context.Context, userID, announcementID uint64) error
	Exists(ctx context.Context, userID, announcementID uint64) (bool, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.FavoriteAnnouncement, error)
}

type FavoriteService struct {
	favorites     FavoriteStore
	announcements AnnouncementOwners
}

func NewFavoriteService(favorites FavoriteStore, announcements AnnouncementOwners) *FavoriteService {
	return &FavoriteService{favorites: favorites, announcements: announcements}
}

// Add favorites an announcement.  Duplicates are detected by the store's
// unique key, so two concurrent adds yield one success and one conflict.
func (s *FavoriteService) Add(ctx context.Context, userID, announcementID uint64) (model.Favorite, error) {
	if _, err := s.announcements.OwnerOf(ctx, announcementID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Favorite{}, apperrors.NewNotFoundError(MsgAnnouncementNotFound)
		}
		return model.Favorite{}, internalError("load announcement", err)
	}
	f, err := s.favorites.Add(ctx, userID, announcementID)
	switch {
	case errors.Is(err, repository.ErrAlreadyFavorited):
		return model.Favorite{}, apperrors.NewConflictError(MsgAlreadyFavorited)
	case errors.Is(err, repository.ErrNotFound):
		return model.Favorite{}, apperrors.NewNotFoundError(MsgAnnouncementNotFound)
	case err != nil:
		return model.Favorite{}, internalError("add favorite", err)
	}
	metrics.RecordDomainEvent(metrics.KindFavoriteAdded)
	return f, nil
}

func (s *FavoriteService) Remove(ctx context.Context, userID, announcementID uint64) error {
	err := s.favorites.Remove(ctx, userID, announcementID)
	switch {
	case errors.Is(err, repository.ErrNotFavorited):
		return apperrors.NewNotFoundError(MsgNotFavorited)
	case err != nil:
		return internalError("remove favorite", err)
	}
	metrics.RecordDomainEvent(metrics.KindFavoriteRemoved)
	return nil
}

func (s *FavoriteService) List(ctx context.Context, userID uint64) ([]model.FavoriteAnnouncement, error) {
	list, err := s.favorites.ListByUser(ctx, userID)
	if err != nil {
		return nil, internalError("list favorites", err)
	}
	if list == nil {
		list = []model.FavoriteAnnouncement{}
	}
	return list, nil
}

func (s *FavoriteService) IsFavorite(ctx context.Context, userID, announcementID uint64) (bool, error) {
	ok, err := s.favorites.Exists(ctx, userID, announcementID)
	if err != nil {
		return false, internalError("check favorite", err)
	}
	return ok, nil
}
