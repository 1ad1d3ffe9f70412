package service

import (
	"context"
	"errors"
	"strings"

	"github.com/roomlock/roomlock-server/internal/apperrors"
	"github.com/roomlock/roomlock-server/internal/model"
	"github.com/roomlock/roomlock-server/internal/repository"
)

// MaxListLimit caps the number of announcements returned by one listing.
const MaxListLimit = 100

// AnnouncementStore reads announcements.
type AnnouncementStore interface {
	AnnouncementOwners
	List(ctx context.Context, f model.AnnouncementFilter) ([]model.Announcement, error)
	Get(ctx context.Context, id uint64) (model.Announcement, error)
	IncrementViews(ctx context.Context, id uint64) error
	ListForOwner(ctx context.Context, ownerID uint64) ([]model.OwnerAnnouncement, error)
}

type AnnouncementService struct {
	store AnnouncementStore
}

func NewAnnouncementService(store AnnouncementStore) *AnnouncementService {
	return &AnnouncementService{store: store}
}

// ListAll returns the public catalogue, newest first.
func (s *AnnouncementService) ListAll(ctx context.Context, f model.AnnouncementFilter) ([]model.Announcement, error) {
	f.District = strings.TrimSpace(f.District)
	f.Query = strings.TrimSpace(f.Query)
	f.Service = strings.TrimSpace(f.Service)
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return nil, apperrors.NewValidationError(MsgInvalidPriceRange)
	}
	if f.Limit < 0 {
		f.Limit = 0
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	list, err := s.store.List(ctx, f)
	if err != nil {
		return nil, internalError("list announcements", err)
	}
	if list == nil {
		list = []model.Announcement{}
	}
	return list, nil
}

// ListFeatured returns the newest limit announcements.
func (s *AnnouncementService) ListFeatured(ctx context.Context, limit int) ([]model.Announcement, error) {
	if limit <= 0 {
		limit = 4
	}
	return s.ListAll(ctx, model.AnnouncementFilter{Limit: limit})
}

// Get returns one announcement and counts the view.
func (s *AnnouncementService) Get(ctx context.Context, id uint64) (model.Announcement, error) {
	if err := s.store.IncrementViews(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Announcement{}, apperrors.NewNotFoundError(MsgAnnouncementNotFound)
		}
		return model.Announcement{}, internalError("count view", err)
	}
	a, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Announcement{}, apperrors.NewNotFoundError(MsgAnnouncementNotFound)
		}
		return model.Announcement{}, internalError("get announcement", err)
	}
	return a, nil
}

// ListForOwner builds the owner dashboard.
func (s *AnnouncementService) ListForOwner(ctx context.Context, ownerID uint64) (model.OwnerDashboard, error) {
	rows, err := s.store.ListForOwner(ctx, ownerID)
	if err != nil {
		return model.OwnerDashboard{}, internalError("list owner announcements", err)
	}
	if rows == nil {
		rows = []model.OwnerAnnouncement{}
	}
	d := model.OwnerDashboard{Announcements: rows}
	for _, a := range rows {
		d.Statistics.Total++
		if a.State == model.StateActive {
			d.Statistics.Active++
		}
		d.Statistics.Views += a.Views
		d.Statistics.Inquiries += a.Inquiries
	}
	return d, nil
}
