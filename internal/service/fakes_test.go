package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/roomlock/roomlock-server/internal/model"
	"github.com/roomlock/roomlock-server/internal/queue"
	"github.com/roomlock/roomlock-server/internal/repository"
	"github.com/roomlock/roomlock-server/internal/storage"
)

var errBoom = errors.New("boom")

type fakeUsers struct {
	mu     sync.Mutex
	nextID uint64
	byID   map[uint64]model.User
}

func newFakeUsers() *fakeUsers { return &fakeUsers{byID: map[uint64]model.User{}} }

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now().UTC()
	f.byID[u.ID] = *u
	return nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

// fakeOwners maps announcement id to owner id.
type fakeOwners map[uint64]uint64

func (f fakeOwners) OwnerOf(_ context.Context, id uint64) (uint64, error) {
	owner, ok := f[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return owner, nil
}

type favKey struct{ user, ann uint64 }

type fakeFavorites struct {
	mu  sync.Mutex
	set map[favKey]model.Favorite
	seq uint64
}

func newFakeFavorites() *fakeFavorites { return &fakeFavorites{set: map[favKey]model.Favorite{}} }

func (f *fakeFavorites) Add(_ context.Context, userID, annID uint64) (model.Favorite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := favKey{userID, annID}
	if _, ok := f.set[k]; ok {
		return model.Favorite{}, repository.ErrAlreadyFavorited
	}
	f.seq++
	fav := model.Favorite{ID: f.seq, UserID: userID, AnnouncementID: annID, CreatedAt: time.Now().UTC()}
	f.set[k] = fav
	return fav, nil
}

func (f *fakeFavorites) Remove(_ context.Context, userID, annID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := favKey{userID, annID}
	if _, ok := f.set[k]; !ok {
		return repository.ErrNotFavorited
	}
	delete(f.set, k)
	return nil
}

func (f *fakeFavorites) Exists(_ context.Context, userID, annID uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.set[favKey{userID, annID}]
	return ok, nil
}

func (f *fakeFavorites) ListByUser(_ context.Context, userID uint64) ([]model.FavoriteAnnouncement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.FavoriteAnnouncement
	for k := range f.set {
		if k.user == userID {
			out = append(out, model.FavoriteAnnouncement{ID: k.ann, IsFavorite: true})
		}
	}
	return out, nil
}

type fakeReservations struct {
	mu      sync.Mutex
	seq     uint64
	byPair  map[favKey]uint64
	anchors map[uint64]favKey
	owners  fakeOwners
}

func newFakeReservations(owners fakeOwners) *fakeReservations {
	return &fakeReservations{byPair: map[favKey]uint64{}, anchors: map[uint64]favKey{}, owners: owners}
}

// addReviewAnchor stores a non-contact reservation like the one written
// alongside a review.
func (f *fakeReservations) addReviewAnchor(studentID, annID uint64) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	f.anchors[f.seq] = favKey{studentID, annID}
	return f.seq
}

func (f *fakeReservations) CreateOrGetContact(_ context.Context, studentID, annID uint64) (uint64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := favKey{studentID, annID}
	if id, ok := f.byPair[k]; ok {
		return id, false, nil
	}
	f.seq++
	f.byPair[k] = f.seq
	return f.seq, true, nil
}

func (f *fakeReservations) lookup(id uint64) (favKey, bool) {
	for k, v := range f.byPair {
		if v == id {
			return k, true
		}
	}
	return favKey{}, false
}

func (f *fakeReservations) GetDetail(_ context.Context, id uint64) (model.ReservationDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k, ok := f.lookup(id)
	if !ok {
		return model.ReservationDetail{}, repository.ErrNotFound
	}
	return model.ReservationDetail{
		Reservation: model.Reservation{
			ID: id, StudentID: k.user, AnnouncementID: k.ann,
			State: model.ReservationPending, Contact: true,
		},
		Announcement: model.ReservationAnnouncement{ID: k.ann},
	}, nil
}

func (f *fakeReservations) GetAccess(_ context.Context, id uint64) (model.ReservationAccess, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	contact := true
	k, ok := f.lookup(id)
	if !ok {
		k, ok = f.anchors[id]
		contact = false
	}
	if !ok {
		return model.ReservationAccess{}, repository.ErrNotFound
	}
	return model.ReservationAccess{
		ReservationID: id,
		Contact:       contact,
		StudentID:     k.user, StudentName: "Juan", StudentRole: model.RoleStudent,
		OwnerID: f.owners[k.ann], OwnerName: "María", OwnerRole: model.RoleOwner,
		AnnouncementID: k.ann, AnnouncementTitle: "Cuarto en Miraflores",
	}, nil
}

type fakeMessages struct {
	mu       sync.Mutex
	seq      uint64
	byRes    map[uint64][]model.Message
	markedBy []uint64
}

func newFakeMessages() *fakeMessages { return &fakeMessages{byRes: map[uint64][]model.Message{}} }

func (f *fakeMessages) ListConversations(context.Context, uint64) ([]model.Conversation, error) {
	return nil, nil
}

func (f *fakeMessages) ListByReservation(_ context.Context, resID uint64) ([]model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Message(nil), f.byRes[resID]...), nil
}

func (f *fakeMessages) MarkRead(_ context.Context, resID, readerID uint64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markedBy = append(f.markedBy, readerID)
	var n int64
	now := time.Now().UTC()
	for i, m := range f.byRes[resID] {
		if m.SenderID != readerID && m.ReadAt == nil {
			f.byRes[resID][i].ReadAt = &now
			n++
		}
	}
	return n, nil
}

func (f *fakeMessages) Create(_ context.Context, resID, senderID uint64, content string) (model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	m := model.Message{ID: f.seq, ReservationID: resID, SenderID: senderID, Content: content, SentDate: time.Now().UTC()}
	f.byRes[resID] = append(f.byRes[resID], m)
	return m, nil
}

type fakeReviews struct {
	mu    sync.Mutex
	seq   uint64
	pairs map[favKey]bool
	err   error
}

func newFakeReviews() *fakeReviews { return &fakeReviews{pairs: map[favKey]bool{}} }

func (f *fakeReviews) ListByAnnouncement(context.Context, uint64) ([]model.ReviewView, error) {
	return nil, nil
}

func (f *fakeReviews) CreateWithReservation(_ context.Context, rv *model.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	k := favKey{rv.UserID, rv.AnnouncementID}
	if f.pairs[k] {
		return repository.ErrDuplicateReview
	}
	f.pairs[k] = true
	f.seq++
	rv.ID = f.seq
	rv.ReservationID = 100 + f.seq
	rv.CreatedAt = time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)
	return nil
}

type fakeImages struct {
	validateErr error
	saved       []string
	deleted     []string
}

func (f *fakeImages) Validate(storage.Upload) error { return f.validateErr }

func (f *fakeImages) Save(up storage.Upload) (string, error) {
	url := "/uploads/review-" + up.Filename
	f.saved = append(f.saved, url)
	return url, nil
}

func (f *fakeImages) Delete(url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fakeAnnouncements struct {
	fakeOwners
	views   map[uint64]int
	list    []model.Announcement
	filter  model.AnnouncementFilter
	owned   []model.OwnerAnnouncement
	listErr error
}

func (f *fakeAnnouncements) List(_ context.Context, flt model.AnnouncementFilter) ([]model.Announcement, error) {
	f.filter = flt
	return f.list, f.listErr
}

func (f *fakeAnnouncements) Get(_ context.Context, id uint64) (model.Announcement, error) {
	if _, ok := f.fakeOwners[id]; !ok {
		return model.Announcement{}, repository.ErrNotFound
	}
	return model.Announcement{ID: id, Views: f.views[id]}, nil
}

func (f *fakeAnnouncements) IncrementViews(_ context.Context, id uint64) error {
	if _, ok := f.fakeOwners[id]; !ok {
		return repository.ErrNotFound
	}
	f.views[id]++
	return nil
}

func (f *fakeAnnouncements) ListForOwner(context.Context, uint64) ([]model.OwnerAnnouncement, error) {
	return f.owned, nil
}
