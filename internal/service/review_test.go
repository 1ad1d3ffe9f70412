package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/roomlock/roomlock-server/internal/apperrors"
	"github.com/roomlock/roomlock-server/internal/queue"
	"github.com/roomlock/roomlock-server/internal/storage"
)

type reviewFixture struct {
	svc     *ReviewService
	reviews *fakeReviews
	images  *fakeImages
	pub     *recordingPublisher
	userID  uint64
}

func newReviewFixture(t *testing.T) reviewFixture {
	t.Helper()
	users := newFakeUsers()
	u, err := NewAuthService(users, "s", 0, bcrypt.MinCost).
		Register(context.Background(), RegisterInput{Name: "Juan", Email: "juan@uni.edu.pe", Password: "pw123"})
	require.NoError(t, err)
	f := reviewFixture{reviews: newFakeReviews(), images: &fakeImages{}, pub: &recordingPublisher{}, userID: u.ID}
	f.svc = NewReviewService(f.reviews, fakeOwners{5: 99}, users, f.images, f.pub)
	return f
}

func TestAddReview(t *testing.T) {
	f := newReviewFixture(t)
	img := &storage.Upload{Filename: "a.png", ContentType: "image/png", Body: strings.NewReader("x")}

	v, err := f.svc.Add(context.Background(), AddReviewInput{
		UserID: f.userID, AnnouncementID: 5, Rating: 4, Comment: " Muy bueno ", Image: img,
	})
	require.NoError(t, err)
	assert.Equal(t, "Juan", v.User)
	assert.Equal(t, 4, v.Rating)
	assert.Equal(t, "Muy bueno", v.Comment)
	assert.Equal(t, "5 de marzo de 2024", v.Date)
	require.NotNil(t, v.ImageURL)
	assert.Equal(t, f.images.saved[0], *v.ImageURL)

	require.Len(t, f.pub.events, 1)
	assert.Equal(t, queue.EventReviewCreated, f.pub.events[0].Type)
	assert.Equal(t, 4, f.pub.events[0].Rating)
}

func TestAddReview_Duplicate(t *testing.T) {
	f := newReviewFixture(t)
	in := AddReviewInput{UserID: f.userID, AnnouncementID: 5, Rating: 5, Comment: "ok"}
	_, err := f.svc.Add(context.Background(), in)
	require.NoError(t, err)

	in.Image = &storage.Upload{Filename: "b.jpg"}
	_, err = f.svc.Add(context.Background(), in)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeConflict, appErr.Type)
	assert.Equal(t, MsgDuplicateReview, appErr.Message)
	assert.Equal(t, f.images.saved, f.images.deleted)
}

func TestAddReview_Validation(t *testing.T) {
	f := newReviewFixture(t)
	cases := []struct {
		name string
		in   AddReviewInput
		msg  string
	}{
		{"rating zero", AddReviewInput{Rating: 0, Comment: "x"}, MsgInvalidRating},
		{"rating six", AddReviewInput{Rating: 6, Comment: "x"}, MsgInvalidRating},
		{"blank comment", AddReviewInput{Rating: 3, Comment: "  "}, MsgCommentRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.in.UserID, tc.in.AnnouncementID = f.userID, 5
			_, err := f.svc.Add(context.Background(), tc.in)
			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, tc.msg, appErr.Message)
		})
	}
}

func TestAddReview_ImageRejected(t *testing.T) {
	for _, tc := range []struct {
		err error
		msg string
	}{
		{storage.ErrUnsupportedType, MsgInvalidImageType},
		{storage.ErrTooLarge, MsgImageTooLarge},
	} {
		f := newReviewFixture(t)
		f.images.validateErr = tc.err
		_, err := f.svc.Add(context.Background(), AddReviewInput{
			UserID: f.userID, AnnouncementID: 5, Rating: 3, Comment: "x",
			Image: &storage.Upload{Filename: "evil.exe"},
		})
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, tc.msg, appErr.Message)
		assert.Empty(t, f.images.saved)
	}
}

func TestAddReview_UnknownAnnouncement(t *testing.T) {
	f := newReviewFixture(t)
	_, err := f.svc.Add(context.Background(), AddReviewInput{UserID: f.userID, AnnouncementID: 6, Rating: 3, Comment: "x"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestAddReview_StoreFailureDiscardsImage(t *testing.T) {
	f := newReviewFixture(t)
	f.reviews.err = errBoom
	_, err := f.svc.Add(context.Background(), AddReviewInput{
		UserID: f.userID, AnnouncementID: 5, Rating: 3, Comment: "x",
		Image: &storage.Upload{Filename: "c.webp"},
	})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
	assert.Len(t, f.images.deleted, 1)
}
