package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomlock/roomlock-server/internal/apperrors"
	"github.com/roomlock/roomlock-server/internal/middleware"
	"github.com/roomlock/roomlock-server/internal/model"
	"github.com/roomlock/roomlock-server/internal/service"
)

// call runs h with an optional JSON body and an authenticated user (0 means
// anonymous).  Path params are name/value pairs.
func call(t *testing.T, h echo.HandlerFunc, method, target string, body any, uid uint64, params ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(bs)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	return run(t, h, req, uid, params...)
}

func run(t *testing.T, h echo.HandlerFunc, req *http.Request, uid uint64, params ...string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if uid != 0 {
		c.Set(middleware.ContextUserID, uid)
	}
	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	require.NoError(t, h(c))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

type stubAuth struct {
	registerErr error
	loginErr    error
	gotInput    service.RegisterInput
}

func (s *stubAuth) Register(_ context.Context, in service.RegisterInput) (model.User, error) {
	s.gotInput = in
	if s.registerErr != nil {
		return model.User{}, s.registerErr
	}
	return model.User{ID: 1, Name: in.Name, Email: in.Email, Role: model.RoleStudent, PasswordHash: "secret-hash"}, nil
}

func (s *stubAuth) Login(_ context.Context, email, _ string) (service.LoginResult, error) {
	if s.loginErr != nil {
		return service.LoginResult{}, s.loginErr
	}
	return service.LoginResult{Token: "tok", ExpiresAt: time.Now().Add(time.Hour), User: model.User{ID: 1, Email: email}}, nil
}

func (s *stubAuth) Me(_ context.Context, id uint64) (model.User, error) {
	return model.User{ID: id, Name: "Juan"}, nil
}

func TestAuthHandler_Register(t *testing.T) {
	auth := &stubAuth{}
	h := NewAuthHandler(auth)

	rec := call(t, h.Register, http.MethodPost, "/api/auth/register",
		map[string]any{"name": "Juan", "email": "juan@uni.edu.pe", "password": "pw123", "phone": "999"}, 0)
	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Usuario registrado exitosamente", body["message"])
	assert.NotContains(t, rec.Body.String(), "secret-hash")
	require.NotNil(t, auth.gotInput.Phone)
	assert.Equal(t, "999", *auth.gotInput.Phone)

	auth.registerErr = apperrors.NewValidationError(service.MsgDuplicateEmail)
	rec = call(t, h.Register, http.MethodPost, "/api/auth/register",
		map[string]any{"name": "Juan", "email": "juan@uni.edu.pe", "password": "pw123"}, 0)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, service.MsgDuplicateEmail, decode(t, rec)["error"])
}

func TestAuthHandler_Login(t *testing.T) {
	auth := &stubAuth{}
	h := NewAuthHandler(auth)

	rec := call(t, h.Login, http.MethodPost, "/api/auth/login", map[string]any{"email": "a@b.pe", "password": "x"}, 0)
	assert.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, "tok", data["token"])

	auth.loginErr = apperrors.NewUnauthorizedError(service.MsgInvalidCredentials)
	rec = call(t, h.Login, http.MethodPost, "/api/auth/login", map[string]any{"email": "a@b.pe", "password": "x"}, 0)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_MeRequiresUser(t *testing.T) {
	h := NewAuthHandler(&stubAuth{})
	rec := call(t, h.Me, http.MethodGet, "/api/auth/me", nil, 0)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(t, h.Me, http.MethodGet, "/api/auth/me", nil, 5)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":5`)
}

func TestRespondError_UnknownErrorIs500(t *testing.T) {
	h := func(c echo.Context) error { return respondError(c, errors.New("db exploded")) }
	rec := call(t, h, http.MethodGet, "/", nil, 0)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Error interno del servidor", decode(t, rec)["error"])
	assert.NotContains(t, rec.Body.String(), "exploded")
}

func TestGetUserID(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	_, err := getUserID(c)
	assert.Error(t, err)
	c.Set(middleware.ContextUserID, "12")
	id, err := getUserID(c)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), id)
}

type stubAnnouncements struct {
	filter   model.AnnouncementFilter
	featured int
}

func (s *stubAnnouncements) ListAll(_ context.Context, f model.AnnouncementFilter) ([]model.Announcement, error) {
	s.filter = f
	return []model.Announcement{}, nil
}

func (s *stubAnnouncements) ListFeatured(_ context.Context, limit int) ([]model.Announcement, error) {
	s.featured = limit
	return []model.Announcement{{ID: 1}}, nil
}

func (s *stubAnnouncements) Get(_ context.Context, id uint64) (model.Announcement, error) {
	if id != 1 {
		return model.Announcement{}, apperrors.NewNotFoundError(service.MsgAnnouncementNotFound)
	}
	return model.Announcement{ID: 1, Title: "Cuarto"}, nil
}

func (s *stubAnnouncements) ListForOwner(context.Context, uint64) (model.OwnerDashboard, error) {
	return model.OwnerDashboard{Announcements: []model.OwnerAnnouncement{}, Statistics: model.OwnerStatistics{Total: 0}}, nil
}

func TestAnnouncementHandler_List(t *testing.T) {
	s := &stubAnnouncements{}
	h := NewAnnouncementHandler(s)

	rec := call(t, h.List, http.MethodGet, "/api/announcements?limit=4", nil, 0)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4, s.featured)
	assert.Equal(t, "Anuncios obtenidos exitosamente", decode(t, rec)["message"])

	rec = call(t, h.List, http.MethodGet, "/api/announcements?district=Miraflores&min_price=500&max_price=900&q=luz&service=wifi", nil, 0)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Miraflores", s.filter.District)
	require.NotNil(t, s.filter.MinPrice)
	assert.Equal(t, 500.0, *s.filter.MinPrice)
	assert.Equal(t, 900.0, *s.filter.MaxPrice)
	assert.Equal(t, "luz", s.filter.Query)
	assert.Equal(t, "wifi", s.filter.Service)

	for _, q := range []string{"limit=abc", "min_price=-1", "max_price=cheap"} {
		rec = call(t, h.List, http.MethodGet, "/api/announcements?"+q, nil, 0)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestAnnouncementHandler_Get(t *testing.T) {
	h := NewAnnouncementHandler(&stubAnnouncements{})

	rec := call(t, h.Get, http.MethodGet, "/api/announcements/1", nil, 0, "id", "1")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, h.Get, http.MethodGet, "/api/announcements/2", nil, 0, "id", "2")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, service.MsgAnnouncementNotFound, decode(t, rec)["error"])

	rec = call(t, h.Get, http.MethodGet, "/api/announcements/x", nil, 0, "id", "x")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnnouncementHandler_MyAnnouncements(t *testing.T) {
	h := NewAnnouncementHandler(&stubAnnouncements{})
	rec := call(t, h.MyAnnouncements, http.MethodGet, "/api/announcements/my-announcements", nil, 3)
	assert.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]any)
	assert.Contains(t, data, "announcements")
	assert.Contains(t, data, "statistics")
}

// memFavorites mimics FavoriteService over a set.
type memFavorites struct{ set map[uint64]bool }

func (m *memFavorites) Add(_ context.Context, _, annID uint64) (model.Favorite, error) {
	if annID == 404 {
		return model.Favorite{}, apperrors.NewNotFoundError(service.MsgAnnouncementNotFound)
	}
	if m.set[annID] {
		return model.Favorite{}, apperrors.NewConflictError(service.MsgAlreadyFavorited)
	}
	m.set[annID] = true
	return model.Favorite{ID: 1, AnnouncementID: annID}, nil
}

func (m *memFavorites) Remove(_ context.Context, _, annID uint64) error {
	if !m.set[annID] {
		return apperrors.NewNotFoundError(service.MsgNotFavorited)
	}
	delete(m.set, annID)
	return nil
}

func (m *memFavorites) List(context.Context, uint64) ([]model.FavoriteAnnouncement, error) {
	out := []model.FavoriteAnnouncement{}
	for id := range m.set {
		out = append(out, model.FavoriteAnnouncement{ID: id, IsFavorite: true})
	}
	return out, nil
}

func (m *memFavorites) IsFavorite(_ context.Context, _, annID uint64) (bool, error) {
	return m.set[annID], nil
}

func TestFavoriteHandler_Scenario(t *testing.T) {
	h := NewFavoriteHandler(&memFavorites{set: map[uint64]bool{}})
	add := map[string]any{"announcement_id": 7}

	rec := call(t, h.Add, http.MethodPost, "/api/favorites", add, 2)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Agregado a favoritos", decode(t, rec)["message"])

	rec = call(t, h.List, http.MethodGet, "/api/favorites", nil, 2)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 1)

	rec = call(t, h.Check, http.MethodGet, "/api/favorites/7/check", nil, 2, "announcementId", "7")
	assert.Equal(t, true, decode(t, rec)["data"].(map[string]any)["is_favorite"])

	rec = call(t, h.Add, http.MethodPost, "/api/favorites", add, 2)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = call(t, h.Remove, http.MethodDelete, "/api/favorites/7", nil, 2, "announcementId", "7")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Eliminado de favoritos", decode(t, rec)["message"])

	rec = call(t, h.Remove, http.MethodDelete, "/api/favorites/7", nil, 2, "announcementId", "7")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, service.MsgNotFavorited, decode(t, rec)["error"])
}

func TestFavoriteHandler_BadInput(t *testing.T) {
	h := NewFavoriteHandler(&memFavorites{set: map[uint64]bool{}})

	rec := call(t, h.Add, http.MethodPost, "/api/favorites", map[string]any{}, 2)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = call(t, h.Add, http.MethodPost, "/api/favorites", map[string]any{"announcement_id": 404}, 2)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = call(t, h.Remove, http.MethodDelete, "/api/favorites/abc", nil, 2, "announcementId", "abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = call(t, h.List, http.MethodGet, "/api/favorites", nil, 0)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type stubReservations struct{ ids map[uint64]uint64 }

func (s *stubReservations) CreateOrGet(_ context.Context, studentID, annID uint64) (model.ReservationDetail, error) {
	if studentID == 1 {
		return model.ReservationDetail{}, apperrors.NewValidationError(service.MsgSelfContact)
	}
	id, ok := s.ids[annID]
	if !ok {
		id = uint64(len(s.ids) + 1)
		s.ids[annID] = id
	}
	return model.ReservationDetail{Reservation: model.Reservation{ID: id, State: model.ReservationPending}}, nil
}

func TestReservationHandler_Create(t *testing.T) {
	h := NewReservationHandler(&stubReservations{ids: map[uint64]uint64{}})
	req := map[string]any{"announcement_id": 5}

	first := call(t, h.Create, http.MethodPost, "/api/reservations", req, 2)
	second := call(t, h.Create, http.MethodPost, "/api/reservations", req, 2)
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	d1 := decode(t, first)["data"].(map[string]any)
	d2 := decode(t, second)["data"].(map[string]any)
	assert.Equal(t, d1["id"], d2["id"])
	assert.Equal(t, "pendiente", d1["state"])
	assert.Equal(t, "Reserva creada/obtenida exitosamente", decode(t, first)["message"])

	rec := call(t, h.Create, http.MethodPost, "/api/reservations", req, 1)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, service.MsgSelfContact, decode(t, rec)["error"])

	rec = call(t, h.Create, http.MethodPost, "/api/reservations", map[string]any{}, 2)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type stubMessages struct{ sent []string }

func (s *stubMessages) ListConversations(context.Context, uint64) ([]model.Conversation, error) {
	return []model.Conversation{{ReservationID: 1}}, nil
}

func (s *stubMessages) GetMessages(_ context.Context, resID, userID uint64) (model.ConversationMessages, error) {
	if resID == 404 {
		return model.ConversationMessages{}, apperrors.NewNotFoundError(service.MsgConversationNotFound)
	}
	if userID == 3 {
		return model.ConversationMessages{}, apperrors.NewForbiddenError(service.MsgAccessDenied)
	}
	return model.ConversationMessages{ReservationID: resID, Messages: []model.Message{}}, nil
}

func (s *stubMessages) Send(_ context.Context, resID, senderID uint64, content string) (model.Message, error) {
	if strings.TrimSpace(content) == "" {
		return model.Message{}, apperrors.NewValidationError(service.MsgIncompleteData)
	}
	s.sent = append(s.sent, content)
	return model.Message{ID: 1, ReservationID: resID, SenderID: senderID, Content: content}, nil
}

func TestMessageHandler(t *testing.T) {
	stub := &stubMessages{}
	h := NewMessageHandler(stub)

	rec := call(t, h.Conversations, http.MethodGet, "/api/messages/conversations", nil, 2)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Conversaciones obtenidas exitosamente", decode(t, rec)["message"])

	rec = call(t, h.Conversation, http.MethodGet, "/api/messages/conversation/1", nil, 2, "reservationId", "1")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = call(t, h.Conversation, http.MethodGet, "/api/messages/conversation/1", nil, 3, "reservationId", "1")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = call(t, h.Conversation, http.MethodGet, "/api/messages/conversation/404", nil, 2, "reservationId", "404")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(t, h.Send, http.MethodPost, "/api/messages/send", map[string]any{"reservation_id": 1, "content": "Hola"}, 2)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Mensaje enviado exitosamente", decode(t, rec)["message"])
	assert.Equal(t, []string{"Hola"}, stub.sent)

	rec = call(t, h.Send, http.MethodPost, "/api/messages/send", map[string]any{"reservation_id": 1, "content": " "}, 2)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type stubReviews struct{ got service.AddReviewInput }

func (s *stubReviews) List(context.Context, uint64) ([]model.ReviewView, error) {
	return []model.ReviewView{{ID: 1, User: "Juan", Rating: 5, Date: "5 de marzo de 2024"}}, nil
}

func (s *stubReviews) Add(_ context.Context, in service.AddReviewInput) (model.ReviewView, error) {
	s.got = in
	if in.Image != nil {
		bs, _ := io.ReadAll(in.Image.Body)
		if string(bs) != "PNGDATA" {
			return model.ReviewView{}, errors.New("unexpected image body")
		}
	}
	return model.ReviewView{ID: 9, User: "Juan", Rating: in.Rating, Comment: in.Comment}, nil
}

func multipartReview(t *testing.T, fields map[string]string, withImage bool) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if withImage {
		fw, err := w.CreateFormFile("image", "room.png")
		require.NoError(t, err)
		_, err = fw.Write([]byte("PNGDATA"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/announcements/5/reviews", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func TestReviewHandler_Add(t *testing.T) {
	stub := &stubReviews{}
	h := NewReviewHandler(stub)

	rec := run(t, h.Add, multipartReview(t, map[string]string{"rating": "5", "comment": "Genial"}, true), 2, "id", "5")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Review agregado exitosamente", decode(t, rec)["message"])
	assert.Equal(t, uint64(5), stub.got.AnnouncementID)
	require.NotNil(t, stub.got.Image)
	assert.Equal(t, "room.png", stub.got.Image.Filename)

	rec = run(t, h.Add, multipartReview(t, map[string]string{"rating": "4", "comment": "Bien"}, false), 2, "id", "5")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Nil(t, stub.got.Image)

	rec = run(t, h.Add, multipartReview(t, map[string]string{"rating": "cinco", "comment": "x"}, false), 2, "id", "5")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, service.MsgInvalidRating, decode(t, rec)["error"])

	rec = run(t, h.Add, multipartReview(t, map[string]string{"rating": "5"}, false), 0, "id", "5")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReviewHandler_List(t *testing.T) {
	h := NewReviewHandler(&stubReviews{})
	rec := call(t, h.List, http.MethodGet, "/api/announcements/5/reviews", nil, 0, "id", "5")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Reviews obtenidos exitosamente", decode(t, rec)["message"])
	assert.Contains(t, rec.Body.String(), "5 de marzo de 2024")
}

func TestHealthAndStatus(t *testing.T) {
	rec := call(t, Health, http.MethodGet, "/healthz", nil, 0)
	assert.Equal(t, "ok", rec.Body.String())
	rec = call(t, Status, http.MethodGet, "/api/status", nil, 0)
	assert.Equal(t, "Servidor RoomLock activo", decode(t, rec)["message"])
}
