package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/roomlock/roomlock-server/internal/apperrors"
	"github.com/roomlock/roomlock-server/internal/metrics"
	"github.com/roomlock/roomlock-server/internal/model"
	"github.com/roomlock/roomlock-server/internal/queue"
	"github.com/roomlock/roomlock-server/internal/repository"
)

// MaxMessageLength is the longest message body accepted, in characters.
const MaxMessageLength = 2000

// MessageStore persists conversation messages.
type MessageStore interface {
	ListConversations(ctx context.Context, userID uint64) ([]model.Conversation, error)
	ListByReservation(ctx context.Context, reservationID uint64) ([]model.Message, error)
	MarkRead(ctx context.Context, reservationID, readerID uint64) (int64, error)
	Create(ctx context.Context, reservationID, senderID uint64, content string) (model.Message, error)
}

// ReservationAccessStore resolves the participants of a reservation.
type ReservationAccessStore interface {
	GetAccess(ctx context.Context, id uint64) (model.ReservationAccess, error)
}

type MessageService struct {
	messages     MessageStore
	reservations ReservationAccessStore
	events       EventPublisher
}

func NewMessageService(messages MessageStore, reservations ReservationAccessStore, events EventPublisher) *MessageService {
	return &MessageService{messages: messages, reservations: reservations, events: events}
}

// ListConversations returns the user's conversations, newest reservation first.
func (s *MessageService) ListConversations(ctx context.Context, userID uint64) ([]model.Conversation, error) {
	list, err := s.messages.ListConversations(ctx, userID)
	if err != nil {
		return nil, internalError("list conversations", err)
	}
	if list == nil {
		list = []model.Conversation{}
	}
	return list, nil
}

// GetMessages returns the ordered conversation and marks the other
// participant's messages as read.
func (s *MessageService) GetMessages(ctx context.Context, reservationID, userID uint64) (model.ConversationMessages, error) {
	acc, err := s.access(ctx, reservationID, userID, MsgConversationNotFound)
	if err != nil {
		return model.ConversationMessages{}, err
	}
	msgs, err := s.messages.ListByReservation(ctx, reservationID)
	if err != nil {
		return model.ConversationMessages{}, internalError("list messages", err)
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	if _, err := s.messages.MarkRead(ctx, reservationID, userID); err != nil {
		log.Warn().Err(err).Uint64("reservation_id", reservationID).Msg("mark messages read failed")
	}
	return model.ConversationMessages{
		ReservationID: reservationID,
		Announcement:  model.AnnouncementRef{ID: acc.AnnouncementID, Title: acc.AnnouncementTitle},
		Participant:   acc.Counterpart(userID),
		Messages:      msgs,
	}, nil
}

// Send appends a message from senderID to the conversation.
func (s *MessageService) Send(ctx context.Context, reservationID, senderID uint64, content string) (model.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return model.Message{}, apperrors.NewValidationError(MsgIncompleteData)
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return model.Message{}, apperrors.NewValidationError(MsgMessageTooLong)
	}
	acc, err := s.access(ctx, reservationID, senderID, MsgReservationNotFound)
	if err != nil {
		return model.Message{}, err
	}
	m, err := s.messages.Create(ctx, reservationID, senderID, content)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Message{}, apperrors.NewNotFoundError(MsgReservationNotFound)
		}
		return model.Message{}, internalError("create message", err)
	}

	metrics.RecordDomainEvent(metrics.KindMessageSent)
	publish(ctx, s.events, queue.Event{
		Type:           queue.EventMessageSent,
		ReservationID:  reservationID,
		AnnouncementID: acc.AnnouncementID,
		ActorID:        senderID,
		RecipientID:    acc.Counterpart(senderID).ID,
		MessageID:      m.ID,
		OccurredAt:     time.Now().UTC(),
	})
	return m, nil
}

func (s *MessageService) access(ctx context.Context, reservationID, userID uint64, notFound string) (model.ReservationAccess, error) {
	acc, err := s.reservations.GetAccess(ctx, reservationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.ReservationAccess{}, apperrors.NewNotFoundError(notFound)
		}
		return model.ReservationAccess{}, internalError("load reservation", err)
	}
	if !acc.Contact {
		return model.ReservationAccess{}, apperrors.NewNotFoundError(notFound)
	}
	if !acc.IsParticipant(userID) {
		return model.ReservationAccess{}, apperrors.NewForbiddenError(MsgAccessDenied)
	}
	return acc, nil
}
