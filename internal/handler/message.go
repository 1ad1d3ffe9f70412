package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/roomlock/roomlock-server/internal/model"
)

// MessageService is the conversation API used by MessageHandler.
type MessageService interface {
	ListConversations(ctx context.Context, userID uint64) ([]model.Conversation, error)
	GetMessages(ctx context.Context, reservationID, userID uint64) (model.ConversationMessages, error)
	Send(ctx context.Context, reservationID, senderID uint64, content string) (model.Message, error)
}

type MessageHandler struct {
	Messages MessageService
}

func NewMessageHandler(s MessageService) *MessageHandler {
	return &MessageHandler{Messages: s}
}

type sendMessageReq struct {
	ReservationID uint64 `json:"reservation_id"`
	Content       string `json:"content"`
}

func (h *MessageHandler) Conversations(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthenticated(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := h.Messages.ListConversations(ctx, uid)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Conversaciones obtenidas exitosamente", list)
}

func (h *MessageHandler) Conversation(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthenticated(c)
	}
	resID, ok := parseID(c.Param("reservationId"))
	if !ok {
		return badRequest(c, "ID de reserva inválido")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	conv, err := h.Messages.GetMessages(ctx, resID, uid)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Mensajes obtenidos exitosamente", conv)
}

func (h *MessageHandler) Send(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthenticated(c)
	}
	var req sendMessageReq
	if err := c.Bind(&req); err != nil || req.ReservationID == 0 {
		return badRequest(c, "Datos incompletos")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	m, err := h.Messages.Send(ctx, req.ReservationID, uid, req.Content)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusCreated, "Mensaje enviado exitosamente", m)
}
