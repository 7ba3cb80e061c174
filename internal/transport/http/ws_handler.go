package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"trivia-room-service/internal/app"
	"trivia-room-service/internal/domain"
)

type WSHandler struct {
	service  *app.RoomService
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewWSHandler(service *app.RoomService, logger zerolog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: logger,
	}
}

// ServeWS upgrades HTTP requests to websockets and wires them into the room use cases.
// Every connection gets a fresh opaque handle; identity goes no further than that.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}

	client := NewClient(conn, uuid.NewString(), h.log)
	ctx := context.WithoutCancel(r.Context())
	h.service.Connect(client)
	h.log.Debug().Str("handle", client.Handle()).Msg("client connected")

	go client.writePump()
	client.readPump(func(data []byte) {
		h.dispatch(ctx, client, data)
	})

	h.service.Disconnect(ctx, client.Handle())
	_ = client.Close()
	h.log.Debug().Str("handle", client.Handle()).Msg("client disconnected")
}

func (h *WSHandler) dispatch(ctx context.Context, c *Client, data []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		sendError(c, ErrCodeInvalidMessage, "Invalid message format")
		return
	}

	handle := c.Handle()
	var err error
	switch msg.Type {
	case MsgHostCreate:
		_, err = h.service.CreateRoom(ctx, handle)
	case MsgHostUpdateQuestions:
		var p updateQuestionsPayload
		if !decode(c, msg.Payload, &p) {
			return
		}
		desired, _ := domain.CoerceInt(p.QuestionCount)
		_, err = h.service.UpdateQuestions(ctx, handle, p.Pin, p.Questions, p.BankID, desired)
	case MsgHostStart:
		var p startPayload
		if !decode(c, msg.Payload, &p) {
			return
		}
		count, _ := domain.CoerceInt(p.QuestionCount)
		err = h.service.Start(ctx, handle, p.Pin, count, p.Shuffle)
	case MsgHostReveal:
		var p pinPayload
		if !decode(c, msg.Payload, &p) {
			return
		}
		err = h.service.Reveal(ctx, handle, p.Pin)
	case MsgHostLeaderboard:
		var p pinPayload
		if !decode(c, msg.Payload, &p) {
			return
		}
		err = h.service.ShowLeaderboard(ctx, handle, p.Pin)
	case MsgHostNext:
		var p pinPayload
		if !decode(c, msg.Payload, &p) {
			return
		}
		err = h.service.Next(ctx, handle, p.Pin)
	case MsgHostEnd:
		var p pinPayload
		if !decode(c, msg.Payload, &p) {
			return
		}
		err = h.service.End(ctx, handle, p.Pin)
	case MsgPlayerJoin:
		var p joinPayload
		if !decode(c, msg.Payload, &p) {
			return
		}
		err = h.service.Join(ctx, handle, p.Pin, domain.CoerceText(p.Name))
		if errors.Is(err, domain.ErrRoomNotFound) {
			_ = c.Send(domain.Event{Type: domain.EventJoinError, Payload: domain.MessagePayload{Message: "Invalid PIN"}})
			return
		}
	case MsgPlayerAnswer:
		var p answerPayload
		if !decode(c, msg.Payload, &p) {
			return
		}
		err = h.service.Answer(ctx, handle, p.Pin, p.Choices)
	case MsgPing:
		_ = c.Send(domain.Event{Type: domain.EventPong})
		return
	default:
		sendError(c, ErrCodeInvalidMessage, "Unknown message type")
		return
	}

	if err != nil {
		h.reportError(c, msg.Type, err)
	}
}

// reportError maps application errors onto client messages. Authorization and
// phase errors are dropped so they reveal nothing about the room.
func (h *WSHandler) reportError(c *Client, msgType string, err error) {
	switch {
	case app.IsSilent(err):
		h.log.Debug().Err(err).Str("handle", c.Handle()).Str("type", msgType).Msg("command ignored")
	case errors.Is(err, domain.ErrRoomNotFound):
		sendError(c, ErrCodeRoomNotFound, "Room not found")
	case errors.Is(err, domain.ErrNoQuestions):
		sendError(c, ErrCodeNoQuestions, "Room has no questions")
	case errors.Is(err, domain.ErrBankNotFound):
		sendError(c, ErrCodeBankNotFound, "Question bank not found")
	default:
		h.log.Error().Err(err).Str("handle", c.Handle()).Str("type", msgType).Msg("command failed")
		sendError(c, ErrCodeInternalError, "Something went wrong")
	}
}

func decode(c *Client, raw json.RawMessage, dst any) bool {
	if len(raw) == 0 {
		return true
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		sendError(c, ErrCodeInvalidMessage, "Invalid payload")
		return false
	}
	return true
}

func sendError(c *Client, code, message string) {
	_ = c.Send(domain.Event{Type: domain.EventError, Payload: domain.MessagePayload{Code: code, Message: message}})
}
