package http

import "encoding/json"

// Inbound message types.
const (
	MsgHostCreate          = "host:create"
	MsgHostUpdateQuestions = "host:update_questions"
	MsgHostStart           = "host:start"
	MsgHostReveal          = "host:reveal"
	MsgHostLeaderboard     = "host:leaderboard"
	MsgHostNext            = "host:next"
	MsgHostEnd             = "host:end"
	MsgPlayerJoin          = "player:join"
	MsgPlayerAnswer        = "player:answer"
	MsgPing                = "ping"
)

// Error codes sent in error payloads.
const (
	ErrCodeInvalidMessage = "INVALID_MESSAGE"
	ErrCodeRoomNotFound   = "ROOM_NOT_FOUND"
	ErrCodeNoQuestions    = "NO_QUESTIONS"
	ErrCodeBankNotFound   = "BANK_NOT_FOUND"
	ErrCodeInternalError  = "INTERNAL_ERROR"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type pinPayload struct {
	Pin string `json:"pin"`
}

// Loosely typed fields are sanitized by the domain layer.
type updateQuestionsPayload struct {
	Pin           string `json:"pin"`
	Questions     any    `json:"questions"`
	QuestionCount any    `json:"questionCount"`
	BankID        string `json:"bankId"`
}

type startPayload struct {
	Pin           string `json:"pin"`
	QuestionCount any    `json:"questionCount"`
	Shuffle       bool   `json:"shuffle"`
}

type joinPayload struct {
	Pin  string `json:"pin"`
	Name any    `json:"name"`
}

type answerPayload struct {
	Pin     string `json:"pin"`
	Choices any    `json:"choices"`
}
