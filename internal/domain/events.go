package domain

// Outbound event names.
const (
	EventRoomCreated      = "room:created"
	EventQuestionsUpdated = "host:questions_updated"
	EventRoomJoined       = "room:joined"
	EventJoinError        = "join:error"
	EventRoster           = "room:players"
	EventGameStarted      = "game:started"
	EventQuestion         = "game:question"
	EventAnswerReceived   = "answer:received"
	EventAnswerDuplicate  = "answer:duplicate"
	EventProgress         = "question:progress"
	EventReveal           = "game:reveal"
	EventLeaderboard      = "game:leaderboard"
	EventEnded            = "game:ended"
	EventError            = "error"
	EventPong             = "pong"
)

// Reasons carried by game:ended.
const (
	ReasonHostDisconnected = "Host disconnected"
	ReasonHostEnded        = "Host ended the game"
	ReasonFinished         = "Game finished"
	ReasonExpired          = "Room expired"
)

// Event is a server-to-client message.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type RoomCreatedPayload struct {
	Pin           string `json:"pin"`
	QuestionCount int    `json:"questionCount"`
}

type QuestionsUpdatedPayload struct {
	QuestionCount int `json:"questionCount"`
	Available     int `json:"available"`
}

type RoomJoinedPayload struct {
	Pin  string `json:"pin"`
	Name string `json:"name"`
}

type MessagePayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type RosterPayload struct {
	Players []Standing `json:"players"`
}

type GameStartedPayload struct {
	Total int `json:"total"`
}

// QuestionPayload is the public view of a question; it never carries the answer.
type QuestionPayload struct {
	Index        int      `json:"index"`
	Total        int      `json:"total"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	NumCorrect   int      `json:"numCorrect"`
	TimeLimitSec int      `json:"timeLimitSec,omitempty"`
}

type AnswerAckPayload struct {
	Choices []int `json:"choices"`
	Already bool  `json:"already,omitempty"`
}

type ProgressPayload struct {
	Remaining int `json:"remaining"`
	Answered  int `json:"answered"`
}

type RevealPayload struct {
	Index            int           `json:"index"`
	Total            int           `json:"total"`
	CorrectIndices   []int         `json:"correctIndices"`
	PerPlayerResults []RoundResult `json:"perPlayerResults"`
}

type LeaderboardPayload struct {
	Leaderboard []Standing `json:"leaderboard"`
}

type EndedPayload struct {
	Reason      string     `json:"reason,omitempty"`
	Leaderboard []Standing `json:"leaderboard"`
}

// PublicQuestion builds the payload shown to players for the question at a zero-based index.
func PublicQuestion(q Question, index, total int) QuestionPayload {
	return QuestionPayload{
		Index:        index + 1,
		Total:        total,
		Text:         q.Text,
		Options:      q.Options,
		NumCorrect:   q.NumCorrect,
		TimeLimitSec: q.TimeLimitSec,
	}
}
